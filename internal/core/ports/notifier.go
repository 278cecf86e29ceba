package ports

import "context"

// VerificationNotice is the payload handed to the notification pipeline
// after a successful signup.
type VerificationNotice struct {
	Name  string
	Email string
	Token string
}

// Notifier delivers a verification message to the destination address.
// Delivery is best-effort; errors are logged by the dispatcher, never
// surfaced to the request that triggered them.
type Notifier interface {
	SendVerification(ctx context.Context, notice VerificationNotice) error
}

// NotificationDispatcher accepts notices for asynchronous delivery.
type NotificationDispatcher interface {
	Enqueue(notice VerificationNotice)
}
