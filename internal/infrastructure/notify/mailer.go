// Package notify delivers verification email through Mailgun.
package notify

import (
	"context"
	"fmt"
	"net/url"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"

	"github.com/mathvisuals/account-api/internal/core/ports"
)

const sendTimeout = 10 * time.Second

// Config holds the Mailgun account settings and the public base URL used to
// build verification links.
type Config struct {
	Domain  string
	APIKey  string
	Sender  string
	BaseURL string
}

// Mailer implements ports.Notifier on top of Mailgun.
type Mailer struct {
	cfg Config
}

func NewMailer(cfg Config) *Mailer {
	return &Mailer{cfg: cfg}
}

// SendVerification renders the verification email and sends it to the
// notice's address. The caller (the dispatcher) owns the failure policy.
func (m *Mailer) SendVerification(ctx context.Context, notice ports.VerificationNotice) error {
	verifyURL := fmt.Sprintf("%s/verify?token=%s", m.cfg.BaseURL, url.QueryEscape(notice.Token))

	html, text, err := renderVerification(verificationData{
		Name:      notice.Name,
		VerifyURL: verifyURL,
	})
	if err != nil {
		return fmt.Errorf("render verification email: %w", err)
	}

	client := mg.NewMailgun(m.cfg.Domain, m.cfg.APIKey)
	msg := client.NewMessage(m.cfg.Sender, "Account verification", text, notice.Email)
	msg.SetHtml(html)

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if _, _, err := client.Send(sendCtx, msg); err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}
	return nil
}
