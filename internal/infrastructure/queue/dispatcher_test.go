package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mathvisuals/account-api/internal/core/ports"
)

type captureNotifier struct {
	mu   sync.Mutex
	sent []ports.VerificationNotice
	err  error
}

func (n *captureNotifier) SendVerification(_ context.Context, notice ports.VerificationNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, notice)
	return nil
}

func (n *captureNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type memoryGuard struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newMemoryGuard() *memoryGuard {
	return &memoryGuard{seen: make(map[string]bool)}
}

func (g *memoryGuard) AlreadySent(_ context.Context, token string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seen[token], nil
}

func (g *memoryGuard) Mark(_ context.Context, token string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seen[token] = true
	return nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within deadline")
}

func TestDispatcher_DeliversNotices(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := &captureNotifier{}
	d := NewDispatcher(2, notifier, nil, zerolog.Nop())
	d.Start(ctx)

	d.Enqueue(ports.VerificationNotice{Name: "Ada", Email: "ada@x.com", Token: "t1"})
	d.Enqueue(ports.VerificationNotice{Name: "Bob", Email: "bob@x.com", Token: "t2"})

	waitFor(t, func() bool { return notifier.count() == 2 })
}

func TestDispatcher_SkipsAlreadySentTokens(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := &captureNotifier{}
	guard := newMemoryGuard()
	d := NewDispatcher(1, notifier, guard, zerolog.Nop())
	d.Start(ctx)

	notice := ports.VerificationNotice{Name: "Ada", Email: "ada@x.com", Token: "t1"}
	d.Enqueue(notice)
	waitFor(t, func() bool { return notifier.count() == 1 })

	// Replay of the same token must not send a second email.
	d.Enqueue(notice)
	d.Enqueue(ports.VerificationNotice{Name: "Bob", Email: "ada@x.com", Token: "t2"})
	waitFor(t, func() bool { return notifier.count() == 2 })

	if got := notifier.count(); got != 2 {
		t.Fatalf("expected 2 deliveries, got %d", got)
	}
}

func TestDispatcher_FailureDoesNotPropagate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := &captureNotifier{err: errors.New("smtp down")}
	guard := newMemoryGuard()
	d := NewDispatcher(1, notifier, guard, zerolog.Nop())
	d.Start(ctx)

	// Enqueue must not panic or block on delivery failure.
	d.Enqueue(ports.VerificationNotice{Name: "Ada", Email: "ada@x.com", Token: "t1"})
	time.Sleep(50 * time.Millisecond)

	if got := notifier.count(); got != 0 {
		t.Fatalf("expected no successful deliveries, got %d", got)
	}
	// A failed delivery must not be marked as sent, so a retry can succeed.
	if sent, _ := guard.AlreadySent(context.Background(), "t1"); sent {
		t.Fatalf("failed delivery marked as sent")
	}
}

func TestDispatcher_ShardIsStable(t *testing.T) {
	d := NewDispatcher(4, &captureNotifier{}, nil, zerolog.Nop())
	a := d.shardIndex("ada@x.com")
	for i := 0; i < 10; i++ {
		if d.shardIndex("ada@x.com") != a {
			t.Fatalf("shard index not deterministic")
		}
	}
}
