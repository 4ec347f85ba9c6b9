package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/forms-api/internal/pkg/retry"
	"github.com/ignite/forms-api/internal/submission"
)

// spyGateway fails the first failures sends, then succeeds.
type spyGateway struct {
	mu       sync.Mutex
	calls    int
	failures int
	err      error
	sent     []*Message
	done     chan struct{} // closed on first terminal outcome, if set
}

func (g *spyGateway) Send(ctx context.Context, msg *Message) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.calls <= g.failures {
		return "", g.err
	}
	g.sent = append(g.sent, msg)
	if g.done != nil {
		close(g.done)
		g.done = nil
	}
	return "msg-id", nil
}

func (g *spyGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func fastRetry() retry.Config {
	return retry.Config{
		MaxAttempts: 3,
		Backoff: retry.Backoff{
			InitialDelay: time.Microsecond,
			Multiplier:   2,
			MaxDelay:     time.Millisecond,
		},
		IsNonRetryable: retry.DefaultNonRetryable,
	}
}

func testSender() SenderConfig {
	return SenderConfig{
		From:            "noreply@example.com",
		FromName:        "Example",
		AdminRecipients: []string{"team@example.com"},
	}
}

func TestSendCriticalRetriesThenSucceeds(t *testing.T) {
	gw := &spyGateway{failures: 1, err: errors.New("transient")}
	d := NewDispatcher(gw, testSender(), fastRetry())

	err := d.SendCritical(context.Background(), "contact-confirmation",
		[]string{"jane@x.com"}, "subject", "<p>hi</p>", "hi")
	require.NoError(t, err)
	assert.Equal(t, 2, gw.callCount())

	require.Len(t, gw.sent, 1)
	assert.Equal(t, []string{"jane@x.com"}, gw.sent[0].To)
	assert.Equal(t, "noreply@example.com", gw.sent[0].From)
}

func TestSendCriticalExhaustionPropagates(t *testing.T) {
	gw := &spyGateway{failures: 100, err: errors.New("gateway down")}
	d := NewDispatcher(gw, testSender(), fastRetry())

	err := d.SendCritical(context.Background(), "contact-confirmation",
		[]string{"jane@x.com"}, "subject", "html", "text")
	require.Error(t, err)

	var ne *submission.NotificationError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, "contact-confirmation", ne.Kind)
	assert.Equal(t, 3, gw.callCount(), "bounded by MaxAttempts")
}

func TestSendCriticalNonRetryableAborts(t *testing.T) {
	gw := &spyGateway{
		failures: 100,
		err:      &submission.StatusError{Code: 400, Err: errors.New("bad recipient")},
	}
	d := NewDispatcher(gw, testSender(), fastRetry())

	err := d.SendCritical(context.Background(), "waitlist-confirmation",
		[]string{"bad@"}, "subject", "html", "text")
	require.Error(t, err)
	assert.Equal(t, 1, gw.callCount(), "permanent failures are not retried")
}

func TestSendNonCriticalSwallowsFailure(t *testing.T) {
	gw := &spyGateway{failures: 100, err: errors.New("gateway down")}
	d := NewDispatcher(gw, testSender(), fastRetry())

	// Must not panic, must not propagate anything.
	d.SendNonCritical(context.Background(), "admin-alert",
		[]string{"team@example.com"}, "subject", "html", "")
	assert.Equal(t, 3, gw.callCount())
}

func TestDispatchNonCriticalDoesNotBlockCaller(t *testing.T) {
	done := make(chan struct{})
	gw := &spyGateway{done: done}
	d := NewDispatcher(gw, testSender(), fastRetry())

	ctx, cancel := context.WithCancel(context.Background())
	d.DispatchNonCritical(ctx, "admin-alert", []string{"team@example.com"}, "s", "h", "")
	// Simulate the request finishing immediately; the detached send must
	// still complete.
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("fire-and-forget send did not complete")
	}
	require.Len(t, gw.sent, 1)
}

func TestNotifyAdminsNoRecipientsIsNoop(t *testing.T) {
	gw := &spyGateway{}
	sender := testSender()
	sender.AdminRecipients = nil
	d := NewDispatcher(gw, sender, fastRetry())

	d.NotifyAdmins(context.Background(), "admin-alert", "s", "h")
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 0, gw.callCount())
}
