// internal/mailbox/poller.go
package mailbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrVerificationTimeout is returned when no verification link arrives
// before the deadline.
var ErrVerificationTimeout = errors.New("mailbox: verification link did not arrive in time")

// recentMessageWindow caps how many of the newest matches are inspected per
// poll round.
const recentMessageWindow = 5

// Poller repeatedly searches the mailbox for a verification link. The wait
// is synchronous from the caller's perspective; the calling flow suspends
// until link-found or timeout.
type Poller struct {
	client   Client
	interval time.Duration
	logger   *zap.Logger
}

// NewPoller builds a Poller over a mail client.
func NewPoller(client Client, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Poller{client: client, interval: interval, logger: logger.Named("mailbox")}
}

// AwaitVerificationLink polls for an unread message from the domain carrying
// a verification link, inspecting up to the five newest matches per round in
// reverse chronological order. Transient search errors are logged and the
// poll continues until maxWait elapses.
func (p *Poller) AwaitVerificationLink(ctx context.Context, domain string, maxWait time.Duration) (string, error) {
	deadline := time.Now().Add(maxWait)
	p.logger.Info("Waiting for verification mail",
		zap.String("domain", domain), zap.Duration("max_wait", maxWait))

	for attempt := 1; ; attempt++ {
		if link, found := p.pollOnce(ctx, domain, attempt); found {
			p.logger.Info("Verification link found", zap.String("link", link))
			return link, nil
		}
		if time.Now().After(deadline) {
			return "", fmt.Errorf("%w: domain %s after %s", ErrVerificationTimeout, domain, maxWait)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(p.interval):
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context, domain string, attempt int) (string, bool) {
	messages, err := p.client.SearchUnreadFrom(ctx, domain)
	if err != nil {
		// One failed round is not fatal; mail servers hiccup.
		p.logger.Warn("Mailbox poll failed, will retry",
			zap.Int("attempt", attempt), zap.Error(err))
		return "", false
	}
	if len(messages) == 0 {
		p.logger.Debug("No matching mail yet", zap.Int("attempt", attempt))
		return "", false
	}

	start := len(messages) - recentMessageWindow
	if start < 0 {
		start = 0
	}
	recent := messages[start:]
	for i := len(recent) - 1; i >= 0; i-- {
		msg := recent[i]
		links := ExtractLinks(msg.HTML, msg.Text)
		if link, ok := ChooseVerificationLink(links, domain); ok {
			p.logger.Debug("Link extracted from message",
				zap.String("subject", msg.Subject), zap.Int("links", len(links)))
			return link, true
		}
	}
	return "", false
}
