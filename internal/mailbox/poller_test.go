// internal/mailbox/poller_test.go
package mailbox_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/linkforge-cli/internal/mailbox"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

// fakeMailClient scripts per-round search results.
type fakeMailClient struct {
	rounds []searchRound
	calls  int
}

type searchRound struct {
	messages []mailbox.Message
	err      error
}

func (f *fakeMailClient) SearchUnreadFrom(ctx context.Context, domain string) ([]mailbox.Message, error) {
	round := f.rounds[min(f.calls, len(f.rounds)-1)]
	f.calls++
	return round.messages, round.err
}

func (f *fakeMailClient) Close() error { return nil }

func TestAwaitVerificationLink(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("keyword link preferred within one message", func(t *testing.T) {
		client := &fakeMailClient{rounds: []searchRound{{
			messages: []mailbox.Message{{
				HTML: `<a href="https://example.com/welcome">hi</a>
				       <a href="https://example.com/verify?t=1">verify</a>`,
			}},
		}}}
		p := mailbox.NewPoller(client, 10*time.Millisecond, zap.NewNop())
		link, err := p.AwaitVerificationLink(context.Background(), "example.com", time.Second)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/verify?t=1", link)
	})

	t.Run("newest message inspected first", func(t *testing.T) {
		client := &fakeMailClient{rounds: []searchRound{{
			messages: []mailbox.Message{
				{Text: "old: https://example.com/confirm?c=old"},
				{Text: "new: https://example.com/confirm?c=new"},
			},
		}}}
		p := mailbox.NewPoller(client, 10*time.Millisecond, zap.NewNop())
		link, err := p.AwaitVerificationLink(context.Background(), "example.com", time.Second)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/confirm?c=new", link)
	})

	t.Run("timeout is bounded", func(t *testing.T) {
		client := &fakeMailClient{rounds: []searchRound{{}}}
		p := mailbox.NewPoller(client, 20*time.Millisecond, zap.NewNop())

		start := time.Now()
		_, err := p.AwaitVerificationLink(context.Background(), "example.com", 100*time.Millisecond)
		elapsed := time.Since(start)

		assert.ErrorIs(t, err, mailbox.ErrVerificationTimeout)
		// Bounded by max wait plus at most one extra poll interval.
		assert.Less(t, elapsed, 200*time.Millisecond)
	})

	t.Run("transient search errors are tolerated", func(t *testing.T) {
		client := &fakeMailClient{rounds: []searchRound{
			{err: errors.New("connection reset")},
			{messages: []mailbox.Message{{Text: "https://example.com/activate?k=2"}}},
		}}
		p := mailbox.NewPoller(client, 10*time.Millisecond, zap.NewNop())
		link, err := p.AwaitVerificationLink(context.Background(), "example.com", time.Second)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/activate?k=2", link)
		assert.GreaterOrEqual(t, client.calls, 2)
	})

	t.Run("context cancellation unblocks the wait", func(t *testing.T) {
		client := &fakeMailClient{rounds: []searchRound{{}}}
		p := mailbox.NewPoller(client, 50*time.Millisecond, zap.NewNop())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()
		_, err := p.AwaitVerificationLink(ctx, "example.com", time.Minute)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("only the five newest messages are scanned", func(t *testing.T) {
		messages := make([]mailbox.Message, 0, 7)
		// The only link-bearing messages are the two oldest; they fall
		// outside the window.
		messages = append(messages,
			mailbox.Message{Text: "https://example.com/verify?old=1"},
			mailbox.Message{Text: "https://example.com/verify?old=2"},
		)
		for i := 0; i < 5; i++ {
			messages = append(messages, mailbox.Message{Text: "no links here"})
		}
		client := &fakeMailClient{rounds: []searchRound{{messages: messages}}}
		p := mailbox.NewPoller(client, 10*time.Millisecond, zap.NewNop())

		_, err := p.AwaitVerificationLink(context.Background(), "example.com", 50*time.Millisecond)
		assert.ErrorIs(t, err, mailbox.ErrVerificationTimeout)
	})
}
