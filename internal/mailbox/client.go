// internal/mailbox/client.go
package mailbox

import (
	"context"
	"time"
)

// Message is one retrieved mail message, reduced to what link extraction
// needs.
type Message struct {
	From    string
	Subject string
	Date    time.Time
	HTML    string
	Text    string
}

// Client is the mail-retrieval capability. The production implementation
// speaks IMAP; tests substitute fakes.
type Client interface {
	// SearchUnreadFrom returns unread messages whose sender matches the
	// domain, in chronological order (oldest first).
	SearchUnreadFrom(ctx context.Context, domain string) ([]Message, error)
	// Close logs out and disconnects.
	Close() error
}
