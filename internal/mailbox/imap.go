// internal/mailbox/imap.go
package mailbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/xkilldash9x/linkforge-cli/internal/config"
	"go.uber.org/zap"
)

// IMAPClient retrieves verification mail over IMAP with TLS.
type IMAPClient struct {
	client *imapclient.Client
	folder string
	logger *zap.Logger
}

var _ Client = (*IMAPClient)(nil)

// DialIMAP connects, authenticates, and selects the configured folder.
func DialIMAP(cfg config.MailboxConfig, logger *zap.Logger) (*IMAPClient, error) {
	c, err := imapclient.DialTLS(cfg.Server, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", cfg.Server, err)
	}
	if err := c.Login(cfg.Address, cfg.Password).Wait(); err != nil {
		c.Close()
		return nil, fmt.Errorf("imap login for %s: %w", cfg.Address, err)
	}

	folder := cfg.Folder
	if folder == "" {
		folder = "INBOX"
	}
	if _, err := c.Select(folder, nil).Wait(); err != nil {
		c.Close()
		return nil, fmt.Errorf("selecting folder %s: %w", folder, err)
	}

	logger.Debug("Mailbox connected",
		zap.String("server", cfg.Server), zap.String("folder", folder))

	return &IMAPClient{client: c, folder: folder, logger: logger.Named("mailbox")}, nil
}

// SearchUnreadFrom returns unread messages whose From header matches the
// domain, oldest first.
func (m *IMAPClient) SearchUnreadFrom(ctx context.Context, domain string) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	criteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
		Header: []imap.SearchCriteriaHeaderField{
			{Key: "From", Value: domain},
		},
	}
	data, err := m.client.Search(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap search: %w", err)
	}
	seqNums := data.AllSeqNums()
	if len(seqNums) == 0 {
		return nil, nil
	}

	section := &imap.FetchItemBodySection{}
	fetched, err := m.client.Fetch(imap.SeqSetNum(seqNums...), &imap.FetchOptions{
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{section},
	}).Collect()
	if err != nil {
		return nil, fmt.Errorf("imap fetch: %w", err)
	}

	messages := make([]Message, 0, len(fetched))
	for _, buf := range fetched {
		msg := Message{}
		if env := buf.Envelope; env != nil {
			msg.Subject = env.Subject
			msg.Date = env.Date
			if len(env.From) > 0 {
				msg.From = env.From[0].Addr()
			}
		}
		raw := buf.FindBodySection(section)
		if len(raw) > 0 {
			html, text := parseBodies(raw)
			msg.HTML = html
			msg.Text = text
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// parseBodies walks the MIME structure and concatenates the inline HTML and
// plaintext parts. Parse failures yield whatever was collected so far; a
// partially readable message is still worth scanning for links.
func parseBodies(raw []byte) (html, text string) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return "", string(raw)
	}
	var htmlParts, textParts []string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		inline, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, err := inline.ContentType()
		if err != nil {
			continue
		}
		body, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}
		switch contentType {
		case "text/html":
			htmlParts = append(htmlParts, string(body))
		default:
			textParts = append(textParts, string(body))
		}
	}
	return strings.Join(htmlParts, "\n"), strings.Join(textParts, "\n")
}

// Close logs out and disconnects.
func (m *IMAPClient) Close() error {
	if err := m.client.Logout().Wait(); err != nil {
		// Logout failing does not block the disconnect.
		m.logger.Debug("IMAP logout failed", zap.Error(err))
	}
	return m.client.Close()
}
