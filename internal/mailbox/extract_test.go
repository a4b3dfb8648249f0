// internal/mailbox/extract_test.go
package mailbox_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/linkforge-cli/internal/mailbox"
)

func TestExtractLinks(t *testing.T) {
	t.Run("anchor hrefs and bare urls", func(t *testing.T) {
		html := `<html><body>
			<a href="https://example.com/verify?token=abc">Verify</a>
			<p>Or copy this: https://example.com/help</p>
		</body></html>`
		text := "Plain fallback: https://example.com/alt"

		links := mailbox.ExtractLinks(html, text)
		assert.Equal(t, []string{
			"https://example.com/verify?token=abc",
			"https://example.com/help",
			"https://example.com/alt",
		}, links)
	})

	t.Run("trailing punctuation trimmed", func(t *testing.T) {
		text := "Click https://example.com/confirm. Then https://example.com/a), or https://example.com/b;"
		links := mailbox.ExtractLinks("", text)
		assert.Equal(t, []string{
			"https://example.com/confirm",
			"https://example.com/a",
			"https://example.com/b",
		}, links)
	})

	t.Run("duplicates collapse to first occurrence", func(t *testing.T) {
		html := `<a href="https://example.com/x">once</a><a href="https://example.com/x">twice</a>`
		links := mailbox.ExtractLinks(html, "https://example.com/x")
		assert.Equal(t, []string{"https://example.com/x"}, links)
	})

	t.Run("relative and non-http hrefs ignored", func(t *testing.T) {
		html := `<a href="/local">local</a><a href="mailto:x@y.z">mail</a><a href="https://ok.example">ok</a>`
		links := mailbox.ExtractLinks(html, "")
		assert.Equal(t, []string{"https://ok.example"}, links)
	})

	t.Run("empty bodies yield nothing", func(t *testing.T) {
		assert.Empty(t, mailbox.ExtractLinks("", ""))
	})
}

func TestChooseVerificationLink(t *testing.T) {
	t.Run("keyword link wins over earlier plain link", func(t *testing.T) {
		links := []string{
			"https://example.com/unsubscribe",
			"https://example.com/account/confirm?code=9",
		}
		link, ok := mailbox.ChooseVerificationLink(links, "example.com")
		require.True(t, ok)
		assert.Equal(t, "https://example.com/account/confirm?code=9", link)
	})

	t.Run("falls back to first domain link", func(t *testing.T) {
		links := []string{
			"https://other.net/verify",
			"https://example.com/home",
			"https://example.com/about",
		}
		link, ok := mailbox.ChooseVerificationLink(links, "example.com")
		require.True(t, ok)
		assert.Equal(t, "https://example.com/home", link)
	})

	t.Run("no domain match means no link", func(t *testing.T) {
		_, ok := mailbox.ChooseVerificationLink([]string{"https://other.net/verify"}, "example.com")
		assert.False(t, ok)
	})

	t.Run("domain match is case-insensitive", func(t *testing.T) {
		link, ok := mailbox.ChooseVerificationLink(
			[]string{"https://Example.COM/Activate?k=1"}, "example.com")
		require.True(t, ok)
		assert.Equal(t, "https://Example.COM/Activate?k=1", link)
	})
}
