// internal/browser/session_test.go
package browser

import (
	"testing"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/xkilldash9x/linkforge-cli/internal/config"
)

func TestAllocatorOptions(t *testing.T) {
	base := len(chromedp.DefaultExecAllocatorOptions)

	t.Run("includes viewport flags and user agent", func(t *testing.T) {
		cfg := config.BrowserConfig{
			Headless:       true,
			UserAgent:      "test-agent",
			ViewportWidth:  1280,
			ViewportHeight: 720,
		}
		opts := allocatorOptions(cfg)
		assert.Equal(t, base+6, len(opts))
	})

	t.Run("omits user agent when unset", func(t *testing.T) {
		opts := allocatorOptions(config.BrowserConfig{})
		assert.Equal(t, base+5, len(opts))
	})

	t.Run("extra args become flags", func(t *testing.T) {
		cfg := config.BrowserConfig{
			Args: []string{"--proxy-server=socks5://localhost:1080", "--disable-extensions"},
		}
		opts := allocatorOptions(cfg)
		assert.Equal(t, base+7, len(opts))
	})
}

func TestNamedKeys(t *testing.T) {
	for _, key := range []string{"Enter", "Tab", "ArrowDown", "ArrowUp", "Escape", "Backspace"} {
		_, ok := namedKeys[key]
		assert.True(t, ok, "key %s should be mapped", key)
	}
}
