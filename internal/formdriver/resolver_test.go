// internal/formdriver/resolver_test.go
package formdriver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/linkforge-cli/internal/formdriver"
)

func TestStrategies(t *testing.T) {
	t.Run("semantic name expands to full precedence", func(t *testing.T) {
		sts := formdriver.Strategies("email")
		require.Len(t, sts, 5)
		assert.Equal(t, "direct", sts[0].Name)
		assert.Equal(t, "placeholder", sts[1].Name)
		assert.Equal(t, "label", sts[2].Name)
		assert.Equal(t, "name", sts[3].Name)
		assert.Equal(t, "id", sts[4].Name)

		assert.Equal(t, "email", sts[0].Query)
		assert.Contains(t, sts[1].Query, `placeholder*="email" i`)
		assert.Equal(t, formdriver.KindLabel, sts[2].Kind)
		assert.Equal(t, `[name="email"]`, sts[3].Query)
		assert.Equal(t, `[id="email"]`, sts[4].Query)
	})

	t.Run("css selector gets direct strategy only", func(t *testing.T) {
		for _, candidate := range []string{
			`input[name="user_login"]`,
			"#pword",
			"form .submit > button",
			`input[type="image"][alt="register"]`,
		} {
			sts := formdriver.Strategies(candidate)
			require.Len(t, sts, 1, "candidate %q", candidate)
			assert.Equal(t, "direct", sts[0].Name)
			assert.Equal(t, candidate, sts[0].Query)
		}
	})

	t.Run("underscored field names are semantic", func(t *testing.T) {
		sts := formdriver.Strategies("first_name")
		assert.Len(t, sts, 5)
	})
}
