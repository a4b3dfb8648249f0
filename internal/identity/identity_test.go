// internal/identity/identity_test.go
package identity_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xkilldash9x/linkforge-cli/internal/identity"
)

func TestGeneratorNew(t *testing.T) {
	g := identity.NewGenerator("box@example.com", "s3cret", "https://target.example", 42)
	id := g.New()

	assert.NotEmpty(t, id.FirstName)
	assert.NotEmpty(t, id.LastName)
	assert.Equal(t, id.FirstName+" "+id.LastName, id.FullName)
	assert.Equal(t, "box@example.com", id.Email)
	assert.Equal(t, "s3cret", id.Password)
	assert.Equal(t, "https://target.example", id.Website)
	assert.Regexp(t, regexp.MustCompile(`^[a-z0-9]+\d{4}$`), id.Username)
	assert.Empty(t, id.ProfileURL)
}

func TestUsernamesVary(t *testing.T) {
	g := identity.NewGenerator("box@example.com", "s3cret", "https://target.example", 0)
	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		seen[g.New().Username] = true
	}
	// Random naming makes exact counts unstable, but ten identical
	// usernames would mean the suffixing is broken.
	assert.Greater(t, len(seen), 1)
}

func TestFieldValue(t *testing.T) {
	id := identity.Identity{
		FirstName: "Ada",
		LastName:  "Lovelace",
		FullName:  "Ada Lovelace",
		Username:  "adalovelace0001",
		Email:     "box@example.com",
		Password:  "pw",
		Website:   "https://target.example",
		Phone:     "0123",
	}

	assert.Equal(t, "adalovelace0001", id.FieldValue("username"))
	assert.Equal(t, "adalovelace0001", id.FieldValue("nickname"))
	assert.Equal(t, "box@example.com", id.FieldValue("email"))
	assert.Equal(t, "pw", id.FieldValue("password"))
	assert.Equal(t, "pw", id.FieldValue("confirm_password"))
	assert.Equal(t, "Ada", id.FieldValue("first_name"))
	assert.Equal(t, "Lovelace", id.FieldValue("last_name"))
	assert.Equal(t, "Ada Lovelace", id.FieldValue("name"))
	assert.Equal(t, "0123", id.FieldValue("phone"))
	assert.Equal(t, "", id.FieldValue("unknown_field"))
}
