// internal/identity/identity.go
package identity

import (
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
)

// Identity is the synthetic persona used to register on one site. Created
// once per site, immutable afterwards except for ProfileURL, which is
// attached when a listing is created.
type Identity struct {
	FirstName string
	LastName  string
	FullName  string
	Username  string
	Email     string
	Password  string
	Website   string
	Bio       string
	Company   string
	Phone     string
	Address   string
	City      string
	Country   string

	ProfileURL string
}

// Generator produces identities. The email, password, and website are fixed
// per run; names and contact fields are faked per site.
type Generator struct {
	faker    *gofakeit.Faker
	email    string
	password string
	website  string
}

// NewGenerator seeds a generator. seed zero means non-deterministic output.
func NewGenerator(email, password, website string, seed uint64) *Generator {
	return &Generator{
		faker:    gofakeit.New(seed),
		email:    email,
		password: password,
		website:  website,
	}
}

// New builds a fresh identity. Usernames carry a random numeric suffix to
// dodge collisions with earlier runs.
func (g *Generator) New() Identity {
	first := g.faker.FirstName()
	last := g.faker.LastName()
	addr := g.faker.Address()

	return Identity{
		FirstName: first,
		LastName:  last,
		FullName:  first + " " + last,
		Username:  g.username(first, last),
		Email:     g.email,
		Password:  g.password,
		Website:   g.website,
		Bio:       g.faker.Sentence(12),
		Company:   g.faker.Company(),
		Phone:     g.faker.Phone(),
		Address:   addr.Address,
		City:      addr.City,
		Country:   addr.Country,
	}
}

func (g *Generator) username(first, last string) string {
	base := strings.ToLower(first + last)
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, base)
	return fmt.Sprintf("%s%04d", base, g.faker.Number(0, 9999))
}

// FieldValue maps the fixed field-name vocabulary used by site field maps to
// the identity's values. Unknown names yield an empty string.
func (id Identity) FieldValue(name string) string {
	switch name {
	case "username", "nickname":
		return id.Username
	case "email", "confirm_email", "email_again":
		return id.Email
	case "password", "confirm_password":
		return id.Password
	case "first_name":
		return id.FirstName
	case "last_name":
		return id.LastName
	case "name":
		return id.FullName
	case "phone":
		return id.Phone
	case "website":
		return id.Website
	case "company":
		return id.Company
	case "bio":
		return id.Bio
	case "address":
		return id.Address
	case "city":
		return id.City
	case "country":
		return id.Country
	default:
		return ""
	}
}
