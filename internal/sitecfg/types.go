// internal/sitecfg/types.go
package sitecfg

import "time"

// FieldMap maps a canonical field name to its ordered selector candidates.
// Candidates are tried in order; first resolution wins.
type FieldMap map[string][]string

// Site is the static, read-only descriptor of one target directory site.
type Site struct {
	Key     string
	Name    string
	Domain  string
	BaseURL string

	Registration Registration
	Verification Verification
	Login        Login
	Listing      *Listing
	Profile      *Profile
	PublicURL    PublicURL

	HasCaptcha bool
}

// Registration describes the sign-up form.
type Registration struct {
	URL             string
	Fields          FieldMap
	TermsCheckbox   []string
	Submit          []string
	WaitAfterSubmit time.Duration
}

// Verification describes the email confirmation step, when a site has one.
type Verification struct {
	Required         bool
	RedirectsToLogin bool
	MaxWait          time.Duration
}

// Login describes the sign-in form.
type Login struct {
	URL            string
	Fields         FieldMap
	Submit         []string
	WaitAfterLogin time.Duration
}

// Listing describes the listing/directory/ad creation form.
type Listing struct {
	// Type is one of "listing", "directory", "ad".
	Type       string
	CreateURL  string
	Navigation []string
	Fields     FieldMap

	// CategoryCheckboxes addresses checkbox-based category pickers; at most
	// CategoryLimit get ticked.
	CategoryCheckboxes string
	CategoryLimit      int
	// CategoryValue feeds dropdown-based category pickers.
	CategoryValue string

	RadioGroups     map[string][]string
	Checkboxes      map[string][]string
	TermsCheckbox   []string
	Submit          []string
	WaitAfterSubmit time.Duration
}

// Profile describes a profile-edit page for sites that carry the backlink
// on the account profile instead of a listing.
type Profile struct {
	EditURL      string
	Navigation   []string
	WebsiteField []string
	Fields       FieldMap
	SaveButton   []string
}

// PublicURL describes how to reach the freshly created listing's public page.
type PublicURL struct {
	MyListingsURL string
	Navigation    []string
	ClickRecent   bool
	PreviewButton []string
	// URLPattern is a substring the captured URL should contain. A mismatch
	// is logged, not fatal; the URL is still returned.
	URLPattern string
}

// ListingData is the fallback content for listing forms. One immutable copy
// is injected into the flow engine.
type ListingData struct {
	Title       string
	Description string
	Phone       string
	Address     string
	City        string
	Area        string
	Pincode     string
	State       string
	Category    string
	Tags        string
	Categories  []string
}

// DefaultListing returns the stock listing content.
func DefaultListing() ListingData {
	return ListingData{
		Title:       "Professional Digital Services",
		Description: "We provide comprehensive digital solutions including web development, SEO optimization, and digital marketing services. Our team specializes in creating modern, responsive websites and helping businesses establish a strong online presence. Contact us for professional digital services tailored to your business needs.",
		Phone:       "+91 9999999999",
		Address:     "123 High Street, Westminster",
		City:        "Mumbai",
		Area:        "Andheri",
		Pincode:     "NW16XE",
		State:       "England",
		Category:    "Information Technology",
		Tags:        "technology, web services, digital marketing",
		Categories:  []string{"Business Services", "Consultants"},
	}
}

// FieldOrder is the canonical fill order for form field maps. Map iteration
// is randomized in Go; filling in a stable order keeps logs reproducible.
var FieldOrder = []string{
	"name",
	"username",
	"nickname",
	"email",
	"confirm_email",
	"email_again",
	"password",
	"confirm_password",
	"first_name",
	"last_name",
	"phone",
	"website",
	"title",
	"category",
	"tags",
	"location",
	"address",
	"area",
	"pincode",
	"state",
	"city",
	"choose_city",
	"ask_area",
	"description",
}
