// internal/sitecfg/builtin.go
package sitecfg

import "time"

// Keys returns the built-in site keys in processing order.
func Keys() []string {
	return []string{"freelisting", "yplocal", "directorynode", "unolist"}
}

// Lookup finds a built-in site by key.
func Lookup(key string) (Site, bool) {
	for _, site := range Builtin() {
		if site.Key == key {
			return site, true
		}
	}
	return Site{}, false
}

// Builtin returns the built-in site descriptors in processing order.
func Builtin() []Site {
	return []Site{freeListingUK(), ypLocal(), directoryNode(), unolist()}
}

func freeListingUK() Site {
	return Site{
		Key:     "freelisting",
		Name:    "FreeListing UK",
		Domain:  "freelistinguk.com",
		BaseURL: "https://www.freelistinguk.com",
		Registration: Registration{
			URL: "https://www.freelistinguk.com/register",
			Fields: FieldMap{
				"name":             {`input[name="name"]`, "#name"},
				"username":         {`input[name="user_login"]`, "#user_login"},
				"email":            {`input[name="user_email"]`, "#user_email"},
				"password":         {`input[name="pass1"]`, "#pass1"},
				"confirm_password": {`input[name="pass2"]`, "#pass2"},
			},
			Submit:          []string{`input[name="register"]`, "#register", "Register"},
			WaitAfterSubmit: 5 * time.Second,
		},
		Verification: Verification{
			Required:         true,
			RedirectsToLogin: true,
			MaxWait:          120 * time.Second,
		},
		Login: Login{
			URL: "https://www.freelistinguk.com/login",
			Fields: FieldMap{
				"username": {`input[name="user_login"]`, "#user_login"},
				"password": {`input[name="password"]`, "#password"},
			},
			Submit:         []string{`input[name="login"]`, "#login", "Login"},
			WaitAfterLogin: 3 * time.Second,
		},
		Listing: &Listing{
			Type:       "listing",
			CreateURL:  "https://www.freelistinguk.com/create-listing-form?currency=1&plan=1",
			Navigation: []string{"Create Listing", "create listing"},
			Fields: FieldMap{
				"title":       {`input[name="listing_title"]`},
				"address":     {`input[name="address"]`, "#listing-address"},
				"area":        {`input[name="area"]`, "#area"},
				"pincode":     {`input[name="pincode"]`, "#pincode"},
				"state":       {`input[name="state"]`, "#listing-state"},
				"city":        {`input[name="city"]`, "#listing-city"},
				"phone":       {`input[name="phone"]`},
				"website":     {`input[name="website"]`},
				"description": {`textarea[name="listing_content"]`},
			},
			CategoryCheckboxes: `input[name="listing_category[]"]`,
			CategoryLimit:      5,
			TermsCheckbox:      []string{`input[name="agree_terms"]`},
			Submit:             []string{"#submit", `input[type="submit"]`},
			WaitAfterSubmit:    5 * time.Second,
		},
		PublicURL: PublicURL{
			MyListingsURL: "https://www.freelistinguk.com/my-listings",
			ClickRecent:   true,
			PreviewButton: []string{"Preview", "preview", "View"},
			URLPattern:    "https://www.freelistinguk.com/listings/",
		},
		HasCaptcha: true,
	}
}

func ypLocal() Site {
	return Site{
		Key:     "yplocal",
		Name:    "YP Local",
		Domain:  "yplocal.com",
		BaseURL: "https://www.yplocal.com",
		Registration: Registration{
			URL: "https://www.yplocal.com/checkout/3",
			Fields: FieldMap{
				"email":            {`input[name="email"]`, "#email", `input[type="email"]`},
				"confirm_email":    {`input[name="confirm_email"]`, `input[name="email2"]`},
				"password":         {`input[name="password"]`, `input[type="password"]`},
				"confirm_password": {`input[name="confirm_password"]`, `input[name="password2"]`},
			},
			Submit:          []string{"Create My Profile", "create my profile", `button[type="submit"]`},
			WaitAfterSubmit: 5 * time.Second,
		},
		Login: Login{
			URL: "https://www.yplocal.com/login?action=loggedout",
			Fields: FieldMap{
				"email":    {`input[name="email"]`, "#email"},
				"password": {`input[name="password"]`, `input[type="password"]`},
			},
			Submit:         []string{"Login", `button[type="submit"]`},
			WaitAfterLogin: 3 * time.Second,
		},
		Listing: &Listing{
			Type:       "listing",
			Navigation: []string{"Submit News", "submit news"},
			Fields: FieldMap{
				"website":     {`input[name="website"]`, `input[name="url"]`},
				"title":       {`input[name="title"]`, "#title"},
				"category":    {`select[name="category"]`, "#category"},
				"tags":        {`input[name="tags"]`, "#tags"},
				"location":    {`select[name="location"]`, "#location"},
				"email":       {`input[name="email"]`, `input[type="email"]`},
				"phone":       {`input[name="phone"]`, `input[type="tel"]`},
				"address":     {`input[name="address"]`, `textarea[name="address"]`},
				"description": {`textarea[name="description"]`, "#description"},
			},
			CategoryValue:   "Technology",
			TermsCheckbox:   []string{`input[type="checkbox"]`},
			Submit:          []string{"Preview and Submit", "preview and submit", "Submit"},
			WaitAfterSubmit: 5 * time.Second,
		},
		PublicURL: PublicURL{
			Navigation:    []string{"My Business", "my business"},
			ClickRecent:   true,
			PreviewButton: []string{"Preview", "View"},
			URLPattern:    "yplocal.com",
		},
		HasCaptcha: true,
	}
}

func directoryNode() Site {
	return Site{
		Key:     "directorynode",
		Name:    "Directory Node",
		Domain:  "directorynode.com",
		BaseURL: "https://directorynode.com",
		Registration: Registration{
			URL: "https://directorynode.com/register/",
			Fields: FieldMap{
				"username":         {`input[name="username"]`, "#username"},
				"email":            {`input[name="email"]`, `input[type="email"]`},
				"password":         {`input[name="password"]`, `input[type="password"]`},
				"confirm_password": {`input[name="confirm_password"]`, `input[name="password2"]`},
				"nickname":         {`input[name="nickname"]`, "#nickname"},
			},
			Submit:          []string{"Register", `button[type="submit"]`},
			WaitAfterSubmit: 5 * time.Second,
		},
		Login: Login{
			URL: "https://directorynode.com/login/",
			Fields: FieldMap{
				"email":    {`input[name="email"]`, "#email"},
				"password": {`input[name="password"]`, `input[type="password"]`},
			},
			Submit:         []string{"Login", `button[type="submit"]`},
			WaitAfterLogin: 3 * time.Second,
		},
		Listing: &Listing{
			Type:       "directory",
			CreateURL:  "https://directorynode.com/submit-directory/",
			Navigation: []string{"Add Directory", "add directory"},
			Fields: FieldMap{
				"website":     {`input[name="website"]`, `input[name="url"]`},
				"title":       {`input[name="title"]`, "#title"},
				"category":    {`select[name="category"]`, "#category"},
				"tags":        {`input[name="tags"]`, "#tags"},
				"location":    {`select[name="location"]`, "#location"},
				"email":       {`input[name="email"]`, `input[type="email"]`},
				"phone":       {`input[name="phone"]`, `input[type="tel"]`},
				"address":     {`input[name="address"]`, `textarea[name="address"]`},
				"description": {`textarea[name="description"]`, "#description"},
			},
			CategoryValue:   "Technology",
			TermsCheckbox:   []string{`input[type="checkbox"]`},
			Submit:          []string{"Preview and Submit", "preview and submit", "Submit"},
			WaitAfterSubmit: 5 * time.Second,
		},
		PublicURL: PublicURL{
			Navigation:    []string{"My Business", "my business"},
			ClickRecent:   true,
			PreviewButton: []string{"Preview", "View"},
			URLPattern:    "directorynode.com",
		},
		HasCaptcha: true,
	}
}

func unolist() Site {
	return Site{
		Key:     "unolist",
		Name:    "Unolist",
		Domain:  "unolist.in",
		BaseURL: "https://unolist.in",
		Registration: Registration{
			URL: "https://unolist.in/Reg/registration.html",
			Fields: FieldMap{
				"email":            {`input[name="email"]`, "#email"},
				"password":         {`input[name="pword"]`, "#pword"},
				"confirm_password": {`input[name="cpword"]`, "#cpword"},
				"first_name":       {`input[name="fname"]`, "#fname"},
				"last_name":        {`input[name="lname"]`, "#lname"},
				"phone":            {`input[name="phone"]`, "#phone"},
			},
			TermsCheckbox: []string{`input[name="agriment"]`},
			Submit: []string{
				`input[type="image"]`,
				`input[src*="register.gif"]`,
				`input[alt="register"]`,
				`input[type="submit"]`,
			},
			WaitAfterSubmit: 5 * time.Second,
		},
		Login: Login{
			URL: "https://unolist.in/login/login.html",
			Fields: FieldMap{
				"email":    {`input[name="email"]`, "#email"},
				"password": {`input[name="pword"]`, "#pword"},
			},
			Submit:         []string{`input[name="submit"]`, `input[type="submit"]`},
			WaitAfterLogin: 3 * time.Second,
		},
		Listing: &Listing{
			Type:       "ad",
			CreateURL:  "https://unolist.in/postfreead/",
			Navigation: []string{"Post Free Ad", "post free ad"},
			Fields: FieldMap{
				"choose_city": {`input[name="choose_city"]`, "#choose_city"},
				"ask_area":    {`input[name="ask_area"]`, "#ask_area"},
				"title":       {`input[name="adtitle"]`, "#adtitle"},
				"website":     {`input[name="url"]`},
				"email":       {`input[name="email"]`},
				"email_again": {`input[name="email_again"]`},
				"phone":       {`input[name="phone"]`, "#phone"},
			},
			RadioGroups: map[string][]string{
				"inthisad": {`input[name="inthisad"]`},
				"iama":     {`input[name="iama"]`},
			},
			Checkboxes: map[string][]string{
				"othercontactok": {`input[name="othercontactok"]`},
				"agree":          {`input[name="agree"]`},
			},
			Submit:          []string{`input[type="submit"]`, `button[type="submit"]`},
			WaitAfterSubmit: 5 * time.Second,
		},
		PublicURL: PublicURL{
			MyListingsURL: "https://unolist.in/myaccount/myclassifieds.html",
			Navigation:    []string{"My Account", "My Classifieds"},
			ClickRecent:   true,
			URLPattern:    "unolist.in",
		},
		HasCaptcha: true,
	}
}
