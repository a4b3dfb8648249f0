// internal/mailbox/extract.go
package mailbox

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// bareURL matches URLs embedded in plaintext bodies.
var bareURL = regexp.MustCompile(`https?://[^\s<>"']+`)

// trailingPunct is trimmed from extracted links; sentences in mail bodies
// routinely end right after a URL.
const trailingPunct = ".,;:!?)>]"

// verificationKeywords mark the links a verification mail wants clicked.
var verificationKeywords = []string{
	"verify",
	"confirm",
	"activate",
	"validation",
	"token",
	"validate",
}

// ExtractLinks pulls every URL out of a message: anchor hrefs from the HTML
// part and bare URLs from both parts. Links are trimmed of trailing
// punctuation and deduplicated, preserving first-seen order.
func ExtractLinks(html, text string) []string {
	var links []string
	seen := make(map[string]struct{})
	add := func(link string) {
		link = strings.TrimRight(strings.TrimSpace(link), trailingPunct)
		if link == "" || !strings.HasPrefix(link, "http") {
			return
		}
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}
		links = append(links, link)
	}

	if html != "" {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
			doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
				if href, ok := sel.Attr("href"); ok {
					add(href)
				}
			})
		}
		for _, match := range bareURL.FindAllString(html, -1) {
			add(match)
		}
	}
	for _, match := range bareURL.FindAllString(text, -1) {
		add(match)
	}
	return links
}

// ChooseVerificationLink picks the best link for the domain: the first one
// carrying a verification keyword wins, otherwise the first link merely
// containing the domain.
func ChooseVerificationLink(links []string, domain string) (string, bool) {
	domain = strings.ToLower(domain)
	fallback := ""
	for _, link := range links {
		lower := strings.ToLower(link)
		if !strings.Contains(lower, domain) {
			continue
		}
		for _, kw := range verificationKeywords {
			if strings.Contains(lower, kw) {
				return link, true
			}
		}
		if fallback == "" {
			fallback = link
		}
	}
	if fallback != "" {
		return fallback, true
	}
	return "", false
}
