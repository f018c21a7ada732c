package crawl

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// contactTokens mark anchors that likely lead to a contact-style page.
var contactTokens = []string{
	"contact", "kontakt", "impressum", "about",
}

// ContactLinks scans page HTML for anchors whose text or href contain a
// contact-indicating token and returns up to max absolute same-host URLs,
// excluding the page itself. Malformed HTML yields no links.
func ContactLinks(pageHTML, pageURL string, max int) []string {
	if max <= 0 || pageHTML == "" {
		return nil
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil
	}

	seen := map[string]struct{}{canonicalURL(base): {}}
	var links []string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if !contactLike(sel.Text(), href) {
			return true
		}
		resolved, ok := resolveSameHost(base, href)
		if !ok {
			return true
		}
		if _, dup := seen[resolved]; dup {
			return true
		}
		seen[resolved] = struct{}{}
		links = append(links, resolved)
		return len(links) < max
	})
	return links
}

// VisibleText renders HTML to its visible text, stripping script and style
// content. It falls back to the raw input when the HTML cannot be parsed.
func VisibleText(pageHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return pageHTML
	}
	doc.Find("script,style,noscript").Remove()
	return doc.Text()
}

func contactLike(text, href string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	href = strings.ToLower(href)
	for _, token := range contactTokens {
		if strings.Contains(text, token) || strings.Contains(href, token) {
			return true
		}
	}
	return false
}

func resolveSameHost(base *url.URL, href string) (string, bool) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	if !strings.EqualFold(resolved.Host, base.Host) {
		return "", false
	}
	return canonicalURL(resolved), true
}

func canonicalURL(u *url.URL) string {
	c := *u
	c.Fragment = ""
	return c.String()
}
