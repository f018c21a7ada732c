package crawl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<html><body>
<a href="/contact">Contact Us</a>
<a href="/about-us">Who we are</a>
<a href="https://example.test/impressum">Impressum</a>
<a href="https://other.test/contact">External contact</a>
<a href="/pricing">Pricing</a>
<a href="mailto:hi@example.test">Say hi</a>
<a href="/contact#form">Contact form</a>
</body></html>`

func TestContactLinks_FindsSameHostLinks(t *testing.T) {
	t.Parallel()

	links := ContactLinks(samplePage, "https://example.test/", 10)
	require.Equal(t, []string{
		"https://example.test/contact",
		"https://example.test/about-us",
		"https://example.test/impressum",
	}, links)
}

func TestContactLinks_RespectsMax(t *testing.T) {
	t.Parallel()

	links := ContactLinks(samplePage, "https://example.test/", 1)
	require.Equal(t, []string{"https://example.test/contact"}, links)

	assert.Empty(t, ContactLinks(samplePage, "https://example.test/", 0))
}

func TestContactLinks_ExcludesSelf(t *testing.T) {
	t.Parallel()

	page := `<a href="/contact">Contact</a><a href="/kontakt">Kontakt</a>`
	links := ContactLinks(page, "https://example.test/contact", 5)
	require.Equal(t, []string{"https://example.test/kontakt"}, links)
}

func TestContactLinks_MatchesAnchorText(t *testing.T) {
	t.Parallel()

	page := `<a href="/reach-us">Get in CONTACT with us</a>`
	links := ContactLinks(page, "https://example.test/", 5)
	require.Equal(t, []string{"https://example.test/reach-us"}, links)
}

func TestContactLinks_BadInputs(t *testing.T) {
	t.Parallel()

	assert.Empty(t, ContactLinks("", "https://example.test/", 5))
	assert.Empty(t, ContactLinks(samplePage, "://bad url", 5))
}

func TestVisibleText_StripsScripts(t *testing.T) {
	t.Parallel()

	page := `<html><head><style>.x{color:red}</style></head><body>
<script>var hidden = "secret@script.test";</script>
<p>Visible text with hello@example.test</p>
<noscript>enable js</noscript>
</body></html>`

	text := VisibleText(page)
	assert.Contains(t, text, "hello@example.test")
	assert.NotContains(t, text, "secret@script.test")
	assert.NotContains(t, text, "color:red")
	assert.NotContains(t, text, "enable js")
}
