package probe

import (
	"bytes"
	"strings"
)

// Detector decides whether a probed page needs JavaScript rendering using
// simple HTML signals: suspiciously small bodies and SPA framework markers.
type Detector struct {
	minHTMLBytes int
	keywords     [][]byte
}

// NewDetector constructs a Detector with the configured thresholds.
func NewDetector(minBytes int, keywords []string) *Detector {
	lowerKeywords := make([][]byte, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		lowerKeywords = append(lowerKeywords, bytes.ToLower([]byte(kw)))
	}
	return &Detector{
		minHTMLBytes: minBytes,
		keywords:     lowerKeywords,
	}
}

// NeedsJS inspects the HTML for signals that rendering is required.
func (d *Detector) NeedsJS(html string) bool {
	if d == nil {
		return false
	}
	if d.minHTMLBytes > 0 && len(html) < d.minHTMLBytes {
		return true
	}
	if len(d.keywords) == 0 || html == "" {
		return false
	}
	lowerBody := bytes.ToLower([]byte(html))
	for _, kw := range d.keywords {
		if bytes.Contains(lowerBody, kw) {
			return true
		}
	}
	return false
}
