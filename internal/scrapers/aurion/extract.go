package aurion

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"aurioncal/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Document is a parsed page (or page fragment) together with its raw text.
type Document struct {
	raw string
	sel *goquery.Selection
}

func NewDocument(body []byte) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %w", ErrPageStructure, err)
	}
	return &Document{raw: string(body), sel: doc.Selection}, nil
}

// Sub returns the document made of a single matched element.
func (d *Document) Sub(sel *goquery.Selection) *Document {
	raw, err := goquery.OuterHtml(sel)
	if err != nil {
		raw = sel.Text()
	}
	return &Document{raw: raw, sel: sel}
}

func (d *Document) Find(css string) *goquery.Selection {
	return d.sel.Find(css)
}

// Selector names one token on a page.
//
// CSS finds elements, Attr picks which attribute to read from them (inner text
// when empty). When CSS is empty the root of the document is used and, if Attr
// is empty too, its raw text. Pattern then narrows the value down to its first
// capture group.
type Selector struct {
	Name    string
	CSS     string
	Attr    string
	Pattern *regexp.Regexp
}

func (s Selector) values(doc *Document) []string {
	if s.CSS == "" && s.Attr == "" {
		return []string{doc.raw}
	}

	target := doc.sel
	if s.CSS != "" {
		target = doc.sel.Find(s.CSS)
	}

	var out []string
	target.Each(func(_ int, el *goquery.Selection) {
		if s.Attr == "" {
			out = append(out, htmlutil.Normalize(htmlutil.GetText(el.Get(0))))
			return
		}
		value, ok := el.Attr(s.Attr)
		if ok {
			out = append(out, value)
		}
	})
	return out
}

func (s Selector) match(value string) (string, bool) {
	if s.Pattern == nil {
		value = strings.TrimSpace(value)
		return value, value != ""
	}
	groups := s.Pattern.FindStringSubmatch(value)
	if len(groups) < 2 || groups[1] == "" {
		return "", false
	}
	return groups[1], true
}

// Extract returns the first value sel matches in doc.
func Extract(doc *Document, sel Selector) (string, error) {
	for _, value := range sel.values(doc) {
		token, ok := sel.match(value)
		if ok {
			return token, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrTokenNotFound, sel.Name)
}

// ExtractAll returns every value sel matches in doc, in document order.
func ExtractAll(doc *Document, sel Selector) ([]string, error) {
	var out []string
	for _, value := range sel.values(doc) {
		token, ok := sel.match(value)
		if ok {
			out = append(out, token)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, sel.Name)
	}
	return out, nil
}
