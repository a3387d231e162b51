// Package markup decodes the raw wire format of a teletext page into an
// ordered stream of text runs and directives for the page parser.
//
// The upstream serves each page as HTML-escaped text: the title inside
// <big>, a four item page navigation bar, the body as rows of text
// inside <pre> with <font color> spans and twelve character page links,
// a subpage bar, and a six link bottom navigation. The decoder lifts the
// chrome into the stream header and flattens the body in wire order.
package markup

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"tekstitv/page"
)

// ErrMalformed reports a payload that cannot be interpreted as an
// escaped teletext page. The failure is fatal for that fetch attempt.
var ErrMalformed = errors.New("malformed page markup")

// Decode converts a raw payload into a decoded stream. Directives never
// reorder relative to their surrounding text.
func Decode(raw []byte) (*page.Stream, error) {
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("%w: payload is not valid UTF-8", ErrMalformed)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	stream := &page.Stream{}
	stream.Header.Title = strings.TrimSpace(doc.Find("big").First().Text())
	stream.Header.PrevPage, stream.Header.NextPage = navHints(doc)
	stream.Header.SubpageCount = subpageCount(doc)
	stream.Header.Sections = sections(doc)

	pre := doc.Find("pre").First()
	if pre.Length() == 0 {
		return nil, fmt.Errorf("%w: missing page body", ErrMalformed)
	}

	// The html parser already drops the single framing newline after the
	// <pre> tag, so every break left in the text is a real row boundary,
	// blank leading rows included.
	d := &decoder{stream: stream, fg: page.White, bg: page.Black}
	for _, n := range pre.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			d.walk(c)
		}
	}
	return stream, nil
}

// ParseLinkHref parses a page link href of the form "NNN_SSSS.htm",
// ignoring any leading path. Anything else is not a page link.
func ParseLinkHref(href string) (page.PageId, error) {
	if i := strings.LastIndexByte(href, '/'); i >= 0 {
		href = href[i+1:]
	}
	name, ok := strings.CutSuffix(href, ".htm")
	if !ok {
		return page.PageId{}, fmt.Errorf("href %q is not a page link", href)
	}
	numStr, subStr, ok := strings.Cut(name, "_")
	if !ok {
		return page.PageId{}, fmt.Errorf("href %q is not a page link", href)
	}
	num, err := strconv.Atoi(numStr)
	if err != nil {
		return page.PageId{}, fmt.Errorf("href %q: bad page number", href)
	}
	sub, err := strconv.Atoi(subStr)
	if err != nil {
		return page.PageId{}, fmt.Errorf("href %q: bad subpage", href)
	}
	id := page.PageId{Number: num, Subpage: sub}
	if err := id.Validate(); err != nil {
		return page.PageId{}, fmt.Errorf("href %q: %v", href, err)
	}
	return id, nil
}

// decoder flattens the body element tree into stream items.
type decoder struct {
	stream *page.Stream
	fg     page.Color
	bg     page.Color
}

func (d *decoder) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		d.emitText(n.Data)
	case html.ElementNode:
		switch n.Data {
		case "font":
			d.walkFont(n)
		case "a":
			d.walkAnchor(n)
		case "br":
			d.emit(page.Break())
		default:
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				d.walk(c)
			}
		}
	}
}

// walkFont emits a color change, decodes the children, then restores
// the previous color so sibling runs are unaffected.
func (d *decoder) walkFont(n *html.Node) {
	prevFg, prevBg := d.fg, d.bg
	if c, ok := paletteColor(attr(n, "color")); ok {
		d.fg = c
		d.emit(page.Fg(c))
	}
	if c, ok := paletteColor(attr(n, "bgcolor")); ok {
		d.bg = c
		d.emit(page.Bg(c))
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.walk(c)
	}
	if d.fg != prevFg {
		d.fg = prevFg
		d.emit(page.Fg(prevFg))
	}
	if d.bg != prevBg {
		d.bg = prevBg
		d.emit(page.Bg(prevBg))
	}
}

// walkAnchor emits an explicit link for valid page hrefs. Anchors whose
// href is not a page link keep only their inner text.
func (d *decoder) walkAnchor(n *html.Node) {
	target, err := ParseLinkHref(attr(n, "href"))
	if err == nil {
		d.emit(page.Anchor(target))
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.walk(c)
	}
	if err == nil {
		d.emit(page.EndAnchor())
	}
}

// emitText splits literal text on newlines, emitting line breaks
// between the segments. Carriage returns are wire framing and dropped.
func (d *decoder) emitText(text string) {
	text = strings.ReplaceAll(text, "\r", "")
	for i, seg := range strings.Split(text, "\n") {
		if i > 0 {
			d.emit(page.Break())
		}
		if seg != "" {
			d.emit(page.Text(seg))
		}
	}
}

func (d *decoder) emit(it page.Item) {
	d.stream.Items = append(d.stream.Items, it)
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}
