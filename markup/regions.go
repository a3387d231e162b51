package markup

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"tekstitv/page"
)

// navHints reads the page navigation bar. Its four items are separated
// by '|'; the first is the previous-page link and the last the
// next-page link, either of which degrades to plain text when the
// adjacent page does not exist.
func navHints(doc *goquery.Document) (prev, next page.PageId) {
	span := doc.Find("span").First()
	if span.Length() == 0 {
		return
	}

	type navItem struct {
		target page.PageId
		link   bool
	}
	items := []navItem{{}}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			for i := 0; i < strings.Count(n.Data, "|"); i++ {
				items = append(items, navItem{})
			}
		case html.ElementNode:
			if n.Data == "a" {
				if t, err := ParseLinkHref(attr(n, "href")); err == nil {
					items[len(items)-1] = navItem{target: t, link: true}
				}
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
	}
	for _, n := range span.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if items[0].link {
		prev = items[0].target
	}
	if last := items[len(items)-1]; last.link {
		next = last.target
	}
	return
}

// subpageCount reads the subpage bar: the first paragraph whose text is
// nothing but numbers ("1 2 3"), one per subpage. Pages with a single
// subpage have no bar and report 0 here; the parser defaults that to 1.
func subpageCount(doc *goquery.Document) int {
	count := 0
	doc.Find("p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		tokens := strings.Fields(sel.Text())
		if len(tokens) == 0 {
			return true
		}
		for _, tok := range tokens {
			if _, err := strconv.Atoi(tok); err != nil {
				return true
			}
		}
		count = len(tokens)
		return false
	})
	return count
}

// sections reads the bottom navigation: the last paragraph made of page
// links, one per section front page. Anchors whose href is not a page
// link and label-less anchors are skipped.
func sections(doc *goquery.Document) []page.SectionLink {
	var out []page.SectionLink
	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		var links []page.SectionLink
		sel.Find("a").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			target, err := ParseLinkHref(href)
			if err != nil {
				return
			}
			label := strings.TrimSpace(a.Text())
			if label == "" {
				return
			}
			links = append(links, page.SectionLink{Label: label, Target: target})
		})
		if len(links) > 0 {
			out = links
		}
	})
	return out
}

var namedColors = map[string]page.Color{
	"black":   page.Black,
	"red":     page.Red,
	"green":   page.Green,
	"yellow":  page.Yellow,
	"blue":    page.Blue,
	"magenta": page.Magenta,
	"cyan":    page.Cyan,
	"white":   page.White,
}

// paletteColor maps a font color attribute onto the teletext palette.
// Hex values snap per channel, so the service's "#00ffff" variants all
// land on their palette color.
func paletteColor(s string) (page.Color, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	if c, ok := namedColors[s]; ok {
		return c, true
	}
	if !strings.HasPrefix(s, "#") || len(s) != 7 {
		return 0, false
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return 0, false
	}
	idx := 0
	if v>>16&0xff >= 0x80 {
		idx |= 1 // red
	}
	if v>>8&0xff >= 0x80 {
		idx |= 2 // green
	}
	if v&0xff >= 0x80 {
		idx |= 4 // blue
	}
	return page.Color(idx), true
}
