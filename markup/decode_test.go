package markup

import (
	"errors"
	"testing"

	"tekstitv/page"
)

// A trimmed version of the wire format: title in <big>, a four item
// page navigation in <span>, body rows in <pre>, subpage bar and bottom
// navigation in <p>.
const fixture = `<!DOCTYPE html>
<html><body><center>
<big>YLE TEKSTI-TV</big>
<span><a href="201_0001.htm">Edellinen sivu</a>&nbsp;|&nbsp;Edellinen alasivu&nbsp;|&nbsp;Seuraava alasivu&nbsp;|&nbsp;<a href="203_0001.htm">Seuraava sivu</a></span>
<pre>
<font color="#00ffff">YLE</font> P&auml;iv&auml;n uutiset` + "\r" + `
Urheilu <a href="201_0001.htm">201</a>
</pre>
<p> 1 2 3 </p>
<p><a href="110_0001.htm">Kotimaa</a> | <a href="130_0001.htm">Ulkomaat</a></p>
</center></body></html>`

func TestDecodeHeader(t *testing.T) {
	stream, err := Decode([]byte(fixture))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if stream.Header.Title != "YLE TEKSTI-TV" {
		t.Errorf("Title = %q, want YLE TEKSTI-TV", stream.Header.Title)
	}
	if stream.Header.PrevPage != page.ID(201) {
		t.Errorf("PrevPage = %v, want 201/1", stream.Header.PrevPage)
	}
	if stream.Header.NextPage != page.ID(203) {
		t.Errorf("NextPage = %v, want 203/1", stream.Header.NextPage)
	}
	if stream.Header.SubpageCount != 3 {
		t.Errorf("SubpageCount = %d, want 3", stream.Header.SubpageCount)
	}

	wantSections := []page.SectionLink{
		{Label: "Kotimaa", Target: page.ID(110)},
		{Label: "Ulkomaat", Target: page.ID(130)},
	}
	if len(stream.Header.Sections) != len(wantSections) {
		t.Fatalf("Sections = %+v, want %+v", stream.Header.Sections, wantSections)
	}
	for i, want := range wantSections {
		if stream.Header.Sections[i] != want {
			t.Errorf("section %d = %+v, want %+v", i, stream.Header.Sections[i], want)
		}
	}
}

func TestDecodeItemOrder(t *testing.T) {
	stream, err := Decode([]byte(fixture))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	wantKinds := []page.ItemKind{
		page.SetForeground, // cyan
		page.TextRun,       // "YLE"
		page.SetForeground, // restore white
		page.TextRun,       // " Päivän uutiset"
		page.LineBreak,
		page.TextRun, // "Urheilu "
		page.AnchorStart,
		page.TextRun, // "201"
		page.AnchorEnd,
		page.LineBreak,
	}
	if len(stream.Items) != len(wantKinds) {
		t.Fatalf("got %d items, want %d: %+v", len(stream.Items), len(wantKinds), stream.Items)
	}
	for i, kind := range wantKinds {
		if stream.Items[i].Kind != kind {
			t.Errorf("item %d kind = %v, want %v", i, stream.Items[i].Kind, kind)
		}
	}

	if stream.Items[0].Color != page.Cyan {
		t.Errorf("first directive color = %v, want Cyan", stream.Items[0].Color)
	}
	if stream.Items[2].Color != page.White {
		t.Errorf("restore color = %v, want White", stream.Items[2].Color)
	}
	if stream.Items[6].Target != page.ID(201) {
		t.Errorf("anchor target = %v, want 201/1", stream.Items[6].Target)
	}
}

func TestDecodeUnescapesEntities(t *testing.T) {
	stream, err := Decode([]byte(fixture))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got := stream.Items[3].Text; got != " Päivän uutiset" {
		t.Errorf("run = %q, want entities unescaped", got)
	}
}

func TestDecodeStripsCarriageReturns(t *testing.T) {
	stream, err := Decode([]byte(fixture))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	for _, it := range stream.Items {
		if it.Kind != page.TextRun {
			continue
		}
		for _, r := range it.Text {
			if r == '\r' || r == '\n' {
				t.Fatalf("run %q contains raw line ending", it.Text)
			}
		}
	}
}

// A body that opens with a genuinely blank row must keep it: the html
// parser eats only the single framing newline after the <pre> tag, and
// every break after that moves content down a row.
func TestDecodeKeepsBlankLeadingRow(t *testing.T) {
	raw := "<html><body><pre>\n\r\nrow two here\n</pre></body></html>"
	stream, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	wantKinds := []page.ItemKind{page.LineBreak, page.TextRun, page.LineBreak}
	if len(stream.Items) != len(wantKinds) {
		t.Fatalf("got %d items, want %d: %+v", len(stream.Items), len(wantKinds), stream.Items)
	}
	for i, kind := range wantKinds {
		if stream.Items[i].Kind != kind {
			t.Errorf("item %d kind = %v, want %v", i, stream.Items[i].Kind, kind)
		}
	}

	p, err := page.Parse(stream, page.ID(100), page.DefaultDimensions)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if p.Grid[0][0].Rune != ' ' {
		t.Errorf("cell (0,0) = %q, want the blank row kept", p.Grid[0][0].Rune)
	}
	if p.Grid[1][0].Rune != 'r' {
		t.Errorf("cell (1,0) = %q, want content one row down", p.Grid[1][0].Rune)
	}
}

func TestDecodeMalformed(t *testing.T) {
	// No <pre> body at all.
	if _, err := Decode([]byte("<html><body><p>hello</p></body></html>")); !errors.Is(err, ErrMalformed) {
		t.Errorf("missing body: got %v, want ErrMalformed", err)
	}

	// Not valid UTF-8.
	if _, err := Decode([]byte{'<', 0xff, 0xfe, '>'}); !errors.Is(err, ErrMalformed) {
		t.Errorf("invalid UTF-8: got %v, want ErrMalformed", err)
	}
}

func TestDecodeThenParse(t *testing.T) {
	stream, err := Decode([]byte(fixture))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	p, err := page.Parse(stream, page.ID(202), page.DefaultDimensions)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if p.Rows() != 24 || p.Cols() != 40 {
		t.Fatalf("grid is %dx%d, want 24x40", p.Rows(), p.Cols())
	}
	// Title on row 0, body from row 2.
	if p.Grid[2][0].Rune != 'Y' || p.Grid[2][0].Fg != page.Cyan {
		t.Errorf("cell (2,0) = %q %v, want cyan Y", p.Grid[2][0].Rune, p.Grid[2][0].Fg)
	}
	if p.Grid[2][3].Fg != page.White {
		t.Errorf("cell (2,3) color = %v, want White after font close", p.Grid[2][3].Fg)
	}
	if len(p.Links) != 1 || p.Links[0].Target != page.ID(201) {
		t.Fatalf("links = %+v, want one link to 201/1", p.Links)
	}
	if p.Links[0].Row != 3 || p.Links[0].ColStart != 8 {
		t.Errorf("link span = %+v, want row 3 col 8", p.Links[0])
	}
	if p.SubpageCount != 3 {
		t.Errorf("SubpageCount = %d, want 3", p.SubpageCount)
	}
	if p.PrevPage != page.ID(201) || p.NextPage != page.ID(203) {
		t.Errorf("nav hints = %v/%v, want 201/1 and 203/1", p.PrevPage, p.NextPage)
	}
	if len(p.Sections) != 2 || p.Sections[0].Target != page.ID(110) {
		t.Errorf("sections = %+v, want Kotimaa/Ulkomaat carried onto the page", p.Sections)
	}
}

func TestParseLinkHref(t *testing.T) {
	id, err := ParseLinkHref("201_0001.htm")
	if err != nil {
		t.Fatalf("ParseLinkHref failed: %v", err)
	}
	if id != page.ID(201) {
		t.Errorf("got %v, want 201/1", id)
	}

	id, err = ParseLinkHref("/tekstitv/txt/100_0002.htm")
	if err != nil {
		t.Fatalf("ParseLinkHref with path failed: %v", err)
	}
	if id != (page.PageId{Number: 100, Subpage: 2}) {
		t.Errorf("got %v, want 100/2", id)
	}

	for _, bad := range []string{"", "foo.htm", "100.htm", "abc_0001.htm", "100_x.htm", "099_0001.htm", "https://example.com/other"} {
		if _, err := ParseLinkHref(bad); err == nil {
			t.Errorf("ParseLinkHref(%q) = nil error, want error", bad)
		}
	}
}

func TestPaletteColor(t *testing.T) {
	tests := []struct {
		in   string
		want page.Color
	}{
		{"#00ffff", page.Cyan},
		{"#ff0000", page.Red},
		{"#00ff00", page.Green},
		{"#ffff00", page.Yellow},
		{"#0000ff", page.Blue},
		{"#ff00ff", page.Magenta},
		{"#ffffff", page.White},
		{"#000000", page.Black},
		{"cyan", page.Cyan},
		{"White", page.White},
	}
	for _, tt := range tests {
		got, ok := paletteColor(tt.in)
		if !ok || got != tt.want {
			t.Errorf("paletteColor(%q) = %v, %v; want %v, true", tt.in, got, ok, tt.want)
		}
	}

	for _, bad := range []string{"", "#12", "#zzzzzz", "chartreuse"} {
		if _, ok := paletteColor(bad); ok {
			t.Errorf("paletteColor(%q) = ok, want false", bad)
		}
	}
}
