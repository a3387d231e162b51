package page

// Stream is the decoded form of a raw teletext page: an ordered sequence
// of text runs and inline directives, plus header fields lifted out of
// the page chrome. The order of items is exactly the order they appeared
// on the wire; the parser depends on that.
type Stream struct {
	Header Header
	Items  []Item
}

// Header carries the page-level fields decoded from outside the body.
type Header struct {
	Title        string
	SubpageCount int    // 0 when the page did not report one
	PrevPage     PageId // zero when the page has no prev/next hints
	NextPage     PageId
	Sections     []SectionLink
}

// SectionLink is one entry of the bottom navigation: a labeled link to
// a section front page.
type SectionLink struct {
	Label  string
	Target PageId
}

// ItemKind discriminates the Item union.
type ItemKind int

const (
	// TextRun is literal text, entities already unescaped.
	TextRun ItemKind = iota
	// LineBreak moves the layout cursor to the start of the next row.
	LineBreak
	// SetForeground changes the foreground color for subsequent text.
	SetForeground
	// SetBackground changes the background color for subsequent text.
	SetBackground
	// SetAttr replaces the attribute flags for subsequent text.
	SetAttr
	// AnchorStart opens an explicit link to Target; runs up to the
	// matching AnchorEnd form the link's label.
	AnchorStart
	// AnchorEnd closes the innermost open anchor.
	AnchorEnd
)

// Item is one element of the decoded stream. Directives are stateful
// modifiers: they affect subsequent cells only, never earlier ones.
type Item struct {
	Kind   ItemKind
	Text   string // TextRun
	Color  Color  // SetForeground, SetBackground
	Attr   Attr   // SetAttr
	Target PageId // AnchorStart
}

// Text returns a text run item.
func Text(s string) Item { return Item{Kind: TextRun, Text: s} }

// Break returns a line break item.
func Break() Item { return Item{Kind: LineBreak} }

// Fg returns a foreground color directive.
func Fg(c Color) Item { return Item{Kind: SetForeground, Color: c} }

// Bg returns a background color directive.
func Bg(c Color) Item { return Item{Kind: SetBackground, Color: c} }

// Anchor returns an explicit link-open directive.
func Anchor(target PageId) Item { return Item{Kind: AnchorStart, Target: target} }

// EndAnchor returns a link-close directive.
func EndAnchor() Item { return Item{Kind: AnchorEnd} }
