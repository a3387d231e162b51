// Package page defines the teletext page model and the parser that lays
// decoded markup out onto a fixed character grid.
package page

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// MinNumber and MaxNumber bound the valid teletext page number range.
const (
	MinNumber = 100
	MaxNumber = 999
)

// PageId identifies a single teletext page: a three digit page number
// plus a 1-based subpage index. The zero value means "no page".
type PageId struct {
	Number  int
	Subpage int
}

// ID constructs a PageId for the first subpage of a page number.
func ID(number int) PageId {
	return PageId{Number: number, Subpage: 1}
}

// IsZero reports whether the id is the "no page" sentinel.
func (id PageId) IsZero() bool {
	return id.Number == 0
}

// Validate checks the id against the valid page number and subpage ranges.
func (id PageId) Validate() error {
	if id.Number < MinNumber || id.Number > MaxNumber {
		return fmt.Errorf("page number %d out of range [%d, %d]", id.Number, MinNumber, MaxNumber)
	}
	if id.Subpage < 1 {
		return fmt.Errorf("subpage %d out of range (must be >= 1)", id.Subpage)
	}
	return nil
}

// String renders the id as "NNN/S". It is stable and used as a cache key.
func (id PageId) String() string {
	return strconv.Itoa(id.Number) + "/" + strconv.Itoa(id.Subpage)
}

// ParsePageId parses a bare page number ("100") or a "NNN/S" pair.
func ParsePageId(s string) (PageId, error) {
	number := s
	subpage := "1"
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			number, subpage = s[:i], s[i+1:]
			break
		}
	}
	n, err := strconv.Atoi(number)
	if err != nil {
		return PageId{}, fmt.Errorf("invalid page number %q", number)
	}
	sub, err := strconv.Atoi(subpage)
	if err != nil {
		return PageId{}, fmt.Errorf("invalid subpage %q", subpage)
	}
	id := PageId{Number: n, Subpage: sub}
	if err := id.Validate(); err != nil {
		return PageId{}, err
	}
	return id, nil
}

// Color is one of the eight teletext palette colors.
type Color uint8

const (
	Black Color = iota
	Red
	Green
	Yellow
	Blue
	Magenta
	Cyan
	White
)

// Attr is a bit set of cell display attributes.
type Attr uint8

const (
	Bold Attr = 1 << iota
	Blink
	DoubleHeight
)

// Cell is a single character position on the grid.
type Cell struct {
	Rune rune
	Fg   Color
	Bg   Color
	Attr Attr
}

// Dimensions fixes the grid geometry for the lifetime of the process.
type Dimensions struct {
	Rows int
	Cols int
}

// DefaultDimensions is the classic broadcast teletext geometry.
var DefaultDimensions = Dimensions{Rows: 24, Cols: 40}

// Link is a reference from a span of grid cells to another page.
// The column range is half-open: cells [ColStart, ColEnd) on Row.
type Link struct {
	Target   PageId
	Row      int
	ColStart int
	ColEnd   int
}

// Page is one parsed, immutable teletext page. A refresh produces a new
// Page value; cached pages are never mutated in place.
type Page struct {
	ID           PageId
	Title        string
	Grid         [][]Cell
	SubpageCount int
	Links        []Link
	PrevPage     PageId // adjacent-page hint from the page navigation, zero if absent
	NextPage     PageId
	Sections     []SectionLink // bottom navigation, empty if absent
	FetchedAt    time.Time
}

// LinkAt returns the link covering the given grid position, if any.
func (p *Page) LinkAt(row, col int) (Link, bool) {
	for _, l := range p.Links {
		if l.Row == row && col >= l.ColStart && col < l.ColEnd {
			return l, true
		}
	}
	return Link{}, false
}

// Rows returns the grid row count.
func (p *Page) Rows() int { return len(p.Grid) }

// Cols returns the grid column count.
func (p *Page) Cols() int {
	if len(p.Grid) == 0 {
		return 0
	}
	return len(p.Grid[0])
}

// Parse failure modes. LayoutOverflow means the decoded content needed
// more rows than the grid has; the page is rejected rather than
// truncated. NoContent means the stream carried no text runs at all.
var (
	ErrLayoutOverflow = errors.New("page content overflows grid")
	ErrNoContent      = errors.New("page has no content")
)
