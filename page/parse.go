package page

import "time"

// Parse lays a decoded stream out onto a fresh grid and returns the
// resulting Page. The grid always has exactly dim.Rows x dim.Cols cells;
// content that would need more rows fails with ErrLayoutOverflow, and a
// stream with no text runs at all fails with ErrNoContent.
func Parse(stream *Stream, id PageId, dim Dimensions) (*Page, error) {
	if dim.Rows <= 0 || dim.Cols <= 0 {
		dim = DefaultDimensions
	}

	hasRun := false
	for _, it := range stream.Items {
		if it.Kind == TextRun {
			hasRun = true
			break
		}
	}
	if !hasRun {
		return nil, ErrNoContent
	}

	p := &Page{
		ID:           id,
		Title:        stream.Header.Title,
		Grid:         blankGrid(dim),
		SubpageCount: stream.Header.SubpageCount,
		PrevPage:     stream.Header.PrevPage,
		NextPage:     stream.Header.NextPage,
		Sections:     stream.Header.Sections,
		FetchedAt:    time.Now(),
	}
	if p.SubpageCount < 1 {
		p.SubpageCount = 1
	}

	l := &layout{grid: p.Grid, dim: dim, fg: White, bg: Black}

	if p.Title != "" {
		l.writeTitle(p.Title)
	}

	for _, it := range stream.Items {
		switch it.Kind {
		case TextRun:
			if err := l.writeRun(it.Text); err != nil {
				return nil, err
			}
		case LineBreak:
			l.row++
			l.col = 0
		case SetForeground:
			l.fg = it.Color
		case SetBackground:
			l.bg = it.Color
		case SetAttr:
			l.attr = it.Attr
		case AnchorStart:
			l.openAnchor(it.Target)
		case AnchorEnd:
			l.closeAnchor()
		}
	}
	l.closeAnchor() // an unterminated anchor still yields its link

	p.Links = l.links
	return p, nil
}

func blankGrid(dim Dimensions) [][]Cell {
	grid := make([][]Cell, dim.Rows)
	for r := range grid {
		row := make([]Cell, dim.Cols)
		for c := range row {
			row[c] = Cell{Rune: ' ', Fg: White, Bg: Black}
		}
		grid[r] = row
	}
	return grid
}

// layout tracks the cursor and current formatting state during a parse.
type layout struct {
	grid [][]Cell
	dim  Dimensions

	row, col int
	fg, bg   Color
	attr     Attr

	links []Link

	anchorOpen   bool
	anchorTarget PageId
	anchorRow    int
	anchorStart  int
	anchorEnd    int
}

// writeTitle centers the title on the top row and leaves a blank row
// under it, the way the service renders its page header.
func (l *layout) writeTitle(title string) {
	runes := []rune(title)
	if len(runes) > l.dim.Cols {
		runes = runes[:l.dim.Cols]
	}
	start := (l.dim.Cols - len(runes)) / 2
	for i, r := range runes {
		l.grid[0][start+i] = Cell{Rune: r, Fg: White, Bg: Black, Attr: Bold}
	}
	l.row = 2
}

func (l *layout) writeRun(text string) error {
	runes := []rune(text)
	pos := make([][2]int, len(runes))

	for i, r := range runes {
		if l.col >= l.dim.Cols {
			l.col = 0
			l.row++
		}
		if l.row >= l.dim.Rows {
			return ErrLayoutOverflow
		}
		l.grid[l.row][l.col] = Cell{Rune: r, Fg: l.fg, Bg: l.bg, Attr: l.attr}
		pos[i] = [2]int{l.row, l.col}
		l.col++
	}

	if l.anchorOpen {
		if len(runes) > 0 {
			if l.anchorRow < 0 {
				l.anchorRow = pos[0][0]
				l.anchorStart = pos[0][1]
			}
			last := pos[len(runes)-1]
			if last[0] == l.anchorRow {
				l.anchorEnd = last[1] + 1
			} else {
				l.anchorEnd = l.dim.Cols
			}
		}
		return nil
	}

	// Outside anchors, bare three digit numbers link to that page.
	for _, ref := range FindPageRefs(runes) {
		row, start := pos[ref.Start][0], pos[ref.Start][1]
		end := pos[ref.End-1][1] + 1
		if pos[ref.End-1][0] != row {
			end = l.dim.Cols
		}
		l.links = append(l.links, Link{
			Target:   ID(ref.Number),
			Row:      row,
			ColStart: start,
			ColEnd:   end,
		})
	}
	return nil
}

func (l *layout) openAnchor(target PageId) {
	l.closeAnchor()
	l.anchorOpen = true
	l.anchorTarget = target
	l.anchorRow = -1
}

func (l *layout) closeAnchor() {
	if l.anchorOpen && l.anchorRow >= 0 && l.anchorEnd > l.anchorStart {
		l.links = append(l.links, Link{
			Target:   l.anchorTarget,
			Row:      l.anchorRow,
			ColStart: l.anchorStart,
			ColEnd:   l.anchorEnd,
		})
	}
	l.anchorOpen = false
}
