package pdfdoc

import "strings"

// Point is a position in PDF coordinate space (origin bottom-left).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle in PDF coordinate space.
type Rect struct {
	LowerLeft  Point `json:"lower_left"`
	UpperRight Point `json:"upper_right"`
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float64 { return r.UpperRight.X - r.LowerLeft.X }

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float64 { return r.UpperRight.Y - r.LowerLeft.Y }

// Center returns the middle point of the rectangle.
func (r Rect) Center() Point {
	return Point{
		X: (r.LowerLeft.X + r.UpperRight.X) / 2,
		Y: (r.LowerLeft.Y + r.UpperRight.Y) / 2,
	}
}

// Contains reports whether p lies inside the rectangle (edges inclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.LowerLeft.X && p.X <= r.UpperRight.X &&
		p.Y >= r.LowerLeft.Y && p.Y <= r.UpperRight.Y
}

// union grows a rectangle to cover another.
func (r Rect) union(o Rect) Rect {
	out := r
	if o.LowerLeft.X < out.LowerLeft.X {
		out.LowerLeft.X = o.LowerLeft.X
	}
	if o.LowerLeft.Y < out.LowerLeft.Y {
		out.LowerLeft.Y = o.LowerLeft.Y
	}
	if o.UpperRight.X > out.UpperRight.X {
		out.UpperRight.X = o.UpperRight.X
	}
	if o.UpperRight.Y > out.UpperRight.Y {
		out.UpperRight.Y = o.UpperRight.Y
	}
	return out
}

// Word is a positioned text fragment as reported by the PDF content stream.
type Word struct {
	Text string `json:"text"`
	Rect Rect   `json:"rect"`
}

// Line is one horizontal band of words in reading order.
type Line struct {
	Words []Word `json:"words"`
	Rect  Rect   `json:"rect"`
}

// Text joins the line's words with single spaces.
func (l Line) Text() string {
	parts := make([]string, len(l.Words))
	for i, w := range l.Words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

// Cells returns the line's word texts as column cells.
func (l Line) Cells() []string {
	cells := make([]string, len(l.Words))
	for i, w := range l.Words {
		cells[i] = w.Text
	}
	return cells
}

// Block is a vertical run of lines separated from its neighbours by a gap,
// carrying the geometry and a table-likeness estimate used to gate numeric
// extraction.
type Block struct {
	Lines []Line `json:"lines"`
	Rect  Rect   `json:"rect"`

	// TableAccuracy estimates, in percent, how reliably this block renders
	// as a grid. Zero means the block is free text, not a table.
	TableAccuracy float64 `json:"table_accuracy"`
}

// Text joins the block's lines with newlines.
func (b Block) Text() string {
	parts := make([]string, len(b.Lines))
	for i, l := range b.Lines {
		parts[i] = l.Text()
	}
	return strings.Join(parts, "\n")
}

// IsTable reports whether the block rendered as a grid at all.
func (b Block) IsTable() bool { return b.TableAccuracy > 0 }

// Page holds the ordered text of one PDF page.
type Page struct {
	Number int     `json:"number"`
	Words  []Word  `json:"words"`
	Lines  []Line  `json:"lines"`
	Blocks []Block `json:"blocks"`
}

// Text joins the page's lines with newlines.
func (p Page) Text() string {
	parts := make([]string, len(p.Lines))
	for i, l := range p.Lines {
		parts[i] = l.Text()
	}
	return strings.Join(parts, "\n")
}

// Document is the parsed text and geometry of one report PDF.
type Document struct {
	Path  string `json:"path"`
	Pages []Page `json:"pages"`
}

// Text joins all pages into one string for whole-document pattern matching.
func (d *Document) Text() string {
	parts := make([]string, len(d.Pages))
	for i, p := range d.Pages {
		parts[i] = p.Text()
	}
	return strings.Join(parts, "\n")
}

// PageByNumber returns the page with the given 1-based number, or nil.
func (d *Document) PageByNumber(n int) *Page {
	for i := range d.Pages {
		if d.Pages[i].Number == n {
			return &d.Pages[i]
		}
	}
	return nil
}
