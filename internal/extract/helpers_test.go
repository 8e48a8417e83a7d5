package extract

import (
	"github.com/cognimed/cogimport/internal/pdfdoc"
)

// testWord places one cell at a deterministic grid position.
func testWord(text string, col int, y float64) pdfdoc.Word {
	x := float64(40 + col*90)
	return pdfdoc.Word{
		Text: text,
		Rect: pdfdoc.Rect{
			LowerLeft:  pdfdoc.Point{X: x, Y: y},
			UpperRight: pdfdoc.Point{X: x + 60, Y: y + 12},
		},
	}
}

// pageFromRows lays out rows of cells top to bottom with tight spacing, so
// they land in a single block.
func pageFromRows(number int, rows [][]string) pdfdoc.Page {
	return pageFromRowsAt(number, 720, rows)
}

// pageFromRowsAt is pageFromRows with an explicit starting Y, for composing
// multiple blocks onto one page.
func pageFromRowsAt(number int, startY float64, rows [][]string) pdfdoc.Page {
	var words []pdfdoc.Word
	for i, row := range rows {
		y := startY - float64(i)*16
		for col, cell := range row {
			words = append(words, testWord(cell, col, y))
		}
	}
	return pdfdoc.LayoutPage(number, words)
}

// docFromPages wraps pages into a document.
func docFromPages(pages ...pdfdoc.Page) *pdfdoc.Document {
	return &pdfdoc.Document{Path: "test.pdf", Pages: pages}
}

// docFromLines builds a single-page document where every line is one text
// run, for the whole-document regex extractors.
func docFromLines(lines ...string) *pdfdoc.Document {
	var words []pdfdoc.Word
	for i, line := range lines {
		words = append(words, testWord(line, 0, 720-float64(i)*16))
	}
	return docFromPages(pdfdoc.LayoutPage(1, words))
}
