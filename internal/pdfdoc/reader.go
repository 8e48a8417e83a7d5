package pdfdoc

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const (
	// rowTolerance is the maximum vertical distance, in document units,
	// between fragment baselines still considered the same line.
	rowTolerance = 3.0

	// blockGap is the vertical whitespace that separates two blocks.
	blockGap = 14.0

	// defaultGlyphHeight approximates text height when the font size is
	// missing from the content stream.
	defaultGlyphHeight = 12.0

	// minTableRows is the minimum line count for a block to be considered
	// a table at all.
	minTableRows = 2
)

// UnreadableError reports a PDF that cannot serve as an import source:
// unopenable, failing validation, or containing no extractable pages.
type UnreadableError struct {
	Path string
	Err  error
}

func (e *UnreadableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unreadable pdf %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("unreadable pdf %s", e.Path)
}

func (e *UnreadableError) Unwrap() error { return e.Err }

// Reader opens report PDFs and lays out their text for the extractors.
type Reader struct {
	maxFileSize int64
}

// NewReader creates a new PDF reader with the specified constraints.
func NewReader(maxFileSize int64) *Reader {
	return &Reader{maxFileSize: maxFileSize}
}

// Open parses the PDF at path into ordered lines and positioned blocks per
// page. It is the single entry point every extractor builds on; failure here
// is fatal for the whole import.
func (r *Reader) Open(path string) (*Document, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return nil, &UnreadableError{Path: path, Err: err}
	}
	if fileInfo.IsDir() {
		return nil, &UnreadableError{Path: path, Err: fmt.Errorf("path is a directory")}
	}
	if r.maxFileSize > 0 && fileInfo.Size() > r.maxFileSize {
		return nil, &UnreadableError{
			Path: path,
			Err:  fmt.Errorf("file too large: %d bytes (max: %d bytes)", fileInfo.Size(), r.maxFileSize),
		}
	}

	// Relaxed structural validation first so a truncated upload fails with
	// a clear error instead of a panic deep inside text extraction.
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.ValidateFile(path, conf); err != nil {
		return nil, &UnreadableError{Path: path, Err: fmt.Errorf("validation failed: %w", err)}
	}

	f, pdfReader, err := pdf.Open(path)
	if err != nil {
		return nil, &UnreadableError{Path: path, Err: fmt.Errorf("failed to open PDF: %w", err)}
	}
	defer f.Close()

	doc := &Document{Path: path}
	for pageNum := 1; pageNum <= pdfReader.NumPage(); pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		words := readWords(page)
		if len(words) == 0 {
			continue
		}
		doc.Pages = append(doc.Pages, LayoutPage(pageNum, words))
	}

	if len(doc.Pages) == 0 {
		return nil, &UnreadableError{Path: path, Err: fmt.Errorf("no extractable pages")}
	}

	return doc, nil
}

// readWords converts the page's content stream text into positioned words.
func readWords(page pdf.Page) []Word {
	defer func() {
		// ledongthuc can panic on malformed content streams; a page that
		// cannot be read contributes no words rather than killing the import.
		_ = recover()
	}()

	content := page.Content()
	words := make([]Word, 0, len(content.Text))
	for _, t := range content.Text {
		text := strings.TrimSpace(t.S)
		if text == "" {
			continue
		}
		height := t.FontSize
		if height == 0 {
			height = defaultGlyphHeight
		}
		words = append(words, Word{
			Text: text,
			Rect: Rect{
				LowerLeft:  Point{X: t.X, Y: t.Y},
				UpperRight: Point{X: t.X + t.W, Y: t.Y + height},
			},
		})
	}
	return words
}

// LayoutPage groups positioned words into reading-order lines and gap
// separated blocks. Exported so tests can build pages from synthetic
// fragments without a PDF fixture.
func LayoutPage(number int, words []Word) Page {
	p := Page{Number: number, Words: words}
	p.Lines = groupWordsByRow(words, rowTolerance)
	p.Blocks = groupLinesIntoBlocks(p.Lines, blockGap)
	return p
}

// groupWordsByRow bands words by Y within tolerance, top of page first,
// then sorts each band left to right.
func groupWordsByRow(words []Word, tolerance float64) []Line {
	if len(words) == 0 {
		return nil
	}

	sorted := make([]Word, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Rect.LowerLeft.Y > sorted[j].Rect.LowerLeft.Y
	})

	var lines []Line
	current := []Word{sorted[0]}
	currentY := sorted[0].Rect.LowerLeft.Y

	flush := func() {
		sort.SliceStable(current, func(i, j int) bool {
			return current[i].Rect.LowerLeft.X < current[j].Rect.LowerLeft.X
		})
		line := Line{Words: current, Rect: current[0].Rect}
		for _, w := range current[1:] {
			line.Rect = line.Rect.union(w.Rect)
		}
		lines = append(lines, line)
	}

	for _, w := range sorted[1:] {
		if abs(w.Rect.LowerLeft.Y-currentY) <= tolerance {
			current = append(current, w)
			continue
		}
		flush()
		current = []Word{w}
		currentY = w.Rect.LowerLeft.Y
	}
	flush()

	return lines
}

// groupLinesIntoBlocks splits the line sequence wherever the vertical gap
// between consecutive lines exceeds gap.
func groupLinesIntoBlocks(lines []Line, gap float64) []Block {
	if len(lines) == 0 {
		return nil
	}

	var blocks []Block
	current := []Line{lines[0]}

	flush := func() {
		block := Block{Lines: current, Rect: current[0].Rect}
		for _, l := range current[1:] {
			block.Rect = block.Rect.union(l.Rect)
		}
		block.TableAccuracy = tableAccuracy(current)
		blocks = append(blocks, block)
	}

	for _, l := range lines[1:] {
		prev := current[len(current)-1]
		if prev.Rect.LowerLeft.Y-l.Rect.UpperRight.Y <= gap {
			current = append(current, l)
			continue
		}
		flush()
		current = []Line{l}
	}
	flush()

	return blocks
}

// tableAccuracy estimates, in percent, how consistently the block's lines
// share a column count. Free text scores zero; a clean grid scores near 100.
func tableAccuracy(lines []Line) float64 {
	if len(lines) < minTableRows {
		return 0
	}

	colCounts := make(map[int]int)
	multiColumn := 0
	for _, l := range lines {
		colCounts[len(l.Words)]++
		if len(l.Words) > 1 {
			multiColumn++
		}
	}

	// A block where almost every line is a single fragment is prose, not
	// a grid, whatever its count consistency.
	if multiColumn*2 < len(lines) {
		return 0
	}

	maxCount := 0
	for _, frequency := range colCounts {
		if frequency > maxCount {
			maxCount = frequency
		}
	}

	return 100 * float64(maxCount) / float64(len(lines))
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
