package pdfdoc

import (
	"testing"
)

func word(text string, x, y float64) Word {
	return Word{
		Text: text,
		Rect: Rect{
			LowerLeft:  Point{X: x, Y: y},
			UpperRight: Point{X: x + 40, Y: y + 12},
		},
	}
}

func TestLayoutPage_RowGrouping(t *testing.T) {
	// Words on two visual rows, delivered out of order.
	words := []Word{
		word("88", 200, 700),
		word("Memory", 50, 700.5),
		word("Attention", 50, 680),
		word("95", 200, 679.5),
	}

	page := LayoutPage(1, words)

	if len(page.Lines) != 2 {
		t.Fatalf("expected 2 lines but got %d", len(page.Lines))
	}
	if got := page.Lines[0].Text(); got != "Memory 88" {
		t.Errorf("expected first line %q but got %q", "Memory 88", got)
	}
	if got := page.Lines[1].Text(); got != "Attention 95" {
		t.Errorf("expected second line %q but got %q", "Attention 95", got)
	}
}

func TestLayoutPage_ReadingOrder(t *testing.T) {
	// Top-to-bottom, then left-to-right within a band.
	words := []Word{
		word("right", 300, 500),
		word("left", 10, 500),
		word("top", 10, 720),
	}

	page := LayoutPage(1, words)

	if got := page.Text(); got != "top\nleft right" {
		t.Errorf("unexpected reading order: %q", got)
	}
}

func TestLayoutPage_BlockSegmentation(t *testing.T) {
	words := []Word{
		word("header", 50, 700),
		word("body", 50, 684),
		// 60 units of whitespace before the next block.
		word("footer", 50, 600),
	}

	page := LayoutPage(1, words)

	if len(page.Blocks) != 2 {
		t.Fatalf("expected 2 blocks but got %d", len(page.Blocks))
	}
	if got := page.Blocks[0].Text(); got != "header\nbody" {
		t.Errorf("unexpected first block: %q", got)
	}
	if got := page.Blocks[1].Text(); got != "footer" {
		t.Errorf("unexpected second block: %q", got)
	}
}

func TestTableAccuracy(t *testing.T) {
	tests := []struct {
		name      string
		cellsPerLine []int
		want      float64
	}{
		{
			name:         "single line is not a table",
			cellsPerLine: []int{4},
			want:         0,
		},
		{
			name:         "prose block scores zero",
			cellsPerLine: []int{1, 1, 1, 1},
			want:         0,
		},
		{
			name:         "clean grid scores 100",
			cellsPerLine: []int{4, 4, 4, 4},
			want:         100,
		},
		{
			name:         "ragged grid scores its consistent share",
			cellsPerLine: []int{4, 4, 4, 3},
			want:         75,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lines []Line
			for _, n := range tt.cellsPerLine {
				var ws []Word
				for i := 0; i < n; i++ {
					ws = append(ws, word("c", float64(50*i), 0))
				}
				lines = append(lines, Line{Words: ws})
			}
			if got := tableAccuracy(lines); got != tt.want {
				t.Errorf("expected accuracy %v but got %v", tt.want, got)
			}
		})
	}
}

func TestRectContains(t *testing.T) {
	r := Rect{LowerLeft: Point{X: 10, Y: 10}, UpperRight: Point{X: 20, Y: 20}}

	if !r.Contains(Point{X: 15, Y: 15}) {
		t.Error("expected center point to be contained")
	}
	if !r.Contains(Point{X: 10, Y: 20}) {
		t.Error("expected edge point to be contained")
	}
	if r.Contains(Point{X: 25, Y: 15}) {
		t.Error("expected outside point to not be contained")
	}
}

func TestReader_OpenMissingFile(t *testing.T) {
	r := NewReader(1024 * 1024)

	_, err := r.Open("/nonexistent/report.pdf")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, ok := err.(*UnreadableError); !ok {
		t.Errorf("expected *UnreadableError but got %T", err)
	}
}
