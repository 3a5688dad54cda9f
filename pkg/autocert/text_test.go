package autocert

import (
	"reflect"
	"strings"
	"testing"
)

// every rune is 10px wide
func monoMeasure(s string) float64 {
	return float64(len([]rune(s))) * 10
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		width    float64
		expected []string
	}{
		{"short text is one line", "Ada Lovelace", 500, []string{"Ada Lovelace"}},
		{"exact fit stays on one line", "abcd efgh", 90, []string{"abcd efgh"}},
		{"greedy wrap", "one two three four", 90, []string{"one two", "three", "four"}},
		{"over-long word kept whole", "a supercalifragilistic b", 50, []string{"a", "supercalifragilistic", "b"}},
		{"whitespace collapses", "  one\ntwo  ", 500, []string{"one two"}},
		{"empty", "", 100, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WrapText(tt.text, tt.width, monoMeasure)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestWrapTextLinesFitWidth(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor sit amet ", 8)
	for _, width := range []float64{60, 110, 230, 400} {
		for _, line := range WrapText(text, width, monoMeasure) {
			if monoMeasure(line) > width && strings.Contains(line, " ") {
				t.Errorf("width %v: line %q overflows", width, line)
			}
		}
	}
}

func TestWrapTextIdempotentOnShortText(t *testing.T) {
	once := WrapText("Certificate of Completion", 1000, monoMeasure)
	if len(once) != 1 {
		t.Fatalf("expected one line, got %q", once)
	}
	twice := WrapText(once[0], 1000, monoMeasure)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("expected %q, got %q", once, twice)
	}
}

func TestAnchorX(t *testing.T) {
	rect := Rect{X: 100, Y: 0, Width: 200, Height: 40}
	tests := []struct {
		align TextAlign
		want  float64
	}{
		{TextAlignLeft, 100},
		{TextAlignCenter, 175},
		{TextAlignRight, 250},
	}

	for _, tt := range tests {
		tr := &TextRenderer{style: FieldStyle{Align: tt.align}}
		if got := tr.anchorX(rect, 50); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.align, tt.want, got)
		}
	}
}
