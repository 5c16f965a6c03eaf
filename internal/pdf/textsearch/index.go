package textsearch

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/a3tai/assessment-forms/internal/pdf/forms"
	"github.com/ledongthuc/pdf"
)

// Match is a located occurrence of a needle, in user space
type Match struct {
	Page int
	Rect forms.Rect
}

// glyph is one character with its user-space box
type glyph struct {
	r          rune
	x0, x1     float64
	base, size float64
}

// line is a run of glyphs sharing a baseline, left to right
type line struct {
	glyphs []glyph
	folded []rune
}

// Index holds the positioned text of every page of a document
type Index struct {
	pages [][]line
}

// NewIndex extracts positioned text from every page
func NewIndex(data []byte) (*Index, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF for text search: %w", err)
	}

	ix := &Index{pages: make([][]line, r.NumPage())}
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		texts, err := pageTexts(r, pageNum)
		if err != nil {
			return nil, err
		}
		ix.pages[pageNum-1] = buildLines(texts)
	}
	return ix, nil
}

// pageTexts reads a page's glyphs; the content parser panics on streams it
// cannot handle.
func pageTexts(r *pdf.Reader, pageNum int) (texts []pdf.Text, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("failed to read text on page %d: %v", pageNum, rec)
		}
	}()

	page := r.Page(pageNum)
	if page.V.IsNull() {
		return nil, nil
	}
	return page.Content().Text, nil
}

// buildLines groups glyphs into lines ordered top to bottom. A space is
// inserted wherever the gap between glyphs is wider than a fraction of the
// font size.
func buildLines(texts []pdf.Text) []line {
	var glyphs []glyph
	for _, t := range texts {
		runes := []rune(t.S)
		if len(runes) == 0 {
			continue
		}
		w := t.W
		if w <= 0 {
			w = 0.5 * t.FontSize * float64(len(runes))
		}
		step := w / float64(len(runes))
		for i, r := range runes {
			x := t.X + float64(i)*step
			glyphs = append(glyphs, glyph{r: r, x0: x, x1: x + step, base: t.Y, size: t.FontSize})
		}
	}

	sort.SliceStable(glyphs, func(i, j int) bool {
		if !sameBaseline(glyphs[i], glyphs[j]) {
			return glyphs[i].base > glyphs[j].base
		}
		return glyphs[i].x0 < glyphs[j].x0
	})

	var lines []line
	for _, g := range glyphs {
		if n := len(lines); n > 0 && sameBaseline(lines[n-1].glyphs[0], g) {
			prev := lines[n-1].glyphs[len(lines[n-1].glyphs)-1]
			if g.x0-prev.x1 > 0.15*math.Max(g.size, 1) && !unicode.IsSpace(prev.r) && !unicode.IsSpace(g.r) {
				lines[n-1].glyphs = append(lines[n-1].glyphs, glyph{r: ' ', x0: prev.x1, x1: g.x0, base: g.base, size: g.size})
			}
			lines[n-1].glyphs = append(lines[n-1].glyphs, g)
			continue
		}
		lines = append(lines, line{glyphs: []glyph{g}})
	}

	for i := range lines {
		lines[i].folded = make([]rune, len(lines[i].glyphs))
		for j, g := range lines[i].glyphs {
			lines[i].folded[j] = unicode.ToLower(g.r)
		}
	}
	return lines
}

func sameBaseline(a, b glyph) bool {
	return math.Abs(a.base-b.base) < 0.3*math.Max(math.Max(a.size, b.size), 1)
}

// Find returns the occurrence-th (zero-based) match of needle, counting in
// reading order across pages.
func (ix *Index) Find(needle string, caseSensitive bool, occurrence int) (Match, bool) {
	want := []rune(strings.Join(strings.Fields(needle), " "))
	if len(want) == 0 || occurrence < 0 {
		return Match{}, false
	}
	if !caseSensitive {
		for i, r := range want {
			want[i] = unicode.ToLower(r)
		}
	}

	for page, lines := range ix.pages {
		for _, ln := range lines {
			for start := 0; start+len(want) <= len(ln.glyphs); {
				if !ln.matchAt(start, want, caseSensitive) {
					start++
					continue
				}
				if occurrence == 0 {
					return Match{Page: page, Rect: ln.bounds(start, start+len(want))}, true
				}
				occurrence--
				start += len(want)
			}
		}
	}
	return Match{}, false
}

// Count returns how many times needle occurs in the document
func (ix *Index) Count(needle string, caseSensitive bool) int {
	n := 0
	for {
		if _, ok := ix.Find(needle, caseSensitive, n); !ok {
			return n
		}
		n++
	}
}

func (ln line) matchAt(start int, want []rune, caseSensitive bool) bool {
	for i, r := range want {
		got := ln.folded[start+i]
		if caseSensitive {
			got = ln.glyphs[start+i].r
		}
		if got != r {
			return false
		}
	}
	return true
}

func (ln line) bounds(from, to int) forms.Rect {
	first, last := ln.glyphs[from], ln.glyphs[to-1]
	size := 0.0
	for _, g := range ln.glyphs[from:to] {
		size = math.Max(size, g.size)
	}
	return forms.Rect{
		LLX: first.x0,
		LLY: first.base - 0.25*size,
		URX: last.x1,
		URY: first.base + 0.85*size,
	}
}
