// Package pdftest builds small AcroForm documents for tests
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

// Field is a widget placed on a test page
type Field struct {
	Name     string
	Checkbox bool
	// OnState names the checked appearance; defaults to Yes
	OnState string
	// Rect is llx, lly, urx, ury in user space
	Rect [4]float64
}

// Text is a run of Helvetica text drawn at a user-space baseline
type Text struct {
	X, Y float64
	Size float64
	S    string
}

// Page describes one test page
type Page struct {
	Width, Height float64
	Rotate        int
	Texts         []Text
	Fields        []Field
}

type builder struct {
	buf     bytes.Buffer
	offsets []int
}

func (b *builder) object(body string) int {
	b.offsets = append(b.offsets, b.buf.Len())
	n := len(b.offsets)
	fmt.Fprintf(&b.buf, "%d 0 obj\n%s\nendobj\n", n, body)
	return n
}

// reserve allocates object numbers to be written later in order
func (b *builder) reserve(count int) int {
	first := len(b.offsets) + 1
	for i := 0; i < count; i++ {
		b.offsets = append(b.offsets, -1)
	}
	return first
}

func (b *builder) fill(n int, body string) {
	b.offsets[n-1] = b.buf.Len()
	fmt.Fprintf(&b.buf, "%d 0 obj\n%s\nendobj\n", n, body)
}

func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`).Replace(s)
}

// Build writes a valid PDF with an AcroForm containing every field
func Build(pages ...Page) []byte {
	b := &builder{}
	b.buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	// 1 catalog, 2 pages tree, 3 acroform, 4 font
	b.reserve(4)

	widths := strings.TrimSpace(strings.Repeat("500 ", 126-32+1))
	b.fill(4, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 /Widths ["+widths+"] >>")

	var kids, fields []string
	for _, p := range pages {
		var content strings.Builder
		for _, t := range p.Texts {
			fmt.Fprintf(&content, "BT /F1 %g Tf %g %g Td (%s) Tj ET\n", t.Size, t.X, t.Y, escape(t.S))
		}
		stream := content.String()
		contentObj := b.object(fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(stream), stream))

		pageObj := b.reserve(1)
		var annots []string
		for _, f := range p.Fields {
			rect := fmt.Sprintf("[%g %g %g %g]", f.Rect[0], f.Rect[1], f.Rect[2], f.Rect[3])
			var n int
			if f.Checkbox {
				on := f.OnState
				if on == "" {
					on = "Yes"
				}
				onAP := b.object("<< /Type /XObject /Subtype /Form /BBox [0 0 10 10] /Length 0 >>\nstream\nendstream")
				offAP := b.object("<< /Type /XObject /Subtype /Form /BBox [0 0 10 10] /Length 0 >>\nstream\nendstream")
				n = b.object(fmt.Sprintf("<< /Type /Annot /Subtype /Widget /FT /Btn /T (%s) /Rect %s /P %d 0 R /V /Off /AS /Off /AP << /N << /%s %d 0 R /Off %d 0 R >> >> >>",
					escape(f.Name), rect, pageObj, on, onAP, offAP))
			} else {
				n = b.object(fmt.Sprintf("<< /Type /Annot /Subtype /Widget /FT /Tx /T (%s) /Rect %s /P %d 0 R /DA (/Helv 10 Tf 0 g) >>",
					escape(f.Name), rect, pageObj))
			}
			annots = append(annots, fmt.Sprintf("%d 0 R", n))
		}
		fields = append(fields, annots...)

		body := fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %g %g] /Contents %d 0 R /Resources << /Font << /F1 4 0 R >> >>",
			p.Width, p.Height, contentObj)
		if p.Rotate != 0 {
			body += fmt.Sprintf(" /Rotate %d", p.Rotate)
		}
		if len(annots) > 0 {
			body += " /Annots [" + strings.Join(annots, " ") + "]"
		}
		b.fill(pageObj, body+" >>")
		kids = append(kids, fmt.Sprintf("%d 0 R", pageObj))
	}

	b.fill(1, "<< /Type /Catalog /Pages 2 0 R /AcroForm 3 0 R >>")
	b.fill(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(kids)))
	b.fill(3, "<< /Fields ["+strings.Join(fields, " ")+"] /DA (/Helv 0 Tf 0 g) /DR << /Font << /Helv 4 0 R >> >> >>")

	xref := b.buf.Len()
	fmt.Fprintf(&b.buf, "xref\n0 %d\n0000000000 65535 f \n", len(b.offsets)+1)
	for _, off := range b.offsets {
		fmt.Fprintf(&b.buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b.buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(b.offsets)+1, xref)
	return b.buf.Bytes()
}
