package export

import (
	"bytes"

	"github.com/go-pdf/fpdf"
)

// Page geometry in millimetres.
const (
	pdfMarginLeft = 10.0
	pdfMarginTop  = 10.0
	pdfTextWidth  = 180.0
	pdfFontSize   = 16.0
	// 1.15 line factor, points to mm.
	pdfLineHeight = pdfFontSize * 1.15 * 25.4 / 72
	pdfPageBottom = 287.0
)

// newPDF returns an A4 document with the body font selected. The core
// Helvetica font covers cp1252 only.
func newPDF() *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMarginLeft, pdfMarginTop, pdfMarginLeft)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Helvetica", "", pdfFontSize)
	return pdf
}

// renderPDF writes text wrapped to pdfTextWidth starting at the top-left margin.
func renderPDF(text string) ([]byte, error) {
	pdf := newPDF()
	pdf.AddPage()

	y := pdfMarginTop
	for _, line := range pdfLines(pdf, text) {
		if y > pdfPageBottom {
			pdf.AddPage()
			y = pdfMarginTop
		}
		pdf.Text(pdfMarginLeft, y, line)
		y += pdfLineHeight
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// pdfLines converts text to cp1252 and splits it with SplitText. SplitText
// looks glyph widths up by rune, so each encoded byte travels as its own
// rune and is narrowed back afterwards.
func pdfLines(pdf *fpdf.Fpdf, text string) []string {
	encoded := pdf.UnicodeTranslatorFromDescriptor("")(text)

	widened := make([]rune, len(encoded))
	for i := 0; i < len(encoded); i++ {
		widened[i] = rune(encoded[i])
	}

	split := pdf.SplitText(string(widened), pdfTextWidth)
	lines := make([]string, 0, len(split))
	for _, line := range split {
		narrow := make([]byte, 0, len(line))
		for _, r := range line {
			narrow = append(narrow, byte(r))
		}
		lines = append(lines, string(narrow))
	}
	return lines
}
