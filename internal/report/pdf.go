package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/signintech/gopdf"
)

// fontPaths are the usual DejaVuSans locations across base images. The first
// readable one wins.
var fontPaths = []string{
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

// pdfTextWidth is the usable line width in points on an A4 page.
const pdfTextWidth = 500

// RenderPDF renders the composed report text as a downloadable A4 PDF.
func RenderPDF(variant string, answers []string) ([]byte, error) {
	text, err := Compose(variant, answers)
	if err != nil {
		return nil, err
	}

	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	var fontErr error
	loaded := false
	for _, path := range fontPaths {
		if fontErr = pdf.AddTTFFont("DejaVu", path); fontErr == nil {
			loaded = true
			break
		}
	}
	if !loaded {
		return nil, fmt.Errorf("report: load PDF font: %w", fontErr)
	}

	if err := pdf.SetFont("DejaVu", "", 18); err != nil {
		return nil, fmt.Errorf("report: set font: %w", err)
	}
	pdf.Cell(nil, "Pulseaid Emergency Report")
	pdf.Br(26)

	if err := pdf.SetFont("DejaVu", "", 10); err != nil {
		return nil, fmt.Errorf("report: set font: %w", err)
	}
	pdf.Cell(nil, "Generated: "+time.Now().Format("02 Jan 2006 15:04"))
	pdf.Br(20)

	if err := pdf.SetFont("DejaVu", "", 11); err != nil {
		return nil, fmt.Errorf("report: set font: %w", err)
	}
	for _, paragraph := range strings.Split(text, "\n") {
		if paragraph == "" {
			pdf.Br(12)
			continue
		}
		lines, _ := pdf.SplitText(paragraph, pdfTextWidth)
		for _, l := range lines {
			pdf.Cell(nil, l)
			pdf.Br(14)
		}
	}

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("report: write PDF: %w", err)
	}
	return buf.Bytes(), nil
}
