package report

import (
	"bytes"
	"fmt"
	"io"
	"slices"

	"github.com/2beens/formcheck/internal/analysis"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageMargin   = 15.0 // mm
	contentWidth = 210 - 2*pageMargin
	lineHeight   = 6.0
	traceImage   = "angle-trace"
)

// WritePDF renders a one-analysis report. tracePNG is optional; without it
// the report has no plot.
func WritePDF(w io.Writer, a *analysis.Analysis, tracePNG []byte) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.AddPage()

	// core fonts are cp1252
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	title := a.Exercise
	if a.Profile != nil {
		title = a.Profile.DisplayName
	}

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(contentWidth, 10, tr(fmt.Sprintf("%s form report", title)), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(contentWidth/2, lineHeight, fmt.Sprintf("Repetitions: %d", a.Result.Reps), "", 0, "L", false, 0, "")
	pdf.CellFormat(contentWidth/2, lineHeight, fmt.Sprintf("Score: %.1f / 10", float64(a.Result.Score)), "", 1, "R", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(contentWidth, lineHeight, tr(a.Result.Details.Summary), "", "L", false)
	pdf.Ln(3)

	if len(tracePNG) > 0 {
		pdf.RegisterImageReader(traceImage, "PNG", bytes.NewReader(tracePNG))
		if err := pdf.Error(); err != nil {
			return fmt.Errorf("register trace image: %w", err)
		}
		// 800x400 plot
		pdf.ImageOptions(traceImage, pageMargin, pdf.GetY(), contentWidth, contentWidth/2, true, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		pdf.Ln(3)
	}

	writeFeedback(pdf, tr, a.Result.Details.FeedbackList)
	writeTally(pdf, a.Result.Details.TotalErrors)

	pdf.Ln(3)
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(100, 100, 100)
	stats := a.Stats
	pdf.MultiCell(contentWidth, 4, fmt.Sprintf(
		"Frames: %d, used %d, without person %d, without signal %d, out of order %d.",
		stats.Frames, stats.Used, stats.NoPerson, stats.NoSignal, stats.OutOfOrder,
	), "", "L", false)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func writeFeedback(pdf *gofpdf.Fpdf, tr func(string) string, feedback []analysis.FeedbackEntry) {
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(contentWidth, lineHeight+2, "Repetitions", "", 1, "L", false, 0, "")

	if len(feedback) == 0 {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(contentWidth, lineHeight, "No repetitions detected.", "", 1, "L", false, 0, "")
		return
	}

	widths := []float64{12, 18, 26, 16, contentWidth - 72}
	headers := []string{"Rep", "Time", "Type", "Score", "Feedback"}
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(220, 220, 220)
	for i, h := range headers {
		pdf.CellFormat(widths[i], lineHeight, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, entry := range feedback {
		if entry.Type == analysis.RepTypeCorrection {
			pdf.SetTextColor(180, 0, 0)
		} else {
			pdf.SetTextColor(0, 120, 0)
		}
		pdf.CellFormat(widths[0], lineHeight, fmt.Sprintf("%d", entry.Rep), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[1], lineHeight, entry.Time, "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[2], lineHeight, string(entry.Type), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[3], lineHeight, fmt.Sprintf("%.1f", float64(entry.Score)), "1", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.CellFormat(widths[4], lineHeight, tr(fitText(pdf, entry.Message, widths[4]-2)), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(3)
}

func writeTally(pdf *gofpdf.Fpdf, tally map[string]int) {
	if len(tally) == 0 {
		return
	}

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(contentWidth, lineHeight+2, "Faults", "", 1, "L", false, 0, "")

	kinds := make([]string, 0, len(tally))
	for kind := range tally {
		kinds = append(kinds, kind)
	}
	slices.Sort(kinds)

	pdf.SetFont("Arial", "", 10)
	for _, kind := range kinds {
		pdf.CellFormat(40, lineHeight, kind, "B", 0, "L", false, 0, "")
		pdf.CellFormat(20, lineHeight, fmt.Sprintf("%d", tally[kind]), "B", 1, "R", false, 0, "")
	}
}

// fitText trims s with an ellipsis until it fits in width.
func fitText(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
