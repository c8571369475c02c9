// Package export renders sales reports into downloadable artifacts (PDF and
// CSV). Rendering is deterministic: the same transactions, scope and
// reference time always produce the same bytes.
package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"lapakpos/backend/internal/domain"
	"lapakpos/backend/internal/report"
)

// A4 portrait geometry in millimeters. Section renderers position everything
// relative to these constants and a running Y cursor; heights are fixed per
// section, text is truncated to fit rather than wrapped.
const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	margin       = 12.0
	contentWidth = pageWidth - 2*margin

	// bottomSafe is how much room a section needs. The check runs only
	// between sections, so a section never splits across pages.
	bottomSafe = 60.0

	tableRowLimit = 8
)

// SalesReportOptions carries everything the renderer needs. Transactions must
// already be scope-filtered; the period filter is applied here so the PDF,
// CSV and JSON paths share one window computation.
type SalesReportOptions struct {
	Scope        string
	ScopeName    string
	Period       report.Period
	Now          time.Time
	Transactions []domain.Transaction
	Outlets      []domain.Outlet
	Products     []domain.Product
}

// BuildSalesReport renders the full report document. Renderer errors
// propagate unchanged; a failed render yields no artifact.
func BuildSalesReport(opts SalesReportOptions) (domain.ReportArtifact, error) {
	txs := report.FilterByPeriod(opts.Transactions, opts.Period, opts.Now)

	summary := report.Summarize(txs)
	payments := report.PaymentBreakdown(txs)
	allScope := opts.Scope == domain.ScopeAll
	top := report.TopProducts(txs, tableRowLimit, allScope, report.SortByQuantity)
	categories := report.CategoryPerformance(txs, opts.Products)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	y := margin
	y = drawHeader(pdf, y)
	y = drawInfo(pdf, y, opts.ScopeName, opts.Period.Label(), opts.Now)
	y = drawSummaryCards(pdf, y, summary)
	if summary.TotalTransactions > 0 {
		y = drawPaymentBars(pdf, y, payments)
	}

	y = breakCheck(pdf, y)
	if allScope && len(opts.Outlets) > 1 {
		outletStats := report.OutletPerformance(txs, opts.Outlets, opts.Products)
		if len(outletStats) > tableRowLimit {
			outletStats = outletStats[:tableRowLimit]
		}
		y = drawOutletTable(pdf, y, outletStats)
	}

	y = breakCheck(pdf, y)
	if len(top) > 0 {
		y = drawTopProductsTable(pdf, y, top)
	}

	y = breakCheck(pdf, y)
	if len(categories) > 0 {
		drawCategoryTable(pdf, y, categories)
	}

	drawFooter(pdf, opts.Now)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return domain.ReportArtifact{}, err
	}
	return domain.ReportArtifact{
		FileName:    ReportFileName(opts.Scope, opts.ScopeName, opts.Now) + ".pdf",
		ContentType: "application/pdf",
		Data:        buf.Bytes(),
	}, nil
}

// ReportFileName builds the artifact base name without extension.
func ReportFileName(scope, scopeName string, now time.Time) string {
	date := now.Format("2006-01-02")
	if scope == domain.ScopeAll {
		return "Laporan_Penjualan_" + date
	}
	return "Laporan_" + strings.ReplaceAll(scopeName, " ", "_") + "_" + date
}

func breakCheck(pdf *fpdf.Fpdf, y float64) float64 {
	if y > pageHeight-bottomSafe {
		pdf.AddPage()
		return margin
	}
	return y
}

func drawHeader(pdf *fpdf.Fpdf, y float64) float64 {
	pdf.SetFillColor(30, 58, 138)
	pdf.Rect(margin, y, contentWidth, 24, "F")

	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(margin+6, y+5)
	pdf.CellFormat(contentWidth-12, 8, "Laporan Penjualan", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetXY(margin+6, y+14)
	pdf.CellFormat(contentWidth-12, 5, "LapakPOS", "", 0, "L", false, 0, "")

	return y + 28
}

func drawInfo(pdf *fpdf.Fpdf, y float64, scopeName, periodLabel string, now time.Time) float64 {
	rows := []struct{ label, value string }{
		{"Outlet", scopeName},
		{"Periode", periodLabel},
		{"Dibuat", now.Format("02/01/2006 15:04")},
	}

	pdf.SetTextColor(31, 41, 55)
	for i, row := range rows {
		rowY := y + float64(i)*9
		pdf.SetFillColor(243, 244, 246)
		pdf.Rect(margin, rowY, contentWidth, 8, "F")

		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetXY(margin+4, rowY+1.5)
		pdf.CellFormat(34, 5, row.label, "", 0, "L", false, 0, "")

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetXY(margin+40, rowY+1.5)
		pdf.CellFormat(contentWidth-44, 5, row.value, "", 0, "L", false, 0, "")
	}

	return y + 3*9 + 4
}

func drawSummaryCards(pdf *fpdf.Fpdf, y float64, summary report.SummaryStats) float64 {
	const (
		cardGap = 6.0
		cardH   = 22.0
	)
	cardW := (contentWidth - cardGap) / 2

	cards := []struct {
		label string
		value string
	}{
		{"Total Penjualan", report.Rupiah(summary.TotalSales)},
		{"Jumlah Transaksi", fmt.Sprintf("%d", summary.TotalTransactions)},
		{"Item Terjual", fmt.Sprintf("%d", summary.TotalItems)},
		{"Rata-rata Transaksi", report.Rupiah(int64(summary.AveragePerTransaction))},
	}

	for i, card := range cards {
		col := float64(i % 2)
		row := float64(i / 2)
		x := margin + col*(cardW+cardGap)
		cy := y + row*(cardH+cardGap)

		pdf.SetFillColor(249, 250, 251)
		pdf.Rect(x, cy, cardW, cardH, "F")
		pdf.SetFillColor(37, 99, 235)
		pdf.Rect(x, cy, 2, cardH, "F")

		pdf.SetTextColor(107, 114, 128)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetXY(x+6, cy+4)
		pdf.CellFormat(cardW-10, 4, card.label, "", 0, "L", false, 0, "")

		pdf.SetTextColor(31, 41, 55)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetXY(x+6, cy+11)
		pdf.CellFormat(cardW-10, 7, report.Ellipsis(card.value, 20), "", 0, "R", false, 0, "")
	}

	return y + 2*cardH + cardGap + 8
}

func drawPaymentBars(pdf *fpdf.Fpdf, y float64, breakdown map[string]report.PaymentStat) float64 {
	y = drawSectionTitle(pdf, y, "Metode Pembayaran")

	var total int64
	for _, stat := range breakdown {
		total += stat.TotalAmount
	}

	const (
		labelW = 35.0
		pctW   = 20.0
		rowH   = 8.0
	)
	barW := contentWidth - labelW - pctW - 8

	methods := report.PaymentMethods()
	for i, method := range methods {
		stat := breakdown[method]
		rowY := y + float64(i)*rowH

		pdf.SetTextColor(31, 41, 55)
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetXY(margin, rowY+1)
		pdf.CellFormat(labelW, 5, paymentLabel(method), "", 0, "L", false, 0, "")

		barX := margin + labelW + 4
		pdf.SetFillColor(229, 231, 235)
		pdf.Rect(barX, rowY+1.5, barW, 4, "F")

		var fraction float64
		if total > 0 {
			fraction = float64(stat.TotalAmount) / float64(total)
		}
		if fraction > 0 {
			pdf.SetFillColor(37, 99, 235)
			pdf.Rect(barX, rowY+1.5, barW*fraction, 4, "F")
		}

		pdf.SetTextColor(107, 114, 128)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetXY(barX+barW+2, rowY+1)
		pdf.CellFormat(pctW, 5, fmt.Sprintf("%.0f%%", fraction*100), "", 0, "R", false, 0, "")
	}

	return y + float64(len(methods))*rowH + 6
}

func drawOutletTable(pdf *fpdf.Fpdf, y float64, stats []report.OutletStat) float64 {
	y = drawSectionTitle(pdf, y, "Performa Outlet")

	widths := []float64{70, 40, 36, 40}
	aligns := []string{"L", "R", "R", "R"}
	y = drawTableHeader(pdf, y, widths, aligns, []string{"Outlet", "Penjualan", "Transaksi", "Rata-rata"})

	for i, stat := range stats {
		cells := []string{
			report.Ellipsis(stat.Name, 28),
			report.Millions(stat.TotalSales),
			fmt.Sprintf("%d", stat.TransactionCount),
			report.Thousands(int64(stat.AveragePerTransaction)),
		}
		y = drawTableRow(pdf, y, widths, aligns, cells, i%2 == 1)
	}
	return y + 6
}

func drawTopProductsTable(pdf *fpdf.Fpdf, y float64, top []report.ProductStat) float64 {
	y = drawSectionTitle(pdf, y, "Produk Terlaris")

	widths := []float64{12, 94, 36, 44}
	aligns := []string{"L", "L", "R", "R"}
	y = drawTableHeader(pdf, y, widths, aligns, []string{"#", "Produk", "Terjual", "Pendapatan"})

	for i, stat := range top {
		cells := []string{
			fmt.Sprintf("%d", i+1),
			report.Ellipsis(stat.Name, 28),
			fmt.Sprintf("%d", stat.QuantitySold),
			report.Thousands(stat.Revenue),
		}
		y = drawTableRow(pdf, y, widths, aligns, cells, i%2 == 1)
	}
	return y + 6
}

func drawCategoryTable(pdf *fpdf.Fpdf, y float64, stats []report.CategoryStat) float64 {
	y = drawSectionTitle(pdf, y, "Performa Kategori")

	widths := []float64{106, 36, 44}
	aligns := []string{"L", "R", "R"}
	y = drawTableHeader(pdf, y, widths, aligns, []string{"Kategori", "Terjual", "Pendapatan"})

	if len(stats) > tableRowLimit {
		stats = stats[:tableRowLimit]
	}
	for i, stat := range stats {
		cells := []string{
			report.Ellipsis(stat.Category, 25),
			fmt.Sprintf("%d", stat.QuantitySold),
			report.Thousands(stat.Revenue),
		}
		y = drawTableRow(pdf, y, widths, aligns, cells, i%2 == 1)
	}
	return y + 6
}

func drawFooter(pdf *fpdf.Fpdf, now time.Time) {
	lineY := pageHeight - 18
	pdf.SetDrawColor(209, 213, 219)
	pdf.Line(margin, lineY, pageWidth-margin, lineY)

	pdf.SetTextColor(156, 163, 175)
	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(margin, lineY+2)
	pdf.CellFormat(contentWidth, 4,
		"Dibuat otomatis oleh LapakPOS pada "+now.Format("02/01/2006 15:04"),
		"", 0, "C", false, 0, "")
}

func drawSectionTitle(pdf *fpdf.Fpdf, y float64, title string) float64 {
	pdf.SetTextColor(31, 41, 55)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetXY(margin, y)
	pdf.CellFormat(contentWidth, 6, title, "", 0, "L", false, 0, "")
	return y + 8
}

func drawTableHeader(pdf *fpdf.Fpdf, y float64, widths []float64, aligns, titles []string) float64 {
	pdf.SetFillColor(30, 58, 138)
	pdf.Rect(margin, y, contentWidth, 7, "F")

	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 8)
	x := margin
	for i, title := range titles {
		pdf.SetXY(x+2, y+1.5)
		pdf.CellFormat(widths[i]-4, 4, title, "", 0, aligns[i], false, 0, "")
		x += widths[i]
	}
	return y + 7
}

func drawTableRow(pdf *fpdf.Fpdf, y float64, widths []float64, aligns, cells []string, shaded bool) float64 {
	if shaded {
		pdf.SetFillColor(243, 244, 246)
		pdf.Rect(margin, y, contentWidth, 7, "F")
	}

	pdf.SetTextColor(31, 41, 55)
	pdf.SetFont("Helvetica", "", 8)
	x := margin
	for i, cell := range cells {
		pdf.SetXY(x+2, y+1.5)
		pdf.CellFormat(widths[i]-4, 4, cell, "", 0, aligns[i], false, 0, "")
		x += widths[i]
	}
	return y + 7
}

func paymentLabel(method string) string {
	switch method {
	case domain.PaymentCash:
		return "Tunai"
	case domain.PaymentTransfer:
		return "Transfer"
	case domain.PaymentEwallet:
		return "E-Wallet"
	case domain.PaymentCard:
		return "Kartu"
	default:
		return method
	}
}
