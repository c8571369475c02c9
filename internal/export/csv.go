package export

import (
	"bytes"
	"fmt"
	"strings"

	"lapakpos/backend/internal/domain"
	"lapakpos/backend/internal/report"
)

// csvHeader is fixed; downstream spreadsheets key on these exact column
// names.
const csvHeader = "No,Tanggal,Outlet,Metode Pembayaran,Jumlah Item,Total,Produk\n"

// BuildTransactionsCSV writes one row per transaction, in input order. Every
// field except the running index is double-quoted, which encoding/csv cannot
// express, so rows are assembled by hand with q for escaping.
func BuildTransactionsCSV(opts SalesReportOptions) domain.ReportArtifact {
	txs := report.FilterByPeriod(opts.Transactions, opts.Period, opts.Now)

	outletNames := make(map[string]string, len(opts.Outlets))
	for _, o := range opts.Outlets {
		outletNames[o.ID] = o.Name
	}

	var buf bytes.Buffer
	buf.WriteString(csvHeader)

	for i, tx := range txs {
		outlet := outletNames[tx.OutletID]
		if outlet == "" {
			outlet = tx.OutletID
		}

		names := make([]string, 0, len(tx.Items))
		itemCount := 0
		for _, item := range tx.Items {
			names = append(names, item.Name)
			itemCount += item.Qty
		}

		fmt.Fprintf(&buf, "%d,%s,%s,%s,%s,%s,%s\n",
			i+1,
			q(displayDate(tx)),
			q(outlet),
			q(tx.PaymentMethod),
			q(fmt.Sprintf("%d", itemCount)),
			q(fmt.Sprintf("%d", tx.Total)),
			q(strings.Join(names, "; ")),
		)
	}

	return domain.ReportArtifact{
		FileName:    ReportFileName(opts.Scope, opts.ScopeName, opts.Now) + ".csv",
		ContentType: "text/csv; charset=utf-8",
		Data:        buf.Bytes(),
	}
}

// displayDate prefers the stored display string; legacy rows without one fall
// back to the authoritative timestamp.
func displayDate(tx domain.Transaction) string {
	if tx.Date != "" {
		return tx.Date
	}
	return tx.Time().Format("2006-01-02")
}

func q(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
