package export

import (
	"testing"
	"time"

	"lapakpos/backend/internal/domain"
	"lapakpos/backend/internal/report"
)

func TestBuildTransactionsCSVExactBytes(t *testing.T) {
	now := time.Date(2025, 3, 21, 10, 0, 0, 0, time.UTC)
	opts := SalesReportOptions{
		Scope:     domain.ScopeAll,
		ScopeName: "Semua Outlet",
		Period:    report.PeriodAll,
		Now:       now,
		Outlets:   []domain.Outlet{{ID: "out_1", Name: "Pusat"}},
		Transactions: []domain.Transaction{
			{
				ID:            "trx_1",
				OutletID:      "out_1",
				PaymentMethod: domain.PaymentCash,
				Total:         22000,
				Timestamp:     now.UnixMilli(),
				Date:          "21/3/2025",
				Items: []domain.TransactionItem{
					{ProductID: "prd_a", Name: "Kopi Susu", Qty: 1, UnitPrice: 10000},
					{ProductID: "prd_b", Name: "Roti Bakar", Qty: 1, UnitPrice: 10000},
				},
			},
			{
				ID:            "trx_2",
				OutletID:      "out_missing",
				PaymentMethod: domain.PaymentTransfer,
				Total:         11000,
				Timestamp:     now.UnixMilli(),
				Items: []domain.TransactionItem{
					{ProductID: "prd_c", Name: `Teh "Spesial"`, Qty: 2, UnitPrice: 5000},
				},
			},
		},
	}

	artifact := BuildTransactionsCSV(opts)

	want := "No,Tanggal,Outlet,Metode Pembayaran,Jumlah Item,Total,Produk\n" +
		`1,"21/3/2025","Pusat","cash","2","22000","Kopi Susu; Roti Bakar"` + "\n" +
		`2,"2025-03-21","out_missing","transfer","2","11000","Teh ""Spesial"""` + "\n"
	if string(artifact.Data) != want {
		t.Fatalf("csv bytes:\n%q\nwant:\n%q", artifact.Data, want)
	}
	if artifact.FileName != "Laporan_Penjualan_2025-03-21.csv" {
		t.Fatalf("file name = %q", artifact.FileName)
	}
	if artifact.ContentType != "text/csv; charset=utf-8" {
		t.Fatalf("content type = %q", artifact.ContentType)
	}
}

func TestBuildTransactionsCSVEmpty(t *testing.T) {
	artifact := BuildTransactionsCSV(SalesReportOptions{
		Scope:  domain.ScopeAll,
		Period: report.PeriodAll,
		Now:    time.Date(2025, 3, 21, 10, 0, 0, 0, time.UTC),
	})
	if string(artifact.Data) != "No,Tanggal,Outlet,Metode Pembayaran,Jumlah Item,Total,Produk\n" {
		t.Fatalf("empty csv = %q, want header only", artifact.Data)
	}
}

func TestBuildTransactionsCSVAppliesPeriod(t *testing.T) {
	now := time.Date(2025, 3, 21, 10, 0, 0, 0, time.UTC)
	artifact := BuildTransactionsCSV(SalesReportOptions{
		Scope:  domain.ScopeAll,
		Period: report.PeriodToday,
		Now:    now,
		Transactions: []domain.Transaction{
			{ID: "old", Timestamp: now.AddDate(0, 0, -3).UnixMilli(), PaymentMethod: domain.PaymentCash},
			{ID: "new", Timestamp: now.UnixMilli(), PaymentMethod: domain.PaymentCash},
		},
	})
	lines := 0
	for _, b := range artifact.Data {
		if b == '\n' {
			lines++
		}
	}
	if lines != 2 {
		t.Fatalf("line count = %d, want header plus one row", lines)
	}
}
