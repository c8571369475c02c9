package report

import (
	"errors"
	"testing"
	"time"

	"lapakpos/backend/internal/domain"
	"lapakpos/backend/internal/store"
)

func TestParsePeriod(t *testing.T) {
	for _, raw := range []string{"today", "week", "month", "all"} {
		p, err := ParsePeriod(raw)
		if err != nil {
			t.Fatalf("ParsePeriod(%q): %v", raw, err)
		}
		if string(p) != raw {
			t.Fatalf("ParsePeriod(%q) = %q", raw, p)
		}
	}

	p, err := ParsePeriod("")
	if err != nil || p != PeriodAll {
		t.Fatalf("empty period = (%q, %v), want all", p, err)
	}

	if _, err := ParsePeriod("yesterday"); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("unknown period error = %v, want ErrInvalidInput", err)
	}
}

func TestFilterByPeriodAllIsIdentity(t *testing.T) {
	txs := []domain.Transaction{
		{ID: "trx_1", Timestamp: 1},
		{ID: "trx_2", Timestamp: time.Now().UnixMilli()},
	}
	got := FilterByPeriod(txs, PeriodAll, time.Now())
	if len(got) != len(txs) {
		t.Fatalf("len = %d, want %d", len(got), len(txs))
	}
	for i := range txs {
		if got[i].ID != txs[i].ID {
			t.Fatalf("order changed at %d: %s", i, got[i].ID)
		}
	}
}

func TestFilterByPeriodToday(t *testing.T) {
	ref := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)
	txs := []domain.Transaction{
		{ID: "midnight", Timestamp: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC).UnixMilli()},
		{ID: "late", Timestamp: time.Date(2025, 3, 10, 23, 59, 59, 0, time.UTC).UnixMilli()},
		{ID: "yesterday", Timestamp: time.Date(2025, 3, 9, 23, 59, 59, 0, time.UTC).UnixMilli()},
		{ID: "tomorrow", Timestamp: time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC).UnixMilli()},
	}
	got := FilterByPeriod(txs, PeriodToday, ref)
	if len(got) != 2 || got[0].ID != "midnight" || got[1].ID != "late" {
		t.Fatalf("today window kept %+v", ids(got))
	}
}

func TestFilterByPeriodWeek(t *testing.T) {
	ref := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)
	txs := []domain.Transaction{
		{ID: "edge", Timestamp: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC).UnixMilli()},
		{ID: "out", Timestamp: time.Date(2025, 3, 2, 23, 59, 59, 0, time.UTC).UnixMilli()},
	}
	got := FilterByPeriod(txs, PeriodWeek, ref)
	if len(got) != 1 || got[0].ID != "edge" {
		t.Fatalf("week window kept %+v", ids(got))
	}
}

func TestFilterByPeriodMonthUsesCalendarArithmetic(t *testing.T) {
	// One calendar month back from April 10 is March 10.
	ref := time.Date(2025, 4, 10, 10, 0, 0, 0, time.UTC)
	txs := []domain.Transaction{
		{ID: "in", Timestamp: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC).UnixMilli()},
		{ID: "out", Timestamp: time.Date(2025, 3, 9, 23, 0, 0, 0, time.UTC).UnixMilli()},
	}
	got := FilterByPeriod(txs, PeriodMonth, ref)
	if len(got) != 1 || got[0].ID != "in" {
		t.Fatalf("month window kept %+v", ids(got))
	}
}

func TestFilterByPeriodMonthClampsShortMonths(t *testing.T) {
	// February has no 31st; a month back from March 31 clamps to Feb 28
	// rather than normalizing forward to March 3.
	ref := time.Date(2025, 3, 31, 10, 0, 0, 0, time.UTC)
	txs := []domain.Transaction{
		{ID: "feb28", Timestamp: time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC).UnixMilli()},
		{ID: "mar2", Timestamp: time.Date(2025, 3, 2, 23, 0, 0, 0, time.UTC).UnixMilli()},
		{ID: "feb27", Timestamp: time.Date(2025, 2, 27, 23, 59, 59, 0, time.UTC).UnixMilli()},
	}
	got := FilterByPeriod(txs, PeriodMonth, ref)
	if len(got) != 2 || got[0].ID != "feb28" || got[1].ID != "mar2" {
		t.Fatalf("clamped month window kept %+v", ids(got))
	}
}

func TestFilterByPeriodMonthClampsLeapFebruary(t *testing.T) {
	// 2024 is a leap year: a month back from March 30 clamps to Feb 29.
	ref := time.Date(2024, 3, 30, 12, 0, 0, 0, time.UTC)
	txs := []domain.Transaction{
		{ID: "feb29", Timestamp: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC).UnixMilli()},
		{ID: "feb28", Timestamp: time.Date(2024, 2, 28, 23, 0, 0, 0, time.UTC).UnixMilli()},
	}
	got := FilterByPeriod(txs, PeriodMonth, ref)
	if len(got) != 1 || got[0].ID != "feb29" {
		t.Fatalf("leap-year month window kept %+v", ids(got))
	}
}

func TestPeriodLabel(t *testing.T) {
	labels := map[Period]string{
		PeriodToday: "Hari Ini",
		PeriodWeek:  "7 Hari Terakhir",
		PeriodMonth: "30 Hari Terakhir",
		PeriodAll:   "Semua Waktu",
	}
	for p, want := range labels {
		if got := p.Label(); got != want {
			t.Fatalf("Label(%q) = %q, want %q", p, got, want)
		}
	}
}

func ids(txs []domain.Transaction) []string {
	out := make([]string, 0, len(txs))
	for _, tx := range txs {
		out = append(out, tx.ID)
	}
	return out
}
