package report

import (
	"time"

	"lapakpos/backend/internal/domain"
	"lapakpos/backend/internal/store"
)

type Period string

const (
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodAll   Period = "all"
)

func ParsePeriod(raw string) (Period, error) {
	switch Period(raw) {
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodAll:
		return Period(raw), nil
	case "":
		return PeriodAll, nil
	default:
		return "", store.ErrInvalidInput
	}
}

// Label is the human-readable period name used in report headers.
func (p Period) Label() string {
	switch p {
	case PeriodToday:
		return "Hari Ini"
	case PeriodWeek:
		return "7 Hari Terakhir"
	case PeriodMonth:
		return "30 Hari Terakhir"
	default:
		return "Semua Waktu"
	}
}

// FilterByPeriod keeps transactions whose epoch-ms Timestamp falls inside the
// requested window relative to ref. The window always ends at the end of
// ref's calendar day; "week" looks back 7 days, "month" one calendar month
// with short target months clamped to their last day (Mar 31 looks back to
// Feb 28, not Mar 3). PeriodAll returns the input unchanged.
//
// Only Timestamp is compared. The display Date string is locale-formatted and
// must never be used here.
func FilterByPeriod(txs []domain.Transaction, period Period, ref time.Time) []domain.Transaction {
	if period == PeriodAll {
		return txs
	}

	dayStart := startOfDay(ref)
	end := dayStart.Add(24 * time.Hour)

	var begin time.Time
	switch period {
	case PeriodToday:
		begin = dayStart
	case PeriodWeek:
		begin = dayStart.AddDate(0, 0, -7)
	case PeriodMonth:
		begin = dayStart.AddDate(0, -1, 0)
		// AddDate normalizes a nonexistent day-of-month forward (Feb 31
		// becomes Mar 3); clamp to the last day of the target month.
		if begin.Day() != dayStart.Day() {
			begin = time.Date(begin.Year(), begin.Month(), 0, 0, 0, 0, 0, begin.Location())
		}
	default:
		return txs
	}

	beginMS := begin.UnixMilli()
	endMS := end.UnixMilli()

	filtered := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Timestamp >= beginMS && tx.Timestamp < endMS {
			filtered = append(filtered, tx)
		}
	}
	return filtered
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
