// Package report holds the pure aggregation functions shared by the dashboard
// endpoints and the export pipeline. Every value here is re-derived from the
// transaction list on each call; nothing is cached or persisted, so on-screen
// and exported numbers can never drift apart.
package report

import (
	"math"
	"sort"
	"strings"
	"time"

	"lapakpos/backend/internal/domain"
)

type SummaryStats struct {
	TotalSales            int64   `json:"total_sales"`
	TotalTransactions     int     `json:"total_transactions"`
	TotalItems            int     `json:"total_items"`
	AveragePerTransaction float64 `json:"average_per_transaction"`
}

type PaymentStat struct {
	Count       int   `json:"count"`
	TotalAmount int64 `json:"total_amount"`
}

type ProductStat struct {
	ProductID    string `json:"product_id"`
	Name         string `json:"name"`
	QuantitySold int    `json:"quantity_sold"`
	Revenue      int64  `json:"revenue"`
}

type CategoryStat struct {
	Category     string `json:"category"`
	QuantitySold int    `json:"quantity_sold"`
	Revenue      int64  `json:"revenue"`
}

type OutletStat struct {
	OutletID              string  `json:"outlet_id"`
	Name                  string  `json:"name"`
	TotalSales            int64   `json:"total_sales"`
	TransactionCount      int     `json:"transaction_count"`
	ItemCount             int     `json:"item_count"`
	AveragePerTransaction float64 `json:"average_per_transaction"`
	LowStockCount         int     `json:"low_stock_count"`
}

type DailyBucket struct {
	Date  string `json:"date"`
	Sales int64  `json:"sales"`
	Count int    `json:"count"`
}

type SortKey string

const (
	SortByQuantity SortKey = "quantity"
	SortByRevenue  SortKey = "revenue"
)

// lowStockThreshold marks a product as needing restock in outlet stats.
const lowStockThreshold = 5

// Summarize computes the headline numbers for a transaction set. The average
// is rounded to two decimals and defined as 0 for an empty set.
func Summarize(txs []domain.Transaction) SummaryStats {
	stats := SummaryStats{TotalTransactions: len(txs)}
	for _, tx := range txs {
		stats.TotalSales += tx.Total
		for _, item := range tx.Items {
			stats.TotalItems += item.Qty
		}
	}
	if len(txs) > 0 {
		stats.AveragePerTransaction = round2(float64(stats.TotalSales) / float64(len(txs)))
	}
	return stats
}

// PaymentMethods is the fixed display order of recognized payment methods.
func PaymentMethods() []string {
	return []string{domain.PaymentCash, domain.PaymentTransfer, domain.PaymentEwallet, domain.PaymentCard}
}

// PaymentBreakdown groups transactions by payment method. Unrecognized
// methods are silently excluded from every bucket.
func PaymentBreakdown(txs []domain.Transaction) map[string]PaymentStat {
	known := make(map[string]bool, 4)
	for _, m := range PaymentMethods() {
		known[m] = true
	}

	breakdown := make(map[string]PaymentStat, 4)
	for _, tx := range txs {
		if !known[tx.PaymentMethod] {
			continue
		}
		stat := breakdown[tx.PaymentMethod]
		stat.Count++
		stat.TotalAmount += tx.Total
		breakdown[tx.PaymentMethod] = stat
	}
	return breakdown
}

// TopProducts ranks sale-line items. Grouping is by product id; with
// mergeByName a second pass re-groups by case-insensitive trimmed name, which
// de-duplicates the "same" product carried under different ids by different
// outlets. Ties keep first-encountered order (stable sort over insertion
// order), and the result is cut to limit after sorting.
func TopProducts(txs []domain.Transaction, limit int, mergeByName bool, key SortKey) []ProductStat {
	byID := make(map[string]int)
	ranked := make([]ProductStat, 0, 32)

	for _, tx := range txs {
		for _, item := range tx.Items {
			idx, seen := byID[item.ProductID]
			if !seen {
				idx = len(ranked)
				byID[item.ProductID] = idx
				ranked = append(ranked, ProductStat{ProductID: item.ProductID, Name: item.Name})
			}
			ranked[idx].QuantitySold += item.Qty
			ranked[idx].Revenue += int64(item.Qty) * item.UnitPrice
		}
	}

	if mergeByName {
		byName := make(map[string]int)
		merged := make([]ProductStat, 0, len(ranked))
		for _, stat := range ranked {
			nameKey := strings.ToLower(strings.TrimSpace(stat.Name))
			idx, seen := byName[nameKey]
			if !seen {
				idx = len(merged)
				byName[nameKey] = idx
				merged = append(merged, ProductStat{ProductID: stat.ProductID, Name: stat.Name})
			}
			merged[idx].QuantitySold += stat.QuantitySold
			merged[idx].Revenue += stat.Revenue
		}
		ranked = merged
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if key == SortByQuantity {
			return ranked[i].QuantitySold > ranked[j].QuantitySold
		}
		return ranked[i].Revenue > ranked[j].Revenue
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// CategoryPerformance accumulates quantity and revenue per category. Every
// category present in the catalog gets a zero-initialized bucket; an item's
// category comes from its own snapshot field when set, otherwise from a
// catalog lookup by product id. Items whose category cannot be resolved (e.g.
// the product was deleted) contribute to no bucket. Buckets with zero revenue
// are dropped from the result; the rest are sorted by revenue descending with
// first-seen order breaking ties.
func CategoryPerformance(txs []domain.Transaction, catalog []domain.Product) []CategoryStat {
	byCategory := make(map[string]int)
	stats := make([]CategoryStat, 0, 16)

	bucket := func(category string) int {
		idx, seen := byCategory[category]
		if !seen {
			idx = len(stats)
			byCategory[category] = idx
			stats = append(stats, CategoryStat{Category: category})
		}
		return idx
	}

	categoryByID := make(map[string]string, len(catalog))
	for _, p := range catalog {
		categoryByID[p.ID] = p.Category
		if p.Category != "" {
			bucket(p.Category)
		}
	}

	for _, tx := range txs {
		for _, item := range tx.Items {
			category := item.Category
			if category == "" {
				category = categoryByID[item.ProductID]
			}
			if category == "" {
				continue
			}
			idx := bucket(category)
			stats[idx].QuantitySold += item.Qty
			stats[idx].Revenue += int64(item.Qty) * item.UnitPrice
		}
	}

	sold := make([]CategoryStat, 0, len(stats))
	for _, stat := range stats {
		if stat.Revenue == 0 {
			continue
		}
		sold = append(sold, stat)
	}
	sort.SliceStable(sold, func(i, j int) bool {
		return sold[i].Revenue > sold[j].Revenue
	})
	return sold
}

// OutletPerformance computes per-outlet totals in the order the outlets are
// given; callers decide ordering and truncation.
func OutletPerformance(txs []domain.Transaction, outlets []domain.Outlet, catalog []domain.Product) []OutletStat {
	lowStock := make(map[string]int)
	for _, p := range catalog {
		if p.Stock < lowStockThreshold {
			lowStock[p.OutletID]++
		}
	}

	stats := make([]OutletStat, 0, len(outlets))
	for _, outlet := range outlets {
		stat := OutletStat{
			OutletID:      outlet.ID,
			Name:          outlet.Name,
			LowStockCount: lowStock[outlet.ID],
		}
		for _, tx := range txs {
			if tx.OutletID != outlet.ID {
				continue
			}
			stat.TotalSales += tx.Total
			stat.TransactionCount++
			for _, item := range tx.Items {
				stat.ItemCount += item.Qty
			}
		}
		if stat.TransactionCount > 0 {
			stat.AveragePerTransaction = round2(float64(stat.TotalSales) / float64(stat.TransactionCount))
		}
		stats = append(stats, stat)
	}
	return stats
}

// DailyBreakdown builds exactly days buckets for the calendar days ending at
// ref's day (inclusive), pre-seeded to zero so sparse days show as zero bars.
// Each transaction lands in at most one bucket by truncating its timestamp to
// midnight in ref's location.
func DailyBreakdown(txs []domain.Transaction, days int, ref time.Time) []DailyBucket {
	if days < 1 {
		days = 7
	}

	buckets := make([]DailyBucket, days)
	index := make(map[string]int, days)
	first := startOfDay(ref).AddDate(0, 0, -(days - 1))
	for i := 0; i < days; i++ {
		date := first.AddDate(0, 0, i).Format("2006-01-02")
		buckets[i] = DailyBucket{Date: date}
		index[date] = i
	}

	for _, tx := range txs {
		date := time.UnixMilli(tx.Timestamp).In(ref.Location()).Format("2006-01-02")
		i, ok := index[date]
		if !ok {
			continue
		}
		buckets[i].Sales += tx.Total
		buckets[i].Count++
	}
	return buckets
}

// GrowthPercentage compares two day totals: 100 when growing from zero, 0
// when both are zero, otherwise the rounded percent change (negative for a
// decline).
func GrowthPercentage(today, yesterday int64) int {
	if yesterday == 0 {
		if today == 0 {
			return 0
		}
		return 100
	}
	return int(math.Round(float64(today-yesterday) / float64(yesterday) * 100))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
