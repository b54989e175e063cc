// Package summary aggregates categorized transactions into per-category
// totals and related figures.
package summary

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"burnrate/internal/core"
)

var hundred = decimal.NewFromInt(100)

// Summarize groups txs by category. Rows are sorted by amount descending,
// ties broken by category name ascending.
func Summarize(txs []core.Transaction) []core.SummaryRow {
	idx := make(map[string]int)
	rows := make([]core.SummaryRow, 0)
	for _, tx := range txs {
		i, ok := idx[tx.Category]
		if !ok {
			i = len(rows)
			idx[tx.Category] = i
			rows = append(rows, core.SummaryRow{Category: tx.Category, Amount: decimal.Zero})
		}
		rows[i].Amount = rows[i].Amount.Add(tx.Amount)
		rows[i].Count++
	}

	slices.SortFunc(rows, func(a, b core.SummaryRow) int {
		if c := b.Amount.Cmp(a.Amount); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
	return rows
}

// SummarizeDirection summarizes only the transactions moving in dir.
func SummarizeDirection(txs []core.Transaction, dir core.Direction) []core.SummaryRow {
	return Summarize(Filter(txs, dir))
}

// Filter returns the transactions moving in dir, in input order.
func Filter(txs []core.Transaction, dir core.Direction) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Direction == dir {
			out = append(out, tx)
		}
	}
	return out
}

// TotalByDirection sums the amounts of transactions moving in dir.
func TotalByDirection(txs []core.Transaction, dir core.Direction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Direction == dir {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// Balance is credits minus debits.
func Balance(txs []core.Transaction) decimal.Decimal {
	return TotalByDirection(txs, core.Credit).Sub(TotalByDirection(txs, core.Debit))
}

// Breakdown converts rows into percentage shares of their grand total,
// rounded to two decimal places. A zero total yields zero percentages.
func Breakdown(rows []core.SummaryRow) []core.Share {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Amount)
	}

	shares := make([]core.Share, len(rows))
	for i, r := range rows {
		pct := decimal.Zero
		if !total.IsZero() {
			pct = r.Amount.Mul(hundred).Div(total).Round(2)
		}
		shares[i] = core.Share{Category: r.Category, Amount: r.Amount, Percent: pct}
	}
	return shares
}

// Monthly totals debits and credits per calendar month, oldest first.
func Monthly(txs []core.Transaction) []core.MonthTotals {
	type ym struct{ year, month int }
	idx := make(map[ym]int)
	months := make([]core.MonthTotals, 0)
	for _, tx := range txs {
		key := ym{tx.Date.Year(), int(tx.Date.Month())}
		i, ok := idx[key]
		if !ok {
			i = len(months)
			idx[key] = i
			months = append(months, core.MonthTotals{
				Year: key.year, Month: key.month,
				Debit: decimal.Zero, Credit: decimal.Zero,
			})
		}
		switch tx.Direction {
		case core.Debit:
			months[i].Debit = months[i].Debit.Add(tx.Amount)
		case core.Credit:
			months[i].Credit = months[i].Credit.Add(tx.Amount)
		}
	}

	slices.SortFunc(months, func(a, b core.MonthTotals) int {
		if c := cmp.Compare(a.Year, b.Year); c != 0 {
			return c
		}
		return cmp.Compare(a.Month, b.Month)
	})
	return months
}
