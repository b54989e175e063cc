package core

import "github.com/shopspring/decimal"

// SummaryRow is the total of one category.
type SummaryRow struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Count    int             `json:"count"`
}

// Share is a summary row with its percentage of the grand total, for
// proportional charts.
type Share struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Percent  decimal.Decimal `json:"percent"`
}

// MonthTotals holds debit and credit totals for one calendar month.
type MonthTotals struct {
	Year   int             `json:"year"`
	Month  int             `json:"month"` // 1-12
	Debit  decimal.Decimal `json:"debit"`
	Credit decimal.Decimal `json:"credit"`
}
