package http

import (
	"time"

	"github.com/shopspring/decimal"

	"burnrate/internal/core"
)

// Statement is an uploaded, categorized table kept between requests.
type Statement struct {
	ID       string
	Source   string
	Uploaded time.Time
	Rows     []core.Transaction
}

type rowView struct {
	Row       int             `json:"row"`
	Date      string          `json:"date"`
	Details   string          `json:"details"`
	Amount    decimal.Decimal `json:"amount"`
	Direction core.Direction  `json:"direction"`
	Category  string          `json:"category"`
}

type statementView struct {
	ID       string    `json:"id"`
	Source   string    `json:"source"`
	Uploaded time.Time `json:"uploaded"`
	Count    int       `json:"count"`
	Rows     []rowView `json:"rows"`
}

// view renders st, keeping only rows moving in dir when filter is set. Row
// numbers always index the full table.
func (st Statement) view(dir core.Direction, filter bool) statementView {
	rows := make([]rowView, 0, len(st.Rows))
	for i, tx := range st.Rows {
		if filter && tx.Direction != dir {
			continue
		}
		rows = append(rows, rowView{
			Row:       i,
			Date:      tx.Date.Format(core.DateLayout),
			Details:   tx.Details,
			Amount:    tx.Amount,
			Direction: tx.Direction,
			Category:  tx.Category,
		})
	}
	return statementView{
		ID:       st.ID,
		Source:   st.Source,
		Uploaded: st.Uploaded,
		Count:    len(rows),
		Rows:     rows,
	}
}
