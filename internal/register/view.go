package register

import (
	"time"

	"github.com/noah-isme/toko-kasir/internal/pricing"
)

// LineView is the display form of a cart line: name, quantity, unit price, line total.
type LineView struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	LineTotal string `json:"lineTotal"`
}

// ExactTotals exposes the unrounded amounts.
type ExactTotals struct {
	Subtotal string `json:"subtotal"`
	Discount string `json:"discount"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
}

// TotalsView is the bill summary panel. Amounts are rounded to cents.
type TotalsView struct {
	Subtotal string      `json:"subtotal"`
	Discount string      `json:"discount"`
	Tax      string      `json:"tax"`
	TaxRate  string      `json:"taxRate"`
	Total    string      `json:"total"`
	Exact    ExactTotals `json:"exact"`
}

// CartView is the full register screen.
type CartView struct {
	State  State      `json:"state"`
	Lines  []LineView `json:"lines"`
	Totals TotalsView `json:"totals"`
}

// PaymentView is the "payment complete" summary.
type PaymentView struct {
	TransactionID string     `json:"transactionId"`
	Lines         []LineView `json:"lines"`
	Totals        TotalsView `json:"totals"`
	AmountPaid    string     `json:"amountPaid"`
	Change        string     `json:"change"`
	CompletedAt   time.Time  `json:"completedAt"`
}

// NewLineView renders a line for display.
func NewLineView(l Line) LineView {
	return LineView{
		ProductID: l.ProductID,
		Name:      l.ProductName,
		Quantity:  l.Quantity,
		UnitPrice: pricing.Round(l.UnitPrice),
		LineTotal: pricing.Round(l.LineTotal),
	}
}

// NewTotalsView renders a summary for display.
func NewTotalsView(s pricing.Summary, rules pricing.Rules) TotalsView {
	return TotalsView{
		Subtotal: pricing.Round(s.Subtotal),
		Discount: pricing.Round(s.Discount),
		Tax:      pricing.Round(s.Tax),
		TaxRate:  pricing.FormatRate(rules.TaxRate),
		Total:    pricing.Round(s.Total),
		Exact: ExactTotals{
			Subtotal: s.Subtotal.String(),
			Discount: s.Discount.String(),
			Tax:      s.Tax.String(),
			Total:    s.Total.String(),
		},
	}
}

func lineViews(lines []Line) []LineView {
	out := make([]LineView, 0, len(lines))
	for _, l := range lines {
		out = append(out, NewLineView(l))
	}
	return out
}

// View snapshots the register for presentation.
func (r *Register) View() CartView {
	return CartView{
		State:  r.State(),
		Lines:  lineViews(r.lines),
		Totals: NewTotalsView(r.Totals(), r.rules),
	}
}

// NewPaymentView renders a settled payment.
func NewPaymentView(p Payment, rules pricing.Rules) PaymentView {
	return PaymentView{
		TransactionID: p.TransactionID,
		Lines:         lineViews(p.Lines),
		Totals:        NewTotalsView(p.Summary, rules),
		AmountPaid:    pricing.Round(p.AmountPaid),
		Change:        pricing.Round(p.Change),
		CompletedAt:   p.CompletedAt,
	}
}
