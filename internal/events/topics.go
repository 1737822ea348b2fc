package events

import "github.com/shopspring/decimal"

// Topic constants for events emitted by the register.
const (
	TopicItemAdded     = "register.item_added"
	TopicCartCleared   = "register.cart_cleared"
	TopicSaleCompleted = "register.sale_completed"
)

// ItemAdded is the payload of TopicItemAdded.
type ItemAdded struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
	CartLines int             `json:"cartLines"`
}

// CartCleared is the payload of TopicCartCleared.
type CartCleared struct {
	DiscardedLines int `json:"discardedLines"`
}

// SaleCompleted is the payload of TopicSaleCompleted.
type SaleCompleted struct {
	TransactionID string          `json:"transactionId"`
	Lines         int             `json:"lines"`
	Units         int64           `json:"units"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	AmountPaid    decimal.Decimal `json:"amountPaid"`
	Change        decimal.Decimal `json:"change"`
}
