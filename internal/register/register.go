package register

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-kasir/internal/catalog"
	"github.com/noah-isme/toko-kasir/internal/events"
	"github.com/noah-isme/toko-kasir/internal/pricing"
)

// State is the coarse lifecycle of the current transaction.
type State string

const (
	StateEmpty        State = "empty"
	StateAccumulating State = "accumulating"
)

// Line is one resolved product and quantity in the cart.
type Line struct {
	ProductID   string
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
	LineTotal   decimal.Decimal
}

// Payment is the outcome of a settled transaction.
type Payment struct {
	TransactionID string
	Lines         []Line
	Summary       pricing.Summary
	AmountPaid    decimal.Decimal
	Change        decimal.Decimal
	CompletedAt   time.Time
}

// Publisher receives register events. *events.Bus satisfies it.
type Publisher interface {
	Emit(ctx context.Context, topic string, payload any) (events.Event, error)
}

// Config groups Register dependencies.
type Config struct {
	Catalog *catalog.Catalog
	Rules   pricing.Rules
	Events  Publisher
	Now     func() time.Time
	NewID   func() string
}

// Register is the billing engine of one cashier session. It is not safe for
// concurrent use; callers serialise access.
type Register struct {
	catalog *catalog.Catalog
	rules   pricing.Rules
	events  Publisher
	now     func() time.Time
	newID   func() string
	lines   []Line
}

// New constructs an empty Register.
func New(cfg Config) (*Register, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("register: catalog is required")
	}
	if err := cfg.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("register: invalid pricing rules: %w", err)
	}
	r := &Register{
		catalog: cfg.Catalog,
		rules:   cfg.Rules,
		events:  cfg.Events,
		now:     cfg.Now,
		newID:   cfg.NewID,
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.newID == nil {
		r.newID = uuid.NewString
	}
	return r, nil
}

// Rules returns the pricing rules in effect.
func (r *Register) Rules() pricing.Rules {
	return r.rules
}

// Catalog returns the product table the register resolves against.
func (r *Register) Catalog() *catalog.Catalog {
	return r.catalog
}

// AddItem validates the raw query and quantity as typed by the clerk, resolves
// the product and appends one line. The cart is untouched on failure.
func (r *Register) AddItem(ctx context.Context, query, quantity string) (Line, error) {
	query = strings.TrimSpace(query)
	quantity = strings.TrimSpace(quantity)
	if query == "" {
		return Line{}, ErrEmptyQuery
	}
	if quantity == "" {
		return Line{}, ErrEmptyQuantity
	}
	qty, err := strconv.Atoi(quantity)
	if err != nil {
		return Line{}, fmt.Errorf("%w: %q", ErrInvalidQuantity, quantity)
	}
	return r.Add(ctx, query, qty)
}

// Add resolves query and appends qty units of the product.
func (r *Register) Add(ctx context.Context, query string, qty int) (Line, error) {
	if query == "" {
		return Line{}, ErrEmptyQuery
	}
	if qty <= 0 {
		return Line{}, fmt.Errorf("%w: %d", ErrInvalidQuantity, qty)
	}
	entry, err := r.catalog.Lookup(query)
	if err != nil {
		return Line{}, err
	}
	line := Line{
		ProductID:   entry.ID,
		ProductName: entry.Name,
		UnitPrice:   entry.UnitPrice,
		Quantity:    qty,
		LineTotal:   pricing.LineTotal(entry.UnitPrice, qty),
	}
	r.lines = append(r.lines, line)
	r.publish(ctx, events.TopicItemAdded, events.ItemAdded{
		ProductID: line.ProductID,
		Name:      line.ProductName,
		Quantity:  line.Quantity,
		LineTotal: line.LineTotal,
		CartLines: len(r.lines),
	})
	return line, nil
}

// Totals recomputes the bill from every line in the cart.
func (r *Register) Totals() pricing.Summary {
	items := make([]pricing.Item, 0, len(r.lines))
	for _, l := range r.lines {
		items = append(items, pricing.Item{Qty: l.Quantity, UnitPrice: l.UnitPrice})
	}
	return pricing.Compute(items, r.rules)
}

// Pay settles the transaction with the raw amount entered by the clerk. On
// success the cart is cleared and a new transaction begins; on failure the
// cart is left exactly as it was.
func (r *Register) Pay(ctx context.Context, amountPaid string) (Payment, error) {
	if len(r.lines) == 0 {
		return Payment{}, ErrEmptyCart
	}
	raw := strings.TrimSpace(amountPaid)
	if raw == "" {
		return Payment{}, ErrEmptyInput
	}
	paid, err := pricing.ParseAmount(raw)
	if err != nil {
		return Payment{}, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	summary := r.Totals()
	if paid.LessThan(summary.Total) {
		return Payment{}, &InsufficientPaymentError{Paid: paid, Total: summary.Total}
	}
	payment := Payment{
		TransactionID: r.newID(),
		Lines:         r.Lines(),
		Summary:       summary,
		AmountPaid:    paid,
		Change:        paid.Sub(summary.Total),
		CompletedAt:   r.now(),
	}
	units := unitCount(r.lines)
	r.lines = nil
	r.publish(ctx, events.TopicSaleCompleted, events.SaleCompleted{
		TransactionID: payment.TransactionID,
		Lines:         len(payment.Lines),
		Units:         units,
		Subtotal:      summary.Subtotal,
		Discount:      summary.Discount,
		Tax:           summary.Tax,
		Total:         summary.Total,
		AmountPaid:    payment.AmountPaid,
		Change:        payment.Change,
	})
	return payment, nil
}

// unitCount sums line quantities, saturating at math.MaxInt64 since
// quantities are unbounded.
func unitCount(lines []Line) int64 {
	var units int64
	for _, l := range lines {
		q := int64(l.Quantity)
		if units > math.MaxInt64-q {
			return math.MaxInt64
		}
		units += q
	}
	return units
}

// Clear discards the current transaction.
func (r *Register) Clear(ctx context.Context) {
	discarded := len(r.lines)
	r.lines = nil
	r.publish(ctx, events.TopicCartCleared, events.CartCleared{DiscardedLines: discarded})
}

// Lines returns a copy of the cart in insertion order.
func (r *Register) Lines() []Line {
	out := make([]Line, len(r.lines))
	copy(out, r.lines)
	return out
}

// Len reports the number of cart lines.
func (r *Register) Len() int {
	return len(r.lines)
}

// State reports whether a transaction is in progress.
func (r *Register) State() State {
	if len(r.lines) == 0 {
		return StateEmpty
	}
	return StateAccumulating
}

func (r *Register) publish(ctx context.Context, topic string, payload any) {
	if r.events == nil {
		return
	}
	// notifier failures are reported by the bus; the mutation already happened
	_, _ = r.events.Emit(ctx, topic, payload)
}
