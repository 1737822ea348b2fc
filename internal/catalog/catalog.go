package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-kasir/internal/pricing"
)

var (
	// ErrNotFound indicates no product matched the query.
	ErrNotFound = errors.New("product not found")
	// ErrAmbiguous indicates more than one product name matched the query.
	ErrAmbiguous = errors.New("multiple products match")
	// ErrInvalidEntry is returned when an entry cannot be added to a catalog.
	ErrInvalidEntry = errors.New("invalid catalog entry")
)

// Entry is one purchasable product.
type Entry struct {
	ID        string          `json:"id" validate:"required"`
	Name      string          `json:"name" validate:"required"`
	UnitPrice decimal.Decimal `json:"unitPrice" validate:"gte=0"`
}

// AmbiguousError reports a name query that matched several products.
type AmbiguousError struct {
	Query   string
	Matches []Entry
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("multiple products found for '%s'; be more specific or use the product id", e.Query)
}

// Is lets errors.Is match ErrAmbiguous.
func (e *AmbiguousError) Is(target error) bool {
	return target == ErrAmbiguous
}

// Catalog is an immutable product table keyed by identifier.
type Catalog struct {
	byID    map[string]Entry
	ordered []Entry
}

// New builds a catalog from entries. Identifiers must be unique.
func New(entries ...Entry) (*Catalog, error) {
	c := &Catalog{
		byID:    make(map[string]Entry, len(entries)),
		ordered: make([]Entry, 0, len(entries)),
	}
	for _, e := range entries {
		if err := pricing.ValidateStruct(e); err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidEntry, e.ID, err)
		}
		if _, dup := c.byID[e.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidEntry, e.ID)
		}
		c.byID[e.ID] = e
		c.ordered = append(c.ordered, e)
	}
	sort.SliceStable(c.ordered, func(i, j int) bool { return c.ordered[i].ID < c.ordered[j].ID })
	return c, nil
}

// MustNew is New that panics on invalid input.
func MustNew(entries ...Entry) *Catalog {
	c, err := New(entries...)
	if err != nil {
		panic(err)
	}
	return c
}

// Default returns the stock product table of the register.
func Default() *Catalog {
	return MustNew(
		Entry{ID: "101", Name: "Apple", UnitPrice: decimal.RequireFromString("1.50")},
		Entry{ID: "102", Name: "Banana", UnitPrice: decimal.RequireFromString("0.75")},
		Entry{ID: "103", Name: "Orange", UnitPrice: decimal.RequireFromString("1.20")},
		Entry{ID: "201", Name: "Milk (1L)", UnitPrice: decimal.RequireFromString("3.00")},
		Entry{ID: "202", Name: "Bread", UnitPrice: decimal.RequireFromString("2.20")},
		Entry{ID: "301", Name: "Chocolate Bar", UnitPrice: decimal.RequireFromString("1.00")},
		Entry{ID: "302", Name: "Chips (Large)", UnitPrice: decimal.RequireFromString("2.50")},
		Entry{ID: "401", Name: "Water Bottle", UnitPrice: decimal.RequireFromString("0.80")},
		Entry{ID: "501", Name: "Coffee (Instant)", UnitPrice: decimal.RequireFromString("5.00")},
		Entry{ID: "601", Name: "Soda (Can)", UnitPrice: decimal.RequireFromString("1.10")},
	)
}

// Lookup resolves query to a single entry. An exact identifier match wins;
// otherwise the query is matched case-insensitively as a substring of names.
func (c *Catalog) Lookup(query string) (Entry, error) {
	if c == nil {
		return Entry{}, ErrNotFound
	}
	if e, ok := c.byID[query]; ok {
		return e, nil
	}
	needle := strings.ToLower(query)
	var matches []Entry
	for _, e := range c.ordered {
		if strings.Contains(strings.ToLower(e.Name), needle) {
			matches = append(matches, e)
		}
	}
	switch len(matches) {
	case 0:
		return Entry{}, fmt.Errorf("%w: '%s'", ErrNotFound, query)
	case 1:
		return matches[0], nil
	default:
		return Entry{}, &AmbiguousError{Query: query, Matches: matches}
	}
}

// Entries returns all products ordered by identifier.
func (c *Catalog) Entries() []Entry {
	if c == nil {
		return nil
	}
	out := make([]Entry, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Len reports the number of products.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.ordered)
}
