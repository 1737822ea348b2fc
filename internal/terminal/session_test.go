package terminal_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-kasir/internal/catalog"
	"github.com/noah-isme/toko-kasir/internal/pricing"
	"github.com/noah-isme/toko-kasir/internal/register"
	"github.com/noah-isme/toko-kasir/internal/terminal"
)

func newSession(t *testing.T, input string) (*terminal.Session, *bytes.Buffer) {
	t.Helper()
	reg, err := register.New(register.Config{
		Catalog: catalog.Default(),
		Rules:   pricing.DefaultRules(),
		Now:     func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) },
		NewID:   func() string { return "txn-7" },
	})
	require.NoError(t, err)
	var out bytes.Buffer
	return &terminal.Session{
		Register: reg,
		In:       strings.NewReader(input),
		Out:      &out,
		Logger:   zerolog.Nop(),
	}, &out
}

func TestSessionFullSale(t *testing.T) {
	script := strings.Join([]string{
		"add 101 2",
		"add 201 5",
		"add banana 1",
		"add coffee 1",
		"pay 20",
		"pay 30",
		"cart",
		"quit",
		"add 101 1",
	}, "\n")
	s, out := newSession(t, script)
	require.NoError(t, s.Run(context.Background()))

	text := out.String()
	require.Contains(t, text, "101   Apple                $1.50")
	require.Contains(t, text, "ok: Added 2 x Apple to cart.")
	require.Contains(t, text, "Apple                2     $1.50    $3.00")
	require.Contains(t, text, "Subtotal: $23.75")
	require.Contains(t, text, "Discount: -$2.38")
	require.Contains(t, text, "Tax (8%): $1.71")
	require.Contains(t, text, "Total: $23.09")
	require.Contains(t, text, "error: Amount paid ($20.00) is less than total bill ($23.09)")
	require.Contains(t, text, "Paid: $30.00")
	require.Contains(t, text, "Change: $6.92")
	require.Contains(t, text, "Transaction Complete!")
	require.Contains(t, text, "ok: Payment successful! Change: $6.92")
	require.True(t, strings.HasSuffix(strings.TrimSpace(text), "Total: $0.00"))
	require.Equal(t, 0, s.Register.Len())
}

func TestSessionMessages(t *testing.T) {
	cases := []struct {
		line string
		want string
	}{
		{line: "add", want: "error: Please enter a product id or name"},
		{line: "add apple", want: "error: Please enter a quantity"},
		{line: "add apple two", want: "error: Quantity must be a positive whole number"},
		{line: "add apple 0", want: "error: Quantity must be a positive whole number"},
		{line: "add durian 1", want: "error: Product not found: 'durian'"},
		{line: "add ch 1", want: "error: Multiple products found for 'ch'"},
		{line: "pay 10", want: "error: Cart is empty, please add items first"},
		{line: "dance", want: `error: Unknown command "dance"`},
		{line: "add chips (large) 2", want: "ok: Added 2 x Chips (Large) to cart."},
	}
	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			s, out := newSession(t, "")
			quit := s.Handle(context.Background(), tc.line)
			require.False(t, quit)
			require.Contains(t, out.String(), tc.want)
		})
	}
}

func TestSessionPayValidation(t *testing.T) {
	s, out := newSession(t, "")
	ctx := context.Background()
	s.Handle(ctx, "add 101 1")
	s.Handle(ctx, "pay")
	s.Handle(ctx, "pay lots")
	require.Contains(t, out.String(), "error: Please enter the amount paid")
	require.Contains(t, out.String(), "error: Invalid amount paid, please enter a number")
	require.Equal(t, 1, s.Register.Len())
}

func TestSessionClear(t *testing.T) {
	s, out := newSession(t, "")
	ctx := context.Background()
	s.Handle(ctx, "add 101 1")
	s.Handle(ctx, "clear")
	require.Contains(t, out.String(), "Cart is empty.")
	require.Contains(t, out.String(), "ok: Cart cleared. Ready for new transaction.")
	require.Equal(t, 0, s.Register.Len())
	require.True(t, s.Handle(ctx, "quit"))
}

func TestSessionStopsOnCancelledContext(t *testing.T) {
	s, _ := newSession(t, "add 101 1\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, s.Run(ctx), context.Canceled)
	require.Equal(t, 0, s.Register.Len())
}
