// Package terminal drives a register from a line-oriented console.
package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-kasir/internal/pricing"
	"github.com/noah-isme/toko-kasir/internal/register"
)

// Session reads clerk commands from In and writes screens and messages to Out.
type Session struct {
	Register *register.Register
	In       io.Reader
	Out      io.Writer
	Logger   zerolog.Logger
	Prompt   string
}

// Run processes commands until quit, end of input or ctx cancellation.
func (s *Session) Run(ctx context.Context) error {
	if s.Register == nil {
		return fmt.Errorf("terminal: register not configured")
	}
	RenderCatalog(s.Out, s.Register.Catalog().Entries())
	fmt.Fprintln(s.Out)
	renderHelp(s.Out)

	scanner := bufio.NewScanner(s.In)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.prompt()
		if !scanner.Scan() {
			return scanner.Err()
		}
		if quit := s.Handle(ctx, scanner.Text()); quit {
			return nil
		}
	}
}

// Handle executes one command line. It reports true when the clerk asked to quit.
func (s *Session) Handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(cmd) {
	case "add", "a":
		s.add(ctx, rest)
	case "pay", "p":
		s.pay(ctx, rest)
	case "clear":
		s.Register.Clear(ctx)
		s.cart()
		s.ok("Cart cleared. Ready for new transaction.")
	case "cart", "c":
		s.cart()
	case "catalog", "products":
		RenderCatalog(s.Out, s.Register.Catalog().Entries())
	case "help", "?":
		renderHelp(s.Out)
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(s.Out, "error: Unknown command %q, type help for the list.\n", cmd)
	}
	return false
}

// add takes the last token as the quantity so product names may contain spaces.
func (s *Session) add(ctx context.Context, args string) {
	query, qty := args, ""
	if i := strings.LastIndexAny(args, " \t"); i >= 0 {
		query, qty = args[:i], args[i+1:]
	}
	line, err := s.Register.AddItem(ctx, query, qty)
	if err != nil {
		s.fail(err)
		return
	}
	s.cart()
	s.ok(fmt.Sprintf("Added %d x %s to cart.", line.Quantity, line.ProductName))
}

func (s *Session) pay(ctx context.Context, amount string) {
	payment, err := s.Register.Pay(ctx, amount)
	if err != nil {
		s.fail(err)
		return
	}
	RenderReceipt(s.Out, payment)
	s.ok(fmt.Sprintf("Payment successful! Change: %s", pricing.Format(payment.Change)))
	s.Logger.Info().
		Str("transaction_id", payment.TransactionID).
		Str("total", payment.Summary.Total.String()).
		Str("change", payment.Change.String()).
		Msg("sale completed")
}

func (s *Session) cart() {
	RenderCart(s.Out, s.Register.Lines(), s.Register.Totals(), s.Register.Rules())
}

func (s *Session) ok(msg string) {
	fmt.Fprintf(s.Out, "ok: %s\n", msg)
}

func (s *Session) fail(err error) {
	kind := register.KindOf(err)
	if kind == register.KindInternal {
		s.Logger.Error().Err(err).Msg("register command failed")
	} else {
		s.Logger.Debug().Err(err).Str("kind", string(kind)).Msg("register command rejected")
	}
	fmt.Fprintf(s.Out, "error: %s\n", capitalize(err.Error()))
}

func (s *Session) prompt() {
	if s.Prompt != "" {
		fmt.Fprint(s.Out, s.Prompt)
	}
}

func capitalize(msg string) string {
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
