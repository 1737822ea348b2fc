package terminal

import (
	"fmt"
	"io"
	"strings"

	"github.com/noah-isme/toko-kasir/internal/catalog"
	"github.com/noah-isme/toko-kasir/internal/pricing"
	"github.com/noah-isme/toko-kasir/internal/register"
)

const rule = "--------------------------------------------------"

// RenderCatalog prints the product table.
func RenderCatalog(w io.Writer, entries []catalog.Entry) {
	fmt.Fprintf(w, "%-5s %-20s %-8s\n", "ID", "Product Name", "Price")
	for _, e := range entries {
		fmt.Fprintf(w, "%-5s %-20s %s\n", e.ID, e.Name, pricing.Format(e.UnitPrice))
	}
}

// RenderCart prints the cart lines followed by the bill summary.
func RenderCart(w io.Writer, lines []register.Line, summary pricing.Summary, rules pricing.Rules) {
	if len(lines) == 0 {
		fmt.Fprintln(w, "Cart is empty.")
	} else {
		fmt.Fprintf(w, "%-20s %-5s %-8s %-8s\n", "Item", "Qty", "Price", "Total")
		fmt.Fprintln(w, rule)
		for _, l := range lines {
			fmt.Fprintf(w, "%-20s %-5d %-8s %s\n", l.ProductName, l.Quantity, pricing.Format(l.UnitPrice), pricing.Format(l.LineTotal))
		}
		fmt.Fprintln(w, rule)
	}
	RenderSummary(w, summary, rules)
}

// RenderSummary prints the bill summary panel.
func RenderSummary(w io.Writer, s pricing.Summary, rules pricing.Rules) {
	fmt.Fprintf(w, "Subtotal: %s\n", pricing.Format(s.Subtotal))
	fmt.Fprintf(w, "Discount: -%s\n", pricing.Format(s.Discount))
	fmt.Fprintf(w, "Tax (%s): %s\n", pricing.FormatRate(rules.TaxRate), pricing.Format(s.Tax))
	fmt.Fprintf(w, "Total: %s\n", pricing.Format(s.Total))
}

// RenderReceipt prints the payment complete notice.
func RenderReceipt(w io.Writer, p register.Payment) {
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Total: %s\n", pricing.Format(p.Summary.Total))
	fmt.Fprintf(w, "Paid: %s\n", pricing.Format(p.AmountPaid))
	fmt.Fprintf(w, "Change: %s\n", pricing.Format(p.Change))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Transaction Complete!")
	fmt.Fprintln(w, rule)
}

func renderHelp(w io.Writer) {
	fmt.Fprintln(w, strings.TrimSpace(`
Commands:
  add <product id or name> <qty>   add an item to the cart
  pay <amount>                     settle the bill
  cart                             show the cart and bill summary
  clear                            discard the current transaction
  catalog                          list available products
  help                             show this help
  quit                             leave the register`))
}
