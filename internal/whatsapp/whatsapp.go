// Package whatsapp composes the outbound order hand-off: a pre-formatted
// summary text wrapped in a wa.me deep link. One-way and fire-and-forget;
// the link is returned to the customer, never followed server-side.
package whatsapp

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/matikep/heladoswilson/internal/orders"
)

// Message renders the order summary exactly as the storefront always
// sent it: greeting, one line per item, total, thanks.
func Message(o orders.Order) string {
	var b strings.Builder
	b.WriteString("¡Hola! Me gustaría hacer el siguiente pedido de Helados Caseros:\n\n")
	for _, it := range o.Items {
		fmt.Fprintf(&b, "🍦 %s x%d - $%d\n", it.Name, it.Quantity, it.Price*it.Quantity)
	}
	fmt.Fprintf(&b, "\n💰 Total: $%d\n\n¡Gracias!", o.Total)
	return b.String()
}

// Link builds the deep link to the fixed seller number with the
// URL-encoded summary.
func Link(number string, o orders.Order) string {
	return fmt.Sprintf("https://wa.me/%s?text=%s", number, url.QueryEscape(Message(o)))
}
