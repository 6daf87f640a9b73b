package checkout

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/arcay3dlabs/storefront/internal/cart"
	pkgcheckout "github.com/arcay3dlabs/storefront/pkg/checkout"
	"github.com/shopspring/decimal"
)

const (
	emojiCart  = "\U0001F6D2"
	emojiDoc   = "\U0001F4C4"
	emojiUser  = "\U0001F464"
	emojiBox   = "\U0001F4E6"
	emojiMoney = "\U0001F4B0"
	emojiPin   = "\U0001F4CD"
	emojiCard  = "\U0001F4B3"
	emojiMemo  = "\U0001F4DD"
	emojiParty = "\U0001F389"
	emojiBank  = "\U0001F3E6"
	emojiCash  = "\U0001F4B5"
)

const (
	handoffBaseURL   = "https://api.whatsapp.com/send"
	confirmationPage = "/pedido-confirmado"
	// es-PE short date and time
	timestampLayout = "2/1/2006, 15:04:05"
)

type summary struct {
	business      string
	requestNumber string
	form          Form
	lines         []cart.Line
	totals        pkgcheckout.Totals
	at            time.Time
}

// composeMessage renders the order summary sent through the messaging hand-off.
func composeMessage(s summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "*%s NUEVO PEDIDO - %s*\n\n", emojiCart, s.business)
	if s.requestNumber != "" {
		fmt.Fprintf(&b, "*%s Solicitud: %s*\n\n", emojiDoc, s.requestNumber)
	}

	fmt.Fprintf(&b, "*%s Cliente:*\n", emojiUser)
	fmt.Fprintf(&b, "Nombre: %s\n", s.form.FullName)
	fmt.Fprintf(&b, "Email: %s\n", s.form.Email)
	fmt.Fprintf(&b, "Teléfono: %s\n\n", s.form.Phone)

	fmt.Fprintf(&b, "*%s Productos:*\n", emojiBox)
	for i, line := range s.lines {
		fmt.Fprintf(&b, "%d. %s\n", i+1, line.Product.Name)
		fmt.Fprintf(&b, "   Cantidad: %d\n", line.Quantity)
		fmt.Fprintf(&b, "   Precio: S/ %s c/u\n", money(line.Product.Price))
		fmt.Fprintf(&b, "   Subtotal: S/ %s\n\n", money(line.Subtotal()))
	}

	fmt.Fprintf(&b, "*%s Resumen de Costos:*\n", emojiMoney)
	fmt.Fprintf(&b, "Subtotal: S/ %s\n", money(s.totals.Subtotal))
	if s.totals.FreeShipping() {
		fmt.Fprintf(&b, "Envío: GRATIS %s\n", emojiParty)
	} else {
		fmt.Fprintf(&b, "Envío: S/ %s\n", money(s.totals.Shipping))
	}
	fmt.Fprintf(&b, "*Total: S/ %s*\n\n", money(s.totals.Total))

	address := s.form.ShippingAddress()
	fmt.Fprintf(&b, "*%s Dirección de Envío:*\n", emojiPin)
	fmt.Fprintf(&b, "%s\n", address.Street)
	fmt.Fprintf(&b, "%s, %s\n", address.City, address.State)
	fmt.Fprintf(&b, "CP: %s\n", address.ZipCode)
	fmt.Fprintf(&b, "%s\n\n", address.Country)

	fmt.Fprintf(&b, "*%s Método de Pago:*\n", emojiCard)
	paymentEmoji := emojiCash
	if s.form.PaymentMethod.IsBankTransfer() {
		paymentEmoji = emojiBank
	}
	fmt.Fprintf(&b, "%s %s\n\n", paymentEmoji, s.form.PaymentMethod.Label())

	if s.form.Notes != "" {
		fmt.Fprintf(&b, "*%s Notas Adicionales:*\n%s\n\n", emojiMemo, s.form.Notes)
	}

	fmt.Fprintf(&b, "_Generado desde %s - %s_", s.business, s.at.Format(timestampLayout))
	return b.String()
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// handoffURL builds the messaging link carrying the summary. Spaces are
// encoded as %20 so the text survives every client.
func handoffURL(phone, message string) string {
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return fmt.Sprintf("%s?phone=%s&text=%s", handoffBaseURL, url.QueryEscape(phone), text)
}

func confirmationPath(orderID, requestNumber string) string {
	q := url.Values{}
	q.Set("orderId", orderID)
	q.Set("requestNumber", requestNumber)
	return confirmationPage + "?" + q.Encode()
}
