// Package whatsapp renders the order summary sent to the shop over WhatsApp.
//
// The text is a pure function of the computed order so it can be built before
// the order transaction commits and stored with the order as a snapshot.
package whatsapp

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

const baseURL = "https://wa.me/"

// Message is the already-priced order to render.
type Message struct {
	CustomerName    string
	CustomerPhone   string
	FulfillmentType string
	DeliveryAddress string
	CustomerNote    string
	Items           []Line
	Subtotal        decimal.Decimal
}

// Line is one ordered item. Options render in selection order.
type Line struct {
	Name      string
	Quantity  int32
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
	Options   []LineOption
}

type LineOption struct {
	Group      string
	Label      string
	PriceDelta decimal.Decimal
}

// Text renders the line-oriented summary.
func Text(m Message) string {
	var b strings.Builder

	b.WriteString("New Order\n")
	fmt.Fprintf(&b, "Name: %s\n", m.CustomerName)
	fmt.Fprintf(&b, "Phone: %s\n", m.CustomerPhone)
	fmt.Fprintf(&b, "Type: %s\n", m.FulfillmentType)
	if m.DeliveryAddress != "" {
		fmt.Fprintf(&b, "Address: %s\n", m.DeliveryAddress)
	}
	if m.CustomerNote != "" {
		fmt.Fprintf(&b, "Note: %s\n", m.CustomerNote)
	}

	b.WriteString("\nItems:\n")
	for _, it := range m.Items {
		fmt.Fprintf(&b, "- %d x %s @ %s = %s\n",
			it.Quantity, it.Name, it.UnitPrice.StringFixed(2), it.LineTotal.StringFixed(2))
		for _, op := range it.Options {
			fmt.Fprintf(&b, "  • %s: %s (+%s)\n", op.Group, op.Label, op.PriceDelta.StringFixed(2))
		}
	}

	fmt.Fprintf(&b, "\nSubtotal: %s", m.Subtotal.StringFixed(2))
	return b.String()
}

// Deeplink encodes text into a wa.me link for destination. Everything but
// digits is stripped from destination since wa.me only accepts the bare
// international number.
func Deeplink(destination, text string) string {
	return baseURL + digitsOnly(destination) + "?text=" + encodeComponent(text)
}

// Build renders the text and its deep link. An empty destination falls back
// to the customer's own phone.
func Build(m Message, destination string) (text, link string) {
	if destination == "" {
		destination = m.CustomerPhone
	}
	text = Text(m)
	return text, Deeplink(destination, text)
}

// componentUnescaper undoes the QueryEscape escapes that encodeURIComponent
// leaves literal.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeComponent escapes like JavaScript's encodeURIComponent.
func encodeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
