package orders

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	orderBlockStart = "[PEDIDO]"
	orderBlockEnd   = "[/PEDIDO]"
)

// Payment method enumeration. Free text from the model maps into this closed
// set; anything unrecognized falls back to cash.
const (
	PaymentCash       = "dinheiro"
	PaymentPix        = "pix"
	PaymentCreditCard = "cartao_credito"
	PaymentDebitCard  = "cartao_debito"
)

// OrderFields is the parsed content of a structured order block.
type OrderFields struct {
	Product       string
	Quantity      int
	Address       string
	PaymentMethod string
}

var orderBlockRe = regexp.MustCompile(`(?s)\[PEDIDO\]\s*(.*?)\s*\[/PEDIDO\]`)

// ExtractOrder scans a model reply for a delimited order block and parses it.
// The reply is untrusted, possibly-malformed text: a missing block, or a block
// without both produto and quantidade, yields (nil, false). Any price the
// model emits is ignored — the catalog price stays authoritative.
func ExtractOrder(reply string) (*OrderFields, bool) {
	match := orderBlockRe.FindStringSubmatch(reply)
	if match == nil {
		return nil, false
	}

	fields := map[string]string{}
	for _, line := range strings.Split(match[1], "\n") {
		// Split on the first colon only: addresses carry colons too.
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		fields[key] = value
	}

	product := fields["produto"]
	quantityText, hasQuantity := fields["quantidade"]
	if product == "" || !hasQuantity {
		return nil, false
	}

	quantity, err := strconv.Atoi(strings.TrimSpace(quantityText))
	if err != nil || quantity <= 0 {
		quantity = 1
	}

	return &OrderFields{
		Product:       product,
		Quantity:      quantity,
		Address:       fields["endereco"],
		PaymentMethod: MapPaymentMethod(fields["forma_pagamento"]),
	}, true
}

// StripOrderBlock removes the delimited block from the customer-visible reply.
func StripOrderBlock(reply string) string {
	return strings.TrimSpace(orderBlockRe.ReplaceAllString(reply, ""))
}

// HasOrderBlock reports whether the reply carries the structured delimiters.
func HasOrderBlock(reply string) bool {
	return strings.Contains(reply, orderBlockStart) && strings.Contains(reply, orderBlockEnd)
}

var paymentFolder = strings.NewReplacer(
	"á", "a", "à", "a", "ã", "a", "â", "a",
	"é", "e", "ê", "e",
	"í", "i",
	"ó", "o", "ô", "o",
	"ú", "u",
	"ç", "c",
)

// MapPaymentMethod maps free text to the closed payment enumeration,
// tolerating accents and common spellings. Unrecognized text defaults to cash.
func MapPaymentMethod(text string) string {
	folded := paymentFolder.Replace(strings.ToLower(strings.TrimSpace(text)))
	switch {
	case strings.Contains(folded, "pix"):
		return PaymentPix
	case strings.Contains(folded, "credito"):
		return PaymentCreditCard
	case strings.Contains(folded, "debito"):
		return PaymentDebitCard
	case strings.Contains(folded, "dinheiro"), strings.Contains(folded, "especie"):
		return PaymentCash
	default:
		return PaymentCash
	}
}
