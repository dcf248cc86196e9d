package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractOrder(t *testing.T) {
	reply := "Perfeito, pedido anotado!\n\n[PEDIDO]\nproduto: Gás P13\nquantidade: 2\nendereco: Rua das Flores, 120: fundos\nforma_pagamento: Pix\n[/PEDIDO]\n\nChega em até 40 minutos."

	fields, ok := ExtractOrder(reply)
	require.True(t, ok)

	assert.Equal(t, "Gás P13", fields.Product)
	assert.Equal(t, 2, fields.Quantity)
	// Only the first colon splits: the address keeps its own.
	assert.Equal(t, "Rua das Flores, 120: fundos", fields.Address)
	assert.Equal(t, PaymentPix, fields.PaymentMethod)
}

func TestExtractOrderRequiresProductAndQuantity(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"no block", "Olá! Temos Gás P13 por R$ 115,00."},
		{"missing quantidade", "[PEDIDO]\nproduto: Gás P13\n[/PEDIDO]"},
		{"missing produto", "[PEDIDO]\nquantidade: 2\n[/PEDIDO]"},
		{"empty values", "[PEDIDO]\nproduto:\nquantidade:\n[/PEDIDO]"},
		{"unclosed block", "[PEDIDO]\nproduto: Gás P13\nquantidade: 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := ExtractOrder(tt.reply)
			assert.False(t, ok)
		})
	}
}

func TestExtractOrderQuantityFallsBackToOne(t *testing.T) {
	for _, qty := range []string{"muitos", "0", "-2"} {
		fields, ok := ExtractOrder("[PEDIDO]\nproduto: Gás P13\nquantidade: " + qty + "\n[/PEDIDO]")
		require.True(t, ok, qty)
		assert.Equal(t, 1, fields.Quantity, qty)
	}
}

func TestExtractOrderDefaults(t *testing.T) {
	fields, ok := ExtractOrder("[PEDIDO]\nproduto: Gás P13\nquantidade: 1\n[/PEDIDO]")
	require.True(t, ok)
	assert.Empty(t, fields.Address)
	assert.Equal(t, PaymentCash, fields.PaymentMethod)
}

func TestExtractOrderIgnoresModelPrice(t *testing.T) {
	fields, ok := ExtractOrder("[PEDIDO]\nproduto: Gás P13\nquantidade: 1\npreco: 999.00\n[/PEDIDO]")
	require.True(t, ok)
	assert.Equal(t, "Gás P13", fields.Product)
}

func TestStripOrderBlock(t *testing.T) {
	reply := "Pedido anotado!\n\n[PEDIDO]\nproduto: Gás P13\nquantidade: 1\n[/PEDIDO]\n\nAté já!"

	visible := StripOrderBlock(reply)
	assert.NotContains(t, visible, "[PEDIDO]")
	assert.NotContains(t, visible, "produto:")
	assert.Contains(t, visible, "Pedido anotado!")
	assert.Contains(t, visible, "Até já!")
}

func TestHasOrderBlock(t *testing.T) {
	assert.True(t, HasOrderBlock("[PEDIDO]x[/PEDIDO]"))
	assert.False(t, HasOrderBlock("[PEDIDO] sem fechamento"))
	assert.False(t, HasOrderBlock("sem bloco"))
}

func TestMapPaymentMethod(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Pix", PaymentPix},
		{"pagamento via PIX", PaymentPix},
		{"Cartão de Crédito", PaymentCreditCard},
		{"cartao de debito", PaymentDebitCard},
		{"Dinheiro", PaymentCash},
		{"em espécie", PaymentCash},
		{"boleto", PaymentCash},
		{"", PaymentCash},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MapPaymentMethod(tt.in), tt.in)
	}
}
