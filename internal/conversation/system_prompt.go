package conversation

import (
	"fmt"
	"strings"

	"github.com/revgas/gasbot/internal/catalog"
	"github.com/revgas/gasbot/internal/customers"
)

const (
	// OrderBlockStart and OrderBlockEnd delimit the structured block the
	// model emits once all four order fields are known.
	OrderBlockStart = "[PEDIDO]"
	OrderBlockEnd   = "[/PEDIDO]"

	deliveryWindow       = "em até 40 minutos"
	negotiationProduct   = "Gás P13"
	negotiationPriceLine = "R$ 110,00"
)

const promptPersona = `Você é o atendente virtual de uma revenda de gás. Atenda pelo WhatsApp de forma simpática, objetiva e em português do Brasil.

REGRAS DE CONVERSA:
- Respostas curtas, no máximo 2 ou 3 frases. Use no máximo um emoji por mensagem.
- NUNCA pergunte de novo algo que o cliente já informou nesta conversa. Releia o histórico antes de perguntar.
- Se não entender a mensagem, peça educadamente para o cliente repetir. Não invente.
- Não fale de assuntos fora do atendimento da revenda.

COMO FECHAR UM PEDIDO:
Para registrar um pedido você precisa de QUATRO informações, coletadas aos poucos ao longo da conversa:
1. produto
2. quantidade
3. endereço de entrega
4. forma de pagamento (dinheiro, pix, cartão de crédito ou cartão de débito)
Quando tiver as QUATRO, confirme com o cliente e inclua no FINAL da sua resposta o bloco exatamente neste formato:
` + OrderBlockStart + `
produto: <nome do produto>
quantidade: <número>
endereco: <endereço completo>
forma_pagamento: <forma de pagamento>
` + OrderBlockEnd + `
O bloco é lido pelo sistema e não aparece para o cliente. Não use o bloco antes de ter as quatro informações.

ENTREGA:
- Informe que a entrega é feita ` + deliveryWindow + ` após a confirmação.

NEGOCIAÇÃO DE PREÇO:
- Se o cliente reclamar do preço do ` + negotiationProduct + ` ou pedir desconto, ofereça o preço promocional de ` + negotiationPriceLine + `. Para os demais produtos, mantenha o preço da tabela.`

// BuildSystemPrompt assembles the grounding block for one turn: persona,
// available products, customer identity and recent orders. Recomputed every
// request, never cached.
func BuildSystemPrompt(products []catalog.Product, customer *customers.Customer, recentOrders []customers.OrderSummary) string {
	var b strings.Builder
	b.WriteString(promptPersona)

	b.WriteString("\n\nPRODUTOS DISPONÍVEIS:\n")
	if len(products) == 0 {
		b.WriteString("- nenhum produto disponível no momento\n")
	} else {
		for _, p := range products {
			b.WriteString(fmt.Sprintf("- %s: R$ %.2f\n", p.Name, p.Price))
		}
	}

	if customer != nil {
		b.WriteString("\nCLIENTE IDENTIFICADO:\n")
		b.WriteString(fmt.Sprintf("- nome: %s\n", customer.Name))
		if customer.Address != "" {
			b.WriteString(fmt.Sprintf("- endereço cadastrado: %s\n", customer.Address))
		}
		b.WriteString("Cumprimente o cliente pelo nome. Se ele não informar endereço, ofereça entregar no endereço cadastrado.\n")
	} else {
		b.WriteString("\nCLIENTE NÃO IDENTIFICADO: trate como novo cliente e colete o endereço completo.\n")
	}

	if len(recentOrders) > 0 {
		b.WriteString("\nÚLTIMOS PEDIDOS DO CLIENTE:\n")
		for _, o := range recentOrders {
			b.WriteString(fmt.Sprintf("- pedido %s: R$ %.2f (%s)\n", shortID(o.ID), o.Total, o.Status))
		}
	}

	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
