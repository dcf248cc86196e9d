package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/revgas/gasbot/internal/catalog"
	"github.com/revgas/gasbot/internal/customers"
	"github.com/revgas/gasbot/internal/observability/metrics"
	"github.com/revgas/gasbot/internal/orders"
	"github.com/revgas/gasbot/pkg/logging"
)

var turnTracer = otel.Tracer("gasbot.internal.conversation")

const (
	fallbackRateLimited = "Estamos com muitas conversas neste momento. Pode tentar de novo em alguns instantes, por favor?"
	fallbackGeneric     = "Tive um problema para responder agora. Pode enviar sua mensagem de novo, por favor?"

	orderConfirmation = "✅ Pedido registrado! Já estamos preparando sua entrega."

	orderStatusPending   = "pendente"
	salesChannelWhatsApp = "whatsapp"
	contactStatusReceiv  = "recebido"
)

// InboundMessage is the strongly-typed result of normalizing a provider
// webhook payload. Business logic never touches the raw event shape.
type InboundMessage struct {
	FromSelf   bool
	EventKind  string
	Phone      string
	Text       string
	SenderName string
	IsGroup    bool
	MessageID  string
}

// TurnResult summarizes one handled turn for the webhook response.
type TurnResult struct {
	ConversationID uuid.UUID
	Reply          string
	Fallback       bool
	OrderCreated   bool
	Duplicate      bool
}

// CustomerDirectory resolves sender identity against the ERP customer base.
type CustomerDirectory interface {
	FindByPhoneSuffix(ctx context.Context, suffix11, suffix10 string) (*customers.Customer, error)
	RecentOrders(ctx context.Context, customerID string, limit int) ([]customers.OrderSummary, error)
}

// ProductCatalog lists the products eligible for grounding and resolution.
type ProductCatalog interface {
	ListAvailable(ctx context.Context, limit int) ([]catalog.Product, error)
}

// OrderWriter materializes extracted orders and logs contact events.
type OrderWriter interface {
	CreateOrder(ctx context.Context, order orders.Order, item orders.Item) error
	LogContactEvent(ctx context.Context, event orders.ContactEvent) error
}

// ReplySender dispatches the final reply back to the originating chat.
type ReplySender interface {
	SendText(ctx context.Context, phone, message string) error
}

// Service runs the per-turn pipeline: identity resolution, context assembly,
// memory, completion, order materialization and dispatch. Each turn is
// independent; concurrency correctness rests on the store's row atomicity.
type Service struct {
	store     *Store
	dedupe    *Dedupe
	llm       LLMClient
	directory CustomerDirectory
	catalog   ProductCatalog
	orders    OrderWriter
	sender    ReplySender
	metrics   *metrics.TurnMetrics
	logger    *logging.Logger

	historyWindow int
}

// NewService wires the turn pipeline.
func NewService(
	store *Store,
	dedupe *Dedupe,
	llm LLMClient,
	directory CustomerDirectory,
	productCatalog ProductCatalog,
	orderWriter OrderWriter,
	sender ReplySender,
	turnMetrics *metrics.TurnMetrics,
	historyWindow int,
	logger *logging.Logger,
) *Service {
	if llm == nil {
		panic("conversation: llm client cannot be nil")
	}
	if directory == nil || productCatalog == nil || orderWriter == nil {
		panic("conversation: repositories cannot be nil")
	}
	if sender == nil {
		panic("conversation: reply sender cannot be nil")
	}
	if historyWindow <= 0 {
		historyWindow = DefaultHistoryWindow
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:         store,
		dedupe:        dedupe,
		llm:           llm,
		directory:     directory,
		catalog:       productCatalog,
		orders:        orderWriter,
		sender:        sender,
		metrics:       turnMetrics,
		logger:        logger,
		historyWindow: historyWindow,
	}
}

// HandleTurn processes one inbound message end to end. Recoverable failures
// (store writes, order materialization, dispatch) are logged and swallowed so
// the webhook can always acknowledge; only truly unexpected conditions return
// an error.
func (s *Service) HandleTurn(ctx context.Context, msg InboundMessage) (TurnResult, error) {
	ctx, span := turnTracer.Start(ctx, "conversation.turn")
	defer span.End()

	suffix11, suffix10 := PhoneSuffixes(msg.Phone)
	if suffix11 == "" {
		return TurnResult{}, errors.New("conversation: message has no phone digits")
	}

	if s.dedupe.Seen(ctx, msg.MessageID) {
		s.logger.Info("duplicate provider message suppressed", "message_id", msg.MessageID)
		return TurnResult{Duplicate: true}, nil
	}

	conversationID := DeriveConversationID(suffix11)
	span.SetAttributes(
		attribute.String("gasbot.conversation_id", conversationID.String()),
		attribute.String("gasbot.event_kind", msg.EventKind),
	)

	customer := s.resolveCustomer(ctx, suffix11, suffix10)

	s.logContact(ctx, msg, customer)

	recentOrders := s.recentOrders(ctx, customer)
	products := s.listProducts(ctx)

	title := conversationTitle(customer, msg)
	if err := s.store.UpsertConversation(ctx, conversationID, title); err != nil {
		s.logger.Error("failed to upsert conversation", "error", err, "conversation_id", conversationID)
	}
	if err := s.store.AppendMessage(ctx, conversationID, ChatRoleUser, msg.Text); err != nil {
		s.logger.Error("failed to persist user message", "error", err, "conversation_id", conversationID)
	}

	messages := s.assembleMessages(ctx, conversationID, products, customer, recentOrders, msg.Text)

	completion, err := s.llm.Complete(ctx, LLMRequest{Messages: messages})
	if err != nil {
		return s.handleCompletionFailure(ctx, msg, conversationID, err), nil
	}
	s.metrics.ObserveCompletion("ok")

	result := TurnResult{ConversationID: conversationID, Fallback: false}
	visible := completion.Text

	if fields, ok := orders.ExtractOrder(completion.Text); ok {
		visible = orders.StripOrderBlock(completion.Text)
		if s.materializeOrder(ctx, msg, customer, products, fields) {
			visible = visible + "\n\n" + orderConfirmation
			result.OrderCreated = true
		}
	} else if orders.HasOrderBlock(completion.Text) {
		// Delimiters present but the block is missing required fields:
		// treat as a non-order and keep it away from the customer.
		visible = orders.StripOrderBlock(completion.Text)
		s.logger.Warn("malformed order block ignored", "conversation_id", conversationID)
		s.metrics.ObserveOrder("malformed")
	}

	if err := s.store.AppendMessage(ctx, conversationID, ChatRoleAssistant, visible); err != nil {
		s.logger.Error("failed to persist assistant message", "error", err, "conversation_id", conversationID)
	}

	s.dispatch(ctx, msg.Phone, visible)

	result.Reply = visible
	return result, nil
}

func (s *Service) resolveCustomer(ctx context.Context, suffix11, suffix10 string) *customers.Customer {
	customer, err := s.directory.FindByPhoneSuffix(ctx, suffix11, suffix10)
	if err != nil {
		s.logger.Error("customer lookup failed", "error", err)
		return nil
	}
	return customer
}

func (s *Service) recentOrders(ctx context.Context, customer *customers.Customer) []customers.OrderSummary {
	if customer == nil {
		return nil
	}
	recent, err := s.directory.RecentOrders(ctx, customer.ID, 3)
	if err != nil {
		s.logger.Error("recent orders lookup failed", "error", err, "customer_id", customer.ID)
		return nil
	}
	return recent
}

func (s *Service) listProducts(ctx context.Context) []catalog.Product {
	products, err := s.catalog.ListAvailable(ctx, 15)
	if err != nil {
		s.logger.Error("product listing failed", "error", err)
		return nil
	}
	return products
}

// assembleMessages builds system + recent history. The just-persisted user
// message normally closes the window; when the persist or the read failed it
// is appended explicitly so the model always sees the turn it is answering.
func (s *Service) assembleMessages(ctx context.Context, conversationID uuid.UUID, products []catalog.Product, customer *customers.Customer, recentOrders []customers.OrderSummary, userText string) []ChatMessage {
	messages := []ChatMessage{{
		Role:    ChatRoleSystem,
		Content: BuildSystemPrompt(products, customer, recentOrders),
	}}

	history, err := s.store.LoadHistory(ctx, conversationID, s.historyWindow)
	if err != nil {
		s.logger.Error("failed to load history", "error", err, "conversation_id", conversationID)
	}
	for _, record := range history {
		messages = append(messages, ChatMessage{Role: record.Role, Content: record.Content})
	}

	last := messages[len(messages)-1]
	if last.Role != ChatRoleUser || last.Content != userText {
		messages = append(messages, ChatMessage{Role: ChatRoleUser, Content: userText})
	}
	return messages
}

func (s *Service) handleCompletionFailure(ctx context.Context, msg InboundMessage, conversationID uuid.UUID, cause error) TurnResult {
	fallback := fallbackGeneric
	status := "error"
	if errors.Is(cause, ErrRateLimited) {
		fallback = fallbackRateLimited
		status = "rate_limited"
	}
	s.metrics.ObserveCompletion(status)
	s.logger.Error("completion failed, sending fallback", "error", cause, "conversation_id", conversationID)

	// Record the fallback as the assistant turn so the next read of history
	// matches what the customer actually saw.
	if err := s.store.AppendMessage(ctx, conversationID, ChatRoleAssistant, fallback); err != nil {
		s.logger.Error("failed to persist fallback message", "error", err, "conversation_id", conversationID)
	}

	s.dispatch(ctx, msg.Phone, fallback)

	return TurnResult{ConversationID: conversationID, Reply: fallback, Fallback: true}
}

// materializeOrder resolves the product and writes order + line item. Every
// failure is silent from the customer's point of view: the conversation just
// continues and the model gathers whatever is missing on later turns.
func (s *Service) materializeOrder(ctx context.Context, msg InboundMessage, customer *customers.Customer, products []catalog.Product, fields *orders.OrderFields) bool {
	product, found := catalog.Resolve(products, fields.Product)
	if !found {
		s.logger.Warn("extracted product not resolved", "product", fields.Product)
		s.metrics.ObserveOrder("unresolved_product")
		return false
	}

	var customerID *string
	displayName := msg.SenderName
	if customer != nil {
		customerID = &customer.ID
		displayName = customer.Name
	}
	if displayName == "" {
		displayName = msg.Phone
	}

	order := orders.Order{
		CustomerID:      customerID,
		Total:           product.Price * float64(fields.Quantity),
		PaymentMethod:   fields.PaymentMethod,
		Status:          orderStatusPending,
		SalesChannel:    salesChannelWhatsApp,
		DeliveryAddress: fields.Address,
		Notes:           fmt.Sprintf("Pedido via WhatsApp - %s (%s)", displayName, msg.Phone),
	}
	item := orders.Item{
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    fields.Quantity,
		UnitPrice:   product.Price,
	}

	if err := s.orders.CreateOrder(ctx, order, item); err != nil {
		s.logger.Error("order materialization failed", "error", err, "product", product.Name)
		s.metrics.ObserveOrder("insert_failed")
		return false
	}

	s.logger.Info("order created", "product", product.Name, "quantity", fields.Quantity, "total", order.Total)
	s.metrics.ObserveOrder("created")
	return true
}

func (s *Service) logContact(ctx context.Context, msg InboundMessage, customer *customers.Customer) {
	event := orders.ContactEvent{
		Phone:   msg.Phone,
		Channel: salesChannelWhatsApp,
		Status:  contactStatusReceiv,
	}
	if customer != nil {
		event.CustomerID = &customer.ID
		event.CustomerName = customer.Name
	}
	if err := s.orders.LogContactEvent(ctx, event); err != nil {
		s.logger.Warn("failed to log contact event", "error", err, "phone", msg.Phone)
	}
}

func (s *Service) dispatch(ctx context.Context, phone, message string) {
	if err := s.sender.SendText(ctx, phone, message); err != nil {
		s.logger.Error("failed to send reply", "error", err, "phone", phone)
		s.metrics.ObserveOutbound("error")
		return
	}
	s.metrics.ObserveOutbound("ok")
}

func conversationTitle(customer *customers.Customer, msg InboundMessage) string {
	if customer != nil && strings.TrimSpace(customer.Name) != "" {
		return customer.Name
	}
	if strings.TrimSpace(msg.SenderName) != "" {
		return msg.SenderName
	}
	return msg.Phone
}
