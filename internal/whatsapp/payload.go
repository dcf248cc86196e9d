package whatsapp

import (
	"encoding/json"
	"strings"

	"github.com/revgas/gasbot/internal/conversation"
)

// Skip markers returned to the provider when an event is intentionally not
// processed. The provider retries on errors, so skips are always successes.
const (
	SkipFromSelf  = "fromMe"
	SkipEventKind = "eventType"
	SkipGroup     = "group"
	SkipEmpty     = "empty"
)

// InboundEvent mirrors the provider webhook body. The shape varies by event
// kind, so every field is optional and read with fallbacks.
type InboundEvent struct {
	FromMe     bool      `json:"fromMe"`
	Type       string    `json:"type"`
	IsNewMsg   bool      `json:"isNewMsg"`
	Phone      string    `json:"phone"`
	From       string    `json:"from"`
	Text       textField `json:"text"`
	Body       string    `json:"body"`
	SenderName string    `json:"senderName"`
	ChatName   string    `json:"chatName"`
	IsGroup    bool      `json:"isGroup"`
	MessageID  string    `json:"messageId"`
}

// textField accepts both `"text": {"message": "..."}` and a bare
// `"text": "..."` — the provider emits either depending on the event.
type textField struct {
	Message string
}

func (t *textField) UnmarshalJSON(data []byte) error {
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		t.Message = obj.Message
		return nil
	}
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		t.Message = plain
		return nil
	}
	// Unknown shape; leave empty rather than failing the whole payload.
	t.Message = ""
	return nil
}

// receivedEventKinds are the provider event types that carry a genuinely new
// inbound user message. Everything else (delivery receipts, status changes,
// presence) is acknowledged and dropped.
var receivedEventKinds = map[string]struct{}{
	"ReceivedCallback": {},
	"received":         {},
	"message":          {},
	"chat":             {},
}

// Normalize turns the loose provider payload into a typed InboundMessage, or
// returns the first applicable skip reason. The self-origin check runs first:
// it is the hard guard against reply loops.
func Normalize(ev InboundEvent) (conversation.InboundMessage, string) {
	if ev.FromMe {
		return conversation.InboundMessage{}, SkipFromSelf
	}

	kind := strings.TrimSpace(ev.Type)
	if kind == "" {
		if !ev.IsNewMsg {
			return conversation.InboundMessage{}, SkipEventKind
		}
	} else if _, ok := receivedEventKinds[kind]; !ok {
		return conversation.InboundMessage{}, SkipEventKind
	}

	if ev.IsGroup {
		return conversation.InboundMessage{}, SkipGroup
	}

	phone := strings.TrimSpace(ev.Phone)
	if phone == "" {
		phone = strings.TrimSpace(ev.From)
	}
	// WhatsApp ids arrive as "5511999990000@c.us"; keep the bare number.
	if at := strings.IndexByte(phone, '@'); at >= 0 {
		phone = phone[:at]
	}

	text := firstNonEmpty(ev.Text.Message, ev.Body)
	if phone == "" || strings.TrimSpace(text) == "" {
		return conversation.InboundMessage{}, SkipEmpty
	}

	return conversation.InboundMessage{
		FromSelf:   false,
		EventKind:  kind,
		Phone:      phone,
		Text:       strings.TrimSpace(text),
		SenderName: firstNonEmpty(ev.SenderName, ev.ChatName),
		IsGroup:    false,
		MessageID:  ev.MessageID,
	}, ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
