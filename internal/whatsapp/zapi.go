package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/revgas/gasbot/internal/conversation"
	"github.com/revgas/gasbot/pkg/logging"
)

// Client posts messages through a Z-API style WhatsApp gateway.
type Client struct {
	baseURL     string
	instanceID  string
	token       string
	clientToken string
	httpClient  *http.Client
	logger      *logging.Logger
}

// NewClient builds the provider client. Instance id and token are the
// credentials the channel cannot run without, so their absence is an error at
// construction time.
func NewClient(baseURL, instanceID, token, clientToken string, logger *logging.Logger) (*Client, error) {
	if strings.TrimSpace(instanceID) == "" {
		return nil, errors.New("whatsapp: instance id required")
	}
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("whatsapp: token required")
	}
	if baseURL == "" {
		baseURL = "https://api.z-api.io"
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		instanceID:  instanceID,
		token:       token,
		clientToken: clientToken,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}, nil
}

var _ conversation.ReplySender = (*Client)(nil)

// SendText dispatches one text message to the originating chat.
func (c *Client) SendText(ctx context.Context, phone, message string) error {
	if strings.TrimSpace(phone) == "" {
		return errors.New("whatsapp: phone required")
	}
	if strings.TrimSpace(message) == "" {
		return errors.New("whatsapp: message required")
	}

	payload, err := json.Marshal(map[string]string{
		"phone":   phone,
		"message": message,
	})
	if err != nil {
		return fmt.Errorf("whatsapp: failed to marshal send payload: %w", err)
	}

	url := fmt.Sprintf("%s/instances/%s/token/%s/send-text", c.baseURL, c.instanceID, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("whatsapp: failed to build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.clientToken != "" {
		req.Header.Set("Client-Token", c.clientToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp: send request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
		return fmt.Errorf("whatsapp: send failed: status %d, body: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	c.logger.Info("whatsapp message sent", "phone", phone)
	return nil
}
