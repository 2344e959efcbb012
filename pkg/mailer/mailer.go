package mailer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/suteetoe/perftrack/pkg/config"
	"go.uber.org/zap"
)

// Client talks to the transactional mail provider. Sends are template-based:
// the provider owns the templates, the client only supplies the template name
// and a data bag.
type Client struct {
	BaseURL    string
	APIKey     string
	Sender     string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Message represents a single transactional mail send
type Message struct {
	To       string                 `json:"to"`
	From     string                 `json:"from"`
	Template string                 `json:"template"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

// NewClient creates a new mail provider client
func NewClient(cfg *config.MailConfig, logger *zap.Logger) *Client {
	return &Client{
		BaseURL:    cfg.BaseURL,
		APIKey:     cfg.APIKey,
		Sender:     cfg.Sender,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		Logger:     logger,
	}
}

// Send delivers a single message to the provider. The caller decides whether
// a failure matters; most call sites go through SendAsync instead.
func (c *Client) Send(msg Message) error {
	if msg.From == "" {
		msg.From = c.Sender
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/v1/send", c.BaseURL), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mail provider returned status %d: %s", resp.StatusCode, string(respBody))
	}

	c.Logger.Info("Mail dispatched",
		zap.String("to", msg.To),
		zap.String("template", msg.Template))
	return nil
}

// SendAsync issues the send in the background. Notification delivery is
// best-effort: failures are logged and never retried, and never block the
// mutation that triggered them.
func (c *Client) SendAsync(msg Message) {
	go func() {
		start := time.Now()
		if err := c.Send(msg); err != nil {
			c.Logger.Error("Mail dispatch failed",
				zap.String("to", msg.To),
				zap.String("template", msg.Template),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err))
		}
	}()
}
