// Package sms delivers text messages through a Termii-style HTTP API.
package sms

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

	"go.uber.org/zap"
)

type Client struct {
	APIURL   string
	APIKey   string
	SenderID string

	HTTP   *http.Client
	Logger *zap.Logger
}

func NewClient(apiURL, apiKey, senderID string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		APIURL:   strings.TrimSpace(apiURL),
		APIKey:   strings.TrimSpace(apiKey),
		SenderID: strings.TrimSpace(senderID),
		HTTP:     &http.Client{Timeout: timeout},
		Logger:   logger,
	}
}

type sendRequest struct {
	To      string `json:"to"`
	From    string `json:"from"`
	SMS     string `json:"sms"`
	Type    string `json:"type"`
	Channel string `json:"channel"`
	APIKey  string `json:"api_key"`
}

// Send posts one message. Without an API key it logs the message and
// reports success so local environments work without a provider account.
func (c *Client) Send(ctx context.Context, to, message string) error {
	if c == nil {
		return errors.New("sms client is nil")
	}
	if c.APIKey == "" {
		if c.Logger != nil {
			c.Logger.Info("sms api key not set, message not sent",
				zap.String("to", to),
				zap.String("message", message),
			)
		}
		return nil
	}

	body, err := json.Marshal(sendRequest{
		To:      to,
		From:    c.SenderID,
		SMS:     message,
		Type:    "plain",
		Channel: "generic",
		APIKey:  c.APIKey,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return fmt.Errorf("sms send http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: 10 * time.Second}
}
