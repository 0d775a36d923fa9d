package wablas

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode"
)

// Client wraps the Wablas WhatsApp gateway HTTP API. Every send is a single
// attempt: no retries, no backoff. Failures are contained here and returned
// as a tagged SendResult, never as a panic or propagated error.
type Client struct {
	baseURL   string
	apiKey    string
	secretKey string
	http      *http.Client
}

// NewClient creates a gateway client with the given credentials
func NewClient(baseURL, apiKey, secretKey string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		secretKey: secretKey,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

// SendResult is the outcome of a single send attempt
type SendResult struct {
	Succeeded        bool
	ProviderResponse json.RawMessage
	ErrorDetail      string
}

type sendMessageRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
	Secret  string `json:"secret"`
	Retry   bool   `json:"retry"`
	IsGroup bool   `json:"isGroup"`
}

// NormalizePhone converts a raw phone number to the gateway's expected
// format: digits only, Indonesian country code prefix.
// "081234567890" -> "6281234567890", "+62 812-3456-7890" -> "6281234567890".
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	if strings.HasPrefix(digits, "0") {
		return "62" + digits[1:]
	}
	if !strings.HasPrefix(digits, "62") {
		return "62" + digits
	}
	return digits
}

// SendMessage sends a single text message to a phone number. Success means
// the gateway answered with a 2xx status; the provider's JSON body is
// carried either way.
func (c *Client) SendMessage(phone, message string) SendResult {
	target := NormalizePhone(phone)

	payload, err := json.Marshal(sendMessageRequest{
		Phone:   target,
		Message: message,
		Secret:  c.secretKey,
		Retry:   false,
		IsGroup: false,
	})
	if err != nil {
		return SendResult{ErrorDetail: fmt.Sprintf("encode request: %v", err)}
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/api/send-message", bytes.NewReader(payload))
	if err != nil {
		return SendResult{ErrorDetail: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("Wablas send to %s failed: %v", target, err)
		return SendResult{ErrorDetail: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("Wablas send to %s: failed to read response: %v", target, err)
		return SendResult{ErrorDetail: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("Wablas send to %s rejected with status %d: %s", target, resp.StatusCode, body)
		return SendResult{
			ProviderResponse: body,
			ErrorDetail:      fmt.Sprintf("gateway returned status %d: %s", resp.StatusCode, body),
		}
	}

	log.Printf("Wablas message sent to %s", target)
	return SendResult{Succeeded: true, ProviderResponse: body}
}

// DeviceStatus fetches the gateway device status, used as a diagnostic
// passthrough by the health endpoint.
func (c *Client) DeviceStatus() (json.RawMessage, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/api/device/status?secret="+c.secretKey, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("device status request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, body)
	}
	return body, nil
}
