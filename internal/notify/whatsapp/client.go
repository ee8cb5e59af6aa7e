// Package whatsapp sends template messages through the WhatsApp Business
// Cloud API.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultBaseURL = "https://graph.facebook.com/v18.0"

type Client struct {
	BaseURL       string
	PhoneNumberID string
	AccessToken   string
	HTTP          *http.Client
}

// APIError is the provider's error object.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
	Type       string `json:"type"`
	Code       int    `json:"code"`
	TraceID    string `json:"fbtrace_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp api error %d (http %d, %s): %s", e.Code, e.StatusCode, e.Type, e.Message)
}

type errorEnvelope struct {
	Error *APIError `json:"error"`
}

type templateMessage struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Template         template `json:"template"`
}

type template struct {
	Name       string      `json:"name"`
	Language   language    `json:"language"`
	Components []component `json:"components,omitempty"`
}

type language struct {
	Code string `json:"code"`
}

type component struct {
	Type       string      `json:"type"`
	Parameters []parameter `json:"parameters"`
}

type parameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// SendTemplate posts a named template with positional body parameters and
// returns the provider message id.
func (c *Client) SendTemplate(ctx context.Context, to, name, lang string, params []string) (string, error) {
	if strings.TrimSpace(c.PhoneNumberID) == "" || strings.TrimSpace(c.AccessToken) == "" {
		return "", fmt.Errorf("whatsapp client not configured")
	}
	to = strings.TrimPrefix(strings.TrimSpace(to), "+")
	if to == "" {
		return "", fmt.Errorf("recipient required")
	}

	msg := templateMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "template",
		Template: template{
			Name:     name,
			Language: language{Code: lang},
		},
	}
	if len(params) > 0 {
		body := component{Type: "body", Parameters: make([]parameter, 0, len(params))}
		for _, p := range params {
			body.Parameters = append(body.Parameters, parameter{Type: "text", Text: p})
		}
		msg.Template.Components = []component{body}
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}
	base := strings.TrimRight(c.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	u := fmt.Sprintf("%s/%s/messages", base, c.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)

	hc := c.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var env errorEnvelope
		if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
			env.Error.StatusCode = resp.StatusCode
			return "", env.Error
		}
		return "", &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var out sendResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	if len(out.Messages) == 0 {
		return "", nil
	}
	return out.Messages[0].ID, nil
}
