package whatsapp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to a Cloud-API style WhatsApp provider. Messages go out as
// plain text to a normalized number.
type Client struct {
	apiToken string
	baseURL  string
	phoneID  string
	http     *http.Client
}

func NewClient(apiToken, baseURL, phoneID string) *Client {
	return &Client{
		apiToken: apiToken,
		baseURL:  baseURL,
		phoneID:  phoneID,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Send(phone, message string) error {
	if c.apiToken == "" {
		return fmt.Errorf("whatsapp provider not configured")
	}

	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                phone,
		"type":              "text",
		"text":              map[string]string{"body": message},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneID)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("whatsapp send failed: %d - %s", resp.StatusCode, string(respBody))
	}
	return nil
}
