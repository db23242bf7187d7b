package sender

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/config"
	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/contacts"
)

// Client wraps the remote bulk-sender backend. All business logic that
// matters (scheduling, delivery, retries) lives behind this API; the client
// only attaches the bearer token and extracts error messages.
type Client struct {
	Config *config.Config
	HTTP   *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{Config: cfg, HTTP: &http.Client{}}
}

// --- Helper Functions ---

func (c *Client) sendRequest(method, path string, body interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, c.Config.SenderAPIURL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+c.Config.SenderAPIToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		// No automatic redirect to login; the failure is surfaced like any
		// other error and the token has to be refreshed out of band.
		log.Printf("Authentication failed: %s", string(respBody))
	}

	if resp.StatusCode >= 400 {
		return respBody, fmt.Errorf("API error: %s - %s", resp.Status, extractErrorMessage(respBody, resp.Status))
	}

	return respBody, nil
}

// extractErrorMessage picks the best available error text from a response
// body: message, then error, then the supplied fallback.
func extractErrorMessage(body []byte, fallback string) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return fallback
}

// --- Sending Methods ---

// SendMessage executes one planned send request. Attachments go out first
// (one post each, skipping those without an uploaded URL), then the text
// body when present or in turbo mode. Per-recipient bodies cause one post
// per recipient so each contact gets its own rendering.
func (c *Client) SendMessage(req SendMessageRequest) ([]Result, error) {
	env := Envelope{
		To:                       req.Recipients,
		AccessToken:              c.Config.WhatsAppToken,
		DelayBetweenMessagesInMs: req.TimeGapMs,
	}
	if req.IsScheduled && req.ScheduledTime != "" {
		t := req.ScheduledTime
		env.ScheduledTimeInUtc = &t
	}

	var results []Result

	for _, att := range req.Attachments {
		if att.URL == "" {
			continue
		}
		media := MediaObj{Link: att.URL, Caption: att.Caption, Filename: att.Name}

		var respBody []byte
		var err error
		switch att.Type {
		case AttachmentImage:
			respBody, err = c.sendRequest("POST", "/api/whatsapp/sender/Image", imagePayload{Envelope: env, Image: media})
		case AttachmentDocument:
			respBody, err = c.sendRequest("POST", "/api/whatsapp/sender/document", documentPayload{Envelope: env, Document: media})
		default:
			continue
		}
		if err != nil {
			return results, err
		}
		results = append(results, Normalize(respBody)...)
	}

	if strings.TrimSpace(req.Message) != "" || req.IsTurboMode {
		if len(req.Personalized) > 0 {
			for _, to := range req.Recipients {
				body := req.Personalized[to]
				if body == "" {
					body = req.Message
				}
				one := env
				one.To = []string{to}
				respBody, err := c.sendRequest("POST", "/api/whatsapp/sender/text", textPayload{Envelope: one, Text: TextObj{Body: body}})
				if err != nil {
					return results, err
				}
				results = append(results, Normalize(respBody)...)
			}
		} else {
			respBody, err := c.sendRequest("POST", "/api/whatsapp/sender/text", textPayload{Envelope: env, Text: TextObj{Body: req.Message}})
			if err != nil {
				return results, err
			}
			results = append(results, Normalize(respBody)...)
		}
	}

	return results, nil
}

// SendTemplate sends a preapproved template in a single request, with no
// delay or scheduling.
func (c *Client) SendTemplate(req TemplateRequest) ([]Result, error) {
	payload := templatePayload{
		Envelope: Envelope{To: req.To, AccessToken: c.Config.WhatsAppToken},
		Template: req.Template,
	}
	respBody, err := c.sendRequest("POST", "/api/whatsapp/sender/template", payload)
	if err != nil {
		return nil, err
	}
	return Normalize(respBody), nil
}

// --- Contact Methods ---

func (c *Client) Contacts() ([]contacts.Contact, error) {
	respBody, err := c.sendRequest("GET", "/api/user/contacts", nil)
	if err != nil {
		return nil, err
	}
	var list []contacts.Contact
	if err := json.Unmarshal(respBody, &list); err != nil {
		return nil, fmt.Errorf("unexpected contacts response: %w", err)
	}
	return list, nil
}

// RegisterContacts replaces the full remote contact list.
func (c *Client) RegisterContacts(list []contacts.Contact) error {
	payload := struct {
		Contacts []contacts.Contact `json:"contacts"`
	}{Contacts: list}
	_, err := c.sendRequest("POST", "/api/user/register-contact", payload)
	return err
}

// --- History and Schedule Methods ---

func (c *Client) History() (json.RawMessage, error) {
	return c.sendRequest("GET", "/api/user/history", nil)
}

func (c *Client) ContactHistory(contact string) (json.RawMessage, error) {
	return c.sendRequest("GET", "/api/user/contact-history?contact="+url.QueryEscape(contact), nil)
}

func (c *Client) ScheduledMessages() (json.RawMessage, error) {
	return c.sendRequest("GET", "/api/user/scheduled-messages", nil)
}

func (c *Client) UpdateScheduledMessage(id, dueDateUTC string) error {
	payload := struct {
		ID         string `json:"id"`
		DueDateUTC string `json:"dueDateUTC"`
	}{ID: id, DueDateUTC: dueDateUTC}
	_, err := c.sendRequest("POST", "/api/user/update-scheduled-messages", payload)
	return err
}

// CancelScheduledMessage posts the id as a raw JSON string body ("42", not
// 42); the backend rejects anything else.
func (c *Client) CancelScheduledMessage(id string) error {
	_, err := c.sendRequest("POST", "/api/user/cancel-scheduled-message", id)
	return err
}
