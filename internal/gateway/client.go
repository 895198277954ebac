// Package gateway implements the HTTP client for the remote assistant service.
// It owns the wire contract: request shapes, response envelopes, and the
// field-fallback precedence for endpoints that evolved their schemas. The
// client never retries; every call is at-most-once from the core's view.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"bioscope/internal/logger"
	"bioscope/pkg/biotypes"
)

// TokenProvider supplies the stored opaque credential, when one exists.
// Absence simply omits the Authorization header.
type TokenProvider func() (string, bool)

// Client is the Conversation API Gateway. It is stateless apart from its
// configuration and safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenProvider
	log        *log.Logger
}

// NewClient creates a gateway client for the service at baseURL with the
// given per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.NewStyledLogger("Gateway"),
	}
}

// SetTokenProvider wires the credential source. Optional; anonymous requests
// are sent without an Authorization header.
func (c *Client) SetTokenProvider(provider TokenProvider) {
	c.token = provider
}

// sendRequest is the wire shape of the chat endpoint's request body.
type sendRequest struct {
	Prompt       string `json:"prompt"`
	UserID       string `json:"user_id"`
	HistoricalID string `json:"historical_id,omitempty"`
}

// Send submits a prompt and decodes the structured answer envelope.
// A non-2xx status or an undecodable body is a transport-level error; an
// application-level failure comes back as a decoded SendResult with
// Success=false and is not an error return.
func (c *Client) Send(ctx context.Context, prompt, userID, historicalID string) (*biotypes.SendResult, error) {
	body := sendRequest{Prompt: prompt, UserID: userID, HistoricalID: historicalID}

	var result biotypes.SendResult
	if err := c.postJSON(ctx, "/chats", body, &result); err != nil {
		return nil, err
	}

	logger.GatewayCall("send", "historical_id", result.HistoricalID, "success", result.Success)
	return &result, nil
}

// FetchHistoricalMessages returns the persisted turns of one conversation,
// oldest first.
func (c *Client) FetchHistoricalMessages(ctx context.Context, historicalID string) ([]biotypes.HistoricalEntry, error) {
	if historicalID == "" {
		return nil, fmt.Errorf("historical id is required")
	}

	var entries []biotypes.HistoricalEntry
	path := "/historical/" + url.PathEscape(historicalID) + "/messages"
	if err := c.getJSON(ctx, path, &entries); err != nil {
		return nil, err
	}

	logger.GatewayCall("fetch_historical_messages", "historical_id", historicalID, "count", len(entries))
	return entries, nil
}

// createRecordResponse tolerates the id field names the backend has emitted
// over time. The precedence lives here and nowhere else.
type createRecordResponse struct {
	LegacyID       string `json:"_id,omitempty"`
	ID             string `json:"id,omitempty"`
	HistoricalCC   string `json:"historicalId,omitempty"`
	HistoricalSnek string `json:"historical_id,omitempty"`
}

func (r *createRecordResponse) resolveID() string {
	for _, candidate := range []string{r.LegacyID, r.ID, r.HistoricalCC, r.HistoricalSnek} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

// CreateHistoricalRecord creates a new server-side conversation record named
// by title and returns its id.
func (c *Client) CreateHistoricalRecord(ctx context.Context, title, userID string) (string, error) {
	body := map[string]string{"title": title, "user_id": userID}

	var resp createRecordResponse
	if err := c.postJSON(ctx, "/historical", body, &resp); err != nil {
		return "", err
	}

	id := resp.resolveID()
	if id == "" {
		return "", fmt.Errorf("create historical record response carried no id")
	}

	logger.GatewayCall("create_historical_record", "historical_id", id)
	return id, nil
}

// titleResponse tolerates the summarizer's two field names.
type titleResponse struct {
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
}

// GenerateTitle asks the summarization endpoint for a short conversation
// title derived from the given message.
func (c *Client) GenerateTitle(ctx context.Context, message string) (string, error) {
	body := map[string]string{"message": message}

	var resp titleResponse
	if err := c.postJSON(ctx, "/generate-title", body, &resp); err != nil {
		return "", err
	}

	title := resp.Title
	if title == "" {
		title = resp.Message
	}
	if title == "" {
		return "", fmt.Errorf("generate title response carried no title")
	}
	return title, nil
}

// ListHistoricalRecords returns the user's persisted conversations.
func (c *Client) ListHistoricalRecords(ctx context.Context, userID string) ([]biotypes.HistoricalRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	var records []biotypes.HistoricalRecord
	path := "/historical/user/" + url.PathEscape(userID)
	if err := c.getJSON(ctx, path, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}
	return c.doJSON(ctx, http.MethodPost, path, strings.NewReader(string(payload)), out)
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token != nil {
		if token, ok := c.token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("Gateway request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned %s: %s", path, resp.Status, errorDetail(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// errorDetail extracts the server's error message from a failure body,
// falling back to the raw body when it is not the usual envelope.
func errorDetail(data []byte) string {
	var envelope struct {
		Message string `json:"message,omitempty"`
		Error   string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}
	detail := strings.TrimSpace(string(data))
	if len(detail) > 200 {
		detail = detail[:200]
	}
	return detail
}
