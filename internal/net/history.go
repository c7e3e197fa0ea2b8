package net

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"SketchBoard/internal/auth"
	"SketchBoard/internal/state"
)

// HistoryClient reads a room's persisted message log.
type HistoryClient struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewHistoryClient(baseURL, token string) *HistoryClient {
	return &HistoryClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Fetch returns the raw payloads of GET /chats/{roomId} in persistence order.
func (h *HistoryClient) Fetch(ctx context.Context, roomID string) ([]string, error) {
	if h.BaseURL == "" {
		return nil, fmt.Errorf("history: no base url")
	}
	endpoint := h.BaseURL + "/chats/" + url.PathEscape(roomID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("history request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if auth.Valid(h.Token, time.Now()) {
		req.Header.Set("Authorization", "Bearer "+h.Token)
	}

	client := h.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch history: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var hist state.History
	if err := json.NewDecoder(resp.Body).Decode(&hist); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return hist.Payloads(), nil
}
