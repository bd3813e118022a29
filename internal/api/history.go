package api

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// HistoryItem is one previously generated caption.
type HistoryItem struct {
	ID          int64     `json:"id"`
	ImageURL    string    `json:"image_url"`
	CaptionText string    `json:"caption_text"`
	CreatedAt   time.Time `json:"created_at"`
}

// RecentResult is the service's recent-history response.
type RecentResult struct {
	Items []HistoryItem `json:"items"`
	Count int           `json:"count"`
}

// HistoryPage is one page of the full caption history.
type HistoryPage struct {
	Items      []HistoryItem `json:"items"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"total_pages"`
}

// Recent fetches the user's latest captions, most recent first.
// Requires authentication.
func (c *Client) Recent(ctx context.Context, token string) (*RecentResult, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/history/recent", token, nil)
	if err != nil {
		return nil, err
	}

	var result RecentResult
	if err := c.doJSON(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// History fetches one page of the full caption history.
// Requires authentication.
func (c *Client) History(ctx context.Context, token string, page, limit int) (*HistoryPage, error) {
	path := fmt.Sprintf("/history?page=%d&limit=%d", page, limit)
	req, err := c.newRequest(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}

	var result HistoryPage
	if err := c.doJSON(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
