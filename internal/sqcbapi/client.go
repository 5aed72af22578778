package sqcbapi

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

	"github.com/sqcb_dashboard/backend/internal/models"
)

var ErrUpstream = errors.New("sqcbapi: upstream error")

const maxBodyBytes = 64 << 20

// Client reads SQCB records from the upstream REST API.
type Client struct {
	BaseURL string
	Client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) ListRecords(ctx context.Context) ([]models.Record, error) {
	if strings.TrimSpace(c.BaseURL) == "" {
		return nil, fmt.Errorf("SQCB_API_URL is not set")
	}
	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	url := strings.TrimRight(c.BaseURL, "/") + "/sqcb"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s", ErrUpstream, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}
	records, err := DecodeRecords(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return records, nil
}

// DecodeRecords accepts either a bare JSON array of records or an object
// wrapping them in "data". An object without "data" yields no records.
func DecodeRecords(data []byte) ([]models.Record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("sqcbapi: empty body")
	}

	switch data[0] {
	case '[':
		var records []models.Record
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("sqcbapi: decode records: %w", err)
		}
		return nonNil(records), nil
	case '{':
		var envelope struct {
			Data []models.Record `json:"data"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			return nil, fmt.Errorf("sqcbapi: decode records: %w", err)
		}
		return nonNil(envelope.Data), nil
	default:
		return nil, errors.New("sqcbapi: unexpected body, want array or object")
	}
}

func nonNil(records []models.Record) []models.Record {
	if records == nil {
		return []models.Record{}
	}
	return records
}
