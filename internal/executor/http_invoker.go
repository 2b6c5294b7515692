package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPInvoker – posts the payload to <baseURL>/<method> on the benefits domain service
type HTTPInvoker struct {
	baseURL string
	client  *http.Client
}

func NewHTTPInvoker(baseURL string, client *http.Client) *HTTPInvoker {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPInvoker{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (i *HTTPInvoker) Invoke(ctx context.Context, method string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.baseURL+"/"+method, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("invoke %s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", method, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("invoke %s: status %d: %s", method, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
