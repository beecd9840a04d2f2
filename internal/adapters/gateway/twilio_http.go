package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Non-2xx response from Twilio. Code is the Twilio error code (0 when the
// body carried none).
type httpStatusError struct {
	Status  int
	Code    int
	Message string
}

// Twilio error body, e.g. {"code": 21211, "message": "...", "status": 400}.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (t *TwilioGateway) newRequest(
	ctx context.Context,
	method string,
	url string,
	body io.Reader,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.SetBasicAuth(t.accountSID, t.authToken)
	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	return req, nil
}

func (t *TwilioGateway) do(req *http.Request) (*http.Response, error) {
	resp, err := t.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

		he := &httpStatusError{Status: resp.StatusCode}
		var er errorResponse
		if json.Unmarshal(b, &er) == nil {
			he.Code = er.Code
			he.Message = er.Message
		}
		if he.Message == "" {
			he.Message = strings.TrimSpace(string(b))
		}
		return nil, he
	}
	return resp, nil
}

func (e *httpStatusError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("status %d code %d: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}
