package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sos-alert-service/internal/platform/obs"
	"sos-alert-service/internal/ports"
	"strings"
	"time"
)

const DefaultTwilioBaseURL = "https://api.twilio.com"

// TwilioGateway implements SMSGateway with the Twilio Messages REST API.
//
// Each Send is a single attempt; the dispatch path does not retry.
// The gateway is safe for concurrent use.
type TwilioGateway struct {
	session    *http.Client
	accountSID string
	authToken  string
	baseURL    string
}

// NewTwilioGateway rejects missing credentials with ports.ErrGatewayConfiguration.
// An empty baseURL selects the public Twilio API.
func NewTwilioGateway(accountSID, authToken, baseURL string) (*TwilioGateway, error) {
	accountSID = strings.TrimSpace(accountSID)
	authToken = strings.TrimSpace(authToken)

	if accountSID == "" {
		return nil, fmt.Errorf("new twilio gateway: %w: account sid is empty", ports.ErrGatewayConfiguration)
	}
	if authToken == "" {
		return nil, fmt.Errorf("new twilio gateway: %w: auth token is empty", ports.ErrGatewayConfiguration)
	}

	if baseURL == "" {
		baseURL = DefaultTwilioBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("new twilio gateway: %w: invalid base url %q", ports.ErrGatewayConfiguration, baseURL)
	}

	return &TwilioGateway{
		session:    &http.Client{Timeout: 10 * time.Second},
		accountSID: accountSID,
		authToken:  authToken,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}, nil
}

type messageResponse struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// Send posts one message and returns its Twilio SID.
// Failures are returned as *ports.GatewayError.
func (t *TwilioGateway) Send(ctx context.Context, msg ports.SMSMessage) (_ string, err error) {
	defer obs.Time(ctx, "twilio.Send")(&err)

	form := url.Values{}
	form.Set("To", msg.To.String())
	form.Set("From", msg.From)
	form.Set("Body", msg.Body)

	req, err := t.newRequest(ctx, http.MethodPost, t.messagesURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return "", &ports.GatewayError{Kind: ports.GatewayErrUnknown, Message: "build request", Err: err}
	}

	resp, err := t.do(req)
	if err != nil {
		return "", classifyError(err, msg.To)
	}
	defer resp.Body.Close()

	var decoded messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &ports.GatewayError{Kind: ports.GatewayErrUnknown, Message: "decode message response", Err: err}
	}
	if decoded.SID == "" {
		return "", &ports.GatewayError{
			Kind:    ports.GatewayErrUnknown,
			Message: "message response has no sid",
			Err:     errors.New("empty sid"),
		}
	}

	return decoded.SID, nil
}

func (t *TwilioGateway) messagesURL() string {
	return t.baseURL + "/2010-04-01/Accounts/" + url.PathEscape(t.accountSID) + "/Messages.json"
}
