package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/getleadpipe/leadpipe/pkg/models"
)

const twilioBaseURL = "https://api.twilio.com/2010-04-01"

// Twilio sends sms through the Twilio messages API. Voice is not wired to a
// real provider; campaigns with a voice channel use the mock for calls.
type Twilio struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	client     *http.Client
}

func NewTwilio(accountSID, authToken, from string) *Twilio {
	return &Twilio{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    twilioBaseURL,
		client:     &http.Client{},
	}
}

// NewTwilioWithBaseURL targets a non-default API host, used in tests.
func NewTwilioWithBaseURL(accountSID, authToken, from, baseURL string) *Twilio {
	provider := NewTwilio(accountSID, authToken, from)
	provider.baseURL = baseURL

	return provider
}

type twilioMessage struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

func (t *Twilio) Send(ctx context.Context, req Request) (*Receipt, error) {
	if req.Channel != models.ChannelSMS {
		return nil, fmt.Errorf("twilio provider does not support channel %q", req.Channel)
	}

	form := url.Values{}
	form.Set("To", req.Address)
	form.Set("From", t.from)
	form.Set("Body", req.Message)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", t.baseURL, t.accountSID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build twilio request: %w", err)
	}

	httpReq.SetBasicAuth(t.accountSID, t.authToken)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("twilio request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

		return nil, fmt.Errorf("twilio returned status %d: %s", resp.StatusCode, string(detail))
	}

	var message twilioMessage
	if err := json.NewDecoder(resp.Body).Decode(&message); err != nil {
		return nil, fmt.Errorf("failed to decode twilio response: %w", err)
	}

	accepted := message.Status != "failed" && message.Status != "undelivered"

	return &Receipt{Accepted: accepted, ProviderRef: message.SID, Response: message.Status}, nil
}
