package sms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Skotchmaster/storefront/internal/logging"
)

type Sender interface {
	Send(ctx context.Context, phone, text string) error
}

// HTTPSender talks to a Kavenegar-style REST endpoint:
// {base}/{apiKey}/sms/send.json?receptor=..&sender=..&message=..
type HTTPSender struct {
	BaseURL string
	APIKey  string
	From    string
	Client  *http.Client
}

func NewHTTPSender(baseURL, apiKey, from string) *HTTPSender {
	return &HTTPSender{
		BaseURL: baseURL,
		APIKey:  apiKey,
		From:    from,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *HTTPSender) Send(ctx context.Context, phone, text string) error {
	q := url.Values{}
	q.Set("receptor", phone)
	q.Set("sender", s.From)
	q.Set("message", text)
	endpoint := fmt.Sprintf("%s/%s/sms/send.json?%s", s.BaseURL, url.PathEscape(s.APIKey), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("sms: build request: %w", err)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("sms: send: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms: gateway status %d: %s", resp.StatusCode, body)
	}
	return nil
}

// LogSender writes messages to the log instead of sending them. Used when no
// SMS gateway is configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, phone, text string) error {
	logging.FromContext(ctx).Info("sms_not_sent", "phone", phone, "text", text)
	return nil
}
