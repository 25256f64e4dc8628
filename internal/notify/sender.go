package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultEndpoint is the hosted email API's REST send endpoint.
const DefaultEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

// HTTPSenderOptions configures an HTTPSender. Zero values select the hosted
// endpoint and a client with a sane timeout.
type HTTPSenderOptions struct {
	HTTP     *http.Client
	Endpoint string
}

// HTTPSender submits sends to the provider's REST API.
type HTTPSender struct {
	http     *http.Client
	endpoint string
}

// NewHTTPSender constructs an HTTPSender from opts.
func NewHTTPSender(opts HTTPSenderOptions) *HTTPSender {
	s := &HTTPSender{http: opts.HTTP, endpoint: opts.Endpoint}
	if s.http == nil {
		s.http = &http.Client{Timeout: 15 * time.Second}
	}
	if s.endpoint == "" {
		s.endpoint = DefaultEndpoint
	}
	return s
}

type sendRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	TemplateParams map[string]string `json:"template_params,omitempty"`
}

// Send posts one email to the provider. Any non-2xx response is an error;
// the response body is included because the provider returns plain-text
// reasons such as quota exhaustion.
func (s *HTTPSender) Send(ctx context.Context, cred Credential, params map[string]string) error {
	body, err := json.Marshal(sendRequest{
		ServiceID:      cred.ServiceID,
		TemplateID:     cred.TemplateID,
		UserID:         cred.PublicKey,
		TemplateParams: params,
	})
	if err != nil {
		return fmt.Errorf("notify: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("notify: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("notify: provider returned %d: %s", resp.StatusCode, bytes.TrimSpace(reason))
	}
	return nil
}
