// Package notify sends transactional email through a pool of third-party
// sending accounts. Free email API tiers cap monthly volume per account, so
// tenants register several credential sets and sends are spread across them.
package notify

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"sheetfeed/internal/metrics"
)

// Credential identifies one sending account at the email provider.
type Credential struct {
	ServiceID  string `json:"serviceId"`
	TemplateID string `json:"templateId"`
	PublicKey  string `json:"publicKey"`
}

// ErrEmptyPool is returned when no credentials are configured.
var ErrEmptyPool = errors.New("notify: credential pool is empty")

// Sender performs one send attempt with one credential. Implemented by
// *HTTPSender; tests inject fakes.
type Sender interface {
	Send(ctx context.Context, cred Credential, params map[string]string) error
}

// Pool selects credentials for sends. The selection starts at a random
// position to distribute load, then walks the remaining credentials in
// order so a single dead account does not make sends fail outright.
type Pool struct {
	creds  []Credential
	sender Sender

	// intn is swapped in tests to fix the starting position.
	intn func(n int) int
}

// NewPool builds a pool over creds. The slice is copied; later mutation of
// the caller's slice does not affect the pool. A nil sender gets a default
// HTTPSender.
func NewPool(creds []Credential, sender Sender) *Pool {
	if sender == nil {
		sender = NewHTTPSender(HTTPSenderOptions{})
	}
	p := &Pool{
		creds:  append([]Credential(nil), creds...),
		sender: sender,
		intn:   rand.Intn,
	}
	return p
}

// Send delivers one email, rotating through credentials until an attempt
// succeeds. Each credential is tried at most once per call. The error from
// the final failed attempt is returned when every credential fails.
func (p *Pool) Send(ctx context.Context, params map[string]string) error {
	if len(p.creds) == 0 {
		return ErrEmptyPool
	}

	start := p.intn(len(p.creds))
	var lastErr error
	for i := range p.creds {
		cred := p.creds[(start+i)%len(p.creds)]
		err := p.sender.Send(ctx, cred, params)
		if err == nil {
			metrics.IncCounter("notify.sent", 1, "service:"+cred.ServiceID)
			return nil
		}
		metrics.IncCounter("notify.attempt_failed", 1, "service:"+cred.ServiceID)
		lastErr = err
	}
	return fmt.Errorf("notify: all %d credentials failed: %w", len(p.creds), lastErr)
}
