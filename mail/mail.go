// Package mail delivers transactional email through the Resend HTTP API.
package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrNotConfigured = errors.New("mail delivery is not configured")

type Message struct {
	To      Recipients `json:"to"`
	Subject string     `json:"subject"`
	HTML    string     `json:"html"`
}

// Validate reports the first missing field.
func (m Message) Validate() error {
	if len(m.To) == 0 || strings.TrimSpace(m.Subject) == "" || strings.TrimSpace(m.HTML) == "" {
		return errors.New("missing required fields: to, subject, or html")
	}
	for _, to := range m.To {
		if !strings.Contains(to, "@") {
			return fmt.Errorf("invalid recipient %q", to)
		}
	}
	return nil
}

// Result is the provider's acknowledgement.
type Result struct {
	ID string `json:"id"`
}

type Sender interface {
	Send(ctx context.Context, msg Message) (*Result, error)
}

// Recipients accepts either a single address or a list in JSON.
type Recipients []string

func (r *Recipients) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*r = splitAddresses(one)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("to must be a string or a list of strings")
	}
	out := make([]string, 0, len(many))
	for _, addr := range many {
		out = append(out, splitAddresses(addr)...)
	}
	*r = out
	return nil
}

func splitAddresses(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
