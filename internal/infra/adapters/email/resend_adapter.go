package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"commit-reflections/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.NotifierAdapter = (*ResendAdapter)(nil)

// ResendAdapter delivers reflections through the Resend transactional email
// API. Base URL defaults to https://api.resend.com (configurable for tests).
// Authorization: Bearer <RESEND_API_KEY>
type ResendAdapter struct {
	apiKey string
	from   string
	base   string
	client *http.Client
}

func NewResendAdapter(apiKey, from, base string) (*ResendAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("resend api key empty")
	}
	if from == "" {
		return nil, errors.New("resend sender address empty")
	}
	if base == "" {
		base = "https://api.resend.com"
	}
	return &ResendAdapter{
		apiKey: apiKey,
		from:   from,
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (r *ResendAdapter) Send(ctx context.Context, n adapter.Notification) error {
	if n.Recipient == "" {
		return errors.New("notification has no recipient")
	}

	reqBody := struct {
		From    string   `json:"from"`
		To      []string `json:"to"`
		Subject string   `json:"subject"`
		HTML    string   `json:"html"`
	}{
		From:    r.from,
		To:      []string{n.Recipient},
		Subject: n.Subject,
		HTML:    renderHTML(n),
	}

	b, _ := json.Marshal(reqBody)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, r.base+"/emails", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("resend http %d", resp.StatusCode)
	}
	return nil
}

func renderHTML(n adapter.Notification) string {
	var b strings.Builder
	if n.ImageURL != "" {
		fmt.Fprintf(&b, `<img src=%q alt="" style="max-width:100%%;border-radius:8px"/>`, n.ImageURL)
	}
	for _, para := range strings.Split(n.Content, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(para))
	}
	return b.String()
}
