// Package chat delivers rendered summaries back to the group.
//
// Delivery is best effort: posters log failures and report them through a
// boolean, never an error, so a failed post cannot abort a run.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Poster posts text to the group and reports whether it was delivered
type Poster interface {
	Post(ctx context.Context, text string) bool
}

// Options configures a WebhookPoster
type Options struct {
	URL          string
	Group        string
	AccessToken  string // static bearer token
	TokenURL     string // client-credentials flow when set
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// WebhookPoster sends summaries to a bot gateway as JSON
type WebhookPoster struct {
	url    string
	group  string
	client *http.Client
	log    *zap.Logger
}

type webhookPayload struct {
	Group string `json:"group"`
	Text  string `json:"text"`
}

// NewWebhookPoster creates a poster. Requests are authenticated with the
// client-credentials flow when opts.TokenURL is set, else with the static
// access token if any.
func NewWebhookPoster(opts Options, log *zap.Logger) *WebhookPoster {
	ctx := context.Background()

	var client *http.Client
	switch {
	case opts.TokenURL != "":
		cc := clientcredentials.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			TokenURL:     opts.TokenURL,
		}
		client = cc.Client(ctx)
	case opts.AccessToken != "":
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.AccessToken, TokenType: "Bearer"})
		client = oauth2.NewClient(ctx, ts)
	default:
		client = &http.Client{}
	}
	client.Timeout = opts.Timeout

	return &WebhookPoster{
		url:    opts.URL,
		group:  opts.Group,
		client: client,
		log:    log,
	}
}

// Post sends text to the webhook. Failures are logged and swallowed.
func (p *WebhookPoster) Post(ctx context.Context, text string) bool {
	if err := p.send(ctx, text); err != nil {
		p.log.Warn("posting summary failed", zap.String("url", p.url), zap.Error(err))
		return false
	}
	p.log.Info("summary posted", zap.String("group", p.group), zap.Int("chars", len(text)))
	return true
}

func (p *WebhookPoster) send(ctx context.Context, text string) error {
	body, err := json.Marshal(webhookPayload{Group: p.group, Text: text})
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, string(b))
	}
	return nil
}
