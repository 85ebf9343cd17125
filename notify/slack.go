package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"ig_apify/config"
)

const slackTimeout = 10 * time.Second

// Message is one Slack webhook post.
type Message struct {
	Username string
	Text     string
	Icon     string
}

type payload struct {
	Channel   string `json:"channel"`
	Username  string `json:"username"`
	Text      string `json:"text"`
	IconEmoji string `json:"icon_emoji"`
}

// Slack posts messages to an incoming webhook.
type Slack struct {
	http    *resty.Client
	webhook string
	channel string
}

func NewSlack(cfg config.SlackConfig) *Slack {
	return &Slack{
		http:    resty.New().SetTimeout(slackTimeout),
		webhook: cfg.Webhook,
		channel: cfg.Channel,
	}
}

func (s *Slack) Post(ctx context.Context, msg Message) error {
	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(payload{
			Channel:   s.channel,
			Username:  msg.Username,
			Text:      msg.Text,
			IconEmoji: msg.Icon,
		}).
		Post(s.webhook)
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("slack webhook %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
