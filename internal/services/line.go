package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Channel identifies a tenant's messaging channel.
type Channel struct {
	AccessToken string
	LiffID      string
}

// OutboundMessage is one broadcast: a text body plus a single deep-link button.
type OutboundMessage struct {
	Text        string
	AltText     string
	Prompt      string
	ActionLabel string
	ActionURI   string
}

// MessageSender delivers a message to every follower of a tenant's channel.
type MessageSender interface {
	Broadcast(ctx context.Context, channel Channel, msg OutboundMessage) error
}

type lineMessage struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	AltText  string        `json:"altText,omitempty"`
	Template *lineTemplate `json:"template,omitempty"`
}

type lineTemplate struct {
	Type    string       `json:"type"`
	Text    string       `json:"text"`
	Actions []lineAction `json:"actions"`
}

type lineAction struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	URI   string `json:"uri"`
}

type lineBroadcastRequest struct {
	Messages []lineMessage `json:"messages"`
}

type lineErrorResponse struct {
	Message string `json:"message"`
}

// LineSender calls the LINE Messaging API broadcast endpoint.
type LineSender struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

func NewLineSender(baseURL string, timeout time.Duration, logger *zap.Logger) *LineSender {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &LineSender{httpClient: client, logger: logger}
}

func (s *LineSender) Broadcast(ctx context.Context, channel Channel, msg OutboundMessage) error {
	if channel.AccessToken == "" {
		return fmt.Errorf("channel access token is not configured")
	}
	body := lineBroadcastRequest{Messages: []lineMessage{{Type: "text", Text: msg.Text}}}
	if msg.ActionURI != "" {
		body.Messages = append(body.Messages, lineMessage{
			Type:    "template",
			AltText: msg.AltText,
			Template: &lineTemplate{
				Type:    "buttons",
				Text:    msg.Prompt,
				Actions: []lineAction{{Type: "uri", Label: msg.ActionLabel, URI: msg.ActionURI}},
			},
		})
	}

	var failure lineErrorResponse
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetAuthToken(channel.AccessToken).
		SetBody(body).
		SetError(&failure).
		Post("/v2/bot/message/broadcast")
	if err != nil {
		return fmt.Errorf("failed to call LINE broadcast: %w", err)
	}
	if resp.IsError() {
		s.logger.Warn("LINE broadcast rejected",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("line_message", failure.Message),
		)
		return fmt.Errorf("LINE broadcast error: %s (status: %d)", failure.Message, resp.StatusCode())
	}
	return nil
}

// ElderDeepLink opens the elder's page inside the tenant's LIFF app.
func ElderDeepLink(liffBaseURL, liffID, elderID string) string {
	if liffID == "" {
		return ""
	}
	state := url.QueryEscape("/elder/" + elderID)
	return fmt.Sprintf("%s/%s?liff.state=%s", strings.TrimRight(liffBaseURL, "/"), liffID, state)
}
