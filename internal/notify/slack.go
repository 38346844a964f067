package notify

import (
	"context"
	"fmt"

	slackapi "github.com/slack-go/slack"
)

// slackPoster abstracts the Slack Web API call we use, enabling test mocks.
type slackPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Slack posts events to a Slack channel via the Web API.
type Slack struct {
	client  slackPoster
	channel string
}

// NewSlack builds a Slack notifier from a bot token and channel ID.
func NewSlack(token, channel string) *Slack {
	return &Slack{client: slackapi.New(token), channel: channel}
}

func (s *Slack) Post(ctx context.Context, ev Event) error {
	attachment := slackapi.Attachment{
		Title: ev.Title,
		Text:  ev.Body,
		Color: severityColor(ev.Severity),
	}
	_, _, err := s.client.PostMessageContext(ctx, s.channel, slackapi.MsgOptionAttachments(attachment))
	if err != nil {
		return fmt.Errorf("notify: slack post: %w", err)
	}
	return nil
}
