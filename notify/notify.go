// Package notify posts calibration run updates to Slack.
package notify

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/slack-go/slack"

	"github.com/kwahlman/calrig/logger"
)

// DefaultChannel is where run updates land unless overridden.
const DefaultChannel = "#water-bath-funtimes"

// TokenEnvVar names the environment variable holding the Slack API token.
const TokenEnvVar = "SLACK_API_TOKEN"

const channelMention = "<!channel> "

// ErrNoToken is returned when no Slack token is available.
var ErrNoToken = errors.New("notify: no slack token")

// Poster is the slice of the Slack client the notifier uses. *slack.Client
// satisfies it.
type Poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Notifier posts messages to a single Slack channel.
type Notifier struct {
	client  Poster
	channel string
	logger  logger.Logger
}

// NewNotifier builds a Notifier. Without WithPoster, the Slack client is
// created from the SLACK_API_TOKEN environment variable.
func NewNotifier(opts ...Option) (*Notifier, error) {
	n := &Notifier{
		channel: DefaultChannel,
		logger:  logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(n); err != nil {
			return nil, err
		}
	}

	if n.client == nil {
		token := os.Getenv(TokenEnvVar)
		if token == "" {
			return nil, fmt.Errorf("%w: set %s", ErrNoToken, TokenEnvVar)
		}
		n.client = slack.New(token)
	}

	return n, nil
}

// Option is a functional option for configuring a Notifier.
type Option interface {
	apply(*Notifier) error
}

type optFunc func(*Notifier) error

func (f optFunc) apply(n *Notifier) error { return f(n) }

// WithChannel overrides the destination channel.
func WithChannel(channel string) Option {
	return optFunc(func(n *Notifier) error {
		if channel == "" {
			return errors.New("notify: channel must not be empty")
		}
		n.channel = channel

		return nil
	})
}

// WithPoster injects a Slack client, mainly for tests.
func WithPoster(client Poster) Option {
	return optFunc(func(n *Notifier) error {
		if client == nil {
			return errors.New("notify: poster must not be nil")
		}
		n.client = client

		return nil
	})
}

// WithNotifyLogger sets the logger for the notifier.
func WithNotifyLogger(l logger.Logger) Option {
	return optFunc(func(n *Notifier) error {
		if l == nil {
			return errors.New("notify: logger must not be nil")
		}
		n.logger = l

		return nil
	})
}

// Post sends a plain message to the channel.
func (n *Notifier) Post(ctx context.Context, message string) error {
	return n.post(ctx, message, false)
}

// PostMentionChannel sends a message that pings everyone in the channel.
// Used for events an operator must react to, like an aborted run.
func (n *Notifier) PostMentionChannel(ctx context.Context, message string) error {
	return n.post(ctx, message, true)
}

func (n *Notifier) post(ctx context.Context, message string, mentionChannel bool) error {
	text := message
	if mentionChannel {
		text = channelMention + message
	}

	_, _, err := n.client.PostMessageContext(ctx, n.channel, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("notify: post to %s: %w", n.channel, err)
	}

	n.logger.Debug("posted slack message", "channel", n.channel)

	return nil
}
