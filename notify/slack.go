// Package notify posts provisioning lifecycle messages to Slack. Delivery
// is best effort: a lost notification never fails a run, so every method
// logs instead of returning an error.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/slack-go/slack"
)

// Notifier receives run lifecycle notifications.
type Notifier interface {
	RunStarted(ctx context.Context, company string, runID uuid.UUID)
	RunCompleted(ctx context.Context, company string, runID uuid.UUID, dashboardURL string)
	RunFailed(ctx context.Context, company string, runID uuid.UUID, err error)
}

// Noop discards all notifications.
type Noop struct{}

func (Noop) RunStarted(context.Context, string, uuid.UUID)           {}
func (Noop) RunCompleted(context.Context, string, uuid.UUID, string) {}
func (Noop) RunFailed(context.Context, string, uuid.UUID, error)     {}

// Slack posts through an incoming webhook.
type Slack struct {
	webhookURL string
	channel    string
	log        *slog.Logger

	// post is swapped out in tests.
	post func(ctx context.Context, url string, msg *slack.WebhookMessage) error
}

// NewSlack builds a notifier for the given incoming-webhook URL. The
// channel may be empty when the webhook is already bound to one.
func NewSlack(webhookURL, channel string) *Slack {
	return &Slack{
		webhookURL: webhookURL,
		channel:    channel,
		log:        slog.Default().With("component", "notify"),
		post:       slack.PostWebhookContext,
	}
}

func (s *Slack) send(ctx context.Context, text string, blocks []slack.Block) {
	msg := &slack.WebhookMessage{
		Channel: s.channel,
		Text:    text,
		Blocks:  &slack.Blocks{BlockSet: blocks},
	}
	if err := s.post(ctx, s.webhookURL, msg); err != nil {
		s.log.Warn("slack notification failed", "error", err)
		return
	}
	s.log.Debug("slack notification sent", "text", text)
}

func header(text string) *slack.HeaderBlock {
	return slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, text, false, false))
}

func field(label, value string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*%s:*\n%s", label, value), false, false)
}

func (s *Slack) RunStarted(ctx context.Context, company string, runID uuid.UUID) {
	s.send(ctx,
		fmt.Sprintf("🚀 Agent provisioning started for %s", company),
		[]slack.Block{
			header("🚀 Agent Provisioning Started"),
			slack.NewSectionBlock(nil, []*slack.TextBlockObject{
				field("Account", company),
				field("Run ID", runID.String()),
			}, nil),
		})
}

func (s *Slack) RunCompleted(ctx context.Context, company string, runID uuid.UUID, dashboardURL string) {
	s.send(ctx,
		fmt.Sprintf("✅ Agent provisioning completed for %s", company),
		[]slack.Block{
			header("✅ Agent Provisioning Complete"),
			slack.NewSectionBlock(nil, []*slack.TextBlockObject{
				field("Account", company),
				field("Run ID", runID.String()),
			}, nil),
			slack.NewSectionBlock(
				slack.NewTextBlockObject(slack.MarkdownType,
					fmt.Sprintf("<%s|View agent dashboard>", dashboardURL), false, false),
				nil, nil),
		})
}

func (s *Slack) RunFailed(ctx context.Context, company string, runID uuid.UUID, err error) {
	s.send(ctx,
		fmt.Sprintf("❌ Agent provisioning failed for %s", company),
		[]slack.Block{
			header("❌ Agent Provisioning Failed"),
			slack.NewSectionBlock(nil, []*slack.TextBlockObject{
				field("Account", company),
				field("Run ID", runID.String()),
			}, nil),
			slack.NewSectionBlock(
				slack.NewTextBlockObject(slack.MarkdownType,
					fmt.Sprintf("*Error:*\n```%v```", err), false, false),
				nil, nil),
		})
}
