package adaprov

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fogfish/opts"

	"github.com/scteam/adaprov/content"
	"github.com/scteam/adaprov/events"
	"github.com/scteam/adaprov/mockapi"
	"github.com/scteam/adaprov/notify"
	"github.com/scteam/adaprov/platform"
)

// Cloner creates a bot instance from the demo template.
type Cloner interface {
	Clone(ctx context.Context, botHandle string) (alreadyExists bool, err error)
}

// BotAPI is the authenticated management surface of one bot.
type BotAPI interface {
	CreateKnowledgeSource(ctx context.Context, sourceID, name string) error
	BulkUploadArticles(ctx context.Context, articles []platform.Article) error
	CreateChannel(ctx context.Context, name, description string) (string, error)
	CreateConversation(ctx context.Context, channelID string) (platform.Conversation, error)
	PostMessage(ctx context.Context, conversationID, endUserID, body string) error
}

// BotAPIFactory binds a dashboard URL and API key into a BotAPI. The key
// is not known until the credential phase, so the binding is deferred.
type BotAPIFactory func(baseURL, apiKey string) BotAPI

// ContentGenerator produces all model-generated content for a run.
type ContentGenerator interface {
	CompanyDescription(ctx context.Context, company string) (string, error)
	KnowledgeArticles(ctx context.Context, company, description string, count int) ([]platform.Article, error)
	CustomerQuestions(ctx context.Context, company string, articles []platform.Article, count int) ([]string, error)
	EndpointKit(ctx context.Context, botHandle, company string, count int) (content.EndpointKit, error)
}

// MockEndpoints provisions mock API rules.
type MockEndpoints interface {
	CreateRules(ctx context.Context, rules []mockapi.Rule) (int, error)
}

// BrowserSession drives the dashboard tasks that have no API. One session
// serves a whole run; Close must be called exactly when the run is done
// with it.
type BrowserSession interface {
	RetrieveAPIKey(handle string) (string, error)
	AddWebsiteSource(handle, company, websiteURL string) error
	ImportActions(handle string, actions []content.Action) error
	Close() error
}

// BrowserFactory launches a session on first demand, so runs that never
// need a browser never pay for one.
type BrowserFactory func(ctx context.Context) (BrowserSession, error)

// Provisioner runs the provisioning pipeline. Build one with New and reuse
// it across runs; each Run is independent.
type Provisioner struct {
	cloner   Cloner
	api      BotAPIFactory
	content  ContentGenerator
	mock     MockEndpoints
	browser  BrowserFactory
	notifier notify.Notifier
	hook     events.Hook

	settleDelay time.Duration
	pacing      time.Duration
	retries     uint64
	retryDelay  time.Duration
	log         *slog.Logger
}

// DefaultSettleDelay is how long a run waits after a fresh clone before
// using the new instance. Clones report success before the instance is
// actually ready to serve.
const DefaultSettleDelay = 30 * time.Second

// DefaultConversationPacing spaces conversation seeding so the message API
// is not hammered.
const DefaultConversationPacing = 500 * time.Millisecond

// DefaultPhaseRetries is how many times a failed generation or upload call
// is re-attempted before the run records a partial result.
const DefaultPhaseRetries = 2

// DefaultRetryDelay is the initial backoff interval between those
// re-attempts.
const DefaultRetryDelay = 5 * time.Second

var (
	// WithHook registers a progress event sink.
	WithHook = opts.ForName[Provisioner, events.Hook]("hook")

	// WithNotifier registers a lifecycle notifier.
	WithNotifier = opts.ForName[Provisioner, notify.Notifier]("notifier")

	// WithMockEndpoints registers the mock endpoint provisioner.
	WithMockEndpoints = opts.ForName[Provisioner, MockEndpoints]("mock")

	// WithBrowser registers the browser session factory.
	WithBrowser = opts.ForName[Provisioner, BrowserFactory]("browser")

	// WithSettleDelay overrides the post-clone settle delay.
	WithSettleDelay = opts.ForName[Provisioner, time.Duration]("settleDelay")

	// WithConversationPacing overrides the delay between seeded
	// conversations.
	WithConversationPacing = opts.ForName[Provisioner, time.Duration]("pacing")

	// WithPhaseRetries overrides how often failed generation and upload
	// calls are re-attempted.
	WithPhaseRetries = opts.ForName[Provisioner, uint64]("retries")

	// WithRetryDelay overrides the initial backoff interval between
	// re-attempts.
	WithRetryDelay = opts.ForName[Provisioner, time.Duration]("retryDelay")

	// WithLogger overrides the logger.
	WithLogger = opts.ForName[Provisioner, *slog.Logger]("log")
)

// New builds a Provisioner from its required collaborators plus options.
func New(cloner Cloner, api BotAPIFactory, gen ContentGenerator, options ...opts.Option[Provisioner]) (*Provisioner, error) {
	if cloner == nil || api == nil || gen == nil {
		return nil, errors.New("adaprov: cloner, api factory and content generator are required")
	}
	p := &Provisioner{
		cloner:      cloner,
		api:         api,
		content:     gen,
		notifier:    notify.Noop{},
		hook:        events.NoopHook{},
		settleDelay: DefaultSettleDelay,
		pacing:      DefaultConversationPacing,
		retries:     DefaultPhaseRetries,
		retryDelay:  DefaultRetryDelay,
		log:         slog.Default().With("component", "provisioner"),
	}
	if err := opts.Apply(p, options); err != nil {
		return nil, err
	}
	return p, nil
}
