package adaprov

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/scteam/adaprov/content"
	"github.com/scteam/adaprov/events"
	"github.com/scteam/adaprov/handle"
	"github.com/scteam/adaprov/platform"
)

// progressEvery throttles conversation progress events to one per N
// conversations.
const progressEvery = 10

// Fixed platform payload values. The template bot's flows reference these
// names, so they are not derived from the company.
const (
	knowledgeSourceName = "Demo Knowledge Source"
	channelName         = "Demo_Channel"
	channelDescription  = "Automated demo channel"
)

// Run executes the full pipeline for one request. The returned result is
// non-nil whenever the identity phase succeeded, so callers see partial
// progress even when a later phase aborted the run.
func (p *Provisioner) Run(ctx context.Context, req ProvisioningRequest) (*ProvisioningResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req = req.withDefaults()

	runID := uuid.Must(uuid.NewV7())
	started := time.Now()
	em := emitter{hook: p.hook, runID: runID}
	res := &ProvisioningResult{}

	warn := func(ctx context.Context, phase events.Phase, format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		res.Warnings = append(res.Warnings, msg)
		em.warning(ctx, phase, msg)
		p.log.Warn(msg, "run_id", runID, "phase", phase.String())
	}
	fail := func(ctx context.Context, phase events.Phase, err error) (*ProvisioningResult, error) {
		em.failure(ctx, phase, err)
		p.notifier.RunFailed(ctx, req.Company, runID, err)
		res.Duration = time.Since(started)
		return res, phaseErr(phase, err)
	}

	// Identity.
	em.started(ctx, events.PhaseIdentity, req.Company)
	botHandle, err := handle.ForCompany(req.Company)
	if err != nil {
		em.failure(ctx, events.PhaseIdentity, err)
		return nil, phaseErr(events.PhaseIdentity, err)
	}
	res.Bot = BotIdentity{Handle: botHandle, URL: handle.URL(botHandle)}
	em.completed(ctx, events.PhaseIdentity, res.Bot.URL)

	if req.DryRun {
		p.log.Info("dry run complete", "handle", botHandle)
		res.Duration = time.Since(started)
		return res, nil
	}

	p.notifier.RunStarted(ctx, req.Company, runID)
	p.log.Info("provisioning started",
		"run_id", runID, "company", req.Company, "handle", botHandle,
		"articles", req.Articles, "questions", req.Questions, "conversations", req.Conversations)

	// Clone.
	em.started(ctx, events.PhaseClone, botHandle)
	alreadyExists, err := p.cloner.Clone(ctx, botHandle)
	if err != nil {
		return fail(ctx, events.PhaseClone, err)
	}
	res.CloneAlreadyExisted = alreadyExists
	if alreadyExists {
		em.completed(ctx, events.PhaseClone, "instance already existed")
	} else {
		if p.settleDelay > 0 {
			em.progress(ctx, events.PhaseClone, "waiting for instance to settle", 0, 0)
			if err := sleep(ctx, p.settleDelay); err != nil {
				return fail(ctx, events.PhaseClone, err)
			}
		}
		em.completed(ctx, events.PhaseClone, "instance created")
	}

	// One browser session serves the credential phase and the dashboard
	// tasks; it is launched on first demand and closed exactly once.
	var session BrowserSession
	ensureSession := func() (BrowserSession, error) {
		if session != nil {
			return session, nil
		}
		if p.browser == nil {
			return nil, errors.New("no browser configured")
		}
		s, err := p.browser(ctx)
		if err != nil {
			return nil, err
		}
		session = s
		return session, nil
	}
	closeSession := func() {
		if session != nil {
			if err := session.Close(); err != nil {
				p.log.Warn("browser close failed", "error", err)
			}
			session = nil
		}
	}
	defer closeSession()

	// Credential. With a supplied key this is a checkpoint; otherwise the
	// key is pulled through the dashboard. A retrieval failure is fatal,
	// but only after the remaining dashboard tasks had their chance: the
	// session is already paid for and a partially configured demo beats an
	// unconfigured one.
	em.started(ctx, events.PhaseCredential, "")
	apiKey := req.APIKey
	var credErr error
	if req.AutoRetrieveKey {
		s, err := ensureSession()
		if err != nil {
			credErr = fmt.Errorf("launch browser: %w", err)
		} else if key, err := s.RetrieveAPIKey(botHandle); err != nil {
			credErr = err
		} else {
			apiKey = key
		}
	}
	if credErr != nil {
		em.warning(ctx, events.PhaseCredential,
			fmt.Sprintf("key retrieval failed, finishing dashboard tasks before aborting: %v", credErr))
	} else {
		res.APIKey = apiKey
		em.completed(ctx, events.PhaseCredential, res.MaskedKey())
	}

	// Mock endpoints.
	em.started(ctx, events.PhaseMockEndpoints, "")
	var kit content.EndpointKit
	if err := p.retry(ctx, "generate endpoint kit", func() error {
		generated, err := p.content.EndpointKit(ctx, botHandle, req.Company, req.Actions)
		if err == nil {
			kit = generated
		}
		return err
	}); err != nil {
		warn(ctx, events.PhaseMockEndpoints, "endpoint generation failed, continuing without actions: %v", err)
	} else {
		res.Industry = kit.Industry
		if p.mock == nil {
			warn(ctx, events.PhaseMockEndpoints, "no mock endpoint client configured, %d rules skipped", len(kit.Rules))
		} else {
			created, err := p.mock.CreateRules(ctx, kit.Rules)
			res.MockRulesCreated = created
			if err != nil {
				warn(ctx, events.PhaseMockEndpoints, "created %d of %d mock rules: %v", created, len(kit.Rules), err)
			}
		}
	}
	em.completed(ctx, events.PhaseMockEndpoints, fmt.Sprintf("%d rules, %d actions", res.MockRulesCreated, len(kit.Actions)))

	var api BotAPI
	var questions []string

	// Browser tasks. Both are best effort; a website failure must not cost
	// the action import.
	browserTasks := func(ctx context.Context) {
		em.started(ctx, events.PhaseBrowser, "")
		if req.WebsiteURL == "" {
			warn(ctx, events.PhaseBrowser, "no website url provided, website import skipped")
		}
		if req.WebsiteURL != "" || len(kit.Actions) > 0 {
			s, err := ensureSession()
			if err != nil {
				warn(ctx, events.PhaseBrowser, "browser unavailable, dashboard tasks skipped: %v", err)
			} else {
				if req.WebsiteURL != "" {
					if err := s.AddWebsiteSource(botHandle, req.Company, req.WebsiteURL); err != nil {
						warn(ctx, events.PhaseBrowser, "website import failed: %v", err)
					} else {
						res.WebsiteImported = true
					}
				}
				if len(kit.Actions) > 0 {
					if err := s.ImportActions(botHandle, kit.Actions); err != nil {
						warn(ctx, events.PhaseBrowser, "action import failed: %v", err)
					} else {
						res.ActionsImported = len(kit.Actions)
					}
				}
			}
		}
		em.completed(ctx, events.PhaseBrowser, "")
		closeSession()
	}

	// Knowledge. The description is required; everything after it degrades
	// to a partial result.
	knowledge := func(ctx context.Context) error {
		em.started(ctx, events.PhaseKnowledge, "")
		description := req.Description
		if description == "" {
			if err := p.retry(ctx, "generate company description", func() error {
				generated, err := p.content.CompanyDescription(ctx, req.Company)
				if err == nil {
					description = generated
				}
				return err
			}); err != nil {
				return err
			}
		}
		api = p.api(res.Bot.URL, apiKey)

		var articles []platform.Article
		if err := p.retry(ctx, "generate knowledge articles", func() error {
			generated, err := p.content.KnowledgeArticles(ctx, req.Company, description, req.Articles)
			if err == nil {
				articles = generated
			}
			return err
		}); err != nil {
			warn(ctx, events.PhaseKnowledge, "article generation failed, continuing without articles: %v", err)
		} else {
			if err := api.CreateKnowledgeSource(ctx, content.KnowledgeSourceID, knowledgeSourceName); err != nil && !errors.Is(err, platform.ErrAlreadyExists) {
				warn(ctx, events.PhaseKnowledge, "knowledge source creation failed: %v", err)
			}
			if err := p.retry(ctx, "upload articles", func() error {
				return api.BulkUploadArticles(ctx, articles)
			}); err != nil {
				warn(ctx, events.PhaseKnowledge, "article upload failed: %v", err)
			} else {
				res.ArticlesUploaded = len(articles)
			}
		}

		if err := p.retry(ctx, "generate customer questions", func() error {
			generated, err := p.content.CustomerQuestions(ctx, req.Company, articles, req.Questions)
			if err == nil {
				questions = generated
			}
			return err
		}); err != nil {
			warn(ctx, events.PhaseKnowledge, "question generation failed, conversation seeding skipped: %v", err)
		}
		res.QuestionsGenerated = len(questions)
		if len(questions) > 0 && len(questions) < req.Questions {
			warn(ctx, events.PhaseKnowledge, "generated %d of %d requested questions", len(questions), req.Questions)
		}
		em.completed(ctx, events.PhaseKnowledge, fmt.Sprintf("%d articles, %d questions", res.ArticlesUploaded, res.QuestionsGenerated))
		return nil
	}

	// With a supplied key the knowledge base is built before the browser
	// opens; in the auto path the dashboard tasks ride the retrieval
	// session first, and a retrieval failure aborts before the knowledge
	// phase since nothing past it can run without a key.
	if req.AutoRetrieveKey {
		browserTasks(ctx)
		if credErr != nil {
			return fail(ctx, events.PhaseCredential, credErr)
		}
		if err := knowledge(ctx); err != nil {
			return fail(ctx, events.PhaseKnowledge, err)
		}
	} else {
		if err := knowledge(ctx); err != nil {
			return fail(ctx, events.PhaseKnowledge, err)
		}
		browserTasks(ctx)
	}

	// Conversations.
	em.started(ctx, events.PhaseConversations, "")
	if len(questions) == 0 {
		warn(ctx, events.PhaseConversations, "no questions available, conversation seeding skipped")
	} else {
		var channelID string
		if err := p.retry(ctx, "create channel", func() error {
			created, err := api.CreateChannel(ctx, channelName, channelDescription)
			if err == nil {
				channelID = created
			}
			return err
		}); err != nil {
			warn(ctx, events.PhaseConversations, "channel creation failed, conversation seeding skipped: %v", err)
		} else {
			res.ChannelID = channelID
			total := min(req.Conversations, len(questions))
			for i := 0; i < total; i++ {
				if err := p.retry(ctx, "seed conversation", func() error {
					return p.seedConversation(ctx, api, channelID, questions[i])
				}); err != nil {
					warn(ctx, events.PhaseConversations, "conversation %d of %d failed: %v", i+1, total, err)
					if ctx.Err() != nil {
						break
					}
					continue
				}
				res.ConversationsSeeded++
				if res.ConversationsSeeded%progressEvery == 0 {
					em.progress(ctx, events.PhaseConversations, "conversations seeded", res.ConversationsSeeded, total)
				}
				if i < total-1 && p.pacing > 0 {
					if err := sleep(ctx, p.pacing); err != nil {
						break
					}
				}
			}
		}
	}
	em.completed(ctx, events.PhaseConversations, fmt.Sprintf("%d seeded", res.ConversationsSeeded))

	res.Duration = time.Since(started)
	p.notifier.RunCompleted(ctx, req.Company, runID, res.Bot.URL)
	p.log.Info("provisioning complete",
		"run_id", runID, "handle", botHandle, "duration", res.Duration,
		"articles", res.ArticlesUploaded, "questions", res.QuestionsGenerated,
		"conversations", res.ConversationsSeeded, "warnings", len(res.Warnings))
	return res, nil
}

func (p *Provisioner) seedConversation(ctx context.Context, api BotAPI, channelID, question string) error {
	conv, err := api.CreateConversation(ctx, channelID)
	if err != nil {
		return err
	}
	return api.PostMessage(ctx, conv.ID, conv.EndUserID, question)
}

// retry re-runs fn with exponential backoff until it succeeds or the
// attempt budget is spent. Callers keep their partial-result fallback for
// the error that survives exhaustion.
func (p *Provisioner) retry(ctx context.Context, op string, fn func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.retryDelay
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, p.retries), ctx)
	return backoff.Retry(func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		p.log.Warn("attempt failed, will retry", "op", op, "error", err)
		return err
	}, policy)
}

// emitter stamps and fans out events for one run.
type emitter struct {
	hook  events.Hook
	runID uuid.UUID
}

func (e emitter) started(ctx context.Context, phase events.Phase, msg string) {
	e.hook.OnPhaseStarted(ctx, events.NewPhaseStarted(e.runID, phase, msg))
}

func (e emitter) completed(ctx context.Context, phase events.Phase, msg string) {
	e.hook.OnPhaseCompleted(ctx, events.NewPhaseCompleted(e.runID, phase, msg))
}

func (e emitter) progress(ctx context.Context, phase events.Phase, msg string, current, total int) {
	e.hook.OnProgress(ctx, events.NewProgress(e.runID, phase, msg, current, total))
}

func (e emitter) warning(ctx context.Context, phase events.Phase, msg string) {
	e.hook.OnWarning(ctx, events.NewWarning(e.runID, phase, msg))
}

func (e emitter) failure(ctx context.Context, phase events.Phase, err error) {
	e.hook.OnError(ctx, events.NewFailure(e.runID, phase, err))
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
