package adaprov

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scteam/adaprov/content"
	"github.com/scteam/adaprov/events"
	"github.com/scteam/adaprov/mockapi"
	"github.com/scteam/adaprov/platform"
)

type stubCloner struct {
	calls         int
	alreadyExists bool
	err           error
}

func (s *stubCloner) Clone(_ context.Context, _ string) (bool, error) {
	s.calls++
	return s.alreadyExists, s.err
}

type stubAPI struct {
	boundURL       string
	boundKey       string
	sources        []string
	sourceNames    []string
	uploads        [][]platform.Article
	uploadCalls    int
	uploadFailures int
	channels       int
	channelName    string
	channelDesc    string
	convs          int
	messages       []string
	uploadErr      error
	chanErr        error
	srcErr         error
	record         func(string)
}

func (s *stubAPI) mark(step string) {
	if s.record != nil {
		s.record(step)
	}
}

func (s *stubAPI) CreateKnowledgeSource(_ context.Context, sourceID, name string) error {
	s.sources = append(s.sources, sourceID)
	s.sourceNames = append(s.sourceNames, name)
	return s.srcErr
}

func (s *stubAPI) BulkUploadArticles(_ context.Context, articles []platform.Article) error {
	s.uploadCalls++
	s.mark("upload")
	if s.uploadFailures > 0 {
		s.uploadFailures--
		return errors.New("bulk endpoint 502")
	}
	if s.uploadErr != nil {
		return s.uploadErr
	}
	s.uploads = append(s.uploads, articles)
	return nil
}

func (s *stubAPI) CreateChannel(_ context.Context, name, description string) (string, error) {
	if s.chanErr != nil {
		return "", s.chanErr
	}
	s.channels++
	s.channelName = name
	s.channelDesc = description
	return "chan-1", nil
}

func (s *stubAPI) CreateConversation(_ context.Context, _ string) (platform.Conversation, error) {
	s.convs++
	return platform.Conversation{ID: fmt.Sprintf("conv-%d", s.convs), EndUserID: "eu-1"}, nil
}

func (s *stubAPI) PostMessage(_ context.Context, _, _ string, body string) error {
	s.messages = append(s.messages, body)
	return nil
}

type stubGen struct {
	descCalls  int
	qCalls     int
	qFailures  int
	questions  int
	articleErr error
	qErr       error
	kitErr     error
	kitActions int
	record     func(string)
}

func (s *stubGen) mark(step string) {
	if s.record != nil {
		s.record(step)
	}
}

func (s *stubGen) CompanyDescription(_ context.Context, company string) (string, error) {
	s.descCalls++
	s.mark("describe")
	return company + " sells things.", nil
}

func (s *stubGen) KnowledgeArticles(_ context.Context, _, _ string, count int) ([]platform.Article, error) {
	if s.articleErr != nil {
		return nil, s.articleErr
	}
	articles := make([]platform.Article, count)
	for i := range articles {
		articles[i] = platform.Article{ID: fmt.Sprintf("%d", i+1), Name: fmt.Sprintf("Q%d?", i+1), Content: "answer"}
	}
	return articles, nil
}

func (s *stubGen) CustomerQuestions(_ context.Context, _ string, _ []platform.Article, count int) ([]string, error) {
	s.qCalls++
	if s.qFailures > 0 {
		s.qFailures--
		return nil, errors.New("model timeout")
	}
	if s.qErr != nil {
		return nil, s.qErr
	}
	n := count
	if s.questions > 0 {
		n = s.questions
	}
	questions := make([]string, n)
	for i := range questions {
		questions[i] = fmt.Sprintf("question %d?", i+1)
	}
	return questions, nil
}

func (s *stubGen) EndpointKit(_ context.Context, botHandle, _ string, count int) (content.EndpointKit, error) {
	if s.kitErr != nil {
		return content.EndpointKit{}, s.kitErr
	}
	n := count
	if s.kitActions > 0 {
		n = s.kitActions
	}
	kit := content.EndpointKit{Industry: "e-commerce"}
	for i := 0; i < n; i++ {
		kit.Rules = append(kit.Rules, mockapi.Rule{
			Match: mockapi.Match{Method: "GET", Value: fmt.Sprintf("/%s/endpoint_%d", botHandle, i+1), Operator: "SW"},
			Send:  mockapi.Send{Status: 200},
		})
		kit.Actions = append(kit.Actions, content.Action{Name: fmt.Sprintf("Action %d", i+1), Method: "GET", URL: "https://mock.example.com", JSON: "{}"})
	}
	return kit, nil
}

type stubMock struct {
	rules []mockapi.Rule
	err   error
}

func (s *stubMock) CreateRules(_ context.Context, rules []mockapi.Rule) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.rules = append(s.rules, rules...)
	return len(rules), nil
}

type stubSession struct {
	keyCalls     int
	websiteCalls int
	actionCalls  int
	closeCalls   int
	key          string
	keyErr       error
	websiteErr   error
	actionErr    error
	record       func(string)
}

func (s *stubSession) mark(step string) {
	if s.record != nil {
		s.record(step)
	}
}

func (s *stubSession) RetrieveAPIKey(string) (string, error) {
	s.keyCalls++
	s.mark("key")
	if s.keyErr != nil {
		return "", s.keyErr
	}
	return s.key, nil
}

func (s *stubSession) AddWebsiteSource(_, _, _ string) error {
	s.websiteCalls++
	s.mark("website")
	return s.websiteErr
}

func (s *stubSession) ImportActions(_ string, _ []content.Action) error {
	s.actionCalls++
	s.mark("actions")
	return s.actionErr
}

func (s *stubSession) Close() error {
	s.closeCalls++
	return nil
}

type harness struct {
	cloner  *stubCloner
	api     *stubAPI
	gen     *stubGen
	mock    *stubMock
	session *stubSession
	factory int
	order   []string
}

func newHarness(t *testing.T, extra ...any) (*Provisioner, *harness) {
	t.Helper()
	h := &harness{
		cloner:  &stubCloner{},
		api:     &stubAPI{},
		gen:     &stubGen{},
		mock:    &stubMock{},
		session: &stubSession{key: strings.Repeat("ab", 16)},
	}
	rec := func(step string) { h.order = append(h.order, step) }
	h.api.record, h.gen.record, h.session.record = rec, rec, rec
	factory := func(baseURL, apiKey string) BotAPI {
		h.api.boundURL = baseURL
		h.api.boundKey = apiKey
		return h.api
	}
	browser := func(context.Context) (BrowserSession, error) {
		h.factory++
		return h.session, nil
	}
	p, err := New(h.cloner, factory, h.gen,
		WithMockEndpoints(h.mock),
		WithBrowser(BrowserFactory(browser)),
		WithSettleDelay(0),
		WithConversationPacing(0),
		WithRetryDelay(0),
	)
	require.NoError(t, err)
	return p, h
}

func TestRunHappyPathSuppliedKey(t *testing.T) {
	p, h := newHarness(t)

	res, err := p.Run(context.Background(), ProvisioningRequest{
		Company:       "Acme Corp",
		APIKey:        "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4",
		WebsiteURL:    "https://acme.example.com",
		Articles:      3,
		Questions:     5,
		Conversations: 5,
	})
	require.NoError(t, err)

	assert.Equal(t, "acmecorp-ai-agent-demo", res.Bot.Handle)
	assert.Equal(t, "https://acmecorp-ai-agent-demo.ada.support", res.Bot.URL)
	assert.Equal(t, 1, h.cloner.calls)
	assert.False(t, res.CloneAlreadyExisted)

	// A supplied key never opens the key retrieval flow, but the dashboard
	// tasks still run.
	assert.Equal(t, 0, h.session.keyCalls)
	assert.Equal(t, 1, h.session.websiteCalls)
	assert.Equal(t, 1, h.session.actionCalls)
	assert.Equal(t, 1, h.session.closeCalls)
	assert.True(t, res.WebsiteImported)
	assert.Equal(t, 2, res.ActionsImported)

	assert.Equal(t, "https://acmecorp-ai-agent-demo.ada.support", h.api.boundURL)
	assert.Equal(t, "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4", h.api.boundKey)
	assert.Equal(t, []string{content.KnowledgeSourceID}, h.api.sources)
	assert.Equal(t, 3, res.ArticlesUploaded)
	assert.Equal(t, 5, res.QuestionsGenerated)
	assert.Equal(t, 5, res.ConversationsSeeded)
	assert.Equal(t, "chan-1", res.ChannelID)
	assert.Equal(t, 2, res.MockRulesCreated)
	assert.Equal(t, "e-commerce", res.Industry)
	assert.Empty(t, res.Warnings)
}

func TestRunWithoutWebsiteSkipsImport(t *testing.T) {
	p, h := newHarness(t)

	res, err := p.Run(context.Background(), ProvisioningRequest{
		Company: "Acme Corp",
		APIKey:  "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4",
	})
	require.NoError(t, err)

	// Skipped means never attempted, not attempted with a guessed URL.
	assert.Equal(t, 0, h.session.websiteCalls)
	assert.False(t, res.WebsiteImported)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "website import skipped")

	// Actions still go through the browser.
	assert.Equal(t, 1, h.session.actionCalls)
}

func TestRunDryRunTouchesNothing(t *testing.T) {
	p, h := newHarness(t)

	res, err := p.Run(context.Background(), ProvisioningRequest{
		Company: "Acme Corp",
		DryRun:  true,
	})
	require.NoError(t, err)

	assert.Equal(t, "acmecorp-ai-agent-demo", res.Bot.Handle)
	assert.Equal(t, 0, h.cloner.calls)
	assert.Equal(t, 0, h.factory)
	assert.Equal(t, 0, h.gen.descCalls)
	assert.Empty(t, h.api.sources)
	assert.Zero(t, h.mock.rules)
}

func TestRunAutoRetrievesKey(t *testing.T) {
	p, h := newHarness(t)

	res, err := p.Run(context.Background(), ProvisioningRequest{
		Company:         "Acme Corp",
		AutoRetrieveKey: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, h.session.keyCalls)
	assert.Equal(t, strings.Repeat("ab", 16), res.APIKey)
	assert.Equal(t, res.APIKey, h.api.boundKey)
	// One session serves key retrieval and the dashboard tasks.
	assert.Equal(t, 1, h.factory)
	assert.Equal(t, 1, h.session.closeCalls)
}

func TestRunKeyRetrievalFailureAbortsAfterDashboardTasks(t *testing.T) {
	p, h := newHarness(t)
	h.session.keyErr = errors.New("no key on page")

	res, err := p.Run(context.Background(), ProvisioningRequest{
		Company:         "Acme Corp",
		AutoRetrieveKey: true,
		WebsiteURL:      "https://acme.example.com",
	})
	require.Error(t, err)

	var perr *PhaseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, events.PhaseCredential, perr.Phase)

	// Dashboard tasks still ran before the abort; knowledge never started.
	assert.Equal(t, 1, h.session.websiteCalls)
	assert.Equal(t, 1, h.session.actionCalls)
	assert.Equal(t, 1, h.session.closeCalls)
	assert.Equal(t, 0, h.gen.descCalls)
	assert.NotNil(t, res)
	assert.True(t, res.WebsiteImported)
}

func TestRunCloneAlreadyExistsContinues(t *testing.T) {
	p, h := newHarness(t)
	h.cloner.alreadyExists = true

	res, err := p.Run(context.Background(), ProvisioningRequest{
		Company: "Acme Corp",
		APIKey:  "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4",
	})
	require.NoError(t, err)
	assert.True(t, res.CloneAlreadyExisted)
	assert.Positive(t, res.ConversationsSeeded)
}

func TestRunCloneRejectionIsFatal(t *testing.T) {
	p, h := newHarness(t)
	h.cloner.err = &platform.RejectedError{Op: "clone", Status: 403}

	res, err := p.Run(context.Background(), ProvisioningRequest{
		Company: "Acme Corp",
		APIKey:  "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4",
	})
	require.Error(t, err)

	var perr *PhaseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, events.PhaseClone, perr.Phase)
	assert.NotNil(t, res)
	assert.Equal(t, 0, h.gen.descCalls)
}

func TestRunQuestionShortfallIsWarningNotError(t *testing.T) {
	p, h := newHarness(t)
	h.gen.questions = 68

	res, err := p.Run(context.Background(), ProvisioningRequest{
		Company:   "Acme Corp",
		APIKey:    "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4",
		Questions: 70,
	})
	require.NoError(t, err)

	assert.Equal(t, 68, res.QuestionsGenerated)
	assert.Equal(t, 68, res.ConversationsSeeded)
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "68 of 70") {
			found = true
		}
	}
	assert.True(t, found, "expected a shortfall warning, got %v", res.Warnings)
}

func TestRunWebsiteFailureDoesNotCostActions(t *testing.T) {
	p, h := newHarness(t)
	h.session.websiteErr = errors.New("dialog never opened")

	res, err := p.Run(context.Background(), ProvisioningRequest{
		Company:    "Acme Corp",
		APIKey:     "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4",
		WebsiteURL: "https://acme.example.com",
	})
	require.NoError(t, err)

	assert.False(t, res.WebsiteImported)
	assert.Equal(t, 1, h.session.actionCalls)
	assert.Equal(t, 2, res.ActionsImported)
	assert.Equal(t, 1, h.session.closeCalls)
}

func TestRunUploadFailureDegrades(t *testing.T) {
	p, h := newHarness(t)
	h.api.uploadErr = errors.New("bulk endpoint 502")

	res, err := p.Run(context.Background(), ProvisioningRequest{
		Company: "Acme Corp",
		APIKey:  "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4",
	})
	require.NoError(t, err)

	assert.Equal(t, 0, res.ArticlesUploaded)
	// Questions and conversations still proceed.
	assert.Positive(t, res.QuestionsGenerated)
	assert.Positive(t, res.ConversationsSeeded)
}

func TestRunUsesFixedPlatformNames(t *testing.T) {
	p, h := newHarness(t)

	_, err := p.Run(context.Background(), ProvisioningRequest{
		Company: "Acme Corp",
		APIKey:  "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4",
	})
	require.NoError(t, err)

	// The template bot's flows reference these names; they never vary with
	// the company.
	assert.Equal(t, []string{"Demo Knowledge Source"}, h.api.sourceNames)
	assert.Equal(t, "Demo_Channel", h.api.channelName)
	assert.Equal(t, "Automated demo channel", h.api.channelDesc)
}

func TestRunPhaseOrderPerKeyPath(t *testing.T) {
	t.Run("supplied key builds knowledge before the browser opens", func(t *testing.T) {
		p, h := newHarness(t)

		_, err := p.Run(context.Background(), ProvisioningRequest{
			Company:    "Acme Corp",
			APIKey:     "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4",
			WebsiteURL: "https://acme.example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"describe", "upload", "website", "actions"}, h.order)
	})

	t.Run("auto retrieval rides the session before knowledge", func(t *testing.T) {
		p, h := newHarness(t)

		_, err := p.Run(context.Background(), ProvisioningRequest{
			Company:         "Acme Corp",
			AutoRetrieveKey: true,
			WebsiteURL:      "https://acme.example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"key", "website", "actions", "describe", "upload"}, h.order)
	})
}

func TestRunTransientUploadFailureRecovers(t *testing.T) {
	p, h := newHarness(t)
	h.api.uploadFailures = 1

	res, err := p.Run(context.Background(), ProvisioningRequest{
		Company:    "Acme Corp",
		APIKey:     "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4",
		WebsiteURL: "https://acme.example.com",
		Articles:   3,
	})
	require.NoError(t, err)

	// One failed attempt is absorbed by the retry, not recorded as a
	// partial result.
	assert.Equal(t, 2, h.api.uploadCalls)
	assert.Equal(t, 3, res.ArticlesUploaded)
	assert.Empty(t, res.Warnings)
}

func TestRunTransientQuestionFailureRecovers(t *testing.T) {
	p, h := newHarness(t)
	h.gen.qFailures = 1

	res, err := p.Run(context.Background(), ProvisioningRequest{
		Company:    "Acme Corp",
		APIKey:     "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4",
		WebsiteURL: "https://acme.example.com",
		Questions:  5,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, h.gen.qCalls)
	assert.Equal(t, 5, res.QuestionsGenerated)
	assert.Equal(t, 5, res.ConversationsSeeded)
	assert.Empty(t, res.Warnings)
}

func TestRunValidation(t *testing.T) {
	p, _ := newHarness(t)

	_, err := p.Run(context.Background(), ProvisioningRequest{})
	assert.Error(t, err)

	_, err = p.Run(context.Background(), ProvisioningRequest{Company: "Acme"})
	assert.Error(t, err)

	_, err = p.Run(context.Background(), ProvisioningRequest{
		Company: "Acme", APIKey: "k", AutoRetrieveKey: true,
	})
	assert.Error(t, err)

	_, err = p.Run(context.Background(), ProvisioningRequest{Company: "!!!", APIKey: "k"})
	var perr *PhaseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, events.PhaseIdentity, perr.Phase)
}

func TestMaskedKey(t *testing.T) {
	res := ProvisioningResult{APIKey: "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6"}
	assert.Equal(t, "a1b2c3d4e5f6...c5d6", res.MaskedKey())

	short := ProvisioningResult{APIKey: "abcd"}
	assert.Equal(t, "abcd", short.MaskedKey())
}
