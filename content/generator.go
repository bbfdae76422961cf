package content

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/scteam/adaprov/platform"
	"github.com/scteam/adaprov/provider"
)

// DefaultProxyBase is the public base URL actions call to reach the mock
// endpoints.
const DefaultProxyBase = "https://ada-demo.proxy.beeceptor.com"

// Generator produces each content kind through a Completer. Temperatures
// and token budgets are fixed per kind: factual content runs cooler than
// question generation.
type Generator struct {
	completer provider.Completer
	proxyBase string
	log       *slog.Logger
}

func NewGenerator(completer provider.Completer) *Generator {
	return &Generator{
		completer: completer,
		proxyBase: DefaultProxyBase,
		log:       slog.Default().With("component", "content"),
	}
}

// WithProxyBase overrides the mock-endpoint base URL embedded in generated
// actions.
func (g *Generator) WithProxyBase(base string) *Generator {
	g.proxyBase = strings.TrimRight(base, "/")
	return g
}

// CompanyDescription returns a prose description of the company. The result
// is trimmed but otherwise used verbatim.
func (g *Generator) CompanyDescription(ctx context.Context, company string) (string, error) {
	out, err := g.completer.Complete(ctx, provider.CompletionRequest{
		Prompt:      renderDescriptionPrompt(company),
		Temperature: 0.7,
		MaxTokens:   4000,
	})
	if err != nil {
		return "", fmt.Errorf("generate company description: %w", err)
	}
	desc := strings.TrimSpace(out)
	if desc == "" {
		return "", &ParseError{Kind: "company description", Raw: out}
	}
	g.log.Info("company description generated", "company", company, "chars", len(desc))
	return desc, nil
}

// KnowledgeArticles generates up to count FAQ articles grounded in the
// company description. Fewer usable articles than requested is not an
// error; zero is.
func (g *Generator) KnowledgeArticles(ctx context.Context, company, description string, count int) ([]platform.Article, error) {
	out, err := g.completer.Complete(ctx, provider.CompletionRequest{
		Prompt:      renderArticlesPrompt(company, description, count),
		Temperature: 0.5,
		MaxTokens:   8000,
	})
	if err != nil {
		return nil, fmt.Errorf("generate knowledge articles: %w", err)
	}
	articles, err := ParseArticles(out)
	if err != nil {
		return nil, err
	}
	if len(articles) > count {
		articles = articles[:count]
	}
	g.log.Info("knowledge articles generated", "company", company, "requested", count, "parsed", len(articles))
	return articles, nil
}

// CustomerQuestions generates up to count questions seeded from the
// articles, deduplicated and renumbered. A shortfall after dedup is
// reported as-is.
func (g *Generator) CustomerQuestions(ctx context.Context, company string, articles []platform.Article, count int) ([]string, error) {
	out, err := g.completer.Complete(ctx, provider.CompletionRequest{
		Prompt:      renderQuestionsPrompt(company, articles, count),
		Temperature: 0.7,
		MaxTokens:   4000,
	})
	if err != nil {
		return nil, fmt.Errorf("generate customer questions: %w", err)
	}
	questions, err := ParseQuestions(out)
	if err != nil {
		return nil, err
	}
	if len(questions) > count {
		questions = questions[:count]
	}
	g.log.Info("customer questions generated", "company", company, "requested", count, "unique", len(questions))
	return questions, nil
}

// EndpointKit generates count mock-endpoint rules and their matching
// dashboard actions for the company's detected industry.
func (g *Generator) EndpointKit(ctx context.Context, botHandle, company string, count int) (EndpointKit, error) {
	if count < 1 {
		count = 1
	}
	out, err := g.completer.Complete(ctx, provider.CompletionRequest{
		Prompt:      renderEndpointsPrompt(botHandle, company, g.proxyBase, count),
		Temperature: 0.7,
		MaxTokens:   int64(500*count + 1000),
	})
	if err != nil {
		return EndpointKit{}, fmt.Errorf("generate endpoint definitions: %w", err)
	}
	kit, err := ParseEndpointKit(out)
	if err != nil {
		return EndpointKit{}, err
	}
	g.log.Info("endpoint kit generated",
		"company", company, "industry", kit.Industry,
		"rules", len(kit.Rules), "actions", len(kit.Actions))
	return kit, nil
}
