package content

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scteam/adaprov/provider"
)

// scriptedCompleter returns canned completions keyed by a prompt substring.
type scriptedCompleter struct {
	responses map[string]string
	prompts   []string
}

func (s *scriptedCompleter) Complete(_ context.Context, req provider.CompletionRequest) (string, error) {
	s.prompts = append(s.prompts, req.Prompt)
	for marker, out := range s.responses {
		if strings.Contains(req.Prompt, marker) {
			return out, nil
		}
	}
	return "", fmt.Errorf("no scripted response for prompt")
}

func TestGeneratorCompanyDescription(t *testing.T) {
	completer := &scriptedCompleter{responses: map[string]string{
		"company description for Acme": "  Acme Corp builds anvils.  ",
	}}
	gen := NewGenerator(completer)

	desc, err := gen.CompanyDescription(context.Background(), "Acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp builds anvils.", desc)
}

func TestGeneratorKnowledgeArticlesTruncatesToCount(t *testing.T) {
	completer := &scriptedCompleter{responses: map[string]string{
		"FAQ articles": `[
			{"name":"One?","content":"a"},
			{"name":"Two?","content":"b"},
			{"name":"Three?","content":"c"}
		]`,
	}}
	gen := NewGenerator(completer)

	articles, err := gen.KnowledgeArticles(context.Background(), "Acme", "desc", 2)
	require.NoError(t, err)
	assert.Len(t, articles, 2)
}

func TestGeneratorCustomerQuestionsShortfall(t *testing.T) {
	// Three questions requested, but one is an exact duplicate: the reduced
	// count is returned without an error.
	completer := &scriptedCompleter{responses: map[string]string{
		"customer questions": `{"question_1":"A?","question_2":"A?","question_3":"B?"}`,
	}}
	gen := NewGenerator(completer)

	questions, err := gen.CustomerQuestions(context.Background(), "Acme", nil, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"A?", "B?"}, questions)
}

func TestGeneratorQuestionsPromptIncludesArticleContext(t *testing.T) {
	completer := &scriptedCompleter{responses: map[string]string{
		"customer questions": `{"question_1":"Q?"}`,
	}}
	gen := NewGenerator(completer)

	articles, err := ParseArticles(`[{"name":"Shipping policy?","content":"We ship worldwide."}]`)
	require.NoError(t, err)

	_, err = gen.CustomerQuestions(context.Background(), "Acme", articles, 1)
	require.NoError(t, err)
	require.Len(t, completer.prompts, 1)
	assert.Contains(t, completer.prompts[0], "Shipping policy?")
	assert.Contains(t, completer.prompts[0], "We ship worldwide.")
}

func TestGeneratorEndpointKitUsesHandleInPrompt(t *testing.T) {
	completer := &scriptedCompleter{responses: map[string]string{
		"mock API endpoints": `{"result":{"r":{"match":{"method":"GET","value":"/acme-ai-agent-demo/order_tracking"},"send":{"status":200}}}}`,
	}}
	gen := NewGenerator(completer).WithProxyBase("https://mock.example.com/")

	kit, err := gen.EndpointKit(context.Background(), "acme-ai-agent-demo", "Acme", 2)
	require.NoError(t, err)
	require.Len(t, kit.Rules, 1)

	require.Len(t, completer.prompts, 1)
	assert.Contains(t, completer.prompts[0], "/acme-ai-agent-demo/meaningful_endpoint_name_1")
	assert.Contains(t, completer.prompts[0], "https://mock.example.com/acme-ai-agent-demo/meaningful_endpoint_name_2")
}
