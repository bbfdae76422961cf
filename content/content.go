// Package content turns LLM completions into the structured material a demo
// bot needs: a company description, knowledge articles, customer questions,
// and mock-endpoint rules with matching importable actions. Each content
// kind has its own prompt template and its own parser; parsers are tolerant
// of prose and fencing around the JSON and report failures as ParseError
// values carrying the raw text, they never panic deep in the pipeline.
package content

import (
	"fmt"

	"github.com/scteam/adaprov/mockapi"
)

// KnowledgeSourceID is the fixed container every generated article belongs to.
const KnowledgeSourceID = "demosource"

// Action is one importable dashboard action. JSON holds the normalized
// import payload pasted into the dashboard's import dialog; Name, Method and
// URL are lifted out for logging and summaries.
type Action struct {
	Name   string
	Method string
	URL    string
	JSON   string
}

// EndpointKit pairs the mock-service rules with the dashboard actions that
// call them, plus the industry the model detected for the company.
type EndpointKit struct {
	Industry string
	Rules    []mockapi.Rule
	Actions  []Action
}

// ParseError reports generator output that could not be coerced into the
// expected shape. Raw preserves the cleaned model output for diagnosis.
type ParseError struct {
	Kind string
	Raw  string
}

func (e *ParseError) Error() string {
	raw := e.Raw
	if len(raw) > 200 {
		raw = raw[:200] + "..."
	}
	return fmt.Sprintf("cannot parse %s from model output: %q", e.Kind, raw)
}
