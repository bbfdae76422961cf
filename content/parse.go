package content

import (
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/scteam/adaprov/mockapi"
	"github.com/scteam/adaprov/pkg/jsonx"
	"github.com/scteam/adaprov/platform"
)

// ParseArticles extracts knowledge articles from raw model output. Articles
// missing a name or content are dropped; ids and the knowledge source are
// normalized so the result is directly uploadable.
func ParseArticles(raw string) ([]platform.Article, error) {
	doc, ok := jsonx.FirstArray(raw)
	if !ok {
		return nil, &ParseError{Kind: "knowledge articles", Raw: jsonx.StripFences(raw)}
	}

	var articles []platform.Article
	gjson.Parse(doc).ForEach(func(_, item gjson.Result) bool {
		name := strings.TrimSpace(item.Get("name").String())
		content := strings.TrimSpace(item.Get("content").String())
		if name == "" || content == "" {
			return true
		}
		articles = append(articles, platform.Article{
			ID:                strconv.Itoa(len(articles) + 1),
			Name:              name,
			Content:           content,
			KnowledgeSourceID: KnowledgeSourceID,
		})
		return true
	})

	if len(articles) == 0 {
		return nil, &ParseError{Kind: "knowledge articles", Raw: jsonx.StripFences(raw)}
	}
	return articles, nil
}

// ParseQuestions flattens the numbered-question object into an ordered,
// exact-match-deduplicated slice. Numbering gaps and shortfalls are fine:
// fewer questions than requested is a reduced result, not a failure.
func ParseQuestions(raw string) ([]string, error) {
	doc, ok := jsonx.FirstObject(raw)
	if !ok {
		return nil, &ParseError{Kind: "customer questions", Raw: jsonx.StripFences(raw)}
	}

	type numbered struct {
		index int
		text  string
	}
	var entries []numbered
	gjson.Parse(doc).ForEach(func(key, value gjson.Result) bool {
		text := strings.TrimSpace(value.String())
		if text == "" {
			return true
		}
		entries = append(entries, numbered{index: questionIndex(key.String(), len(entries)), text: text})
		return true
	})
	if len(entries) == 0 {
		return nil, &ParseError{Kind: "customer questions", Raw: jsonx.StripFences(raw)}
	}

	// Sort by the numeric suffix of the key, stable for ties.
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j-1].index > entries[j].index; j-- {
			entries[j-1], entries[j] = entries[j], entries[j-1]
		}
	}

	// Exact-string dedup that keeps first-seen order.
	seen := orderedmap.New[string, struct{}]()
	for _, e := range entries {
		if _, dup := seen.Get(e.text); !dup {
			seen.Set(e.text, struct{}{})
		}
	}

	questions := make([]string, 0, seen.Len())
	for pair := seen.Oldest(); pair != nil; pair = pair.Next() {
		questions = append(questions, pair.Key)
	}
	return questions, nil
}

// questionIndex pulls the trailing number out of keys like "question_17".
// Keys without one keep their encounter position.
func questionIndex(key string, position int) int {
	if i := strings.LastIndex(key, "_"); i >= 0 {
		if n, err := strconv.Atoi(key[i+1:]); err == nil {
			return n
		}
	}
	return position + 1
}

// defaultOutputs is spliced into actions the model emitted without outputs.
const defaultOutputs = `[{"name":"output","key":"*","is_visible_to_llm":true,"save_as_variable":false,"variable_name":""}]`

// ParseEndpointKit extracts mock rules and importable actions. Each rule and
// each action is validated independently, so one malformed entry never
// discards its well-formed siblings. Only a completely unusable document is
// an error.
func ParseEndpointKit(raw string) (EndpointKit, error) {
	doc, ok := jsonx.FirstObject(raw)
	if !ok {
		return EndpointKit{}, &ParseError{Kind: "endpoint definitions", Raw: jsonx.StripFences(raw)}
	}

	parsed := gjson.Parse(doc)
	kit := EndpointKit{Industry: parsed.Get("industry").String()}

	parsed.Get("result").ForEach(func(_, item gjson.Result) bool {
		var rule mockapi.Rule
		if err := json.Unmarshal([]byte(item.Raw), &rule); err != nil {
			return true
		}
		if rule.Match.Value == "" || rule.Match.Method == "" {
			return true
		}
		if rule.Match.Operator == "" {
			rule.Match.Operator = "SW"
		}
		if rule.Send.Status == 0 {
			rule.Send.Status = 200
		}
		kit.Rules = append(kit.Rules, rule)
		return true
	})

	parsed.Get("ada_actions").ForEach(func(_, item gjson.Result) bool {
		if action, ok := normalizeAction(item.Raw); ok {
			kit.Actions = append(kit.Actions, action)
		}
		return true
	})

	if len(kit.Rules) == 0 && len(kit.Actions) == 0 {
		return EndpointKit{}, &ParseError{Kind: "endpoint definitions", Raw: jsonx.StripFences(raw)}
	}
	return kit, nil
}

// normalizeAction fills in the fields the dashboard import dialog requires,
// leaving whatever valid structure the model produced untouched.
func normalizeAction(raw string) (Action, bool) {
	parsed := gjson.Parse(raw)
	if !parsed.IsObject() {
		return Action{}, false
	}
	name := strings.TrimSpace(parsed.Get("name").String())
	url := strings.TrimSpace(parsed.Get("url").String())
	if name == "" || url == "" {
		return Action{}, false
	}

	normalized := raw
	defaults := []struct {
		path string
		want string
	}{
		{"description", `""`},
		{"headers", `[]`},
		{"inputs", `[]`},
		{"outputs", defaultOutputs},
		{"request_body", `""`},
		{"content_type", `"json"`},
		{"method", `"GET"`},
	}
	for _, d := range defaults {
		field := gjson.Get(normalized, d.path)
		missing := !field.Exists()
		if d.path == "outputs" && field.Exists() && (!field.IsArray() || len(field.Array()) == 0) {
			missing = true
		}
		if missing {
			normalized, _ = sjson.SetRaw(normalized, d.path, d.want)
		}
	}

	return Action{
		Name:   name,
		Method: gjson.Get(normalized, "method").String(),
		URL:    url,
		JSON:   normalized,
	}, true
}
