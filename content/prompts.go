package content

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/scteam/adaprov/platform"
)

var (
	descriptionTmpl = template.Must(template.New("description").Parse(
		`Generate a comprehensive company description for {{.Company}}.
Include: company overview, main products/services, target market.
Write 150-250 words in a professional tone.`))

	articlesTmpl = template.Must(template.New("articles").Parse(
		`You are an expert content writer for a company knowledge base.

Return a single valid JSON array of {{.Count}} FAQ articles for: {{.Company}}

Each article must have:
- A clear, question-style title in the "name" field
- A detailed body (120-200 words) in the "content" field
- The same "knowledge_source_id": "{{.SourceID}}"
- A string "id" from "1" to "{{.Count}}"

Company description: {{.Description}}

CRITICAL: Respond with **one single JSON array only**. No markdown. No text outside JSON.

[
  {"id": "1", "name": "Question 1?", "content": "120-200 word answer...", "knowledge_source_id": "{{.SourceID}}"},
  ...{{.Count}} objects total...
]`))

	questionsTmpl = template.Must(template.New("questions").Parse(
		`Generate exactly {{.Count}} realistic customer questions for {{.Company}}.

Knowledge Base:
{{.Articles}}

Return ONLY a JSON object:
{"question_1": "How can I...", "question_2": "What is...", ... "question_{{.Count}}": "When do..."}

No markdown. No text outside JSON.`))

	endpointsTmpl = template.Must(template.New("endpoints").Parse(
		`You are creating mock API endpoints for {{.Company}}. First, identify what industry this company is in (e.g., e-commerce/retail, banking, healthcare, telecommunications, insurance, etc.).

Then create {{.Count}} realistic mock rule configurations that represent common customer support use cases for that industry. Each use case should be distinct and cover a different customer need.

Examples by industry:
- E-commerce/Retail: order_tracking, product_availability, return_status, loyalty_points
- Banking: account_balance, transaction_history, card_activation, loan_status
- Healthcare: appointment_scheduling, prescription_status, test_results, referral_status
- Telecommunications: plan_details, usage_info, service_status, bill_summary
- Insurance: claim_status, policy_details, coverage_check, renewal_quote

For {{.Company}}, create {{.Count}} endpoints with:
1. Descriptive endpoint paths (not generic like "status_check")
2. Realistic response bodies with relevant fields for that industry
3. Appropriate HTTP methods (GET for queries, POST for actions)
4. Each endpoint should be a genuinely distinct customer support use case

Return ONLY this JSON structure with NO markdown formatting:
{
  "industry": "detected industry name",
  "result": {
{{.RulesSchema}}
  },
  "ada_actions": [
{{.ActionsSchema}}
  ]
}`))
)

func renderDescriptionPrompt(company string) string {
	return render(descriptionTmpl, map[string]any{"Company": company})
}

func renderArticlesPrompt(company, description string, count int) string {
	return render(articlesTmpl, map[string]any{
		"Company":     company,
		"Description": description,
		"Count":       count,
		"SourceID":    KnowledgeSourceID,
	})
}

func renderQuestionsPrompt(company string, articles []platform.Article, count int) string {
	var ctx strings.Builder
	for i, a := range articles {
		if i > 0 {
			ctx.WriteString("\n\n")
		}
		fmt.Fprintf(&ctx, "Article %s: %s\n%s", a.ID, a.Name, a.Content)
	}
	return render(questionsTmpl, map[string]any{
		"Company":  company,
		"Articles": ctx.String(),
		"Count":    count,
	})
}

func renderEndpointsPrompt(botHandle, company, proxyBase string, count int) string {
	var rules strings.Builder
	for i := 1; i <= count; i++ {
		if i > 1 {
			rules.WriteString(",\n")
		}
		fmt.Fprintf(&rules, `    "use_case_%d_rule": {
      "enabled": true,
      "mock": true,
      "delay": 0,
      "match": {"method": "GET or POST", "value": "/%s/meaningful_endpoint_name_%d", "operator": "SW"},
      "send": {"status": 200, "body": "realistic JSON response as escaped string", "headers": {"Content-Type": "application/json"}, "templated": false}
    }`, i, botHandle, i)
	}

	var actions strings.Builder
	for i := 1; i <= count; i++ {
		if i > 1 {
			actions.WriteString(",\n")
		}
		fmt.Fprintf(&actions, `    {
      "name": "Descriptive action %d name",
      "description": "What this action does for the customer",
      "url": "%s/%s/meaningful_endpoint_name_%d",
      "headers": [],
      "inputs": [],
      "outputs": [{"id": "output%d", "name": "output", "key": "*", "is_visible_to_llm": true, "save_as_variable": false, "variable_name": ""}],
      "request_body": "",
      "content_type": "json",
      "method": "GET or POST"
    }`, i, proxyBase, botHandle, i, i)
	}

	return render(endpointsTmpl, map[string]any{
		"Company":       company,
		"Count":         count,
		"RulesSchema":   rules.String(),
		"ActionsSchema": actions.String(),
	})
}

func render(tmpl *template.Template, data any) string {
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		// Templates are static and data is a plain map; execution cannot
		// fail at runtime short of a programming error.
		panic(err)
	}
	return buf.String()
}
