package adaprov

import "time"

// BotIdentity is the resolved demo bot: its handle and dashboard URL.
type BotIdentity struct {
	Handle string `json:"handle"`
	URL    string `json:"url"`
}

// ProvisioningResult records what a run actually built. Counts can fall
// short of the request when generation or upload degraded; the run reports
// those as warnings rather than failing outright.
type ProvisioningResult struct {
	Bot                 BotIdentity   `json:"bot"`
	CloneAlreadyExisted bool          `json:"clone_already_existed"`
	APIKey              string        `json:"-"`
	Industry            string        `json:"industry,omitempty"`
	ArticlesUploaded    int           `json:"articles_uploaded"`
	QuestionsGenerated  int           `json:"questions_generated"`
	ConversationsSeeded int           `json:"conversations_seeded"`
	MockRulesCreated    int           `json:"mock_rules_created"`
	WebsiteImported     bool          `json:"website_imported"`
	ActionsImported     int           `json:"actions_imported"`
	ChannelID           string        `json:"channel_id,omitempty"`
	MCPRegistered       bool          `json:"mcp_registered"`
	Warnings            []string      `json:"warnings,omitempty"`
	Duration            time.Duration `json:"duration"`
}

// MaskedKey renders the API key safe for logs and summaries: first twelve
// and last four characters, nothing in between.
func (r ProvisioningResult) MaskedKey() string {
	key := r.APIKey
	if len(key) <= 16 {
		return key
	}
	return key[:12] + "..." + key[len(key)-4:]
}
