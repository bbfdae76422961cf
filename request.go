package adaprov

import "errors"

// Defaults applied by withDefaults when a request leaves a count at zero.
const (
	DefaultArticles  = 10
	DefaultQuestions = 70
	DefaultActions   = 2
)

// ProvisioningRequest describes one demo bot to build.
type ProvisioningRequest struct {
	// Company is the display name the demo is built for, e.g. "Acme Corp".
	Company string

	// WebsiteURL, when set, is registered as a scraped knowledge source.
	// When empty the website task is skipped entirely.
	WebsiteURL string

	// Description overrides the generated company description.
	Description string

	// APIKey is a pre-provisioned platform key. Mutually exclusive with
	// AutoRetrieveKey.
	APIKey string

	// AutoRetrieveKey retrieves a fresh key through the dashboard instead
	// of requiring one up front.
	AutoRetrieveKey bool

	Articles      int
	Questions     int
	Conversations int
	Actions       int

	// DryRun validates the request and resolves the bot identity without
	// touching any external system.
	DryRun bool
}

// Validate reports whether the request can be run at all.
func (r ProvisioningRequest) Validate() error {
	if r.Company == "" {
		return errors.New("company name is required")
	}
	if r.APIKey == "" && !r.AutoRetrieveKey && !r.DryRun {
		return errors.New("either an api key or automatic key retrieval is required")
	}
	if r.APIKey != "" && r.AutoRetrieveKey {
		return errors.New("an api key and automatic key retrieval are mutually exclusive")
	}
	return nil
}

// withDefaults fills unset counts. Conversations default to one per
// question so every generated question gets used.
func (r ProvisioningRequest) withDefaults() ProvisioningRequest {
	if r.Articles <= 0 {
		r.Articles = DefaultArticles
	}
	if r.Questions <= 0 {
		r.Questions = DefaultQuestions
	}
	if r.Conversations <= 0 {
		r.Conversations = r.Questions
	}
	if r.Actions <= 0 {
		r.Actions = DefaultActions
	}
	return r
}
