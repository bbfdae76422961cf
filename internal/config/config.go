// Package config loads runtime settings from the environment, with a .env
// file honored for local development.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Settings holds everything the CLI and server need. Values come from
// environment variables named after the mapstructure keys, uppercased with
// dots replaced by underscores, so "ada.email" reads ADA_EMAIL.
type Settings struct {
	Ada struct {
		Email       string `mapstructure:"email"`
		Password    string `mapstructure:"password"`
		CloneSecret string `mapstructure:"clone_secret"`
	} `mapstructure:"ada"`

	TemplateHost string `mapstructure:"template_host"`

	Beeceptor struct {
		AuthToken string `mapstructure:"auth_token"`
		RulesURL  string `mapstructure:"rules_url"`
		ProxyBase string `mapstructure:"proxy_base"`
	} `mapstructure:"beeceptor"`

	OpenAI struct {
		APIKey string `mapstructure:"api_key"`
		Model  string `mapstructure:"model"`
	} `mapstructure:"openai"`

	Slack struct {
		WebhookURL string `mapstructure:"webhook_url"`
		Channel    string `mapstructure:"channel"`
	} `mapstructure:"slack"`

	Port       int    `mapstructure:"port"`
	MaxRetries int    `mapstructure:"max_retries"`
	RetryDelay int    `mapstructure:"retry_delay"`
	LogLevel   string `mapstructure:"log_level"`

	CloneSettleDelay time.Duration `mapstructure:"clone_settle_delay"`

	Browser struct {
		Headless bool          `mapstructure:"headless"`
		Timeout  time.Duration `mapstructure:"timeout"`
	} `mapstructure:"browser"`
}

// Load reads settings from the environment. Missing optional values fall
// back to defaults; credential validation is deferred to Validate so
// commands that need no credentials can still run.
func Load() (*Settings, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("template_host", "https://scteam-demo.ada.support")
	v.SetDefault("beeceptor.rules_url", "https://api.beeceptor.com/api/v1/endpoints/ada-demo/rules")
	v.SetDefault("beeceptor.proxy_base", "https://ada-demo.proxy.beeceptor.com")
	v.SetDefault("openai.model", "")
	v.SetDefault("slack.channel", "#sc-team")
	v.SetDefault("port", 5001)
	v.SetDefault("max_retries", 3)
	v.SetDefault("retry_delay", 5)
	v.SetDefault("log_level", "info")
	v.SetDefault("clone_settle_delay", 30*time.Second)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.timeout", 5*time.Minute)

	// AutomaticEnv alone does not surface env values through Unmarshal;
	// each key needs an explicit binding.
	for _, key := range []string{
		"ada.email", "ada.password", "ada.clone_secret",
		"template_host",
		"beeceptor.auth_token", "beeceptor.rules_url", "beeceptor.proxy_base",
		"openai.api_key", "openai.model",
		"slack.webhook_url", "slack.channel",
		"port", "max_retries", "retry_delay", "log_level",
		"clone_settle_delay",
		"browser.headless", "browser.timeout",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the credentials a full provisioning run needs. autoKey
// adds the dashboard login requirement for browser-based key retrieval.
func (s *Settings) Validate(autoKey bool) error {
	var problems []error
	if s.OpenAI.APIKey == "" {
		problems = append(problems, errors.New("OPENAI_API_KEY is required"))
	}
	if s.Ada.CloneSecret == "" {
		problems = append(problems, errors.New("ADA_CLONE_SECRET is required"))
	}
	if autoKey {
		if s.Ada.Email == "" {
			problems = append(problems, errors.New("ADA_EMAIL is required for automatic key retrieval"))
		}
		if s.Ada.Password == "" {
			problems = append(problems, errors.New("ADA_PASSWORD is required for automatic key retrieval"))
		}
	}
	return errors.Join(problems...)
}
