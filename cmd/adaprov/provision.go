package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/fogfish/opts"
	"github.com/openai/openai-go/option"
	"github.com/spf13/cobra"

	"github.com/scteam/adaprov"
	"github.com/scteam/adaprov/browser"
	"github.com/scteam/adaprov/content"
	"github.com/scteam/adaprov/events"
	"github.com/scteam/adaprov/handle"
	"github.com/scteam/adaprov/internal/config"
	"github.com/scteam/adaprov/mcpcfg"
	"github.com/scteam/adaprov/mockapi"
	"github.com/scteam/adaprov/notify"
	"github.com/scteam/adaprov/platform"
	"github.com/scteam/adaprov/provider/openai"
)

type provisionFlags struct {
	company       string
	adaKey        string
	auto          bool
	description   string
	website       string
	inferWebsite  bool
	articles      int
	questions     int
	conversations int
	actions       int
	dryRun        bool
}

func newProvisionCmd(settings *config.Settings) *cobra.Command {
	var flags provisionFlags

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Provision one demo bot for a company",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProvision(cmd.Context(), settings, flags)
		},
	}

	cmd.Flags().StringVar(&flags.company, "company", "", "company name (required)")
	cmd.Flags().StringVar(&flags.adaKey, "ada-key", "", "pre-provisioned platform API key")
	cmd.Flags().BoolVar(&flags.auto, "auto", false, "retrieve the API key through the dashboard")
	cmd.Flags().StringVar(&flags.description, "description", "", "company description override")
	cmd.Flags().StringVar(&flags.website, "website", "", "website URL to register as a knowledge source")
	cmd.Flags().BoolVar(&flags.inferWebsite, "infer-website", false, "guess the website URL from the company name when --website is not given")
	cmd.Flags().IntVar(&flags.articles, "articles", adaprov.DefaultArticles, "number of knowledge articles")
	cmd.Flags().IntVar(&flags.questions, "questions", adaprov.DefaultQuestions, "number of customer questions")
	cmd.Flags().IntVar(&flags.conversations, "conversations", 0, "number of conversations to seed (default: one per question)")
	cmd.Flags().IntVar(&flags.actions, "actions", adaprov.DefaultActions, "number of mock endpoints and actions")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "validate and resolve the identity without provisioning")
	_ = cmd.MarkFlagRequired("company")

	return cmd
}

// buildProvisioner wires the real collaborators from settings.
func buildProvisioner(settings *config.Settings, hook events.Hook) (*adaprov.Provisioner, error) {
	platformClient := platform.New(platform.Config{
		TemplateHost: settings.TemplateHost,
		CloneSecret:  settings.Ada.CloneSecret,
		Email:        settings.Ada.Email,
		Password:     settings.Ada.Password,
		MaxRetries:   uint64(settings.MaxRetries),
	})

	generator := content.NewGenerator(
		openai.New(settings.OpenAI.Model, option.WithAPIKey(settings.OpenAI.APIKey)),
	).WithProxyBase(settings.Beeceptor.ProxyBase)

	apiFactory := func(baseURL, apiKey string) adaprov.BotAPI {
		return platformClient.Bearer(baseURL, apiKey)
	}
	browserFactory := func(ctx context.Context) (adaprov.BrowserSession, error) {
		return browser.NewSession(ctx, browser.Options{
			Headless: settings.Browser.Headless,
			Timeout:  settings.Browser.Timeout,
			Creds: browser.Credentials{
				Email:    settings.Ada.Email,
				Password: settings.Ada.Password,
			},
		})
	}

	provisionerOpts := []opts.Option[adaprov.Provisioner]{
		adaprov.WithMockEndpoints(mockapi.New(settings.Beeceptor.RulesURL, settings.Beeceptor.AuthToken)),
		adaprov.WithBrowser(adaprov.BrowserFactory(browserFactory)),
		adaprov.WithSettleDelay(settings.CloneSettleDelay),
		adaprov.WithPhaseRetries(uint64(settings.MaxRetries)),
		adaprov.WithRetryDelay(time.Duration(settings.RetryDelay) * time.Second),
	}
	if hook != nil {
		provisionerOpts = append(provisionerOpts, adaprov.WithHook(hook))
	}
	if settings.Slack.WebhookURL != "" {
		provisionerOpts = append(provisionerOpts,
			adaprov.WithNotifier(notify.NewSlack(settings.Slack.WebhookURL, settings.Slack.Channel)))
	}

	return adaprov.New(platformClient, apiFactory, generator, provisionerOpts...)
}

func runProvision(ctx context.Context, settings *config.Settings, flags provisionFlags) error {
	if !flags.dryRun {
		if err := settings.Validate(flags.auto); err != nil {
			return err
		}
	}

	website := flags.website
	if website == "" && flags.inferWebsite {
		website = handle.GuessWebsiteURL(flags.company)
		log.Info().Str("url", website).Msg("using inferred website url")
	}

	p, err := buildProvisioner(settings, events.NewConsoleHook())
	if err != nil {
		return err
	}

	res, err := p.Run(ctx, adaprov.ProvisioningRequest{
		Company:         flags.company,
		WebsiteURL:      website,
		Description:     flags.description,
		APIKey:          flags.adaKey,
		AutoRetrieveKey: flags.auto,
		Articles:        flags.articles,
		Questions:       flags.questions,
		Conversations:   flags.conversations,
		Actions:         flags.actions,
		DryRun:          flags.dryRun,
	})
	if err != nil {
		return err
	}

	if !flags.dryRun {
		registered, err := mcpcfg.Register(res.Bot.Handle)
		if err != nil {
			log.Warn().Err(err).Msg("mcp registration failed")
		}
		res.MCPRegistered = registered
	}

	printSummary(res, flags.dryRun)
	return nil
}

func printSummary(res *adaprov.ProvisioningResult, dryRun bool) {
	bold := color.New(color.Bold).SprintFunc()
	green := color.GreenString
	yellow := color.YellowString

	fmt.Println()
	if dryRun {
		fmt.Println(bold("Dry run complete"))
		fmt.Printf("  Handle:    %s\n", res.Bot.Handle)
		fmt.Printf("  Dashboard: %s\n", res.Bot.URL)
		return
	}

	fmt.Println(bold("Provisioning complete"), green("✓"))
	fmt.Printf("  Dashboard:     %s\n", res.Bot.URL)
	fmt.Printf("  API key:       %s\n", res.MaskedKey())
	if res.Industry != "" {
		fmt.Printf("  Industry:      %s\n", res.Industry)
	}
	fmt.Printf("  Articles:      %d uploaded\n", res.ArticlesUploaded)
	fmt.Printf("  Questions:     %d generated\n", res.QuestionsGenerated)
	fmt.Printf("  Conversations: %d seeded\n", res.ConversationsSeeded)
	fmt.Printf("  Mock rules:    %d created\n", res.MockRulesCreated)
	fmt.Printf("  Website:       %s\n", importedLabel(res.WebsiteImported))
	fmt.Printf("  Actions:       %d imported\n", res.ActionsImported)
	if res.MCPRegistered {
		fmt.Printf("  MCP server:    registered, restart the desktop app to activate\n")
	}
	fmt.Printf("  Duration:      %s\n", res.Duration.Round(time.Second))
	for _, warning := range res.Warnings {
		fmt.Fprintf(os.Stderr, "  %s %s\n", yellow("!"), warning)
	}
}

func importedLabel(ok bool) string {
	if ok {
		return "imported"
	}
	return "skipped"
}
