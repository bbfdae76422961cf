// Command adaprov provisions AI agent demo instances, either one-shot from
// the command line or as an HTTP job server.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/phsym/zeroslog"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/scteam/adaprov/internal/config"
)

var log zerolog.Logger

func initLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Stamp}
	log = zerolog.New(output).With().Timestamp().Logger().Level(lvl)
	slog.SetDefault(slog.New(zeroslog.NewHandler(log, &zeroslog.HandlerOptions{Level: slogLevel(lvl)})))
}

func slogLevel(lvl zerolog.Level) slog.Level {
	switch {
	case lvl <= zerolog.DebugLevel:
		return slog.LevelDebug
	case lvl == zerolog.InfoLevel:
		return slog.LevelInfo
	case lvl == zerolog.WarnLevel:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

func main() {
	root := &cobra.Command{
		Use:           "adaprov",
		Short:         "Provision AI agent demo instances",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	settings, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	initLogging(settings.LogLevel)

	root.AddCommand(newProvisionCmd(settings))
	root.AddCommand(newServeCmd(settings))

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
