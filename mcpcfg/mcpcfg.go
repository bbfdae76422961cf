// Package mcpcfg registers a provisioned bot as an MCP server in the
// Claude desktop configuration, so the bot's MCP endpoint is reachable
// from the desktop app after a restart.
package mcpcfg

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// DefaultConfigPath returns the desktop app's config location, or an empty
// string when the home directory cannot be resolved.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "Library", "Application Support", "Claude", "claude_desktop_config.json")
}

// Register adds the bot under mcpServers in the default desktop config.
// Returns true only when an entry was written: a missing config file or an
// existing entry is a quiet no-op.
func Register(handle string) (bool, error) {
	return RegisterAt(DefaultConfigPath(), handle)
}

// RegisterAt is Register against an explicit config path.
func RegisterAt(path, handle string) (bool, error) {
	log := slog.Default().With("component", "mcpcfg")
	if path == "" {
		log.Warn("desktop config path unresolved, skipping mcp registration")
		return false, nil
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Warn("desktop config not found, skipping mcp registration", "path", path)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read desktop config: %w", err)
	}
	if !gjson.ValidBytes(raw) {
		return false, fmt.Errorf("desktop config %s is not valid json", path)
	}

	if gjson.GetBytes(raw, "mcpServers."+handle).Exists() {
		log.Info("mcp server already registered", "handle", handle)
		return false, nil
	}

	updated, err := sjson.SetBytes(raw, "mcpServers."+handle, map[string]any{
		"command": "npx",
		"args":    []string{"mcp-remote", "https://" + handle + ".ada.support/api/mcp/oauth"},
	})
	if err != nil {
		return false, fmt.Errorf("update desktop config: %w", err)
	}

	if err := os.WriteFile(path, updated, 0o644); err != nil {
		return false, fmt.Errorf("write desktop config: %w", err)
	}
	log.Info("mcp server registered, restart the desktop app to activate", "handle", handle)
	return true, nil
}
