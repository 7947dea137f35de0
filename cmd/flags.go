/*
Copyright © 2026 James Lawson (jpl-au) <hello@caelisco.net>
*/

// flags.go defines global CLI flags and accessors for shared state.
//
// Extensions read flag values through the exported accessors rather than
// the variables, so they never touch cobra internals.

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jpl-au/quill/internal/config"
	"github.com/spf13/cobra"
)

var validOutputFormats = []string{"json"}

var (
	output  string
	user    string
	chat    string
	message string
	force   bool
)

// out is the output writer for commands. Tests replace it to capture output.
var out io.Writer = os.Stdout

// cfg and logger are resolved in PersistentPreRunE.
var (
	cfg    *config.Config
	logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
)

// Out returns the output writer.
func Out() io.Writer { return out }

// Output returns the output format flag value.
func Output() string { return output }

// User returns the user commands run as: --user, then QUILL_USER or
// user.id from config.
func User() string { return user }

// Chat returns the --chat flag value.
func Chat() string { return chat }

// Message returns the change description flag value.
func Message() string { return message }

// Force returns the force flag value.
func Force() bool { return force }

// Config returns the resolved configuration. Never nil after
// PersistentPreRunE has run.
func Config() *config.Config {
	if cfg == nil {
		return &config.Config{}
	}
	return cfg
}

// Logger returns the operational logger. It writes to stderr so stdout
// stays clean for command output and the MCP transport.
func Logger() *slog.Logger { return logger }

// SetOut sets the output writer (for testing).
func SetOut(w io.Writer) { out = w }

// JSON returns true if JSON output is requested.
func JSON() bool { return output == "json" }

// PrintJSON marshals v to JSON and writes it to the output writer.
// Returns nil if output format is not JSON.
func PrintJSON(v any) error {
	if output != "json" {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Fprintln(out, string(b))
	return nil
}

// PrintJSONError prints an error in JSON format if output is JSON.
// Returns nil if the error was printed (suppressing cobra's copy), or the
// original error otherwise.
func PrintJSONError(err error) error {
	if output != "json" || err == nil {
		return err
	}
	_ = PrintJSON(map[string]string{"error": err.Error()})
	return nil
}

// newLogger builds the operational logger for the configured format.
func newLogger(c *config.Config, w io.Writer) *slog.Logger {
	if c.LogFormat() == "json" {
		return slog.New(slog.NewJSONHandler(w, nil))
	}
	return slog.New(slog.NewTextHandler(w, nil))
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "", "Output format: json")
	rootCmd.PersistentFlags().StringVarP(&user, "user", "u", "", "User to run as (default: user.id from config)")
	rootCmd.PersistentFlags().StringVar(&chat, "chat", "", "Chat the document belongs to")
	rootCmd.PersistentFlags().StringVarP(&message, "message", "m", "", "Change description")
	rootCmd.PersistentFlags().BoolVar(&force, "force", false, "Skip confirmations")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return validOutputFormats, cobra.ShellCompDirectiveNoFileComp
	})
}
