/*
Copyright © 2026 James Lawson (jpl-au) <hello@caelisco.net>
*/

// root.go defines the root command and CLI execution entry point.
//
// PersistentPreRunE loads configuration, builds the logger and opens the
// services lazily: only commands that need the workspace trigger extension
// init, so bootstrap commands (init, config, version) work before one
// exists.

package cmd

import (
	"fmt"
	"os"
	"slices"

	"github.com/jpl-au/quill/internal/config"
	"github.com/jpl-au/quill/internal/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "quill",
	Short: "Versioned markdown documents for AI writing assistants",
	Long: `Quill stores markdown documents written by an AI assistant, keeps every
version, and applies the assistant's edits (replace, batch, insert, citation
removal) safely under concurrency. It runs as a CLI or as an MCP server.`,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if output != "" && !slices.Contains(validOutputFormats, output) {
			return fmt.Errorf("invalid output format: %s (valid: %v)", output, validOutputFormats)
		}

		cmdName := topLevelCmdName(cmd)

		loaded, err := config.Load()
		switch {
		case err == nil:
			cfg = loaded
		case cmdName == "config":
			// config must still run so a broken file can be repaired.
			cfg = &config.Config{}
		default:
			return err
		}
		logger = newLogger(cfg, os.Stderr)

		if user == "" {
			user = cfg.UserID()
		}
		if userRequiredCommands[cmdName] && user == "" {
			return fmt.Errorf("no user configured (checked --user, QUILL_USER, .quill/config.yaml and ~/.quill/config.yaml)\n\nRun: quill config user.id <id>")
		}

		if !noStoreCommands[cmdName] {
			if err := initExtensions(cmd.Context()); err != nil {
				if JSON() {
					_ = PrintJSON(map[string]string{"error": err.Error()})
					cmd.SilenceErrors = true
					cmd.SilenceUsage = true
				}
				return fmt.Errorf("initialise extensions: %w", err)
			}
		}

		return nil
	},
}

// topLevelCmdName returns the name of the direct child of root the command
// belongs to. For "quill plan show <id>" it returns "plan".
func topLevelCmdName(cmd *cobra.Command) string {
	for cmd.HasParent() && cmd.Parent().HasParent() {
		cmd = cmd.Parent()
	}
	return cmd.Name()
}

// Execute runs the root command and handles process lifecycle: it opens
// the audit log, registers extensions, runs the command and closes the
// services. Exit code 1 indicates an error.
func Execute() {
	if err := log.Open(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: audit log unavailable: %v\n", err)
	}
	defer log.Close()

	registerExtensions()
	err := rootCmd.Execute()

	if extService != nil {
		if closeErr := extService.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "warning: closing service: %v\n", closeErr)
		}
	}

	if err != nil {
		log.Close()
		os.Exit(1)
	}
}

// RootCmd returns the root command for testing and extension access.
func RootCmd() *cobra.Command {
	return rootCmd
}
