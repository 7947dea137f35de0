// config.go implements the "quill config" command.
//
// Config cascades like git: local (.quill/config.yaml) takes precedence
// over global (~/.quill/config.yaml). Reads and writes use the file
// directly, without environment overrides, so a QUILL_* variable is never
// persisted by accident. --local forces the local file even if it doesn't
// exist yet.

package core

import (
	"fmt"
	"os"
	"slices"

	"github.com/jpl-au/quill/cmd"
	"github.com/jpl-au/quill/extension"
	"github.com/jpl-au/quill/internal/config"
	"github.com/jpl-au/quill/internal/log"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "config [key] [value]",
		Short: "View or set config values",
		Long: `View or set config values.

  quill config                     # show config
  quill config match.threshold     # show one value
  quill config user.id alice       # set a value

Configuration locations:
  Global: ~/.quill/config.yaml
  Local:  .quill/config.yaml

Uses local config if it exists, otherwise global. Writes go to the same
place reads come from; use --local to write the local file.

QUILL_* environment variables and a .env file override file values at
runtime but are never written back.`,
		Args:      cobra.MaximumNArgs(2),
		ValidArgs: config.ValidKeys(),
		RunE:      runConfig,
	}
	c.Flags().Bool(extension.FlagLocal, false, "Use local config (.quill/config.yaml)")
	return c
}

func runConfig(c *cobra.Command, args []string) error {
	forceLocal, _ := c.Flags().GetBool(extension.FlagLocal)

	scope := config.ScopeGlobal
	if _, err := os.Stat(config.LocalPath()); err == nil || forceLocal {
		scope = config.ScopeLocal
	}
	cfg, err := config.LoadScope(scope)
	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("config load: %w", err))
	}

	scopeName := "global"
	if scope == config.ScopeLocal {
		scopeName = "local"
	}

	switch len(args) {
	case 0:
		all := cfg.All()
		log.Event("core:config", "list").Author(cmd.User()).Write(nil)
		if cmd.JSON() {
			return cmd.PrintJSON(all)
		}
		keys := make([]string, 0, len(all))
		for k := range all {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(cmd.Out(), "%s: %s\n", k, all[k])
		}

	case 1:
		v, err := cfg.Get(args[0])
		log.Event("core:config", "get").Author(cmd.User()).Detail("key", args[0]).Write(err)
		if err != nil {
			return cmd.PrintJSONError(fmt.Errorf("config get %q: %w", args[0], err))
		}
		if cmd.JSON() {
			return cmd.PrintJSON(map[string]string{args[0]: v})
		}
		fmt.Fprintln(cmd.Out(), v)

	case 2:
		if err := cfg.Set(args[0], args[1]); err != nil {
			log.Event("core:config", "set").Author(cmd.User()).Detail("key", args[0]).Write(err)
			return cmd.PrintJSONError(fmt.Errorf("config set %q: %w", args[0], err))
		}

		saveErr := cfg.Save()
		// The value is not logged: it may be a credential.
		log.Event("core:config", "set").Author(cmd.User()).Detail("key", args[0]).Detail("scope", scopeName).Write(saveErr)
		if saveErr != nil {
			return cmd.PrintJSONError(fmt.Errorf("config save: %w", saveErr))
		}
		if cmd.JSON() {
			return cmd.PrintJSON(map[string]string{"key": args[0], "scope": scopeName})
		}
		fmt.Fprintf(cmd.Out(), "%s = %s (%s)\n", args[0], args[1], scopeName)
	}
	return nil
}
