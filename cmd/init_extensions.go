/*
Copyright © 2026 James Lawson (jpl-au) <hello@caelisco.net>
*/

// init_extensions.go handles extension initialisation and command
// registration.
//
// Extensions register during init() but aren't initialised until the first
// command that needs the workspace runs. The services are created once and
// shared across all extensions via the Context.

package cmd

import (
	"context"
	"fmt"
	"sync"

	"github.com/jpl-au/quill/extension"
	"github.com/jpl-au/quill/internal/document"
	"github.com/jpl-au/quill/internal/log"
	"github.com/jpl-au/quill/internal/plan"
	"github.com/jpl-au/quill/internal/repo"
)

// noStoreCommands lists commands that bypass automatic store
// initialisation: bootstrap commands plus extension-declared storeless
// commands.
var noStoreCommands map[string]bool

// userRequiredCommands lists commands that read or write a user's data.
var userRequiredCommands = map[string]bool{
	"create":    true,
	"write":     true,
	"cat":       true,
	"ls":        true,
	"history":   true,
	"diff":      true,
	"restore":   true,
	"rm":        true,
	"replace":   true,
	"batch":     true,
	"insert":    true,
	"citations": true,
	"structure": true,
	"plan":      true,
}

// buildNoStoreCommands creates the set of commands that skip store
// initialisation. Core bootstrap commands are listed here; other
// extensions implement extension.Storeless.
func buildNoStoreCommands() map[string]bool {
	cmds := map[string]bool{
		"init":   true,
		"config": true,
	}

	for _, ext := range extension.All() {
		if s, ok := ext.(extension.Storeless); ok {
			for _, name := range s.NoStoreCommands() {
				cmds[name] = true
			}
		}
	}

	return cmds
}

// Global extension context, created during initialisation.
var (
	extContext extension.Context
	extService *document.Service
	initOnce   sync.Once
	initErr    error
)

// initExtensions opens the document and plan services and injects them
// into extensions. It runs at most once per process.
func initExtensions(ctx context.Context) error {
	initOnce.Do(func() {
		if ctx == nil {
			ctx = context.Background()
		}
		svc, err := document.Open(ctx, Config(), logger)
		if err != nil {
			initErr = fmt.Errorf("opening workspace: %w", err)
			return
		}
		extService = svc

		if dir, err := repo.DiscoverDir(); err == nil {
			log.SetProject(dir)
		}

		plans := plan.New(svc.Store())
		extContext = extension.NewContext(svc, plans, svc.DB(), Config(), logger)
		svc.SetExtensionContext(extContext)
		plans.SetExtensionContext(extContext)

		for _, ext := range extension.All() {
			if init, ok := ext.(extension.Initializable); ok {
				if err := init.Init(extContext); err != nil {
					initErr = fmt.Errorf("init extension %s: %w", ext.Name(), err)
					return
				}
			}
		}
	})
	return initErr
}

var extensionsOnce sync.Once

// registerExtensions adds commands from all registered extensions.
func registerExtensions() {
	extensionsOnce.Do(func() {
		for _, ext := range extension.All() {
			for _, cmd := range ext.Commands() {
				rootCmd.AddCommand(cmd)
			}
		}
		noStoreCommands = buildNoStoreCommands()
	})
}
