// Package plan provides the plan extension: writing plans for a chat, as
// CLI commands under "quill plan" and as MCP tools for the assistant.
package plan

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jpl-au/quill/extension"
	"github.com/jpl-au/quill/internal/service"
	"github.com/jpl-au/quill/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	extension.Register(&Extension{})
}

// Extension implements the plan extension.
type Extension struct {
	plans service.Plans
}

var (
	_ extension.Extension     = (*Extension)(nil)
	_ extension.Initializable = (*Extension)(nil)
)

// Name returns "plan".
func (e *Extension) Name() string { return "plan" }

// Init connects to the shared plan service.
func (e *Extension) Init(ctx extension.Context) error {
	e.plans = ctx.Plans()
	return nil
}

// Commands returns the plan command and its subcommands.
func (e *Extension) Commands() []*cobra.Command {
	c := &cobra.Command{
		Use:   "plan",
		Short: "Manage writing plans",
		Long: `A plan is an ordered list of steps the assistant works through for a chat.
A chat has at most one active plan; creating a new one cancels the old.`,
	}
	c.AddCommand(
		e.newNewCmd(),
		e.newShowCmd(),
		e.newStepsCmd(),
		e.newStepCmd(),
		e.newStatusCmd(),
	)
	return []*cobra.Command{c}
}

var validPlanStatuses = []store.PlanStatus{store.PlanActive, store.PlanCompleted, store.PlanCancelled}

var validStepStatuses = []store.StepStatus{store.StepPending, store.StepInProgress, store.StepCompleted}

// parseStep reads a step flag: "title" or "title: description".
func parseStep(s string) (service.StepInput, error) {
	title, desc, _ := strings.Cut(s, ":")
	title = strings.TrimSpace(title)
	if title == "" {
		return service.StepInput{}, fmt.Errorf("step %q has no title", s)
	}
	return service.StepInput{Title: title, Description: strings.TrimSpace(desc)}, nil
}

func parseSteps(flags []string) ([]service.StepInput, error) {
	steps := make([]service.StepInput, 0, len(flags))
	for _, f := range flags {
		st, err := parseStep(f)
		if err != nil {
			return nil, err
		}
		steps = append(steps, st)
	}
	return steps, nil
}

// stepInputs converts a plan's steps back into inputs, preserving order
// and status, so a single step can be changed and the list written back.
func stepInputs(p *store.Plan) []service.StepInput {
	in := make([]service.StepInput, len(p.Steps))
	for i, s := range p.Steps {
		in[i] = service.StepInput{Title: s.Title, Description: s.Description, Status: s.Status}
	}
	return in
}

var errNoChat = errors.New("--chat is required")
