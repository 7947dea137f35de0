// commands.go implements the "quill plan" subcommands.

package plan

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/jpl-au/quill/cmd"
	"github.com/jpl-au/quill/extension"
	"github.com/jpl-au/quill/internal/format"
	"github.com/jpl-au/quill/internal/log"
	"github.com/jpl-au/quill/internal/store"
	"github.com/spf13/cobra"
)

func (e *Extension) newNewCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "new <title>",
		Short: "Start a plan for a chat",
		Long: `Start a plan for the chat given by --chat, cancelling its active plan.

  quill plan new "Essay on tides" --chat c1 \
    --step "Outline" --step "Draft: first pass, no citations" --step "Edit"`,
		Args: cobra.ExactArgs(1),
		RunE: e.runNew,
	}
	c.Flags().StringArrayP(extension.FlagStep, "s", nil, "Step as \"title\" or \"title: description\" (repeatable)")
	return c
}

func (e *Extension) runNew(c *cobra.Command, args []string) error {
	if cmd.Chat() == "" {
		return cmd.PrintJSONError(errNoChat)
	}
	flags, _ := c.Flags().GetStringArray(extension.FlagStep)
	steps, err := parseSteps(flags)
	if err != nil {
		return cmd.PrintJSONError(err)
	}

	p, err := e.plans.Create(c.Context(), cmd.Chat(), cmd.User(), args[0], steps)

	l := log.Event("plan:new", "plan").Author(cmd.User()).Detail("chat", cmd.Chat())
	if p != nil {
		l.Detail("plan", p.ID).Detail("steps", len(p.Steps))
	}
	l.Write(err)

	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("new plan: %w", err))
	}
	return show(p)
}

func (e *Extension) newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [plan-id]",
		Short: "Show a plan",
		Long:  `Show a plan by id, or the active plan of the chat given by --chat.`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  e.runShow,
	}
}

func (e *Extension) runShow(c *cobra.Command, args []string) error {
	var p *store.Plan
	var err error
	switch {
	case len(args) > 0:
		p, err = e.plans.Get(c.Context(), args[0], cmd.User())
	case cmd.Chat() != "":
		p, err = e.plans.Active(c.Context(), cmd.Chat(), cmd.User())
		if err == nil && p == nil {
			err = fmt.Errorf("chat %s has no active plan", cmd.Chat())
		}
	default:
		err = errors.New("give a plan id or --chat")
	}

	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("show plan: %w", err))
	}
	return show(p)
}

func (e *Extension) newStepsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "steps <plan-id>",
		Short: "Replace a plan's steps",
		Long: `Replace the whole step list of a plan. Every step starts pending.

  quill plan steps <plan-id> --step "Outline" --step "Draft"`,
		Args: cobra.ExactArgs(1),
		RunE: e.runSteps,
	}
	c.Flags().StringArrayP(extension.FlagStep, "s", nil, "Step as \"title\" or \"title: description\" (repeatable)")
	return c
}

func (e *Extension) runSteps(c *cobra.Command, args []string) error {
	flags, _ := c.Flags().GetStringArray(extension.FlagStep)
	steps, err := parseSteps(flags)
	if err != nil {
		return cmd.PrintJSONError(err)
	}

	p, err := e.plans.ReplaceSteps(c.Context(), args[0], cmd.User(), steps)

	log.Event("plan:steps", "plan").
		Author(cmd.User()).
		Detail("plan", args[0]).
		Detail("steps", len(steps)).
		Write(err)

	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("replace steps: %w", err))
	}
	return show(p)
}

func (e *Extension) newStepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "step <plan-id> <n> <status>",
		Short: "Set one step's status",
		Long: `Set the status of step n (numbered from 1, as "plan show" prints them).

Statuses: pending, in_progress, completed.`,
		Args: cobra.ExactArgs(3),
		RunE: e.runStep,
	}
}

func (e *Extension) runStep(c *cobra.Command, args []string) error {
	ctx := c.Context()
	planID := args[0]
	status := store.StepStatus(args[2])
	if !slices.Contains(validStepStatuses, status) {
		return cmd.PrintJSONError(fmt.Errorf("invalid step status %q (valid: %v)", args[2], validStepStatuses))
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("invalid step number %q", args[1]))
	}

	p, err := e.plans.Get(ctx, planID, cmd.User())
	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("set step: %w", err))
	}
	if n < 1 || n > len(p.Steps) {
		return cmd.PrintJSONError(fmt.Errorf("step %d out of range (plan has %d)", n, len(p.Steps)))
	}

	steps := stepInputs(p)
	steps[n-1].Status = status
	p, err = e.plans.ReplaceSteps(ctx, planID, cmd.User(), steps)

	log.Event("plan:step", "plan").
		Author(cmd.User()).
		Detail("plan", planID).
		Detail("step", n).
		Detail("status", status).
		Write(err)

	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("set step: %w", err))
	}
	return show(p)
}

func (e *Extension) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <plan-id> <status>",
		Short: "Set a plan's status",
		Long:  `Move a plan to active, completed or cancelled.`,
		Args:  cobra.ExactArgs(2),
		RunE:  e.runStatus,
	}
}

func (e *Extension) runStatus(c *cobra.Command, args []string) error {
	status := store.PlanStatus(args[1])
	if !slices.Contains(validPlanStatuses, status) {
		return cmd.PrintJSONError(fmt.Errorf("invalid plan status %q (valid: %v)", args[1], validPlanStatuses))
	}

	p, err := e.plans.SetStatus(c.Context(), args[0], cmd.User(), status)

	log.Event("plan:status", "plan").
		Author(cmd.User()).
		Detail("plan", args[0]).
		Detail("status", status).
		Write(err)

	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("set status: %w", err))
	}
	return show(p)
}

// show prints a plan as JSON or text.
func show(p *store.Plan) error {
	if cmd.JSON() {
		return cmd.PrintJSON(p.ToJSON())
	}
	return format.Plan(cmd.Out(), p)
}
