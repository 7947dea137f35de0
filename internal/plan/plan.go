// Package plan implements writing plans: an ordered list of steps the
// assistant works through for a chat. A chat has at most one active plan;
// creating a new one cancels the old.
package plan

import (
	"context"
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/jpl-au/quill/extension"
	"github.com/jpl-au/quill/internal/log"
	"github.com/jpl-au/quill/internal/service"
	"github.com/jpl-au/quill/internal/store"
	"github.com/jpl-au/quill/internal/validate"
)

// Limits on plan input.
const (
	MaxSteps     = 50
	MaxStepTitle = 200
)

// ErrInvalidPlan wraps every plan input validation failure.
var ErrInvalidPlan = errors.New("invalid plan")

// Service provides plan operations over a store.PlanStore.
type Service struct {
	store  store.PlanStore
	now    func() time.Time
	extCtx extension.Context
}

var _ service.Plans = (*Service)(nil)

// New creates a plan service. The store is shared with the document
// service and is not closed here.
func New(st store.PlanStore) *Service {
	return &Service{store: st, now: time.Now}
}

// SetExtensionContext enables plan:change events.
func (s *Service) SetExtensionContext(ctx extension.Context) {
	s.extCtx = ctx
}

// Create starts a plan for a chat, cancelling the chat's active plan.
func (s *Service) Create(ctx context.Context, chatID, userID, title string, steps []service.StepInput) (*store.Plan, error) {
	if err := validate.User(userID); err != nil {
		return nil, err
	}
	err := validation.Errors{
		"chat_id": validation.Validate(chatID, validation.Required),
		"title":   validation.Validate(title, validation.Required, validation.RuneLength(1, validate.MaxTitle)),
	}.Filter()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}

	id := uuid.NewString()
	planSteps, err := buildSteps(id, steps)
	if err != nil {
		return nil, err
	}

	ts := s.now().Unix()
	p := &store.Plan{
		ID:        id,
		ChatID:    chatID,
		UserID:    userID,
		Title:     title,
		Status:    store.PlanActive,
		Steps:     planSteps,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if err := s.store.CreatePlan(ctx, p); err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}
	s.fireEvent(p)
	return p, nil
}

// Active returns the chat's active plan, or nil if there is none.
func (s *Service) Active(ctx context.Context, chatID, userID string) (*store.Plan, error) {
	p, err := s.store.ActivePlan(ctx, chatID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("active plan: %w", err)
	}
	return p, nil
}

// Get returns a plan the user owns.
func (s *Service) Get(ctx context.Context, planID, userID string) (*store.Plan, error) {
	if err := validate.ID("plan", planID); err != nil {
		return nil, err
	}
	p, err := s.store.Plan(ctx, planID, userID)
	if err != nil {
		return nil, fmt.Errorf("get plan %s: %w", planID, err)
	}
	return p, nil
}

// ReplaceSteps swaps the plan's step list wholesale. Step ids are not
// preserved.
func (s *Service) ReplaceSteps(ctx context.Context, planID, userID string, steps []service.StepInput) (*store.Plan, error) {
	if err := validate.ID("plan", planID); err != nil {
		return nil, err
	}
	planSteps, err := buildSteps(planID, steps)
	if err != nil {
		return nil, err
	}
	if err := s.store.ReplaceSteps(ctx, planID, userID, planSteps, s.now().Unix()); err != nil {
		return nil, fmt.Errorf("replace steps of %s: %w", planID, err)
	}
	return s.reload(ctx, planID, userID)
}

// SetStatus moves a plan to a new status.
func (s *Service) SetStatus(ctx context.Context, planID, userID string, status store.PlanStatus) (*store.Plan, error) {
	if err := validate.ID("plan", planID); err != nil {
		return nil, err
	}
	err := validation.Validate(status, validation.Required,
		validation.In(store.PlanActive, store.PlanCompleted, store.PlanCancelled))
	if err != nil {
		return nil, fmt.Errorf("%w: status: %v", ErrInvalidPlan, err)
	}
	if err := s.store.SetPlanStatus(ctx, planID, userID, status, s.now().Unix()); err != nil {
		return nil, fmt.Errorf("set status of %s: %w", planID, err)
	}
	return s.reload(ctx, planID, userID)
}

func (s *Service) reload(ctx context.Context, planID, userID string) (*store.Plan, error) {
	p, err := s.store.Plan(ctx, planID, userID)
	if err != nil {
		return nil, fmt.Errorf("get plan %s: %w", planID, err)
	}
	s.fireEvent(p)
	return p, nil
}

// buildSteps validates caller steps and assigns ids and positions from the
// slice order.
func buildSteps(planID string, steps []service.StepInput) ([]store.PlanStep, error) {
	if len(steps) > MaxSteps {
		return nil, fmt.Errorf("%w: at most %d steps", ErrInvalidPlan, MaxSteps)
	}
	out := make([]store.PlanStep, 0, len(steps))
	for i, in := range steps {
		if in.Status == "" {
			in.Status = store.StepPending
		}
		if err := validateStep(in); err != nil {
			return nil, fmt.Errorf("%w: step %d: %v", ErrInvalidPlan, i+1, err)
		}
		out = append(out, store.PlanStep{
			ID:          uuid.NewString(),
			PlanID:      planID,
			Position:    i,
			Title:       in.Title,
			Description: in.Description,
			Status:      in.Status,
		})
	}
	return out, nil
}

func validateStep(in service.StepInput) error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.RuneLength(1, MaxStepTitle)),
		validation.Field(&in.Status, validation.In(store.StepPending, store.StepInProgress, store.StepCompleted)),
	)
}

// fireEvent notifies extension event handlers of a plan change.
func (s *Service) fireEvent(p *store.Plan) {
	if s.extCtx == nil {
		return
	}
	e := extension.PlanEvent{
		PlanID: p.ID,
		ChatID: p.ChatID,
		UserID: p.UserID,
		Status: p.Status,
		Steps:  len(p.Steps),
	}
	for _, ext := range extension.All() {
		if h, ok := ext.(extension.EventHandler); ok {
			if err := h.HandleEvent(s.extCtx, e); err != nil {
				log.Event("event:error", "error").
					Detail("ext", ext.Name()).
					Detail("event", string(e.EventType())).
					Write(err)
			}
		}
	}
}
