// Package planner enforces the meal plan invariants and manages scoped
// replacement and acceptance. It never talks to a generator or to storage:
// callers pass raw responses in and store the sessions it returns through
// Commit, which announces each change only after it is durable.
package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"budget-meal-planner/internal/domain"
	"budget-meal-planner/internal/normalize"
)

var (
	ErrNoPlan = errors.New("no current meal plan")
	// ErrEmptyMealName is shared with the normalizer so callers match one
	// sentinel regardless of where the empty name was detected.
	ErrEmptyMealName = normalize.ErrEmptyMealName
	ErrInvalidDay    = errors.New("day index out of range")
)

// State is the lifecycle position of the current plan.
type State string

const (
	StateNoPlan    State = "NO_PLAN"
	StateGenerated State = "GENERATED"
	StateAccepted  State = "ACCEPTED"
	StateModified  State = "MODIFIED"
)

// Session is the persisted triple of current plan, acceptance flag and
// shopping list. A nil ShoppingList means no valid list exists.
type Session struct {
	Plan         *domain.MealPlan     `json:"plan,omitempty"`
	Accepted     bool                 `json:"accepted"`
	ShoppingList *domain.ShoppingList `json:"shoppingList,omitempty"`

	// pending is published by Commit once the session is stored.
	pending *Event
}

func (s Session) State() State {
	switch {
	case s.Plan == nil:
		return StateNoPlan
	case s.Accepted:
		return StateAccepted
	case s.Plan.Status == domain.StatusModified:
		return StateModified
	}
	return StateGenerated
}

// Store persists a session. It is supplied by the caller of Commit.
type Store func(ctx context.Context, s Session) error

// ListGenerator produces the shopping list for an accepted plan.
type ListGenerator func(ctx context.Context, plan domain.MealPlan) (domain.ShoppingList, error)

// Engine applies the reconciliation rules.
type Engine struct {
	now    func() time.Time
	newID  func() string
	logger *zap.Logger
	bus    *Bus
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithBus(b *Bus) Option {
	return func(e *Engine) { e.bus = b }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		now:    time.Now,
		newID:  NewPlanID,
		logger: zap.NewNop(),
		bus:    NewBus(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewPlanID returns a time-ordered unique id (UUIDv7).
func NewPlanID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (e *Engine) Bus() *Bus { return e.bus }

func (e *Engine) event(t EventType, planID string) *Event {
	return &Event{Type: t, PlanID: planID, At: e.now()}
}

// Commit stores s and then publishes the event of the operation that
// produced it. Nothing is published when store fails, and a session is only
// announced once.
func (e *Engine) Commit(ctx context.Context, s Session, store Store) (Session, error) {
	if err := store(ctx, s); err != nil {
		return s, err
	}
	if ev := s.pending; ev != nil {
		s.pending = nil
		e.bus.Publish(*ev)
	}
	return s, nil
}

// Finalize turns a raw generator response into a fresh session. Under Weekly
// Meal Prep every day is overwritten with a copy of day one, whatever the
// generator produced.
func (e *Engine) Finalize(raw string, profile domain.Profile) (Session, error) {
	if err := profile.Validate(); err != nil {
		return Session{}, err
	}

	days := normalize.MealPlan(raw)
	if profile.IsMealPrep() {
		homogenize(days)
	}

	plan := domain.MealPlan{
		ID:         e.newID(),
		CreatedAt:  e.now(),
		WeekBudget: profile.WeeklyBudget,
		Status:     domain.StatusGenerated,
		Days:       days,
	}
	if len(plan.CookedMealNames()) == 0 {
		e.logger.Warn("generated plan has no meals", zap.String("plan_id", plan.ID))
	}
	e.logger.Info("meal plan finalized",
		zap.String("plan_id", plan.ID),
		zap.String("prep_style", string(profile.PrepStyle)),
		zap.Int("distinct_meals", len(plan.CookedMealNames())))

	return Session{Plan: &plan, pending: e.event(EventListInvalidated, plan.ID)}, nil
}

func homogenize(days []domain.DayPlan) {
	if len(days) == 0 {
		return
	}
	first := days[0].Meals
	for i := range days {
		days[i].Meals = first.Clone()
	}
}

// Scope is the candidate set of a replacement. Choice is set when the caller
// must ask whether to replace only Day or every day in Shared.
type Scope struct {
	Day      int
	MealType domain.MealType
	Current  string
	Shared   []int
	Choice   bool
}

// Indices resolves the caller's decision. all is ignored unless the scope
// offered a choice.
func (s Scope) Indices(all bool) []int {
	if all && s.Choice {
		return append([]int(nil), s.Shared...)
	}
	return []int{s.Day}
}

// ReplacementScope computes which days a replacement may touch. Only Weekly
// Meal Prep plans offer the all-days choice, and only when the exact meal
// string appears on other days.
func (e *Engine) ReplacementScope(plan domain.MealPlan, dayIndex int, mealType domain.MealType, profile domain.Profile) (Scope, error) {
	if dayIndex < 0 || dayIndex >= len(plan.Days) {
		return Scope{}, fmt.Errorf("%w: %d", ErrInvalidDay, dayIndex)
	}
	if !mealType.Valid() {
		return Scope{}, fmt.Errorf("unknown meal type %q", mealType)
	}

	current := plan.Days[dayIndex].Meals.Get(mealType)
	scope := Scope{Day: dayIndex, MealType: mealType, Current: current, Shared: []int{dayIndex}}
	if !profile.IsMealPrep() || current == "" {
		return scope, nil
	}

	shared := make([]int, 0, len(plan.Days))
	for i, d := range plan.Days {
		if d.Meals.Get(mealType) == current {
			shared = append(shared, i)
		}
	}
	scope.Shared = shared
	scope.Choice = len(shared) > 1
	return scope, nil
}

// ApplyReplacement writes newName into the slot on every given day. The
// session's plan is never mutated; the returned session carries a copy with
// acceptance reset and the shopping list dropped.
func (e *Engine) ApplyReplacement(s Session, dayIndices []int, mealType domain.MealType, newName string) (Session, error) {
	if s.Plan == nil {
		return s, ErrNoPlan
	}
	name := strings.TrimSpace(newName)
	if name == "" {
		return s, ErrEmptyMealName
	}
	if !mealType.Valid() {
		return s, fmt.Errorf("unknown meal type %q", mealType)
	}
	if len(dayIndices) == 0 {
		return s, fmt.Errorf("%w: no days selected", ErrInvalidDay)
	}
	for _, idx := range dayIndices {
		if idx < 0 || idx >= len(s.Plan.Days) {
			return s, fmt.Errorf("%w: %d", ErrInvalidDay, idx)
		}
	}

	next := s.Plan.Clone()
	for _, idx := range dayIndices {
		next.Days[idx].Meals.Set(mealType, name)
	}
	if s.Accepted || s.Plan.Status != domain.StatusGenerated {
		next.Status = domain.StatusModified
	}

	e.logger.Info("meal replaced",
		zap.String("plan_id", next.ID),
		zap.String("meal_type", string(mealType)),
		zap.Ints("days", dayIndices),
		zap.String("meal", name))
	return Session{Plan: &next, pending: e.event(EventListInvalidated, next.ID)}, nil
}

// Accept generates the shopping list and only then marks the plan accepted.
// On failure the session is returned untouched, prior list included.
func (e *Engine) Accept(ctx context.Context, s Session, generate ListGenerator) (Session, error) {
	if s.Plan == nil {
		return s, ErrNoPlan
	}
	list, err := generate(ctx, s.Plan.Clone())
	if err != nil {
		e.logger.Warn("plan acceptance failed", zap.String("plan_id", s.Plan.ID), zap.Error(err))
		return s, fmt.Errorf("shopping list generation failed: %w", err)
	}

	next := s.Plan.Clone()
	next.Status = domain.StatusAccepted
	e.logger.Info("meal plan accepted",
		zap.String("plan_id", next.ID),
		zap.Float64("total_cost", list.TotalCost),
		zap.Bool("under_budget", list.UnderBudget))
	return Session{Plan: &next, Accepted: true, ShoppingList: &list, pending: e.event(EventListRegenerated, next.ID)}, nil
}

// Delete clears plan, list and acceptance together.
func (e *Engine) Delete(s Session) Session {
	id := ""
	if s.Plan != nil {
		id = s.Plan.ID
	}
	e.logger.Info("meal plan deleted", zap.String("plan_id", id))
	return Session{pending: e.event(EventPlanDeleted, id)}
}
