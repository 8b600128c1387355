package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"budget-meal-planner/internal/budget"
	"budget-meal-planner/internal/domain"
	"budget-meal-planner/internal/normalize"
	"budget-meal-planner/internal/planner"
	"budget-meal-planner/internal/prompt"
)

// CurrentSession loads the current plan, acceptance flag and shopping list.
func (s *Service) CurrentSession(ctx context.Context) (planner.Session, error) {
	plan, err := s.repo.CurrentPlan(ctx)
	if err != nil {
		return planner.Session{}, fmt.Errorf("failed to load current plan: %w", err)
	}
	if plan == nil {
		return planner.Session{}, nil
	}
	accepted, err := s.repo.Accepted(ctx)
	if err != nil {
		return planner.Session{}, fmt.Errorf("failed to load acceptance flag: %w", err)
	}
	list, err := s.repo.ShoppingList(ctx)
	if err != nil {
		return planner.Session{}, fmt.Errorf("failed to load shopping list: %w", err)
	}
	return planner.Session{Plan: plan, Accepted: accepted, ShoppingList: list}, nil
}

// persist writes the shopping list and acceptance flag before the plan, so
// a failed plan write never leaves a stale list behind a changed plan.
func (s *Service) persist(ctx context.Context, sess planner.Session) error {
	if err := s.repo.SaveShoppingList(ctx, sess.ShoppingList); err != nil {
		return fmt.Errorf("failed to save shopping list: %w", err)
	}
	if err := s.repo.SetAccepted(ctx, sess.Accepted); err != nil {
		return fmt.Errorf("failed to save acceptance flag: %w", err)
	}
	if err := s.repo.SaveCurrentPlan(ctx, sess.Plan); err != nil {
		return fmt.Errorf("failed to save current plan: %w", err)
	}
	return nil
}

// GeneratePlan asks the generator for a new week and makes it current. The
// previous plan's list and acceptance are discarded.
func (s *Service) GeneratePlan(ctx context.Context) (planner.Session, error) {
	profile, err := s.Profile(ctx)
	if err != nil {
		return planner.Session{}, err
	}
	items, err := s.repo.Pantry(ctx)
	if err != nil {
		return planner.Session{}, fmt.Errorf("failed to load pantry: %w", err)
	}

	raw, err := s.generate(ctx, prompt.FullPlanGeneration, prompt.Request{Profile: profile, Pantry: items}, s.timeouts.Plan)
	if err != nil {
		return planner.Session{}, err
	}
	sess, err := s.engine.Finalize(raw, profile)
	if err != nil {
		return planner.Session{}, err
	}
	if sess, err = s.engine.Commit(ctx, sess, s.persist); err != nil {
		return planner.Session{}, err
	}
	if err := s.repo.AppendPlan(ctx, *sess.Plan); err != nil {
		s.logger.Warn("failed to append plan history", zap.String("plan_id", sess.Plan.ID), zap.Error(err))
	}
	return sess, nil
}

// ReplacementScope reports which days replacing the meal may touch and
// whether the caller has to choose between one day and all of them.
func (s *Service) ReplacementScope(ctx context.Context, dayIndex int, mealType domain.MealType) (planner.Scope, error) {
	profile, err := s.Profile(ctx)
	if err != nil {
		return planner.Scope{}, err
	}
	sess, err := s.CurrentSession(ctx)
	if err != nil {
		return planner.Scope{}, err
	}
	if sess.Plan == nil {
		return planner.Scope{}, planner.ErrNoPlan
	}
	return s.engine.ReplacementScope(*sess.Plan, dayIndex, mealType, profile)
}

// ReplaceMeal generates a new meal for the slot and writes it to the day, or
// to every day sharing the meal when all is set and the scope allows it.
func (s *Service) ReplaceMeal(ctx context.Context, dayIndex int, mealType domain.MealType, all bool) (planner.Session, error) {
	profile, err := s.Profile(ctx)
	if err != nil {
		return planner.Session{}, err
	}
	sess, err := s.CurrentSession(ctx)
	if err != nil {
		return planner.Session{}, err
	}
	if sess.Plan == nil {
		return planner.Session{}, planner.ErrNoPlan
	}
	scope, err := s.engine.ReplacementScope(*sess.Plan, dayIndex, mealType, profile)
	if err != nil {
		return planner.Session{}, err
	}

	raw, err := s.generate(ctx, prompt.MealReplacement, prompt.Request{
		Profile: profile,
		Replace: &prompt.ReplaceContext{
			Day:      sess.Plan.Days[dayIndex].Day,
			MealType: mealType,
			Current:  scope.Current,
			Avoid:    sess.Plan.CookedMealNames(),
		},
	}, s.timeouts.Replacement)
	if err != nil {
		return planner.Session{}, err
	}
	name, err := normalize.MealName(raw)
	if err != nil {
		return planner.Session{}, err
	}

	next, err := s.engine.ApplyReplacement(sess, scope.Indices(all), mealType, name)
	if err != nil {
		return planner.Session{}, err
	}
	if next, err = s.engine.Commit(ctx, next, s.persist); err != nil {
		return planner.Session{}, err
	}
	return next, nil
}

// AcceptPlan generates the shopping list and marks the plan accepted. When
// generation fails nothing is written and the stored state is unchanged.
func (s *Service) AcceptPlan(ctx context.Context) (planner.Session, error) {
	profile, err := s.Profile(ctx)
	if err != nil {
		return planner.Session{}, err
	}
	sess, err := s.CurrentSession(ctx)
	if err != nil {
		return planner.Session{}, err
	}
	next, err := s.engine.Accept(ctx, sess, func(ctx context.Context, plan domain.MealPlan) (domain.ShoppingList, error) {
		return s.shoppingList(ctx, profile, plan)
	})
	if err != nil {
		return sess, err
	}
	if next, err = s.engine.Commit(ctx, next, s.persist); err != nil {
		return sess, err
	}
	return next, nil
}

// RegenerateShoppingList builds a fresh list for the current plan through
// the acceptance flow.
func (s *Service) RegenerateShoppingList(ctx context.Context) (planner.Session, error) {
	return s.AcceptPlan(ctx)
}

func (s *Service) shoppingList(ctx context.Context, profile domain.Profile, plan domain.MealPlan) (domain.ShoppingList, error) {
	items, err := s.repo.Pantry(ctx)
	if err != nil {
		return domain.ShoppingList{}, fmt.Errorf("failed to load pantry: %w", err)
	}
	raw, err := s.generate(ctx, prompt.ShoppingListGeneration, prompt.Request{
		Profile: profile,
		Pantry:  items,
		Plan:    &plan,
	}, s.timeouts.ShoppingList)
	if err != nil {
		return domain.ShoppingList{}, err
	}
	list := budget.Apply(normalize.ShoppingList(raw), profile.WeeklyBudget)
	list.GeneratedAt = s.now()
	s.logger.Info("shopping list generated",
		zap.String("plan_id", plan.ID),
		zap.Int("items", list.ItemCount()),
		zap.Float64("total", list.TotalCost),
		zap.String("status", string(budget.Evaluate(list, profile.WeeklyBudget).Status)))
	return list, nil
}

// DeletePlan clears the current plan together with its list and acceptance.
// History is kept.
func (s *Service) DeletePlan(ctx context.Context) error {
	sess, err := s.CurrentSession(ctx)
	if err != nil {
		return err
	}
	_, err = s.engine.Commit(ctx, s.engine.Delete(sess), s.persist)
	return err
}

// SavedPlans lists every plan ever generated, oldest first.
func (s *Service) SavedPlans(ctx context.Context) ([]domain.MealPlan, error) {
	plans, err := s.repo.Plans(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan history: %w", err)
	}
	return plans, nil
}
