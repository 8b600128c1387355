package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"budget-meal-planner/internal/domain"
	"budget-meal-planner/internal/llm"
	"budget-meal-planner/internal/pantry"
)

func (s *Service) Pantry(ctx context.Context) ([]domain.PantryItem, error) {
	items, err := s.repo.Pantry(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pantry: %w", err)
	}
	return items, nil
}

// AddPantryItems appends items as given; duplicates of existing entries are
// kept.
func (s *Service) AddPantryItems(ctx context.Context, items ...domain.PantryItem) ([]domain.PantryItem, error) {
	current, err := s.Pantry(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for _, it := range items {
		current = append(current, pantry.NewItem(it, now))
	}
	if err := s.repo.SavePantry(ctx, current); err != nil {
		return nil, fmt.Errorf("failed to save pantry: %w", err)
	}
	return current, nil
}

func (s *Service) AdjustPantryItem(ctx context.Context, id string, delta int) ([]domain.PantryItem, error) {
	current, err := s.Pantry(ctx)
	if err != nil {
		return nil, err
	}
	next, err := pantry.AdjustQuantity(current, id, delta)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SavePantry(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to save pantry: %w", err)
	}
	return next, nil
}

func (s *Service) RemovePantryItem(ctx context.Context, id string) ([]domain.PantryItem, error) {
	current, err := s.Pantry(ctx)
	if err != nil {
		return nil, err
	}
	next, err := pantry.Remove(current, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SavePantry(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to save pantry: %w", err)
	}
	return next, nil
}

// ScanPantryImage detects items in a photo. Confident detections are added
// to the pantry right away; the rest are returned for the user to verify
// and add with AddPantryItems.
func (s *Service) ScanPantryImage(ctx context.Context, img llm.Image) (pantry.Triaged, error) {
	if s.scanner == nil {
		return pantry.Triaged{}, pantry.ErrVisionUnavailable
	}
	found, meta, err := s.scanner.ScanImage(ctx, img)
	s.record(ctx, meta)
	if err != nil {
		return pantry.Triaged{}, err
	}
	if len(found.Accepted) > 0 {
		current, err := s.Pantry(ctx)
		if err != nil {
			return found, err
		}
		if err := s.repo.SavePantry(ctx, append(current, found.Accepted...)); err != nil {
			return found, fmt.Errorf("failed to save pantry: %w", err)
		}
	}
	return found, nil
}

// ScanBarcode looks the code up and adds the product to the pantry.
func (s *Service) ScanBarcode(ctx context.Context, code string) (domain.PantryItem, error) {
	item := s.barcodes.Lookup(ctx, code)
	if _, err := s.AddPantryItems(ctx, item); err != nil {
		return domain.PantryItem{}, err
	}
	s.logger.Info("barcode added to pantry", zap.String("code", code), zap.String("name", item.Name))
	return item, nil
}
