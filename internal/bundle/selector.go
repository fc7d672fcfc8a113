// Package bundle manages the selection of companion games for a
// bundle-eligible cart line item.
package bundle

import (
	"context"
	"errors"
	"fmt"

	"github.com/huulo/storefront/internal/cart"
	"github.com/huulo/storefront/internal/catalog"
	"github.com/huulo/storefront/internal/domain"
)

var (
	ErrNotOpen = errors.New("bundle selector is not open")
	// ErrEmptySelection is returned by Commit when the draft holds no games
	// and the caller has not confirmed proceeding without any. This is a
	// friction point, not a hard block: retry Commit with confirmEmpty set.
	ErrEmptySelection = errors.New("bundle selection is empty, confirmation required")

	ErrNotBundleEligible = errors.New("line item is not bundle eligible")
)

// Selector holds a draft selection of companion games for one target line
// item. The draft only reaches the cart on Commit; Cancel discards it.
type Selector struct {
	store   *cart.Store
	catalog catalog.Lister

	open       bool
	targetID   string
	targetKey  string
	draft      []domain.BundleSelection
	companions []domain.Product
}

func NewSelector(store *cart.Store, lister catalog.Lister) *Selector {
	return &Selector{store: store, catalog: lister}
}

// Open starts a draft against the target line item, seeded from its current
// bundle selections, and loads the eligible companion games from the catalog.
func (s *Selector) Open(ctx context.Context, target domain.CartLineItem) error {
	if !target.BundleEligible() {
		return ErrNotBundleEligible
	}

	companions, err := s.catalog.ListByCategory(ctx, domain.CategoryGame)
	if err != nil {
		return fmt.Errorf("load companion games: %w", err)
	}

	s.open = true
	s.targetID = target.ProductID
	s.targetKey = target.BundleKey()
	s.companions = companions
	s.draft = append([]domain.BundleSelection(nil), target.BundleSelections...)
	return nil
}

// Toggle adds the companion to the draft, or removes it if already selected.
func (s *Selector) Toggle(companion domain.Product) error {
	if !s.open {
		return ErrNotOpen
	}

	for i, sel := range s.draft {
		if sel.ID == companion.ID {
			s.draft = append(s.draft[:i], s.draft[i+1:]...)
			return nil
		}
	}
	s.draft = append(s.draft, domain.BundleSelection{ID: companion.ID, Name: companion.Name})
	return nil
}

// Commit writes the draft into the target line item and closes the selector.
// An empty draft requires confirmEmpty; otherwise ErrEmptySelection is
// returned and the selector stays open.
func (s *Selector) Commit(ctx context.Context, confirmEmpty bool) error {
	if !s.open {
		return ErrNotOpen
	}
	if len(s.draft) == 0 && !confirmEmpty {
		return ErrEmptySelection
	}

	// Keyed to the exact variant: the same console can sit in the cart as
	// several bundle variants, and only the one this draft was opened
	// against may be patched.
	selections := s.draft
	patch := cart.ItemPatch{BundleSelections: &selections}
	if err := s.store.UpdateVariantMetadata(ctx, s.targetID, s.targetKey, patch); err != nil {
		return fmt.Errorf("attach bundle selections: %w", err)
	}

	s.reset()
	return nil
}

// Cancel discards the draft and closes the selector. The target line item is
// left unmodified.
func (s *Selector) Cancel() {
	s.reset()
}

// Companions returns the eligible companion games loaded at Open.
func (s *Selector) Companions() []domain.Product {
	return s.companions
}

// Draft returns the current draft selection.
func (s *Selector) Draft() []domain.BundleSelection {
	return append([]domain.BundleSelection(nil), s.draft...)
}

// TargetID returns the product ID of the line item being edited.
func (s *Selector) TargetID() string {
	return s.targetID
}

// Open reports whether a draft is active.
func (s *Selector) IsOpen() bool {
	return s.open
}

func (s *Selector) reset() {
	s.open = false
	s.targetID = ""
	s.targetKey = ""
	s.draft = nil
	s.companions = nil
}
