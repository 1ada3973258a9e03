package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"contas/internal/core"
	"contas/internal/storage"
)

// defaultCategories seeds a fresh account with a usable set of labels.
var defaultCategories = []string{
	"Education", "Groceries", "Health", "Housing", "Leisure",
	"Restaurants", "Services", "Transport", "Travel", "Other",
}

// CategoryService manages the account's spending categories.
type CategoryService struct {
	storage *storage.SQLiteRepository
}

func NewCategoryService(repo *storage.SQLiteRepository) *CategoryService {
	return &CategoryService{storage: repo}
}

func (s *CategoryService) FindAll(ctx context.Context, accountID string) ([]core.Category, error) {
	return s.storage.ListCategories(ctx, accountID)
}

// Persist creates a category, or relabels it when ID is set.
func (s *CategoryService) Persist(ctx context.Context, accountID, id, label string) (core.Category, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return core.Category{}, fmt.Errorf("%w: empty label", core.ErrValidation)
	}
	c := core.Category{ID: id, AccountID: accountID, Label: label}
	if id != "" {
		if err := s.storage.UpdateCategory(ctx, c); err != nil {
			return core.Category{}, err
		}
		return c, nil
	}
	c.ID = uuid.NewString()
	if err := s.storage.InsertCategory(ctx, c); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

func (s *CategoryService) Delete(ctx context.Context, accountID, id string) error {
	return s.storage.DeleteCategory(ctx, accountID, id)
}

// CreateDefaults seeds the default category set for a new account.
func (s *CategoryService) CreateDefaults(ctx context.Context, accountID string) error {
	for _, label := range defaultCategories {
		c := core.Category{ID: uuid.NewString(), AccountID: accountID, Label: label}
		if err := s.storage.InsertCategory(ctx, c); err != nil {
			return fmt.Errorf("seeding category %q: %w", label, err)
		}
	}
	return nil
}

// TagService manages the account's free-form bill tags.
type TagService struct {
	storage *storage.SQLiteRepository
}

func NewTagService(repo *storage.SQLiteRepository) *TagService {
	return &TagService{storage: repo}
}

func (s *TagService) FindAll(ctx context.Context, accountID string) ([]core.Tag, error) {
	return s.storage.ListTags(ctx, accountID)
}

func (s *TagService) Persist(ctx context.Context, accountID, id, label string) (core.Tag, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return core.Tag{}, fmt.Errorf("%w: empty label", core.ErrValidation)
	}
	t := core.Tag{ID: id, AccountID: accountID, Label: label}
	if id != "" {
		if err := s.storage.UpdateTag(ctx, t); err != nil {
			return core.Tag{}, err
		}
		return t, nil
	}
	t.ID = uuid.NewString()
	if err := s.storage.InsertTag(ctx, t); err != nil {
		return core.Tag{}, err
	}
	return t, nil
}

func (s *TagService) Delete(ctx context.Context, accountID, id string) error {
	return s.storage.DeleteTag(ctx, accountID, id)
}
