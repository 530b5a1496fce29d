package storage

import (
	"context"
	"errors"
	"testing"

	"kakeibo/internal/core"
	"kakeibo/internal/gateway"
)

func TestListCategoriesSeedsDefaults(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	got, err := repo.ListCategories(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	defaults := core.DefaultCategories()
	if len(got) != len(defaults) {
		t.Fatalf("expected %d seeded categories, got %d", len(defaults), len(got))
	}
	for i, want := range defaults {
		if got[i].Name != want.Name || !got[i].Default {
			t.Fatalf("position %d: got %+v, want default %s", i, got[i], want.Name)
		}
	}

	// A second list must not seed again.
	again, err := repo.ListCategories(ctx, "alice")
	if err != nil {
		t.Fatalf("second list: %v", err)
	}
	if len(again) != len(defaults) {
		t.Fatalf("defaults seeded twice: %d entries", len(again))
	}
}

func TestAddCategory(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	created, err := repo.AddCategory(ctx, "alice", core.Category{
		Name:  "book money",
		Icon:  "📚",
		Color: "#10B981",
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if created.Default {
		t.Fatalf("custom category must not be flagged default")
	}

	got, err := repo.ListCategories(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	defaults := core.DefaultCategories()
	if len(got) != len(defaults)+1 {
		t.Fatalf("expected %d categories, got %d", len(defaults)+1, len(got))
	}
	if got[len(defaults)].Name != "book money" {
		t.Fatalf("custom category must follow the defaults: %+v", got)
	}

	// Newest custom entry lists first among the customs.
	if _, err := repo.AddCategory(ctx, "alice", core.Category{Name: "travel", Icon: "✈️", Color: "#3B82F6"}); err != nil {
		t.Fatalf("add second: %v", err)
	}
	got, _ = repo.ListCategories(ctx, "alice")
	if got[len(defaults)].Name != "travel" || got[len(defaults)+1].Name != "book money" {
		t.Fatalf("custom categories must list newest first: %+v", got[len(defaults):])
	}
}

func TestAddCategoryDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, err := repo.AddCategory(ctx, "alice", core.Category{Name: "travel"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := repo.AddCategory(ctx, "alice", core.Category{Name: "travel"}); !errors.Is(err, gateway.ErrCategoryExists) {
		t.Fatalf("expected ErrCategoryExists, got %v", err)
	}

	// Default names are taken too.
	if _, err := repo.AddCategory(ctx, "alice", core.Category{Name: "食費"}); !errors.Is(err, gateway.ErrCategoryExists) {
		t.Fatalf("expected ErrCategoryExists for default name, got %v", err)
	}
}

func TestAddCategoryRejectsBlankName(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.AddCategory(context.Background(), "alice", core.Category{Name: "  "}); !errors.Is(err, core.ErrEmptyCategory) {
		t.Fatalf("expected ErrEmptyCategory, got %v", err)
	}
}

func TestRemoveCategory(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, err := repo.AddCategory(ctx, "alice", core.Category{Name: "travel"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := repo.RemoveCategory(ctx, "alice", "travel"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	got, err := repo.ListCategories(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != len(core.DefaultCategories()) {
		t.Fatalf("removed category still listed: %+v", got)
	}

	if err := repo.RemoveCategory(ctx, "alice", "travel"); !errors.Is(err, gateway.ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
	if err := repo.RemoveCategory(ctx, "alice", "食費"); !errors.Is(err, gateway.ErrDefaultCategory) {
		t.Fatalf("expected ErrDefaultCategory, got %v", err)
	}
}

func TestCategoriesAreScopedPerOwner(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, err := repo.AddCategory(ctx, "alice", core.Category{Name: "travel"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	got, err := repo.ListCategories(ctx, "bob")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, c := range got {
		if c.Name == "travel" {
			t.Fatalf("bob must not see alice's custom category")
		}
	}
}
