package core

import (
	"strings"
	"testing"
)

func TestCategoryValidate(t *testing.T) {
	if err := (Category{Name: "book money"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Category{Name: "  "}).Validate(); err == nil {
		t.Fatalf("expected error for blank name")
	}
	long := strings.Repeat("x", CategoryNameMaxLen+1)
	if err := (Category{Name: long}).Validate(); err == nil {
		t.Fatalf("expected error for overlong name")
	}
}

func TestDefaultCategories(t *testing.T) {
	defaults := DefaultCategories()
	if len(defaults) != 7 {
		t.Fatalf("expected 7 default categories, got %d", len(defaults))
	}
	seen := make(map[string]bool)
	for _, c := range defaults {
		if !c.Default {
			t.Fatalf("%s must be flagged as default", c.Name)
		}
		if c.Icon == "" || c.Color == "" {
			t.Fatalf("%s is missing icon or color", c.Name)
		}
		if seen[c.Name] {
			t.Fatalf("duplicate default name %s", c.Name)
		}
		seen[c.Name] = true
	}
}
