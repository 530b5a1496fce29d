package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// CategoryNameMaxLen caps user-defined category names.
const CategoryNameMaxLen = 30

// Fallbacks applied to custom categories created without an icon or
// color of their own.
const (
	DefaultCategoryIcon  = "📦"
	DefaultCategoryColor = "#3B82F6"
)

var ErrCategoryNameTooLong = errors.New("category name too long")

// Category is one entry in an owner's category set. Every owner starts
// with the default set; custom entries can be added and removed, the
// defaults cannot. Names are unique per owner.
type Category struct {
	Name      string
	Icon      string
	Color     string
	Default   bool
	CreatedAt time.Time
}

// DefaultCategories returns the set every owner is seeded with: four
// expense categories and three income sources.
func DefaultCategories() []Category {
	return []Category{
		{Name: "食費", Icon: "🍽️", Color: "#F97316", Default: true},
		{Name: "交通費", Icon: "🚃", Color: "#3B82F6", Default: true},
		{Name: "娯楽費", Icon: "🎮", Color: "#8B5CF6", Default: true},
		{Name: "その他", Icon: "📦", Color: "#6B7280", Default: true},
		{Name: "給料", Icon: "💰", Color: "#10B981", Default: true},
		{Name: "臨時収入", Icon: "🎁", Color: "#EC4899", Default: true},
		{Name: "副収入", Icon: "💼", Color: "#06B6D4", Default: true},
	}
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCategory
	}
	if utf8.RuneCountInString(c.Name) > CategoryNameMaxLen {
		return ErrCategoryNameTooLong
	}
	return nil
}
