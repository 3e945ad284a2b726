package models

import "time"

// Category is a menu category in the cached snapshot.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	SortOrder   int    `json:"sort_order"`
	Active      bool   `json:"active"`
}

// MenuItem is a single orderable item. CategoryID is empty when the
// item is uncategorized.
type MenuItem struct {
	ID          string `json:"id"`
	CategoryID  string `json:"category_id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	PriceCents  int64  `json:"price_cents"`
	ImageURL    string `json:"image_url,omitempty"`
	Available   bool   `json:"available"`
	SortOrder   int    `json:"sort_order"`
}

// MenuSnapshot is the denormalized local copy of the backend menu.
// It is replaced atomically on refresh; items never reference a
// category from a different snapshot generation.
type MenuSnapshot struct {
	Categories []Category `json:"categories"`
	Items      []MenuItem `json:"menu_items"`
	CachedAt   time.Time  `json:"cached_at"`
}

// Empty reports whether the snapshot holds no data.
func (s *MenuSnapshot) Empty() bool {
	return s == nil || (len(s.Categories) == 0 && len(s.Items) == 0)
}
