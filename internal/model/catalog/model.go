package catalog

import "time"

// Model describes one selectable language model.
type Model struct {
	ID          string    `json:"id"`
	Tag         string    `json:"tag"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store exposes model catalog retrieval for HTTP handlers.
type Store interface {
	List() []Model
	FindByTag(tag string) (Model, bool)
}

// MemoryStore implements Store with an in-memory slice; the catalog is
// static so nothing heavier is needed.
type MemoryStore struct {
	items []Model
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied models.
func NewMemoryStore(items []Model) *MemoryStore {
	return &MemoryStore{items: append([]Model(nil), items...)}
}

// List returns the catalog in its seeded order.
func (s *MemoryStore) List() []Model {
	return append([]Model(nil), s.items...)
}

// FindByTag looks up a model by its external tag.
func (s *MemoryStore) FindByTag(tag string) (Model, bool) {
	for _, item := range s.items {
		if item.Tag == tag {
			return item, true
		}
	}
	return Model{}, false
}

// Seed provides the default model list exposed by the product.
func Seed() []Model {
	now := time.Now().UTC()
	return []Model{
		{
			ID:          "g25p",
			Tag:         "gemini-2.5-pro",
			Name:        "Gemini 2.5 Pro",
			Description: "Cutting-edge reasoning & long context",
			CreatedAt:   now,
		},
		{
			ID:          "g25f",
			Tag:         "gemini-2.5-flash",
			Name:        "Gemini 2.5 Flash",
			Description: "Best price-to-performance",
			CreatedAt:   now,
		},
		{
			ID:          "g25fl",
			Tag:         "gemini-2.5-flash-lite",
			Name:        "Gemini 2.5 Flash Lite",
			Description: "Ultra fast and low-cost",
			CreatedAt:   now,
		},
		{
			ID:          "g20f",
			Tag:         "gemini-2.0-flash",
			Name:        "Gemini 2.0 Flash",
			Description: "2nd gen, 1M token context window",
			CreatedAt:   now,
		},
		{
			ID:          "g20fl",
			Tag:         "gemini-2.0-flash-lite",
			Name:        "Gemini 2.0 Flash Lite",
			Description: "2nd gen small + powerful",
			CreatedAt:   now,
		},
	}
}
