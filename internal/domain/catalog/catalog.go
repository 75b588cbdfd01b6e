package catalog

import (
	"fmt"

	domainErrors "github.com/finadigital/wifipass/internal/domain/errors"
)

// Pass is a purchasable WiFi access tier. Immutable after load; the icon and
// color tokens are presentational hints for the page.
type Pass struct {
	ID        string `json:"id" mapstructure:"id"`
	Price     int64  `json:"price" mapstructure:"price"`
	Label     string `json:"label" mapstructure:"label"`
	Duration  string `json:"duration" mapstructure:"duration"`
	DataLimit string `json:"data_limit" mapstructure:"data_limit"`
	Icon      string `json:"icon" mapstructure:"icon"`
	Color     string `json:"color" mapstructure:"color"`
}

// Catalog is the ordered set of passes on sale. Built once at startup.
type Catalog struct {
	passes []Pass
	byID   map[string]Pass
}

// New builds a catalog, rejecting malformed entries and duplicate ids.
func New(passes []Pass) (*Catalog, error) {
	if len(passes) == 0 {
		return nil, fmt.Errorf("catalog must contain at least one pass")
	}

	byID := make(map[string]Pass, len(passes))
	for _, p := range passes {
		if p.ID == "" {
			return nil, fmt.Errorf("pass with empty id")
		}
		if p.Price <= 0 {
			return nil, fmt.Errorf("pass %s: price must be positive, got %d", p.ID, p.Price)
		}
		if p.Label == "" {
			return nil, fmt.Errorf("pass %s: label is required", p.ID)
		}
		if _, dup := byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate pass id %s", p.ID)
		}
		byID[p.ID] = p
	}

	out := make([]Pass, len(passes))
	copy(out, passes)
	return &Catalog{passes: out, byID: byID}, nil
}

// List returns the passes in catalog order.
func (c *Catalog) List() []Pass {
	out := make([]Pass, len(c.passes))
	copy(out, c.passes)
	return out
}

// Get returns the pass with the given id.
func (c *Catalog) Get(id string) (Pass, error) {
	p, ok := c.byID[id]
	if !ok {
		return Pass{}, domainErrors.ErrPassNotFound
	}
	return p, nil
}

// Placeholder returns the pass used for display in manual-retrieval mode,
// where no purchase backs the view.
func (c *Catalog) Placeholder() Pass {
	return c.passes[0]
}

// DefaultPasses is the tier list sold at the hotspot.
func DefaultPasses() []Pass {
	return []Pass{
		{ID: "pass-100", Price: 100, Label: "Basic Pass", Duration: "3 Heures", DataLimit: "Illimité", Icon: "fa-bolt", Color: "bg-blue-500"},
		{ID: "pass-150", Price: 150, Label: "Social Pass", Duration: "8 Heures", DataLimit: "Illimité", Icon: "fa-users", Color: "bg-indigo-500"},
		{ID: "pass-200", Price: 200, Label: "Standard Pass", Duration: "12 Heures", DataLimit: "Illimité", Icon: "fa-wifi", Color: "bg-purple-500"},
		{ID: "pass-300", Price: 300, Label: "Streamer Pass", Duration: "24 Heures", DataLimit: "Illimité", Icon: "fa-play", Color: "bg-pink-500"},
		{ID: "pass-500", Price: 500, Label: "Unlimited Day", Duration: "48 Heures", DataLimit: "Illimité", Icon: "fa-crown", Color: "bg-amber-500"},
	}
}
