package model

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
	"gopkg.in/guregu/null.v3"
)

type TileConfig struct {
	bun.BaseModel `bun:"tile_configs,alias:tc"`

	TileID      string             `bun:",pk" json:"tileId"`
	WorkspaceID string             `bun:",notnull" json:"workspaceId"`
	TemplateID  null.String        `json:"templateId" swaggertype:"string"`
	Title       string             `bun:",notnull" json:"title"`
	Icon        null.String        `json:"icon" swaggertype:"string"`
	Color       null.String        `json:"color" swaggertype:"string"`
	Stats       []*StatDeclaration `bun:"type:jsonb,notnull" json:"stats"`
	Conditions  []*Condition       `bun:"type:jsonb" json:"conditions,omitempty"`
	Layout      json.RawMessage    `bun:"type:jsonb" json:"layout,omitempty" swaggertype:"object"`
	CreatedAt   time.Time          `bun:",nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt   time.Time          `bun:",nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

// DuplicateStatID returns the first stat id declared more than once, if any.
func (c *TileConfig) DuplicateStatID() (string, bool) {
	seen := make(map[string]struct{}, len(c.Stats))
	for _, s := range c.Stats {
		if s == nil {
			continue
		}
		if _, ok := seen[s.StatID]; ok {
			return s.StatID, true
		}
		seen[s.StatID] = struct{}{}
	}
	return "", false
}
