package types

import (
	"encoding/json"

	"gopkg.in/guregu/null.v3"

	"github.com/hera-erp/tilestats/internal/model"
)

type UpsertTileConfigRequest struct {
	WorkspaceID string                   `json:"workspaceId" validate:"required,max=128"`
	TemplateID  null.String              `json:"templateId" swaggertype:"string"`
	Title       string                   `json:"title" validate:"required,max=256"`
	Icon        null.String              `json:"icon" swaggertype:"string"`
	Color       null.String              `json:"color" swaggertype:"string"`
	Stats       []*model.StatDeclaration `json:"stats" validate:"required,min=1,dive,required"`
	Conditions  []*model.Condition       `json:"conditions" validate:"dive"`
	Layout      json.RawMessage          `json:"layout" swaggertype:"object"`
}

func (r *UpsertTileConfigRequest) ToModel(tileID string) *model.TileConfig {
	return &model.TileConfig{
		TileID:      tileID,
		WorkspaceID: r.WorkspaceID,
		TemplateID:  r.TemplateID,
		Title:       r.Title,
		Icon:        r.Icon,
		Color:       r.Color,
		Stats:       r.Stats,
		Conditions:  r.Conditions,
		Layout:      r.Layout,
	}
}

type PurgeStatsCacheRequest struct {
	// TileID limits the purge to one tile. Empty purges every cached result.
	TileID string `json:"tileId" validate:"omitempty,max=128"`
}
