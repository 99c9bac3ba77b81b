package repo

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/hera-erp/tilestats/internal/model"
	"github.com/hera-erp/tilestats/internal/repo/selector"
)

type TileConfig struct {
	db  *bun.DB
	sel selector.S[model.TileConfig]
}

func NewTileConfig(db *bun.DB) *TileConfig {
	return &TileConfig{db: db, sel: selector.New[model.TileConfig](db)}
}

func (r *TileConfig) GetTileConfigByID(ctx context.Context, tileID string) (*model.TileConfig, error) {
	return r.sel.SelectOne(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("tile_id = ?", tileID)
	})
}

func (r *TileConfig) GetTileConfigs(ctx context.Context) ([]*model.TileConfig, error) {
	return r.sel.SelectMany(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Order("tile_id ASC")
	})
}

func (r *TileConfig) UpsertTileConfig(ctx context.Context, tileConfig *model.TileConfig) error {
	tileConfig.UpdatedAt = time.Now()
	_, err := r.db.NewInsert().
		Model(tileConfig).
		On("CONFLICT (tile_id) DO UPDATE").
		Set("workspace_id = EXCLUDED.workspace_id").
		Set("template_id = EXCLUDED.template_id").
		Set("title = EXCLUDED.title").
		Set("icon = EXCLUDED.icon").
		Set("color = EXCLUDED.color").
		Set("stats = EXCLUDED.stats").
		Set("conditions = EXCLUDED.conditions").
		Set("layout = EXCLUDED.layout").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("created_at").
		Exec(ctx)
	return err
}

func (r *TileConfig) CreateTable(ctx context.Context) error {
	_, err := r.db.NewCreateTable().
		Model((*model.TileConfig)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}
