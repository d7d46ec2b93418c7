package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type scope = func(*gorm.DB) *gorm.DB

func listAll[T any](ctx context.Context, db *gorm.DB, collection string, scopes ...scope) ([]T, error) {
	var out []T
	if err := db.WithContext(ctx).Scopes(scopes...).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, persistErr("list", collection, err)
	}
	return out, nil
}

func getByID[T any](ctx context.Context, db *gorm.DB, collection string, id uuid.UUID, scopes ...scope) (*T, error) {
	var row T
	if err := db.WithContext(ctx).Scopes(scopes...).First(&row, "id = ?", id).Error; err != nil {
		return nil, persistErr("get", collection, err)
	}
	return &row, nil
}

// updateColumns writes only cols of row, matched on its primary key.
func updateColumns[T any](ctx context.Context, db *gorm.DB, collection string, row *T, cols []string) error {
	if len(cols) == 0 {
		return nil
	}
	res := db.WithContext(ctx).Model(row).Select(cols).Omit(clause.Associations).Updates(row)
	if res.Error != nil {
		return persistErr("update", collection, res.Error)
	}
	if res.RowsAffected == 0 {
		return persistErr("update", collection, ErrNotFound)
	}
	return nil
}

func deleteByID[T any](ctx context.Context, db *gorm.DB, collection string, id uuid.UUID) error {
	res := db.WithContext(ctx).Delete(new(T), "id = ?", id)
	if res.Error != nil {
		return persistErr("delete", collection, res.Error)
	}
	if res.RowsAffected == 0 {
		return persistErr("delete", collection, ErrNotFound)
	}
	return nil
}

func exists[T any](ctx context.Context, db *gorm.DB, id uuid.UUID) (bool, error) {
	var n int64
	if err := db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func set[V any](cols []string, name string, dst *V, src *V) []string {
	if src == nil {
		return cols
	}
	*dst = *src
	return append(cols, name)
}
