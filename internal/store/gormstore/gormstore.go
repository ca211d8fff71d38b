// Package gormstore is the SQL backend of the record store. Postgres in
// production, SQLite for local runs and tests.
package gormstore

import (
	"context"
	"errors"
	"time"

	recordDatamodel "github.com/opsportal/ops-portal/internal/core/datamodel/record"
	"github.com/opsportal/ops-portal/internal/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Backend struct {
	db  *gorm.DB
	now func() time.Time
}

func New(db *gorm.DB) *Backend {
	return &Backend{db: db, now: time.Now}
}

// AutoMigrate creates the records table. Postgres deployments use the goose
// migrations instead.
func (b *Backend) AutoMigrate() error {
	return b.db.AutoMigrate(&recordDatamodel.Record{})
}

func (b *Backend) Load(ctx context.Context, name string) ([]byte, error) {
	var rec recordDatamodel.Record
	err := b.db.WithContext(ctx).Where("collection = ?", name).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return []byte(rec.Payload), nil
}

func (b *Backend) Save(ctx context.Context, name string, payload []byte) error {
	rec := recordDatamodel.Record{
		Collection: name,
		Payload:    string(payload),
		UpdatedAt:  b.now().UTC(),
	}
	return b.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&rec).Error
}

func (b *Backend) Ping(ctx context.Context) error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (b *Backend) Close(context.Context) error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
