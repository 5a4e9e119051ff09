package repository

import (
	"context"

	"cargoport/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CatalogRepository interface {
	Create(ctx context.Context, e *model.CatalogEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CatalogEntry, error)
	FindByCode(ctx context.Context, provider model.ProviderRef, code string) (*model.CatalogEntry, error)
	ListByProvider(ctx context.Context, provider model.ProviderRef, activeOnly bool) ([]model.CatalogEntry, error)
	ListAutoAdd(ctx context.Context, provider model.ProviderRef) ([]model.CatalogEntry, error)
	Save(ctx context.Context, e *model.CatalogEntry) error
	Delete(ctx context.Context, id uuid.UUID) error
	CreateTx(tx *gorm.DB, e *model.CatalogEntry) error
	DB() *gorm.DB
}

type catalogRepo struct{ db *gorm.DB }

func NewCatalogRepository(db *gorm.DB) CatalogRepository { return &catalogRepo{db: db} }

func (r *catalogRepo) DB() *gorm.DB { return r.db }

func (r *catalogRepo) Create(ctx context.Context, e *model.CatalogEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *catalogRepo) CreateTx(tx *gorm.DB, e *model.CatalogEntry) error {
	return tx.Create(e).Error
}

func (r *catalogRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CatalogEntry, error) {
	var e model.CatalogEntry
	err := r.db.WithContext(ctx).First(&e, id).Error
	return &e, err
}

func (r *catalogRepo) FindByCode(ctx context.Context, provider model.ProviderRef, code string) (*model.CatalogEntry, error) {
	var e model.CatalogEntry
	err := r.db.WithContext(ctx).
		Where("provider_kind = ? AND provider_id = ? AND code = ?", provider.Kind, provider.ID, code).
		First(&e).Error
	return &e, err
}

func (r *catalogRepo) ListByProvider(ctx context.Context, provider model.ProviderRef, activeOnly bool) ([]model.CatalogEntry, error) {
	var entries []model.CatalogEntry
	q := r.db.WithContext(ctx).
		Where("provider_kind = ? AND provider_id = ?", provider.Kind, provider.ID)
	if activeOnly {
		q = q.Where("active = true")
	}
	err := q.Order("name ASC").Find(&entries).Error
	return entries, err
}

func (r *catalogRepo) ListAutoAdd(ctx context.Context, provider model.ProviderRef) ([]model.CatalogEntry, error) {
	var entries []model.CatalogEntry
	err := r.db.WithContext(ctx).
		Where("provider_kind = ? AND provider_id = ? AND active = true AND auto_add = true", provider.Kind, provider.ID).
		Find(&entries).Error
	return entries, err
}

func (r *catalogRepo) Save(ctx context.Context, e *model.CatalogEntry) error {
	return r.db.WithContext(ctx).Save(e).Error
}

func (r *catalogRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.CatalogEntry{}, id).Error
}
