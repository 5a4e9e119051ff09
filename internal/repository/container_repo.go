package repository

import (
	"context"

	"cargoport/internal/dto"
	"cargoport/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ContainerRepository interface {
	Create(ctx context.Context, c *model.Container) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Container, error)
	List(ctx context.Context, filter dto.ContainerFilter) ([]model.Container, int64, error)
	SaveTx(tx *gorm.DB, c *model.Container) error
	DB() *gorm.DB
}

type containerRepo struct{ db *gorm.DB }

func NewContainerRepository(db *gorm.DB) ContainerRepository { return &containerRepo{db: db} }

func (r *containerRepo) DB() *gorm.DB { return r.db }

func (r *containerRepo) Create(ctx context.Context, c *model.Container) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *containerRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Container, error) {
	var c model.Container
	err := r.db.WithContext(ctx).
		Preload("Vehicles").Preload("Warehouse").Preload("Line").
		First(&c, id).Error
	return &c, err
}

func (r *containerRepo) List(ctx context.Context, filter dto.ContainerFilter) ([]model.Container, int64, error) {
	var containers []model.Container
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Container{})
	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("created_at DESC").Offset(offset).Limit(filter.Limit).Find(&containers).Error
	return containers, total, err
}

func (r *containerRepo) SaveTx(tx *gorm.DB, c *model.Container) error {
	// Omit associations — vehicles are saved through their own repository.
	return tx.Omit("Vehicles", "Warehouse", "Line").Save(c).Error
}
