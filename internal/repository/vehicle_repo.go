package repository

import (
	"context"

	"cargoport/internal/dto"
	"cargoport/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VehicleRepository interface {
	// CreateTx inserts the vehicle inside the caller's transaction, so the row
	// commits together with its auto-added services and computed prices.
	CreateTx(tx *gorm.DB, v *model.Vehicle) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Vehicle, error)
	FindByVIN(ctx context.Context, vin string) (*model.Vehicle, error)
	List(ctx context.Context, filter dto.VehicleFilter) ([]model.Vehicle, int64, error)
	ListByContainer(ctx context.Context, containerID uuid.UUID) ([]model.Vehicle, error)
	SaveTx(tx *gorm.DB, v *model.Vehicle) error
	Delete(ctx context.Context, id uuid.UUID) error
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type vehicleRepo struct{ db *gorm.DB }

func NewVehicleRepository(db *gorm.DB) VehicleRepository { return &vehicleRepo{db: db} }

func (r *vehicleRepo) DB() *gorm.DB { return r.db }

func (r *vehicleRepo) CreateTx(tx *gorm.DB, v *model.Vehicle) error {
	return tx.Create(v).Error
}

func (r *vehicleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Vehicle, error) {
	var v model.Vehicle
	err := r.db.WithContext(ctx).
		Preload("Warehouse").Preload("Container").
		First(&v, id).Error
	return &v, err
}

func (r *vehicleRepo) FindByVIN(ctx context.Context, vin string) (*model.Vehicle, error) {
	var v model.Vehicle
	err := r.db.WithContext(ctx).Where("vin = ?", vin).First(&v).Error
	return &v, err
}

func (r *vehicleRepo) List(ctx context.Context, filter dto.VehicleFilter) ([]model.Vehicle, int64, error) {
	var vehicles []model.Vehicle
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Vehicle{})
	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.ContainerID != "" {
		q = q.Where("container_id = ?", filter.ContainerID)
	}
	if filter.ClientID != "" {
		q = q.Where("client_id = ?", filter.ClientID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("created_at DESC").Offset(offset).Limit(filter.Limit).Find(&vehicles).Error
	return vehicles, total, err
}

func (r *vehicleRepo) ListByContainer(ctx context.Context, containerID uuid.UUID) ([]model.Vehicle, error) {
	var vehicles []model.Vehicle
	err := r.db.WithContext(ctx).Where("container_id = ?", containerID).Order("vin ASC").Find(&vehicles).Error
	return vehicles, err
}

func (r *vehicleRepo) SaveTx(tx *gorm.DB, v *model.Vehicle) error {
	return tx.Save(v).Error
}

func (r *vehicleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Vehicle{}, id).Error
}
