package repository

import (
	"context"

	"cargoport/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AssignmentRepository interface {
	// UpsertTx writes an assignment keyed by (vehicle, catalog entry):
	// re-assigning the same catalog entry updates, never duplicates. The entry
	// pins its provider, so the key also fixes the provider kind.
	UpsertTx(tx *gorm.DB, s *model.ServiceAssignment) error
	ListByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]model.ServiceAssignment, error)
	ListByVehicleTx(tx *gorm.DB, vehicleID uuid.UUID) ([]model.ServiceAssignment, error)
	ListByVehicles(ctx context.Context, vehicleIDs []uuid.UUID) ([]model.ServiceAssignment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.ServiceAssignment, error)
	DeleteTx(tx *gorm.DB, id uuid.UUID) error
	// DeleteBySourceTx removes all assignments with the given source for the
	// given vehicles — the distributor's full-replace step.
	DeleteBySourceTx(tx *gorm.DB, vehicleIDs []uuid.UUID, source string) error
	DeleteByVehicleTx(tx *gorm.DB, vehicleID uuid.UUID) error

	// ContainerIDsByEntry lists the distinct containers holding vehicles that
	// are assigned the given catalog entry — the repricing blast radius of a
	// catalog change.
	ContainerIDsByEntry(ctx context.Context, entryID uuid.UUID) ([]uuid.UUID, error)

	CreateMarkerTx(tx *gorm.DB, m *model.DeletedServiceMarker) error
	HasMarker(ctx context.Context, vehicleID uuid.UUID, provider model.ProviderRef, entryID uuid.UUID) (bool, error)
	DB() *gorm.DB
}

type assignmentRepo struct{ db *gorm.DB }

func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

func (r *assignmentRepo) DB() *gorm.DB { return r.db }

func (r *assignmentRepo) UpsertTx(tx *gorm.DB, s *model.ServiceAssignment) error {
	// Conflict target must match the idx_vehicle_entry unique index exactly.
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "vehicle_id"}, {Name: "catalog_entry_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"custom_price", "quantity", "markup", "source", "updated_at",
		}),
	}).Create(s).Error
}

func (r *assignmentRepo) ListByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]model.ServiceAssignment, error) {
	var services []model.ServiceAssignment
	err := r.db.WithContext(ctx).
		Preload("CatalogEntry").
		Where("vehicle_id = ?", vehicleID).
		Order("created_at ASC").Find(&services).Error
	return services, err
}

func (r *assignmentRepo) ListByVehicleTx(tx *gorm.DB, vehicleID uuid.UUID) ([]model.ServiceAssignment, error) {
	var services []model.ServiceAssignment
	err := tx.Where("vehicle_id = ?", vehicleID).Order("created_at ASC").Find(&services).Error
	return services, err
}

func (r *assignmentRepo) ListByVehicles(ctx context.Context, vehicleIDs []uuid.UUID) ([]model.ServiceAssignment, error) {
	if len(vehicleIDs) == 0 {
		return nil, nil
	}
	var services []model.ServiceAssignment
	err := r.db.WithContext(ctx).
		Where("vehicle_id IN ?", vehicleIDs).
		Order("created_at ASC").Find(&services).Error
	return services, err
}

func (r *assignmentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ServiceAssignment, error) {
	var s model.ServiceAssignment
	err := r.db.WithContext(ctx).First(&s, id).Error
	return &s, err
}

func (r *assignmentRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&model.ServiceAssignment{}, id).Error
}

func (r *assignmentRepo) DeleteBySourceTx(tx *gorm.DB, vehicleIDs []uuid.UUID, source string) error {
	if len(vehicleIDs) == 0 {
		return nil
	}
	return tx.Where("vehicle_id IN ? AND source = ?", vehicleIDs, source).
		Delete(&model.ServiceAssignment{}).Error
}

func (r *assignmentRepo) DeleteByVehicleTx(tx *gorm.DB, vehicleID uuid.UUID) error {
	return tx.Where("vehicle_id = ?", vehicleID).Delete(&model.ServiceAssignment{}).Error
}

func (r *assignmentRepo) ContainerIDsByEntry(ctx context.Context, entryID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.ServiceAssignment{}).
		Joins("JOIN vehicles ON vehicles.id = service_assignments.vehicle_id").
		Where("service_assignments.catalog_entry_id = ? AND vehicles.container_id IS NOT NULL", entryID).
		Distinct().
		Pluck("vehicles.container_id", &ids).Error
	return ids, err
}

func (r *assignmentRepo) CreateMarkerTx(tx *gorm.DB, m *model.DeletedServiceMarker) error {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(m).Error
}

func (r *assignmentRepo) HasMarker(ctx context.Context, vehicleID uuid.UUID, provider model.ProviderRef, entryID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.DeletedServiceMarker{}).
		Where("vehicle_id = ? AND provider_kind = ? AND catalog_entry_id = ?", vehicleID, provider.Kind, entryID).
		Count(&count).Error
	return count > 0, err
}
