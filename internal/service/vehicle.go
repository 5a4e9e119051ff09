package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cargoport/internal/dto"
	"cargoport/internal/model"
	"cargoport/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type VehicleService interface {
	Create(ctx context.Context, req dto.CreateVehicleRequest) (*dto.VehicleResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateVehicleRequest) (*dto.VehicleResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.VehicleResponse, error)
	List(ctx context.Context, filter dto.VehicleFilter) (*dto.VehicleListResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error

	AssignService(ctx context.Context, vehicleID uuid.UUID, req dto.AssignServiceRequest) error
	// RemoveService deletes one assignment and records a marker so auto-add
	// never silently re-inserts the same catalog entry.
	RemoveService(ctx context.Context, vehicleID, assignmentID uuid.UUID) error
	ListServices(ctx context.Context, vehicleID uuid.UUID) ([]dto.VehicleServiceResponse, error)
}

type vehicleService struct {
	vehicleRepo    repository.VehicleRepository
	containerRepo  repository.ContainerRepository
	assignmentRepo repository.AssignmentRepository
	catalogRepo    repository.CatalogRepository
	pricing        PricingService
}

func NewVehicleService(
	vehicleRepo repository.VehicleRepository,
	containerRepo repository.ContainerRepository,
	assignmentRepo repository.AssignmentRepository,
	catalogRepo repository.CatalogRepository,
	pricing PricingService,
) VehicleService {
	return &vehicleService{
		vehicleRepo:    vehicleRepo,
		containerRepo:  containerRepo,
		assignmentRepo: assignmentRepo,
		catalogRepo:    catalogRepo,
		pricing:        pricing,
	}
}

// ── CRUD ──────────────────────────────────────────────────────────────────────

func (s *vehicleService) Create(ctx context.Context, req dto.CreateVehicleRequest) (*dto.VehicleResponse, error) {
	if _, err := s.vehicleRepo.FindByVIN(ctx, req.VIN); err == nil {
		return nil, fmt.Errorf("a vehicle with VIN %s already exists", req.VIN)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	containerID, err := uuid.Parse(req.ContainerID)
	if err != nil {
		return nil, fmt.Errorf("invalid container_id: %w", err)
	}
	container, err := s.containerRepo.FindByID(ctx, containerID)
	if err != nil {
		return nil, errors.New("container not found")
	}

	v := &model.Vehicle{
		VIN:         req.VIN,
		Year:        req.Year,
		Brand:       req.Brand,
		VehicleType: req.VehicleType,
		ContainerID: &container.ID,
		// A vehicle joining a container inherits its position in the lifecycle.
		Status:      container.Status,
		UnloadDate:  container.UnloadDate,
		WarehouseID: container.WarehouseID,
		LineID:      container.LineID,
	}
	if req.ClientID != nil {
		id, err := uuid.Parse(*req.ClientID)
		if err != nil {
			return nil, fmt.Errorf("invalid client_id: %w", err)
		}
		v.ClientID = &id
	}

	cache := s.pricing.NewBatchCache()
	txErr := runTx(ctx, s.vehicleRepo.DB(), func(tx *gorm.DB) error {
		if err := s.vehicleRepo.CreateTx(tx, v); err != nil {
			return err
		}
		if err := s.autoAddTx(ctx, tx, v, providerRefs(v, nil)); err != nil {
			return err
		}
		return s.pricing.RecomputeVehicleTx(ctx, tx, v, cache)
	})
	if txErr != nil {
		return nil, txErr
	}
	return vehicleToResponse(v), nil
}

func (s *vehicleService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateVehicleRequest) (*dto.VehicleResponse, error) {
	v, err := s.vehicleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("vehicle not found")
	}
	before := *v

	if req.Status != nil {
		v.Status = *req.Status
	}
	if req.UnloadDate != nil {
		t, err := parseDate(*req.UnloadDate)
		if err != nil {
			return nil, err
		}
		v.UnloadDate = &t
	}
	if req.TransferDate != nil {
		t, err := parseDate(*req.TransferDate)
		if err != nil {
			return nil, err
		}
		v.TransferDate = &t
	}
	if err := assignID(&v.WarehouseID, req.WarehouseID, "warehouse_id"); err != nil {
		return nil, err
	}
	if err := assignID(&v.LineID, req.LineID, "line_id"); err != nil {
		return nil, err
	}
	if err := assignID(&v.CarrierID, req.CarrierID, "carrier_id"); err != nil {
		return nil, err
	}
	if err := assignID(&v.ClientID, req.ClientID, "client_id"); err != nil {
		return nil, err
	}

	cache := s.pricing.NewBatchCache()
	txErr := runTx(ctx, s.vehicleRepo.DB(), func(tx *gorm.DB) error {
		if err := s.autoAddTx(ctx, tx, v, providerRefs(v, &before)); err != nil {
			return err
		}
		return s.pricing.RecomputeVehicleTx(ctx, tx, v, cache)
	})
	if txErr != nil {
		return nil, txErr
	}
	return vehicleToResponse(v), nil
}

func (s *vehicleService) Get(ctx context.Context, id uuid.UUID) (*dto.VehicleResponse, error) {
	v, err := s.vehicleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("vehicle not found")
	}
	return vehicleToResponse(v), nil
}

func (s *vehicleService) List(ctx context.Context, filter dto.VehicleFilter) (*dto.VehicleListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	vehicles, total, err := s.vehicleRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.VehicleResponse, 0, len(vehicles))
	for i := range vehicles {
		items = append(items, *vehicleToResponse(&vehicles[i]))
	}
	return &dto.VehicleListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *vehicleService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.vehicleRepo.FindByID(ctx, id); err != nil {
		return errors.New("vehicle not found")
	}
	return runTx(ctx, s.vehicleRepo.DB(), func(tx *gorm.DB) error {
		if err := s.assignmentRepo.DeleteByVehicleTx(tx, id); err != nil {
			return err
		}
		return tx.Delete(&model.Vehicle{}, id).Error
	})
}

// ── Service assignments ───────────────────────────────────────────────────────

func (s *vehicleService) AssignService(ctx context.Context, vehicleID uuid.UUID, req dto.AssignServiceRequest) error {
	v, err := s.vehicleRepo.FindByID(ctx, vehicleID)
	if err != nil {
		return errors.New("vehicle not found")
	}
	entryID, err := uuid.Parse(req.CatalogEntryID)
	if err != nil {
		return fmt.Errorf("invalid catalog_entry_id: %w", err)
	}
	entry, err := s.catalogRepo.FindByID(ctx, entryID)
	if err != nil {
		return errors.New("catalog entry not found")
	}
	if !entry.Active {
		return errors.New("catalog entry is inactive")
	}

	assignment := &model.ServiceAssignment{
		VehicleID:      v.ID,
		Provider:       entry.Provider,
		CatalogEntryID: entry.ID,
		CustomPrice:    req.CustomPrice,
		Quantity:       req.Quantity,
		Markup:         req.Markup,
		Source:         model.SourceManual,
	}

	cache := s.pricing.NewBatchCache()
	return runTx(ctx, s.vehicleRepo.DB(), func(tx *gorm.DB) error {
		if err := s.assignmentRepo.UpsertTx(tx, assignment); err != nil {
			return err
		}
		return s.pricing.RecomputeVehicleTx(ctx, tx, v, cache)
	})
}

func (s *vehicleService) RemoveService(ctx context.Context, vehicleID, assignmentID uuid.UUID) error {
	v, err := s.vehicleRepo.FindByID(ctx, vehicleID)
	if err != nil {
		return errors.New("vehicle not found")
	}
	assignment, err := s.assignmentRepo.FindByID(ctx, assignmentID)
	if err != nil || assignment.VehicleID != vehicleID {
		return errors.New("service assignment not found")
	}

	cache := s.pricing.NewBatchCache()
	return runTx(ctx, s.vehicleRepo.DB(), func(tx *gorm.DB) error {
		if err := s.assignmentRepo.DeleteTx(tx, assignment.ID); err != nil {
			return err
		}
		marker := &model.DeletedServiceMarker{
			VehicleID:      vehicleID,
			Provider:       assignment.Provider,
			CatalogEntryID: assignment.CatalogEntryID,
		}
		if err := s.assignmentRepo.CreateMarkerTx(tx, marker); err != nil {
			return err
		}
		return s.pricing.RecomputeVehicleTx(ctx, tx, v, cache)
	})
}

func (s *vehicleService) ListServices(ctx context.Context, vehicleID uuid.UUID) ([]dto.VehicleServiceResponse, error) {
	assignments, err := s.assignmentRepo.ListByVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	items := make([]dto.VehicleServiceResponse, 0, len(assignments))
	for i := range assignments {
		a := &assignments[i]
		name := ""
		defaultPrice := decimal.Zero
		if a.CatalogEntry != nil {
			name = a.CatalogEntry.Name
			defaultPrice = a.CatalogEntry.DefaultPrice
		}
		items = append(items, dto.VehicleServiceResponse{
			ID:             a.ID.String(),
			CatalogEntryID: a.CatalogEntryID.String(),
			ProviderKind:   string(a.Provider.Kind),
			ProviderID:     a.Provider.ID.String(),
			Name:           name,
			CustomPrice:    a.CustomPrice,
			Quantity:       a.Quantity,
			Markup:         a.Markup,
			FinalPrice:     a.FinalPrice(defaultPrice),
			Source:         a.Source,
		})
	}
	return items, nil
}

// autoAddTx inserts the auto-add catalog entries of every newly linked
// provider. Existing assignments are left untouched and explicitly removed
// entries stay removed.
func (s *vehicleService) autoAddTx(ctx context.Context, tx *gorm.DB, v *model.Vehicle, providers []model.ProviderRef) error {
	if len(providers) == 0 {
		return nil
	}

	existing, err := s.assignmentRepo.ListByVehicleTx(tx, v.ID)
	if err != nil {
		return err
	}
	assigned := make(map[uuid.UUID]bool, len(existing))
	for _, a := range existing {
		assigned[a.CatalogEntryID] = true
	}

	for _, provider := range providers {
		entries, err := s.catalogRepo.ListAutoAdd(ctx, provider)
		if err != nil {
			return err
		}
		for i := range entries {
			entry := &entries[i]
			if assigned[entry.ID] {
				continue
			}
			removed, err := s.assignmentRepo.HasMarker(ctx, v.ID, provider, entry.ID)
			if err != nil {
				return err
			}
			if removed {
				continue
			}
			assignment := &model.ServiceAssignment{
				VehicleID:      v.ID,
				Provider:       provider,
				CatalogEntryID: entry.ID,
				Quantity:       1,
				Markup:         entry.DefaultMarkup,
				Source:         model.SourceAuto,
			}
			if err := s.assignmentRepo.UpsertTx(tx, assignment); err != nil {
				return err
			}
			assigned[entry.ID] = true
		}
	}
	return nil
}

// providerRefs lists the vehicle's provider links that are new relative to
// before (all of them when before is nil).
func providerRefs(v *model.Vehicle, before *model.Vehicle) []model.ProviderRef {
	var refs []model.ProviderRef
	add := func(kind model.CounterpartyKind, now, prev *uuid.UUID) {
		if now == nil {
			return
		}
		if before != nil && prev != nil && *prev == *now {
			return
		}
		refs = append(refs, model.ProviderRef{Kind: kind, ID: *now})
	}
	var prevW, prevL, prevC *uuid.UUID
	if before != nil {
		prevW, prevL, prevC = before.WarehouseID, before.LineID, before.CarrierID
	}
	add(model.KindWarehouse, v.WarehouseID, prevW)
	add(model.KindLine, v.LineID, prevL)
	add(model.KindCarrier, v.CarrierID, prevC)
	return refs
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

func assignID(dst **uuid.UUID, raw *string, field string) error {
	if raw == nil {
		return nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", field, err)
	}
	*dst = &id
	return nil
}

func vehicleToResponse(v *model.Vehicle) *dto.VehicleResponse {
	resp := &dto.VehicleResponse{
		ID:             v.ID.String(),
		VIN:            v.VIN,
		Year:           v.Year,
		Brand:          v.Brand,
		VehicleType:    v.VehicleType,
		Status:         v.Status,
		ChargeableDays: v.ChargeableDays,
		StorageCost:    v.StorageCost,
		CurrentPrice:   v.CurrentPrice,
		FinalPrice:     v.FinalPrice,
	}
	resp.ContainerID = uuidString(v.ContainerID)
	resp.WarehouseID = uuidString(v.WarehouseID)
	resp.LineID = uuidString(v.LineID)
	resp.CarrierID = uuidString(v.CarrierID)
	resp.ClientID = uuidString(v.ClientID)
	resp.UnloadDate = dateString(v.UnloadDate)
	resp.TransferDate = dateString(v.TransferDate)
	return resp
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func dateString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}
