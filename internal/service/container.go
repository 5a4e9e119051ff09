package service

import (
	"context"
	"errors"
	"fmt"

	"cargoport/internal/dto"
	"cargoport/internal/model"
	"cargoport/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ContainerService interface {
	Create(ctx context.Context, req dto.CreateContainerRequest) (*dto.ContainerResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateContainerRequest) (*dto.ContainerResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ContainerResponse, error)
	List(ctx context.Context, filter dto.ContainerFilter) (*dto.ContainerListResponse, error)
}

type containerService struct {
	containerRepo repository.ContainerRepository
	vehicleRepo   repository.VehicleRepository
	distributor   *SurchargeDistributor
	pricing       PricingService
}

func NewContainerService(
	containerRepo repository.ContainerRepository,
	vehicleRepo repository.VehicleRepository,
	distributor *SurchargeDistributor,
	pricing PricingService,
) ContainerService {
	return &containerService{
		containerRepo: containerRepo,
		vehicleRepo:   vehicleRepo,
		distributor:   distributor,
		pricing:       pricing,
	}
}

func (s *containerService) Create(ctx context.Context, req dto.CreateContainerRequest) (*dto.ContainerResponse, error) {
	c := &model.Container{
		Number: req.Number,
		Status: model.StatusFloating,
	}
	var warehouseID, lineID *uuid.UUID
	if err := assignID(&warehouseID, req.WarehouseID, "warehouse_id"); err != nil {
		return nil, err
	}
	if err := assignID(&lineID, req.LineID, "line_id"); err != nil {
		return nil, err
	}
	c.WarehouseID, c.LineID = warehouseID, lineID

	if err := s.containerRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create container: %w", err)
	}
	return containerToResponse(c), nil
}

// Update applies the changed fields, validates the unload configuration,
// propagates status and dates to the contained vehicles and reprices the
// whole container in one transaction.
func (s *containerService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateContainerRequest) (*dto.ContainerResponse, error) {
	c, err := s.containerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("container not found")
	}

	if req.Status != nil {
		c.Status = *req.Status
	}
	if req.UnloadDate != nil {
		t, err := parseDate(*req.UnloadDate)
		if err != nil {
			return nil, err
		}
		c.UnloadDate = &t
	}
	if err := assignID(&c.WarehouseID, req.WarehouseID, "warehouse_id"); err != nil {
		return nil, err
	}
	if err := assignID(&c.LineID, req.LineID, "line_id"); err != nil {
		return nil, err
	}
	if req.THSAmount != nil {
		c.THSAmount = req.THSAmount
	}
	if req.THSPayer != nil {
		c.THSPayer = req.THSPayer
	}

	// Unloading needs a place and a date before any storage billing can start.
	if c.Status == model.StatusUnloaded || c.Status == model.StatusTransferred {
		var missing []string
		if c.WarehouseID == nil {
			missing = append(missing, "warehouse_id")
		}
		if c.UnloadDate == nil {
			missing = append(missing, "unload_date")
		}
		if len(missing) > 0 {
			return nil, &ConfigurationError{Op: "unload container " + c.Number, Missing: missing}
		}
	}

	vehicles, err := s.vehicleRepo.ListByContainer(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	cache := s.pricing.NewBatchCache()
	txErr := runTx(ctx, s.containerRepo.DB(), func(tx *gorm.DB) error {
		if err := s.containerRepo.SaveTx(tx, c); err != nil {
			return err
		}
		for i := range vehicles {
			s.propagate(c, &vehicles[i])
		}
		if err := s.distributor.DistributeTx(ctx, tx, c, vehicles); err != nil {
			return fmt.Errorf("distribute surcharge: %w", err)
		}
		for i := range vehicles {
			if err := s.pricing.RecomputeVehicleTx(ctx, tx, &vehicles[i], cache); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	c.Vehicles = vehicles
	return containerToResponse(c), nil
}

// propagate pushes container-level state down to one vehicle. An already
// transferred vehicle keeps its terminal state; everything else follows the
// container.
func (s *containerService) propagate(c *model.Container, v *model.Vehicle) {
	if !v.Transferred() {
		v.Status = c.Status
	}
	if c.UnloadDate != nil {
		v.UnloadDate = c.UnloadDate
	}
	if c.WarehouseID != nil {
		v.WarehouseID = c.WarehouseID
	}
	if c.LineID != nil {
		v.LineID = c.LineID
	}
}

func (s *containerService) Get(ctx context.Context, id uuid.UUID) (*dto.ContainerResponse, error) {
	c, err := s.containerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("container not found")
	}
	return containerToResponse(c), nil
}

func (s *containerService) List(ctx context.Context, filter dto.ContainerFilter) (*dto.ContainerListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	containers, total, err := s.containerRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ContainerResponse, 0, len(containers))
	for i := range containers {
		items = append(items, *containerToResponse(&containers[i]))
	}
	return &dto.ContainerListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func containerToResponse(c *model.Container) *dto.ContainerResponse {
	return &dto.ContainerResponse{
		ID:          c.ID.String(),
		Number:      c.Number,
		Status:      c.Status,
		WarehouseID: uuidString(c.WarehouseID),
		LineID:      uuidString(c.LineID),
		THSAmount:   c.THSAmount,
		THSPayer:    c.THSPayer,
		UnloadDate:  dateString(c.UnloadDate),
		Vehicles:    len(c.Vehicles),
	}
}
