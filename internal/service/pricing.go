package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cargoport/internal/model"
	"cargoport/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PricingService is the single recompute entry point. Every mutating
// operation that can affect prices calls it directly — no implicit event
// dispatch, no listener suppression. Running it twice with unchanged inputs
// yields identical state.
type PricingService interface {
	// Recompute reprices one vehicle in its own transaction.
	Recompute(ctx context.Context, vehicleID uuid.UUID) error
	// RecomputeContainer re-runs the surcharge distribution and reprices
	// every contained vehicle in one consolidated transaction.
	RecomputeContainer(ctx context.Context, containerID uuid.UUID) error
	// RecomputeVehicleTx reprices one vehicle inside the caller's
	// transaction — used by mutations that must stay atomic with their save.
	RecomputeVehicleTx(ctx context.Context, tx *gorm.DB, v *model.Vehicle, cache *CatalogCache) error

	NewBatchCache() *CatalogCache
}

type pricingService struct {
	vehicleRepo    repository.VehicleRepository
	containerRepo  repository.ContainerRepository
	assignmentRepo repository.AssignmentRepository
	catalogRepo    repository.CatalogRepository
	counterparties repository.CounterpartyRepository
	distributor    *SurchargeDistributor
	rdb            *redis.Client
	now            func() time.Time
}

func NewPricingService(
	vehicleRepo repository.VehicleRepository,
	containerRepo repository.ContainerRepository,
	assignmentRepo repository.AssignmentRepository,
	catalogRepo repository.CatalogRepository,
	counterparties repository.CounterpartyRepository,
	distributor *SurchargeDistributor,
	rdb *redis.Client,
) PricingService {
	return &pricingService{
		vehicleRepo:    vehicleRepo,
		containerRepo:  containerRepo,
		assignmentRepo: assignmentRepo,
		catalogRepo:    catalogRepo,
		counterparties: counterparties,
		distributor:    distributor,
		rdb:            rdb,
		now:            time.Now,
	}
}

func (s *pricingService) NewBatchCache() *CatalogCache {
	return NewCatalogCache(s.catalogRepo, s.rdb)
}

func (s *pricingService) Recompute(ctx context.Context, vehicleID uuid.UUID) error {
	v, err := s.vehicleRepo.FindByID(ctx, vehicleID)
	if err != nil {
		return &RecomputeError{Entity: "vehicle", ID: vehicleID.String(), Err: err}
	}
	cache := s.NewBatchCache()
	txErr := runTx(ctx, s.vehicleRepo.DB(), func(tx *gorm.DB) error {
		return s.RecomputeVehicleTx(ctx, tx, v, cache)
	})
	if txErr != nil {
		return &RecomputeError{Entity: "vehicle", ID: vehicleID.String(), Err: txErr}
	}
	return nil
}

func (s *pricingService) RecomputeContainer(ctx context.Context, containerID uuid.UUID) error {
	container, err := s.containerRepo.FindByID(ctx, containerID)
	if err != nil {
		return &RecomputeError{Entity: "container", ID: containerID.String(), Err: err}
	}
	vehicles, err := s.vehicleRepo.ListByContainer(ctx, containerID)
	if err != nil {
		return &RecomputeError{Entity: "container", ID: containerID.String(), Err: err}
	}

	// One consolidated pass: distribution first, then every vehicle repriced
	// once, all inside a single transaction.
	cache := s.NewBatchCache()
	txErr := runTx(ctx, s.containerRepo.DB(), func(tx *gorm.DB) error {
		if err := s.distributor.DistributeTx(ctx, tx, container, vehicles); err != nil {
			return fmt.Errorf("distribute surcharge: %w", err)
		}
		for i := range vehicles {
			if err := s.RecomputeVehicleTx(ctx, tx, &vehicles[i], cache); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return &RecomputeError{Entity: "container", ID: containerID.String(), Err: txErr}
	}
	return nil
}

// RecomputeVehicleTx normalizes the transfer invariant, refreshes storage
// figures, rolls assignments up into the price totals, and saves. Storage
// cost is a separate rollup term — never materialized as an assignment, so
// it cannot be double counted.
func (s *pricingService) RecomputeVehicleTx(ctx context.Context, tx *gorm.DB, v *model.Vehicle, cache *CatalogCache) error {
	if cache == nil {
		cache = s.NewBatchCache()
	}
	now := s.now()
	v.NormalizeTransfer(now)

	warehouse, err := s.vehicleWarehouse(ctx, v)
	if err != nil {
		return err
	}
	usage := CalcStorage(warehouse, v.UnloadDate, v.TransferDate, v.Transferred(), now)
	v.ChargeableDays = usage.ChargeableDays
	v.StorageCost = usage.Cost

	assignments, err := s.assignmentRepo.ListByVehicleTx(tx, v.ID)
	if err != nil {
		return err
	}

	finalTotal := decimal.Zero
	markupTotal := decimal.Zero
	for _, a := range assignments {
		entry, err := cache.Entry(ctx, a.CatalogEntryID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Stale assignment — skip it rather than fail the rollup.
				stale := &StaleReferenceError{AssignmentID: a.ID.String(), EntryID: a.CatalogEntryID.String()}
				log.Warn().Str("vehicle_id", v.ID.String()).Msg(stale.Error())
				continue
			}
			return err
		}
		finalTotal = finalTotal.Add(a.FinalPrice(entry.DefaultPrice))
		markupTotal = markupTotal.Add(a.Markup.Mul(decimal.NewFromInt(int64(a.Quantity))))
	}

	total := finalTotal.Add(markupTotal).Add(usage.Cost)
	if v.Transferred() {
		v.FinalPrice = total
		v.CurrentPrice = decimal.Zero
	} else {
		v.CurrentPrice = total
		v.FinalPrice = decimal.Zero
	}

	return s.vehicleRepo.SaveTx(tx, v)
}

// vehicleWarehouse resolves the vehicle's assigned warehouse. A set
// reference pointing at a missing row is a hard error; no reference at all
// just means no storage billing.
func (s *pricingService) vehicleWarehouse(ctx context.Context, v *model.Vehicle) (*model.Warehouse, error) {
	if v.WarehouseID == nil {
		return nil, nil
	}
	if v.Warehouse != nil && v.Warehouse.ID == *v.WarehouseID {
		return v.Warehouse, nil
	}
	w, err := s.counterparties.FindWarehouse(ctx, *v.WarehouseID)
	if err != nil {
		return nil, fmt.Errorf("warehouse %s: %w", v.WarehouseID.String(), err)
	}
	return w, nil
}
