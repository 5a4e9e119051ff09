package service

import (
	"context"
	"errors"
	"fmt"

	"cargoport/internal/model"
	"cargoport/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SurchargeShare is one vehicle's rounded slice of the container's lump THS.
type SurchargeShare struct {
	VehicleID uuid.UUID
	Amount    decimal.Decimal
}

// SplitSurcharge distributes a lump amount across vehicles proportional to
// per-vehicle-type coefficients (1.0 for types without a row), then rounds
// each share up to the next multiple of unit. Shares are rounded
// independently: the sum may overshoot the lump amount. Observed behavior —
// kept until product decides on a remainder policy.
func SplitSurcharge(lump decimal.Decimal, vehicles []model.Vehicle, coefs map[string]decimal.Decimal, unit int64) []SurchargeShare {
	if !lump.IsPositive() || len(vehicles) == 0 {
		return nil
	}

	one := decimal.NewFromInt(1)
	coefFor := func(vehicleType string) decimal.Decimal {
		if c, ok := coefs[vehicleType]; ok && c.IsPositive() {
			return c
		}
		return one
	}

	total := decimal.Zero
	for _, v := range vehicles {
		total = total.Add(coefFor(v.VehicleType))
	}
	if !total.IsPositive() {
		return nil
	}

	unitD := decimal.NewFromInt(unit)
	shares := make([]SurchargeShare, 0, len(vehicles))
	for _, v := range vehicles {
		share := lump.Mul(coefFor(v.VehicleType)).Div(total)
		rounded := share.Div(unitD).Ceil().Mul(unitD)
		shares = append(shares, SurchargeShare{VehicleID: v.ID, Amount: rounded})
	}
	return shares
}

// SurchargeDistributor turns a container's lump THS into per-vehicle service
// assignments owned by the designated payer's catalog.
type SurchargeDistributor struct {
	catalogRepo    repository.CatalogRepository
	assignmentRepo repository.AssignmentRepository
	counterparties repository.CounterpartyRepository
	roundingUnit   int64
}

func NewSurchargeDistributor(
	catalogRepo repository.CatalogRepository,
	assignmentRepo repository.AssignmentRepository,
	counterparties repository.CounterpartyRepository,
	roundingUnit int64,
) *SurchargeDistributor {
	if roundingUnit < 1 {
		roundingUnit = 1
	}
	return &SurchargeDistributor{
		catalogRepo:    catalogRepo,
		assignmentRepo: assignmentRepo,
		counterparties: counterparties,
		roundingUnit:   roundingUnit,
	}
}

// DistributeTx recomputes the surcharge assignments for a container inside
// the caller's transaction. Prior surcharge assignments are always removed
// first, so a reconfiguration (line, payer, amount change) never leaves
// stale rows. A container without a payable surcharge simply ends up with
// none — that is not an error.
func (d *SurchargeDistributor) DistributeTx(ctx context.Context, tx *gorm.DB, container *model.Container, vehicles []model.Vehicle) error {
	vehicleIDs := make([]uuid.UUID, 0, len(vehicles))
	for _, v := range vehicles {
		vehicleIDs = append(vehicleIDs, v.ID)
	}
	if err := d.assignmentRepo.DeleteBySourceTx(tx, vehicleIDs, model.SourceSurcharge); err != nil {
		return err
	}

	if container.THSAmount == nil || !container.THSAmount.IsPositive() ||
		container.LineID == nil || len(vehicles) == 0 {
		return nil
	}
	payer, ok := container.THSPayerRef()
	if !ok {
		return nil
	}

	coefs, err := d.counterparties.CoefficientsByLine(ctx, *container.LineID)
	if err != nil {
		return err
	}

	shares := SplitSurcharge(*container.THSAmount, vehicles, coefs, d.roundingUnit)
	if len(shares) == 0 {
		return nil
	}

	entry, err := d.surchargeEntry(ctx, tx, payer)
	if err != nil {
		return fmt.Errorf("resolve surcharge catalog entry: %w", err)
	}

	for _, share := range shares {
		amount := share.Amount
		assignment := &model.ServiceAssignment{
			VehicleID:      share.VehicleID,
			Provider:       model.ProviderRef{Kind: payer.Kind, ID: payer.ID},
			CatalogEntryID: entry.ID,
			CustomPrice:    &amount,
			Quantity:       1,
			Markup:         decimal.Zero,
			Source:         model.SourceSurcharge,
		}
		if err := d.assignmentRepo.UpsertTx(tx, assignment); err != nil {
			return err
		}
	}
	return nil
}

// surchargeEntry finds the payer's THS catalog entry, creating it on first
// use so distribution never fails on a fresh provider.
func (d *SurchargeDistributor) surchargeEntry(ctx context.Context, tx *gorm.DB, payer model.CounterpartyRef) (*model.CatalogEntry, error) {
	provider := model.ProviderRef{Kind: payer.Kind, ID: payer.ID}
	entry, err := d.catalogRepo.FindByCode(ctx, provider, model.SurchargeCode)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	code := model.SurchargeCode
	entry = &model.CatalogEntry{
		Provider:     provider,
		Name:         "Terminal handling surcharge",
		Code:         &code,
		DefaultPrice: decimal.Zero,
		Active:       true,
		AutoAdd:      false,
	}
	if err := d.catalogRepo.CreateTx(tx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}
