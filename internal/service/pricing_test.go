package service

import (
	"context"
	"testing"
	"time"

	"cargoport/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type pricingFixture struct {
	vehicles       *fakeVehicleRepo
	containers     *fakeContainerRepo
	assignments    *fakeAssignmentRepo
	catalog        *fakeCatalogRepo
	counterparties *fakeCounterpartyRepo
	pricing        PricingService
}

func newPricingFixture(t *testing.T) *pricingFixture {
	t.Helper()
	f := &pricingFixture{
		vehicles:       newFakeVehicleRepo(),
		containers:     newFakeContainerRepo(),
		assignments:    newFakeAssignmentRepo(),
		catalog:        newFakeCatalogRepo(),
		counterparties: newFakeCounterpartyRepo(),
	}
	distributor := NewSurchargeDistributor(f.catalog, f.assignments, f.counterparties, 5)
	f.pricing = NewPricingService(f.vehicles, f.containers, f.assignments, f.catalog, f.counterparties, distributor, nil)
	return f
}

func (f *pricingFixture) addEntry(provider model.ProviderRef, name string, price string) *model.CatalogEntry {
	return f.catalog.put(&model.CatalogEntry{
		Provider:     provider,
		Name:         name,
		DefaultPrice: dec(price),
		Active:       true,
	})
}

func (f *pricingFixture) assign(vehicleID uuid.UUID, entry *model.CatalogEntry, custom *decimal.Decimal, qty int, markup string) {
	_ = f.assignments.UpsertTx(nil, &model.ServiceAssignment{
		VehicleID:      vehicleID,
		Provider:       entry.Provider,
		CatalogEntryID: entry.ID,
		CustomPrice:    custom,
		Quantity:       qty,
		Markup:         dec(markup),
		Source:         model.SourceManual,
	})
}

func TestRecompute_NilCustomPriceUsesDefaultZeroIsExplicit(t *testing.T) {
	f := newPricingFixture(t)
	provider := model.ProviderRef{Kind: model.KindWarehouse, ID: uuid.New()}
	v := f.vehicles.put(&model.Vehicle{VIN: "VINTEST0001", VehicleType: model.TypeSedan, Status: model.StatusInPort})

	defaulted := f.addEntry(provider, "unloading", "100")
	zeroed := f.addEntry(provider, "inspection", "40")
	zero := decimal.Zero
	f.assign(v.ID, defaulted, nil, 1, "0")
	f.assign(v.ID, zeroed, &zero, 1, "0") // explicit zero must not fall back to 40

	require.NoError(t, f.pricing.Recompute(context.Background(), v.ID))

	got, err := f.vehicles.FindByID(context.Background(), v.ID)
	require.NoError(t, err)
	require.True(t, got.CurrentPrice.Equal(dec("100")), "current = %s", got.CurrentPrice)
	require.True(t, got.FinalPrice.IsZero())
}

func TestRecompute_MarkupAndQuantityRollUp(t *testing.T) {
	f := newPricingFixture(t)
	provider := model.ProviderRef{Kind: model.KindCarrier, ID: uuid.New()}
	v := f.vehicles.put(&model.Vehicle{VIN: "VINTEST0002", VehicleType: model.TypeSedan, Status: model.StatusInPort})

	entry := f.addEntry(provider, "inland delivery", "50")
	f.assign(v.ID, entry, nil, 2, "10")

	require.NoError(t, f.pricing.Recompute(context.Background(), v.ID))

	got, err := f.vehicles.FindByID(context.Background(), v.ID)
	require.NoError(t, err)
	// 50×2 base plus 10×2 markup.
	require.True(t, got.CurrentPrice.Equal(dec("120")), "current = %s", got.CurrentPrice)
}

func TestRecompute_StaleAssignmentSkippedNotFatal(t *testing.T) {
	f := newPricingFixture(t)
	provider := model.ProviderRef{Kind: model.KindWarehouse, ID: uuid.New()}
	v := f.vehicles.put(&model.Vehicle{VIN: "VINTEST0003", VehicleType: model.TypeSedan, Status: model.StatusInPort})

	entry := f.addEntry(provider, "unloading", "80")
	f.assign(v.ID, entry, nil, 1, "0")
	// Assignment pointing at a deleted catalog entry.
	_ = f.assignments.UpsertTx(nil, &model.ServiceAssignment{
		VehicleID:      v.ID,
		Provider:       provider,
		CatalogEntryID: uuid.New(),
		Quantity:       1,
		Markup:         decimal.Zero,
		Source:         model.SourceManual,
	})

	require.NoError(t, f.pricing.Recompute(context.Background(), v.ID))

	got, err := f.vehicles.FindByID(context.Background(), v.ID)
	require.NoError(t, err)
	require.True(t, got.CurrentPrice.Equal(dec("80")), "current = %s", got.CurrentPrice)
}

func TestRecompute_TransferMovesTotalToFinalPrice(t *testing.T) {
	f := newPricingFixture(t)
	provider := model.ProviderRef{Kind: model.KindWarehouse, ID: uuid.New()}
	transfer := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	v := f.vehicles.put(&model.Vehicle{
		VIN:          "VINTEST0004",
		VehicleType:  model.TypeSedan,
		Status:       model.StatusTransferred,
		TransferDate: &transfer,
	})

	entry := f.addEntry(provider, "unloading", "90")
	f.assign(v.ID, entry, nil, 1, "0")

	require.NoError(t, f.pricing.Recompute(context.Background(), v.ID))

	got, err := f.vehicles.FindByID(context.Background(), v.ID)
	require.NoError(t, err)
	require.True(t, got.FinalPrice.Equal(dec("90")), "final = %s", got.FinalPrice)
	require.True(t, got.CurrentPrice.IsZero())
}

func TestRecompute_TransferDateForcesTransferredStatus(t *testing.T) {
	f := newPricingFixture(t)
	transfer := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	v := f.vehicles.put(&model.Vehicle{
		VIN:          "VINTEST0005",
		VehicleType:  model.TypeSedan,
		Status:       model.StatusUnloaded,
		TransferDate: &transfer,
	})

	require.NoError(t, f.pricing.Recompute(context.Background(), v.ID))

	got, err := f.vehicles.FindByID(context.Background(), v.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusTransferred, got.Status)
	require.NotNil(t, got.TransferDate)
}

func TestRecompute_StorageAddedAsSeparateTerm(t *testing.T) {
	f := newPricingFixture(t)
	warehouse := f.counterparties.putWarehouse(&model.Warehouse{
		Name:     "Main yard",
		FreeDays: 3,
		Rate:     dec("5"),
	})

	unload := time.Now().AddDate(0, 0, -9)
	v := f.vehicles.put(&model.Vehicle{
		VIN:         "VINTEST0006",
		VehicleType: model.TypeSedan,
		Status:      model.StatusUnloaded,
		WarehouseID: &warehouse.ID,
		UnloadDate:  &unload,
	})

	provider := model.ProviderRef{Kind: model.KindWarehouse, ID: warehouse.ID}
	entry := f.addEntry(provider, "unloading", "30")
	f.assign(v.ID, entry, nil, 1, "0")

	require.NoError(t, f.pricing.Recompute(context.Background(), v.ID))

	got, err := f.vehicles.FindByID(context.Background(), v.ID)
	require.NoError(t, err)
	require.Equal(t, 7, got.ChargeableDays)
	require.True(t, got.StorageCost.Equal(dec("35")), "storage = %s", got.StorageCost)
	require.True(t, got.CurrentPrice.Equal(dec("65")), "current = %s", got.CurrentPrice)
}

func TestRecompute_MissingWarehouseRowIsFatal(t *testing.T) {
	f := newPricingFixture(t)
	missing := uuid.New()
	unload := time.Now().AddDate(0, 0, -1)
	v := f.vehicles.put(&model.Vehicle{
		VIN:         "VINTEST0007",
		VehicleType: model.TypeSedan,
		Status:      model.StatusUnloaded,
		WarehouseID: &missing,
		UnloadDate:  &unload,
	})

	err := f.pricing.Recompute(context.Background(), v.ID)
	require.Error(t, err)
	var recomputeErr *RecomputeError
	require.ErrorAs(t, err, &recomputeErr)
}

func TestRecompute_Idempotent(t *testing.T) {
	f := newPricingFixture(t)
	provider := model.ProviderRef{Kind: model.KindWarehouse, ID: uuid.New()}
	v := f.vehicles.put(&model.Vehicle{VIN: "VINTEST0008", VehicleType: model.TypeSedan, Status: model.StatusInPort})

	entry := f.addEntry(provider, "unloading", "75")
	f.assign(v.ID, entry, nil, 1, "5")

	require.NoError(t, f.pricing.Recompute(context.Background(), v.ID))
	first, err := f.vehicles.FindByID(context.Background(), v.ID)
	require.NoError(t, err)

	require.NoError(t, f.pricing.Recompute(context.Background(), v.ID))
	second, err := f.vehicles.FindByID(context.Background(), v.ID)
	require.NoError(t, err)

	require.True(t, first.CurrentPrice.Equal(second.CurrentPrice))
	require.Equal(t, first.Status, second.Status)
}

func TestRecomputeContainer_DistributesThenReprices(t *testing.T) {
	f := newPricingFixture(t)

	lineID := uuid.New()
	payer := model.THSPayerLine
	amount := dec("100")
	container := f.containers.put(&model.Container{
		Number:    "MSKU1234567",
		Status:    model.StatusInPort,
		LineID:    &lineID,
		THSAmount: &amount,
		THSPayer:  &payer,
	})

	v1 := f.vehicles.put(&model.Vehicle{
		VIN: "VINTESTA001", VehicleType: model.TypeSedan,
		Status: model.StatusInPort, ContainerID: &container.ID, LineID: &lineID,
	})
	v2 := f.vehicles.put(&model.Vehicle{
		VIN: "VINTESTA002", VehicleType: model.TypeSedan,
		Status: model.StatusInPort, ContainerID: &container.ID, LineID: &lineID,
	})

	require.NoError(t, f.pricing.RecomputeContainer(context.Background(), container.ID))

	for _, id := range []uuid.UUID{v1.ID, v2.ID} {
		got, err := f.vehicles.FindByID(context.Background(), id)
		require.NoError(t, err)
		// 100 split evenly, each half rounded up to the next multiple of 5.
		require.True(t, got.CurrentPrice.Equal(dec("50")), "current = %s", got.CurrentPrice)
	}
}
