package service

import (
	"context"
	"testing"
	"time"

	"cargoport/internal/dto"
	"cargoport/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type vehicleFixture struct {
	vehicles       *fakeVehicleRepo
	containers     *fakeContainerRepo
	assignments    *fakeAssignmentRepo
	catalog        *fakeCatalogRepo
	counterparties *fakeCounterpartyRepo
	svc            VehicleService
}

func newVehicleFixture(t *testing.T) *vehicleFixture {
	t.Helper()
	f := &vehicleFixture{
		vehicles:       newFakeVehicleRepo(),
		containers:     newFakeContainerRepo(),
		assignments:    newFakeAssignmentRepo(),
		catalog:        newFakeCatalogRepo(),
		counterparties: newFakeCounterpartyRepo(),
	}
	distributor := NewSurchargeDistributor(f.catalog, f.assignments, f.counterparties, 5)
	pricing := NewPricingService(f.vehicles, f.containers, f.assignments, f.catalog, f.counterparties, distributor, nil)
	f.svc = NewVehicleService(f.vehicles, f.containers, f.assignments, f.catalog, pricing)
	return f
}

func TestVehicleCreate_InheritsContainerStateAndAutoAdds(t *testing.T) {
	f := newVehicleFixture(t)
	warehouse := f.counterparties.putWarehouse(&model.Warehouse{
		Name: "Main yard", FreeDays: 100, Rate: dec("5"),
	})
	unload := time.Now().AddDate(0, 0, -2)
	container := f.containers.put(&model.Container{
		Number:      "MSKU1234567",
		Status:      model.StatusUnloaded,
		WarehouseID: &warehouse.ID,
		UnloadDate:  &unload,
	})

	provider := model.ProviderRef{Kind: model.KindWarehouse, ID: warehouse.ID}
	f.catalog.put(&model.CatalogEntry{
		Provider: provider, Name: "unloading",
		DefaultPrice: dec("25"), DefaultMarkup: dec("5"),
		Active: true, AutoAdd: true,
	})
	f.catalog.put(&model.CatalogEntry{
		Provider: provider, Name: "optional wax",
		DefaultPrice: dec("15"), Active: true, AutoAdd: false,
	})

	resp, err := f.svc.Create(context.Background(), dto.CreateVehicleRequest{
		VIN:         "WAUZZZ8V5KA123456",
		Brand:       "Audi",
		VehicleType: model.TypeSedan,
		ContainerID: container.ID.String(),
	})
	require.NoError(t, err)
	require.Equal(t, model.StatusUnloaded, resp.Status)
	require.NotNil(t, resp.WarehouseID)
	require.Equal(t, warehouse.ID.String(), *resp.WarehouseID)

	// Only the auto-add entry landed, priced at default plus hidden markup.
	require.Len(t, f.assignments.assignments, 1)
	for _, a := range f.assignments.assignments {
		require.Equal(t, model.SourceAuto, a.Source)
		require.True(t, a.Markup.Equal(dec("5")))
	}
	require.True(t, resp.CurrentPrice.Equal(dec("30")), "current = %s", resp.CurrentPrice)
}

func TestVehicleCreate_DuplicateVINRejected(t *testing.T) {
	f := newVehicleFixture(t)
	container := f.containers.put(&model.Container{Number: "MSKU1234567", Status: model.StatusFloating})
	f.vehicles.put(&model.Vehicle{VIN: "WAUZZZ8V5KA123456"})

	_, err := f.svc.Create(context.Background(), dto.CreateVehicleRequest{
		VIN:         "WAUZZZ8V5KA123456",
		Brand:       "Audi",
		VehicleType: model.TypeSedan,
		ContainerID: container.ID.String(),
	})
	require.ErrorContains(t, err, "already exists")
}

func TestVehicleCreate_RecomputeFailureSurfaces(t *testing.T) {
	f := newVehicleFixture(t)
	// Container points at a warehouse with no stored record, so the pricing
	// pass inside the creation transaction fails and the error reaches the
	// caller.
	orphanWarehouse := uuid.New()
	unload := time.Now().AddDate(0, 0, -1)
	container := f.containers.put(&model.Container{
		Number:      "MSKU7654321",
		Status:      model.StatusUnloaded,
		WarehouseID: &orphanWarehouse,
		UnloadDate:  &unload,
	})

	_, err := f.svc.Create(context.Background(), dto.CreateVehicleRequest{
		VIN:         "WAUZZZ8V5KA123463",
		Brand:       "Audi",
		VehicleType: model.TypeSedan,
		ContainerID: container.ID.String(),
	})
	require.ErrorContains(t, err, "warehouse")
}

func TestAssignService_ManualAssignmentReprices(t *testing.T) {
	f := newVehicleFixture(t)
	v := f.vehicles.put(&model.Vehicle{VIN: "WAUZZZ8V5KA123457", VehicleType: model.TypeSedan, Status: model.StatusInPort})
	entry := f.catalog.put(&model.CatalogEntry{
		Provider:     model.ProviderRef{Kind: model.KindCarrier, ID: uuid.New()},
		Name:         "inland delivery",
		DefaultPrice: dec("150"),
		Active:       true,
	})

	require.NoError(t, f.svc.AssignService(context.Background(), v.ID, dto.AssignServiceRequest{
		CatalogEntryID: entry.ID.String(),
		Quantity:       1,
		Markup:         decimal.Zero,
	}))

	got, err := f.vehicles.FindByID(context.Background(), v.ID)
	require.NoError(t, err)
	require.True(t, got.CurrentPrice.Equal(dec("150")), "current = %s", got.CurrentPrice)

	services, err := f.svc.ListServices(context.Background(), v.ID)
	require.NoError(t, err)
	require.Len(t, services, 1)
	require.Equal(t, model.SourceManual, services[0].Source)
}

func TestAssignService_SameEntryUpdatesInPlace(t *testing.T) {
	f := newVehicleFixture(t)
	v := f.vehicles.put(&model.Vehicle{VIN: "WAUZZZ8V5KA123462", VehicleType: model.TypeSedan, Status: model.StatusInPort})
	entry := f.catalog.put(&model.CatalogEntry{
		Provider:     model.ProviderRef{Kind: model.KindCarrier, ID: uuid.New()},
		Name:         "inland delivery",
		DefaultPrice: dec("150"),
		Active:       true,
	})

	require.NoError(t, f.svc.AssignService(context.Background(), v.ID, dto.AssignServiceRequest{
		CatalogEntryID: entry.ID.String(),
		Quantity:       1,
	}))

	// Re-assigning the same (vehicle, entry) pair updates the existing row.
	custom := dec("90")
	require.NoError(t, f.svc.AssignService(context.Background(), v.ID, dto.AssignServiceRequest{
		CatalogEntryID: entry.ID.String(),
		CustomPrice:    &custom,
		Quantity:       2,
	}))

	require.Len(t, f.assignments.assignments, 1)
	services, err := f.svc.ListServices(context.Background(), v.ID)
	require.NoError(t, err)
	require.Len(t, services, 1)
	require.Equal(t, 2, services[0].Quantity)
	require.True(t, services[0].FinalPrice.Equal(dec("180")), "final = %s", services[0].FinalPrice)
}

func TestAssignService_InactiveEntryRejected(t *testing.T) {
	f := newVehicleFixture(t)
	v := f.vehicles.put(&model.Vehicle{VIN: "WAUZZZ8V5KA123458", VehicleType: model.TypeSedan})
	entry := f.catalog.put(&model.CatalogEntry{
		Provider:     model.ProviderRef{Kind: model.KindCarrier, ID: uuid.New()},
		Name:         "retired service",
		DefaultPrice: dec("10"),
		Active:       false,
	})

	err := f.svc.AssignService(context.Background(), v.ID, dto.AssignServiceRequest{
		CatalogEntryID: entry.ID.String(),
		Quantity:       1,
	})
	require.EqualError(t, err, "catalog entry is inactive")
}

func TestRemoveService_MarkerBlocksAutoReAdd(t *testing.T) {
	f := newVehicleFixture(t)
	warehouse := f.counterparties.putWarehouse(&model.Warehouse{Name: "Main yard", FreeDays: 100})
	provider := model.ProviderRef{Kind: model.KindWarehouse, ID: warehouse.ID}
	entry := f.catalog.put(&model.CatalogEntry{
		Provider: provider, Name: "unloading",
		DefaultPrice: dec("25"), Active: true, AutoAdd: true,
	})

	v := f.vehicles.put(&model.Vehicle{VIN: "WAUZZZ8V5KA123459", VehicleType: model.TypeSedan, Status: model.StatusInPort})

	require.NoError(t, f.svc.AssignService(context.Background(), v.ID, dto.AssignServiceRequest{
		CatalogEntryID: entry.ID.String(),
		Quantity:       1,
	}))
	var assignmentID uuid.UUID
	for id := range f.assignments.assignments {
		assignmentID = id
	}

	require.NoError(t, f.svc.RemoveService(context.Background(), v.ID, assignmentID))
	require.Empty(t, f.assignments.assignments)

	// Linking the warehouse would normally auto-add its entries; the marker
	// keeps the removed one out.
	warehouseID := warehouse.ID.String()
	_, err := f.svc.Update(context.Background(), v.ID, dto.UpdateVehicleRequest{
		WarehouseID: &warehouseID,
	})
	require.NoError(t, err)
	require.Empty(t, f.assignments.assignments)

	got, err := f.vehicles.FindByID(context.Background(), v.ID)
	require.NoError(t, err)
	require.True(t, got.CurrentPrice.IsZero(), "current = %s", got.CurrentPrice)
}

func TestVehicleUpdate_NewProviderLinkAutoAdds(t *testing.T) {
	f := newVehicleFixture(t)
	carrierID := uuid.New()
	provider := model.ProviderRef{Kind: model.KindCarrier, ID: carrierID}
	f.catalog.put(&model.CatalogEntry{
		Provider: provider, Name: "inland delivery",
		DefaultPrice: dec("150"), Active: true, AutoAdd: true,
	})

	v := f.vehicles.put(&model.Vehicle{VIN: "WAUZZZ8V5KA123460", VehicleType: model.TypeSedan, Status: model.StatusInPort})

	carrierStr := carrierID.String()
	resp, err := f.svc.Update(context.Background(), v.ID, dto.UpdateVehicleRequest{CarrierID: &carrierStr})
	require.NoError(t, err)
	require.Len(t, f.assignments.assignments, 1)
	require.True(t, resp.CurrentPrice.Equal(dec("150")), "current = %s", resp.CurrentPrice)

	// Saving again with the same carrier must not duplicate anything.
	_, err = f.svc.Update(context.Background(), v.ID, dto.UpdateVehicleRequest{CarrierID: &carrierStr})
	require.NoError(t, err)
	require.Len(t, f.assignments.assignments, 1)
}

func TestVehicleUpdate_TransferDateFlipsPriceBuckets(t *testing.T) {
	f := newVehicleFixture(t)
	carrierID := uuid.New()
	entry := f.catalog.put(&model.CatalogEntry{
		Provider:     model.ProviderRef{Kind: model.KindCarrier, ID: carrierID},
		Name:         "inland delivery",
		DefaultPrice: dec("150"),
		Active:       true,
	})
	v := f.vehicles.put(&model.Vehicle{VIN: "WAUZZZ8V5KA123461", VehicleType: model.TypeSedan, Status: model.StatusUnloaded})
	require.NoError(t, f.svc.AssignService(context.Background(), v.ID, dto.AssignServiceRequest{
		CatalogEntryID: entry.ID.String(),
		Quantity:       1,
	}))

	transferDate := "2026-03-15"
	resp, err := f.svc.Update(context.Background(), v.ID, dto.UpdateVehicleRequest{TransferDate: &transferDate})
	require.NoError(t, err)

	require.Equal(t, model.StatusTransferred, resp.Status)
	require.True(t, resp.FinalPrice.Equal(dec("150")), "final = %s", resp.FinalPrice)
	require.True(t, resp.CurrentPrice.IsZero())
}
