package service

import (
	"context"
	"sort"

	"cargoport/internal/dto"
	"cargoport/internal/model"
	"cargoport/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// In-memory repository fakes. DB() returns nil so runTx executes the
// callback directly, without a real transaction.

// ── vehicles ──────────────────────────────────────────────────────────────────

type fakeVehicleRepo struct {
	vehicles map[uuid.UUID]*model.Vehicle
}

func newFakeVehicleRepo() *fakeVehicleRepo {
	return &fakeVehicleRepo{vehicles: make(map[uuid.UUID]*model.Vehicle)}
}

func (r *fakeVehicleRepo) put(v *model.Vehicle) *model.Vehicle {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	r.vehicles[v.ID] = v
	return v
}

func (r *fakeVehicleRepo) CreateTx(tx *gorm.DB, v *model.Vehicle) error {
	r.put(v)
	return nil
}

func (r *fakeVehicleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Vehicle, error) {
	v, ok := r.vehicles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *v
	return &copied, nil
}

func (r *fakeVehicleRepo) FindByVIN(ctx context.Context, vin string) (*model.Vehicle, error) {
	for _, v := range r.vehicles {
		if v.VIN == vin {
			copied := *v
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeVehicleRepo) List(ctx context.Context, filter dto.VehicleFilter) ([]model.Vehicle, int64, error) {
	var out []model.Vehicle
	for _, v := range r.vehicles {
		if filter.Status != "" && filter.Status != "all" && v.Status != filter.Status {
			continue
		}
		out = append(out, *v)
	}
	return out, int64(len(out)), nil
}

func (r *fakeVehicleRepo) ListByContainer(ctx context.Context, containerID uuid.UUID) ([]model.Vehicle, error) {
	var out []model.Vehicle
	for _, v := range r.vehicles {
		if v.ContainerID != nil && *v.ContainerID == containerID {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VIN < out[j].VIN })
	return out, nil
}

func (r *fakeVehicleRepo) SaveTx(tx *gorm.DB, v *model.Vehicle) error {
	copied := *v
	r.vehicles[v.ID] = &copied
	return nil
}

func (r *fakeVehicleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.vehicles, id)
	return nil
}

func (r *fakeVehicleRepo) DB() *gorm.DB { return nil }

// ── containers ────────────────────────────────────────────────────────────────

type fakeContainerRepo struct {
	containers map[uuid.UUID]*model.Container
}

func newFakeContainerRepo() *fakeContainerRepo {
	return &fakeContainerRepo{containers: make(map[uuid.UUID]*model.Container)}
}

func (r *fakeContainerRepo) put(c *model.Container) *model.Container {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.containers[c.ID] = c
	return c
}

func (r *fakeContainerRepo) Create(ctx context.Context, c *model.Container) error {
	r.put(c)
	return nil
}

func (r *fakeContainerRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Container, error) {
	c, ok := r.containers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *fakeContainerRepo) List(ctx context.Context, filter dto.ContainerFilter) ([]model.Container, int64, error) {
	var out []model.Container
	for _, c := range r.containers {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (r *fakeContainerRepo) SaveTx(tx *gorm.DB, c *model.Container) error {
	copied := *c
	r.containers[c.ID] = &copied
	return nil
}

func (r *fakeContainerRepo) DB() *gorm.DB { return nil }

// ── catalog ───────────────────────────────────────────────────────────────────

type fakeCatalogRepo struct {
	entries map[uuid.UUID]*model.CatalogEntry
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{entries: make(map[uuid.UUID]*model.CatalogEntry)}
}

func (r *fakeCatalogRepo) put(e *model.CatalogEntry) *model.CatalogEntry {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	r.entries[e.ID] = e
	return e
}

func (r *fakeCatalogRepo) Create(ctx context.Context, e *model.CatalogEntry) error {
	r.put(e)
	return nil
}

func (r *fakeCatalogRepo) CreateTx(tx *gorm.DB, e *model.CatalogEntry) error {
	r.put(e)
	return nil
}

func (r *fakeCatalogRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CatalogEntry, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *e
	return &copied, nil
}

func (r *fakeCatalogRepo) FindByCode(ctx context.Context, provider model.ProviderRef, code string) (*model.CatalogEntry, error) {
	for _, e := range r.entries {
		if e.Provider.Equal(provider) && e.Code != nil && *e.Code == code {
			copied := *e
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCatalogRepo) ListByProvider(ctx context.Context, provider model.ProviderRef, activeOnly bool) ([]model.CatalogEntry, error) {
	var out []model.CatalogEntry
	for _, e := range r.entries {
		if !e.Provider.Equal(provider) {
			continue
		}
		if activeOnly && !e.Active {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (r *fakeCatalogRepo) ListAutoAdd(ctx context.Context, provider model.ProviderRef) ([]model.CatalogEntry, error) {
	var out []model.CatalogEntry
	for _, e := range r.entries {
		if e.Provider.Equal(provider) && e.Active && e.AutoAdd {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeCatalogRepo) Save(ctx context.Context, e *model.CatalogEntry) error {
	copied := *e
	r.entries[e.ID] = &copied
	return nil
}

func (r *fakeCatalogRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.entries, id)
	return nil
}

func (r *fakeCatalogRepo) DB() *gorm.DB { return nil }

// ── assignments ───────────────────────────────────────────────────────────────

type fakeAssignmentRepo struct {
	assignments map[uuid.UUID]*model.ServiceAssignment
	markers     []model.DeletedServiceMarker
	vehicles    *fakeVehicleRepo
	seq         int
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{assignments: make(map[uuid.UUID]*model.ServiceAssignment)}
}

func (r *fakeAssignmentRepo) UpsertTx(tx *gorm.DB, s *model.ServiceAssignment) error {
	for _, existing := range r.assignments {
		if existing.VehicleID == s.VehicleID &&
			existing.CatalogEntryID == s.CatalogEntryID {
			existing.CustomPrice = s.CustomPrice
			existing.Quantity = s.Quantity
			existing.Markup = s.Markup
			existing.Source = s.Source
			s.ID = existing.ID
			return nil
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.seq++
	copied := *s
	r.assignments[s.ID] = &copied
	return nil
}

func (r *fakeAssignmentRepo) byVehicle(vehicleID uuid.UUID) []model.ServiceAssignment {
	var out []model.ServiceAssignment
	for _, a := range r.assignments {
		if a.VehicleID == vehicleID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

func (r *fakeAssignmentRepo) ListByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]model.ServiceAssignment, error) {
	return r.byVehicle(vehicleID), nil
}

func (r *fakeAssignmentRepo) ListByVehicleTx(tx *gorm.DB, vehicleID uuid.UUID) ([]model.ServiceAssignment, error) {
	return r.byVehicle(vehicleID), nil
}

func (r *fakeAssignmentRepo) ListByVehicles(ctx context.Context, vehicleIDs []uuid.UUID) ([]model.ServiceAssignment, error) {
	var out []model.ServiceAssignment
	for _, id := range vehicleIDs {
		out = append(out, r.byVehicle(id)...)
	}
	return out, nil
}

func (r *fakeAssignmentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ServiceAssignment, error) {
	a, ok := r.assignments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *fakeAssignmentRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	delete(r.assignments, id)
	return nil
}

func (r *fakeAssignmentRepo) DeleteBySourceTx(tx *gorm.DB, vehicleIDs []uuid.UUID, source string) error {
	ids := make(map[uuid.UUID]bool, len(vehicleIDs))
	for _, id := range vehicleIDs {
		ids[id] = true
	}
	for id, a := range r.assignments {
		if ids[a.VehicleID] && a.Source == source {
			delete(r.assignments, id)
		}
	}
	return nil
}

func (r *fakeAssignmentRepo) DeleteByVehicleTx(tx *gorm.DB, vehicleID uuid.UUID) error {
	for id, a := range r.assignments {
		if a.VehicleID == vehicleID {
			delete(r.assignments, id)
		}
	}
	return nil
}

func (r *fakeAssignmentRepo) ContainerIDsByEntry(ctx context.Context, entryID uuid.UUID) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool)
	var out []uuid.UUID
	for _, a := range r.assignments {
		if a.CatalogEntryID != entryID || r.vehicles == nil {
			continue
		}
		v, ok := r.vehicles.vehicles[a.VehicleID]
		if !ok || v.ContainerID == nil || seen[*v.ContainerID] {
			continue
		}
		seen[*v.ContainerID] = true
		out = append(out, *v.ContainerID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

func (r *fakeAssignmentRepo) CreateMarkerTx(tx *gorm.DB, m *model.DeletedServiceMarker) error {
	r.markers = append(r.markers, *m)
	return nil
}

func (r *fakeAssignmentRepo) HasMarker(ctx context.Context, vehicleID uuid.UUID, provider model.ProviderRef, entryID uuid.UUID) (bool, error) {
	for _, m := range r.markers {
		if m.VehicleID == vehicleID && m.Provider.Kind == provider.Kind && m.CatalogEntryID == entryID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAssignmentRepo) DB() *gorm.DB { return nil }

// ── counterparties ────────────────────────────────────────────────────────────

type fakeCounterpartyRepo struct {
	accounts   map[model.CounterpartyRef]*repository.Account
	warehouses map[uuid.UUID]*model.Warehouse
	coefs      map[uuid.UUID]map[string]decimal.Decimal
}

func newFakeCounterpartyRepo() *fakeCounterpartyRepo {
	return &fakeCounterpartyRepo{
		accounts:   make(map[model.CounterpartyRef]*repository.Account),
		warehouses: make(map[uuid.UUID]*model.Warehouse),
		coefs:      make(map[uuid.UUID]map[string]decimal.Decimal),
	}
}

func (r *fakeCounterpartyRepo) putAccount(kind model.CounterpartyKind, name string) model.CounterpartyRef {
	ref := model.CounterpartyRef{Kind: kind, ID: uuid.New()}
	r.accounts[ref] = &repository.Account{
		Ref:  ref,
		Name: name,
		Balance: model.Balance{
			InvoiceBalance: decimal.Zero,
			CashBalance:    decimal.Zero,
			CardBalance:    decimal.Zero,
		},
	}
	return ref
}

func (r *fakeCounterpartyRepo) putWarehouse(w *model.Warehouse) *model.Warehouse {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	r.warehouses[w.ID] = w
	ref := model.CounterpartyRef{Kind: model.KindWarehouse, ID: w.ID}
	r.accounts[ref] = &repository.Account{Ref: ref, Name: w.Name, Balance: w.Balance}
	return w
}

func (r *fakeCounterpartyRepo) CreateClient(ctx context.Context, c *model.Client) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	ref := model.CounterpartyRef{Kind: model.KindClient, ID: c.ID}
	r.accounts[ref] = &repository.Account{Ref: ref, Name: c.Name, Balance: c.Balance}
	return nil
}

func (r *fakeCounterpartyRepo) CreateWarehouse(ctx context.Context, w *model.Warehouse) error {
	r.putWarehouse(w)
	return nil
}

func (r *fakeCounterpartyRepo) CreateLine(ctx context.Context, l *model.Line) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	ref := model.CounterpartyRef{Kind: model.KindLine, ID: l.ID}
	r.accounts[ref] = &repository.Account{Ref: ref, Name: l.Name, Balance: l.Balance}
	return nil
}

func (r *fakeCounterpartyRepo) CreateCarrier(ctx context.Context, c *model.Carrier) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	ref := model.CounterpartyRef{Kind: model.KindCarrier, ID: c.ID}
	r.accounts[ref] = &repository.Account{Ref: ref, Name: c.Name, Balance: c.Balance}
	return nil
}

func (r *fakeCounterpartyRepo) CreateCompany(ctx context.Context, c *model.Company) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	ref := model.CounterpartyRef{Kind: model.KindCompany, ID: c.ID}
	r.accounts[ref] = &repository.Account{Ref: ref, Name: c.Name, Balance: c.Balance}
	return nil
}

func (r *fakeCounterpartyRepo) FindWarehouse(ctx context.Context, id uuid.UUID) (*model.Warehouse, error) {
	w, ok := r.warehouses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *w
	return &copied, nil
}

func (r *fakeCounterpartyRepo) FindLine(ctx context.Context, id uuid.UUID) (*model.Line, error) {
	ref := model.CounterpartyRef{Kind: model.KindLine, ID: id}
	acc, ok := r.accounts[ref]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &model.Line{ID: id, Name: acc.Name}, nil
}

func (r *fakeCounterpartyRepo) FindAccount(ctx context.Context, ref model.CounterpartyRef) (*repository.Account, error) {
	acc, ok := r.accounts[ref]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *acc
	return &copied, nil
}

func (r *fakeCounterpartyRepo) LockAccountTx(tx *gorm.DB, ref model.CounterpartyRef) (*repository.Account, error) {
	acc, ok := r.accounts[ref]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *acc
	return &copied, nil
}

func (r *fakeCounterpartyRepo) UpdateBalanceTx(tx *gorm.DB, ref model.CounterpartyRef, b model.Balance) error {
	acc, ok := r.accounts[ref]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	acc.Balance = b
	return nil
}

func (r *fakeCounterpartyRepo) ListByKind(ctx context.Context, kind model.CounterpartyKind) ([]repository.Account, error) {
	var out []repository.Account
	for _, acc := range r.accounts {
		if acc.Ref.Kind == kind {
			out = append(out, *acc)
		}
	}
	return out, nil
}

func (r *fakeCounterpartyRepo) ListAccounts(ctx context.Context) ([]repository.Account, error) {
	var out []repository.Account
	for _, acc := range r.accounts {
		out = append(out, *acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ref.ID.String() < out[j].Ref.ID.String() })
	return out, nil
}

func (r *fakeCounterpartyRepo) CoefficientsByLine(ctx context.Context, lineID uuid.UUID) (map[string]decimal.Decimal, error) {
	coefs := make(map[string]decimal.Decimal)
	for vehicleType, c := range r.coefs[lineID] {
		coefs[vehicleType] = c
	}
	return coefs, nil
}

func (r *fakeCounterpartyRepo) UpsertCoefficient(ctx context.Context, c *model.VehicleTypeCoefficient) error {
	if r.coefs[c.LineID] == nil {
		r.coefs[c.LineID] = make(map[string]decimal.Decimal)
	}
	r.coefs[c.LineID][c.VehicleType] = c.Coefficient
	return nil
}

func (r *fakeCounterpartyRepo) DB() *gorm.DB { return nil }

// ── invoices ──────────────────────────────────────────────────────────────────

type fakeInvoiceRepo struct {
	invoices map[uuid.UUID]*model.Invoice
	items    map[uuid.UUID][]model.InvoiceItem
	seq      int64
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{
		invoices: make(map[uuid.UUID]*model.Invoice),
		items:    make(map[uuid.UUID][]model.InvoiceItem),
	}
}

func (r *fakeInvoiceRepo) CreateTx(tx *gorm.DB, inv *model.Invoice) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	copied := *inv
	r.invoices[inv.ID] = &copied
	return nil
}

func (r *fakeInvoiceRepo) findCopy(id uuid.UUID) (*model.Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *inv
	copied.Items = append([]model.InvoiceItem(nil), r.items[id]...)
	return &copied, nil
}

func (r *fakeInvoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	return r.findCopy(id)
}

func (r *fakeInvoiceRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Invoice, error) {
	return r.findCopy(id)
}

func (r *fakeInvoiceRepo) List(ctx context.Context, filter dto.InvoiceFilter) ([]model.Invoice, int64, error) {
	var out []model.Invoice
	for id := range r.invoices {
		inv, _ := r.findCopy(id)
		if filter.Status != "" && filter.Status != "all" && inv.Status != filter.Status {
			continue
		}
		out = append(out, *inv)
	}
	return out, int64(len(out)), nil
}

func (r *fakeInvoiceRepo) SaveTx(tx *gorm.DB, inv *model.Invoice) error {
	copied := *inv
	copied.Items = nil
	r.invoices[inv.ID] = &copied
	return nil
}

func (r *fakeInvoiceRepo) ReplaceItemsTx(tx *gorm.DB, invoiceID uuid.UUID, items []model.InvoiceItem) error {
	stored := make([]model.InvoiceItem, len(items))
	copy(stored, items)
	for i := range stored {
		stored[i].InvoiceID = invoiceID
	}
	r.items[invoiceID] = stored
	return nil
}

func (r *fakeInvoiceRepo) SumIncomingTx(tx *gorm.DB, ref model.CounterpartyRef) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, inv := range r.invoices {
		if inv.Status != model.InvoiceDraft && inv.Recipient.Equal(ref) {
			sum = sum.Add(inv.Total)
		}
	}
	return sum, nil
}

func (r *fakeInvoiceRepo) SumOutgoingTx(tx *gorm.DB, ref model.CounterpartyRef) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, inv := range r.invoices {
		if inv.Status != model.InvoiceDraft && inv.Issuer.Equal(ref) {
			sum = sum.Add(inv.Total)
		}
	}
	return sum, nil
}

func (r *fakeInvoiceRepo) NextNumberTx(tx *gorm.DB) (int64, error) {
	r.seq++
	return r.seq, nil
}

func (r *fakeInvoiceRepo) DB() *gorm.DB { return nil }

// ── payments ──────────────────────────────────────────────────────────────────

type fakePaymentRepo struct {
	payments map[uuid.UUID]*model.Payment
	order    []uuid.UUID
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[uuid.UUID]*model.Payment)}
}

func (r *fakePaymentRepo) CreateTx(tx *gorm.DB, p *model.Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	copied := *p
	r.payments[p.ID] = &copied
	r.order = append(r.order, p.ID)
	return nil
}

func (r *fakePaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakePaymentRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	delete(r.payments, id)
	return nil
}

func (r *fakePaymentRepo) List(ctx context.Context, filter dto.PaymentFilter) ([]model.Payment, int64, error) {
	var out []model.Payment
	for _, id := range r.order {
		p, ok := r.payments[id]
		if !ok {
			continue
		}
		if filter.Kind != "" && filter.Kind != "all" && p.Kind != filter.Kind {
			continue
		}
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *fakePaymentRepo) ListAll(ctx context.Context) ([]model.Payment, error) {
	var out []model.Payment
	for _, id := range r.order {
		if p, ok := r.payments[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) SumByInvoiceTx(tx *gorm.DB, invoiceID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, p := range r.payments {
		if p.InvoiceID != nil && *p.InvoiceID == invoiceID {
			sum = sum.Add(p.Amount)
		}
	}
	return sum, nil
}

func (r *fakePaymentRepo) DB() *gorm.DB { return nil }
