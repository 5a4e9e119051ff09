package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"cargoport/internal/dto"
	"cargoport/internal/model"
	"cargoport/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InvoiceService interface {
	Create(ctx context.Context, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error)
	Regenerate(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error)
	Issue(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error)
	List(ctx context.Context, filter dto.InvoiceFilter) (*dto.InvoiceListResponse, error)
	// RefreshPaymentStateTx re-derives paid amount and status from linked
	// payments — called by the ledger when payments appear or disappear.
	RefreshPaymentStateTx(ctx context.Context, tx *gorm.DB, invoiceID uuid.UUID) error
}

type invoiceService struct {
	invoiceRepo    repository.InvoiceRepository
	vehicleRepo    repository.VehicleRepository
	assignmentRepo repository.AssignmentRepository
	catalogRepo    repository.CatalogRepository
	paymentRepo    repository.PaymentRepository
	rdb            *redis.Client
	now            func() time.Time
}

func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	vehicleRepo repository.VehicleRepository,
	assignmentRepo repository.AssignmentRepository,
	catalogRepo repository.CatalogRepository,
	paymentRepo repository.PaymentRepository,
	rdb *redis.Client,
) InvoiceService {
	return &invoiceService{
		invoiceRepo:    invoiceRepo,
		vehicleRepo:    vehicleRepo,
		assignmentRepo: assignmentRepo,
		catalogRepo:    catalogRepo,
		paymentRepo:    paymentRepo,
		rdb:            rdb,
		now:            time.Now,
	}
}

// ── Create ────────────────────────────────────────────────────────────────────

func (s *invoiceService) Create(ctx context.Context, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	issuer, err := parseRef(req.Issuer)
	if err != nil {
		return nil, err
	}
	recipient, err := parseRef(req.Recipient)
	if err != nil {
		return nil, err
	}
	if !issuer.IsProvider() {
		return nil, errors.New("a client cannot issue invoices")
	}

	vehicles := make([]model.Vehicle, 0, len(req.VehicleIDs))
	for _, raw := range req.VehicleIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid vehicle_id: %w", err)
		}
		v, err := s.vehicleRepo.FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("vehicle %s not found", raw)
		}
		vehicles = append(vehicles, *v)
	}

	var dueDate *time.Time
	if req.DueDate != nil {
		t, err := time.Parse("2006-01-02", *req.DueDate)
		if err != nil {
			return nil, fmt.Errorf("invalid due_date: %w", err)
		}
		dueDate = &t
	}

	inv := &model.Invoice{
		Issuer:    issuer,
		Recipient: recipient,
		Discount:  req.Discount,
		Tax:       req.Tax,
		Status:    model.InvoiceDraft,
		DueDate:   dueDate,
		Vehicles:  vehicles,
	}

	cache := NewCatalogCache(s.catalogRepo, s.rdb)
	txErr := runTx(ctx, s.invoiceRepo.DB(), func(tx *gorm.DB) error {
		num, err := s.invoiceRepo.NextNumberTx(tx)
		if err != nil {
			return err
		}
		inv.Number = fmt.Sprintf("INV-%06d", num)
		if err := s.invoiceRepo.CreateTx(tx, inv); err != nil {
			return err
		}
		return s.regenerateTx(ctx, tx, inv, cache)
	})
	if txErr != nil {
		return nil, txErr
	}
	return invoiceToResponse(inv), nil
}

// ── Regenerate ────────────────────────────────────────────────────────────────

func (s *invoiceService) Regenerate(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("invoice not found")
	}

	cache := NewCatalogCache(s.catalogRepo, s.rdb)
	txErr := runTx(ctx, s.invoiceRepo.DB(), func(tx *gorm.DB) error {
		return s.regenerateTx(ctx, tx, inv, cache)
	})
	if txErr != nil {
		return nil, txErr
	}
	return invoiceToResponse(inv), nil
}

// regenerateTx synthesizes the item set from the invoice's vehicles and
// issuer, replacing all prior items, then recomputes totals and status.
func (s *invoiceService) regenerateTx(ctx context.Context, tx *gorm.DB, inv *model.Invoice, cache *CatalogCache) error {
	items, err := s.synthesizeItems(ctx, inv.Issuer, inv.Vehicles, cache)
	if err != nil {
		return err
	}
	if err := s.invoiceRepo.ReplaceItemsTx(tx, inv.ID, items); err != nil {
		return err
	}
	inv.Items = items
	inv.RecalculateTotals()
	inv.RefreshStatus(s.now())
	return s.invoiceRepo.SaveTx(tx, inv)
}

// itemGroup accumulates one grouped invoice line while synthesizing.
type itemGroup struct {
	quantity int
	total    decimal.Decimal
}

// synthesizeItems selects the issuer's eligible assignments across the
// vehicle set and collapses them into grouped lines.
//
// Visibility policy: a provider issuer sees only its own assignments; the
// company issuer sees every assignment across all provider kinds. Markup is
// folded into unit prices only on company invoices — line and carrier
// invoices must never reveal it. Storage appears as its own "storage" line
// for warehouse and company issuers only.
func (s *invoiceService) synthesizeItems(ctx context.Context, issuer model.CounterpartyRef, vehicles []model.Vehicle, cache *CatalogCache) ([]model.InvoiceItem, error) {
	vehicleIDs := make([]uuid.UUID, 0, len(vehicles))
	for _, v := range vehicles {
		vehicleIDs = append(vehicleIDs, v.ID)
	}
	assignments, err := s.assignmentRepo.ListByVehicles(ctx, vehicleIDs)
	if err != nil {
		return nil, err
	}

	includeMarkup := issuer.Kind == model.KindCompany
	groups := make(map[string]*itemGroup)

	for _, a := range assignments {
		if issuer.Kind != model.KindCompany &&
			(a.Provider.Kind != issuer.Kind || a.Provider.ID != issuer.ID) {
			continue
		}
		entry, err := cache.Entry(ctx, a.CatalogEntryID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				stale := &StaleReferenceError{AssignmentID: a.ID.String(), EntryID: a.CatalogEntryID.String()}
				log.Warn().Msg(stale.Error())
				continue
			}
			return nil, err
		}

		lineTotal := a.FinalPrice(entry.DefaultPrice)
		if includeMarkup {
			lineTotal = a.InvoicePrice(entry.DefaultPrice)
		}

		key := entry.GroupKey()
		g, ok := groups[key]
		if !ok {
			g = &itemGroup{total: decimal.Zero}
			groups[key] = g
		}
		g.quantity += a.Quantity
		g.total = g.total.Add(lineTotal)
	}

	// Stable display order: grouped service lines alphabetically, storage last.
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	items := make([]model.InvoiceItem, 0, len(keys)+1)
	for i, key := range keys {
		g := groups[key]
		qty := g.quantity
		if qty < 1 {
			qty = 1
		}
		items = append(items, model.InvoiceItem{
			Description: key,
			Quantity:    qty,
			UnitPrice:   g.total.Div(decimal.NewFromInt(int64(qty))).Round(2),
			LineTotal:   g.total,
			Position:    i,
		})
	}

	if issuer.Kind == model.KindWarehouse || issuer.Kind == model.KindCompany {
		storageTotal := decimal.Zero
		for _, v := range vehicles {
			if issuer.Kind == model.KindWarehouse &&
				(v.WarehouseID == nil || *v.WarehouseID != issuer.ID) {
				continue
			}
			storageTotal = storageTotal.Add(v.StorageCost)
		}
		if storageTotal.IsPositive() {
			items = append(items, model.InvoiceItem{
				Description: model.StorageDescription,
				Quantity:    1,
				UnitPrice:   storageTotal,
				LineTotal:   storageTotal,
				Position:    len(items),
			})
		}
	}

	return items, nil
}

// ── Issue / payment state ─────────────────────────────────────────────────────

func (s *invoiceService) Issue(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("invoice not found")
	}
	if inv.Status != model.InvoiceDraft {
		return nil, errors.New("invoice is already issued")
	}

	now := s.now()
	inv.Status = model.InvoiceIssued
	inv.IssuedAt = &now
	inv.RefreshStatus(now)

	txErr := runTx(ctx, s.invoiceRepo.DB(), func(tx *gorm.DB) error {
		return s.invoiceRepo.SaveTx(tx, inv)
	})
	if txErr != nil {
		return nil, txErr
	}
	return invoiceToResponse(inv), nil
}

func (s *invoiceService) RefreshPaymentStateTx(ctx context.Context, tx *gorm.DB, invoiceID uuid.UUID) error {
	inv, err := s.invoiceRepo.FindByIDTx(tx, invoiceID)
	if err != nil {
		return err
	}
	paid, err := s.paymentRepo.SumByInvoiceTx(tx, invoiceID)
	if err != nil {
		return err
	}
	inv.PaidAmount = paid
	inv.RefreshStatus(s.now())
	return s.invoiceRepo.SaveTx(tx, inv)
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *invoiceService) Get(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("invoice not found")
	}
	return invoiceToResponse(inv), nil
}

func (s *invoiceService) List(ctx context.Context, filter dto.InvoiceFilter) (*dto.InvoiceListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	invoices, total, err := s.invoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		items = append(items, *invoiceToResponse(&invoices[i]))
	}
	return &dto.InvoiceListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func parseRef(req dto.CounterpartyRefRequest) (model.CounterpartyRef, error) {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return model.CounterpartyRef{}, fmt.Errorf("invalid counterparty id: %w", err)
	}
	return model.CounterpartyRef{Kind: model.CounterpartyKind(req.Kind), ID: id}, nil
}

func invoiceToResponse(inv *model.Invoice) *dto.InvoiceResponse {
	items := make([]dto.InvoiceItemResponse, 0, len(inv.Items))
	for _, item := range inv.Items {
		items = append(items, dto.InvoiceItemResponse{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
			Position:    item.Position,
		})
	}
	resp := &dto.InvoiceResponse{
		ID:            inv.ID.String(),
		Number:        inv.Number,
		IssuerKind:    string(inv.Issuer.Kind),
		IssuerID:      inv.Issuer.ID.String(),
		RecipientKind: string(inv.Recipient.Kind),
		RecipientID:   inv.Recipient.ID.String(),
		Items:         items,
		Subtotal:      inv.Subtotal,
		Discount:      inv.Discount,
		Tax:           inv.Tax,
		Total:         inv.Total,
		PaidAmount:    inv.PaidAmount,
		Status:        inv.Status,
		CreatedAt:     inv.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if inv.DueDate != nil {
		d := inv.DueDate.Format("2006-01-02")
		resp.DueDate = &d
	}
	if inv.IssuedAt != nil {
		t := inv.IssuedAt.Format("2006-01-02T15:04:05Z")
		resp.IssuedAt = &t
	}
	return resp
}
