package repository

import (
	"context"

	"cargoport/internal/dto"
	"cargoport/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InvoiceRepository interface {
	// CreateTx inserts the invoice inside the caller's transaction; the
	// numbered row and its synthesized items commit together.
	CreateTx(tx *gorm.DB, inv *model.Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Invoice, error)
	List(ctx context.Context, filter dto.InvoiceFilter) ([]model.Invoice, int64, error)
	SaveTx(tx *gorm.DB, inv *model.Invoice) error
	// ReplaceItemsTx deletes all prior items and inserts the new set — item
	// regeneration is a full replace, never an incremental patch.
	ReplaceItemsTx(tx *gorm.DB, invoiceID uuid.UUID, items []model.InvoiceItem) error
	// SumIncomingTx / SumOutgoingTx sum non-draft invoice totals where the
	// counterparty is recipient / issuer respectively.
	SumIncomingTx(tx *gorm.DB, ref model.CounterpartyRef) (decimal.Decimal, error)
	SumOutgoingTx(tx *gorm.DB, ref model.CounterpartyRef) (decimal.Decimal, error)
	NextNumberTx(tx *gorm.DB) (int64, error)
	DB() *gorm.DB
}

type invoiceRepo struct{ db *gorm.DB }

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository { return &invoiceRepo{db: db} }

func (r *invoiceRepo) DB() *gorm.DB { return r.db }

func (r *invoiceRepo) CreateTx(tx *gorm.DB, inv *model.Invoice) error {
	return tx.Create(inv).Error
}

func (r *invoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Vehicles").
		First(&inv, id).Error
	return &inv, err
}

func (r *invoiceRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	err := tx.Preload("Items").Preload("Vehicles").First(&inv, id).Error
	return &inv, err
}

func (r *invoiceRepo) List(ctx context.Context, filter dto.InvoiceFilter) ([]model.Invoice, int64, error) {
	var invoices []model.Invoice
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Invoice{})
	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.IssuerKind != "" {
		q = q.Where("issuer_kind = ?", filter.IssuerKind)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Items").Order("created_at DESC").Offset(offset).Limit(filter.Limit).Find(&invoices).Error
	return invoices, total, err
}

func (r *invoiceRepo) SaveTx(tx *gorm.DB, inv *model.Invoice) error {
	return tx.Omit("Items", "Vehicles").Save(inv).Error
}

func (r *invoiceRepo) ReplaceItemsTx(tx *gorm.DB, invoiceID uuid.UUID, items []model.InvoiceItem) error {
	if err := tx.Where("invoice_id = ?", invoiceID).Delete(&model.InvoiceItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].InvoiceID = invoiceID
	}
	return tx.Create(&items).Error
}

func (r *invoiceRepo) SumIncomingTx(tx *gorm.DB, ref model.CounterpartyRef) (decimal.Decimal, error) {
	return r.sumTotals(tx, "recipient_kind = ? AND recipient_id = ?", ref)
}

func (r *invoiceRepo) SumOutgoingTx(tx *gorm.DB, ref model.CounterpartyRef) (decimal.Decimal, error) {
	return r.sumTotals(tx, "issuer_kind = ? AND issuer_id = ?", ref)
}

func (r *invoiceRepo) sumTotals(tx *gorm.DB, cond string, ref model.CounterpartyRef) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := tx.Model(&model.Invoice{}).
		Select("SUM(total)").
		Where(cond, ref.Kind, ref.ID).
		Where("status <> ?", model.InvoiceDraft).
		Scan(&sum).Error
	if err != nil || !sum.Valid {
		return decimal.Zero, err
	}
	return sum.Decimal, nil
}

func (r *invoiceRepo) NextNumberTx(tx *gorm.DB) (int64, error) {
	// PostgreSQL sequence keeps numbering atomic under concurrent issuance.
	var num int64
	err := tx.Raw("SELECT nextval('invoice_number_seq')").Scan(&num).Error
	return num, err
}
