package repository

import (
	"context"
	"fmt"

	"cargoport/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Account is the kind-independent projection of one counterparty row: its
// tagged reference, display name and the three balance buckets.
type Account struct {
	Ref  model.CounterpartyRef
	Name string
	model.Balance
}

type CounterpartyRepository interface {
	CreateClient(ctx context.Context, c *model.Client) error
	CreateWarehouse(ctx context.Context, w *model.Warehouse) error
	CreateLine(ctx context.Context, l *model.Line) error
	CreateCarrier(ctx context.Context, c *model.Carrier) error
	CreateCompany(ctx context.Context, c *model.Company) error

	FindWarehouse(ctx context.Context, id uuid.UUID) (*model.Warehouse, error)
	FindLine(ctx context.Context, id uuid.UUID) (*model.Line, error)

	// FindAccount reads one counterparty through its tagged reference.
	FindAccount(ctx context.Context, ref model.CounterpartyRef) (*Account, error)
	// LockAccountTx reads the row FOR UPDATE — prevents lost updates under
	// concurrent payments touching the same counterparty.
	LockAccountTx(tx *gorm.DB, ref model.CounterpartyRef) (*Account, error)
	UpdateBalanceTx(tx *gorm.DB, ref model.CounterpartyRef, b model.Balance) error
	ListAccounts(ctx context.Context) ([]Account, error)
	ListByKind(ctx context.Context, kind model.CounterpartyKind) ([]Account, error)

	CoefficientsByLine(ctx context.Context, lineID uuid.UUID) (map[string]decimal.Decimal, error)
	UpsertCoefficient(ctx context.Context, c *model.VehicleTypeCoefficient) error

	DB() *gorm.DB
}

type counterpartyRepo struct{ db *gorm.DB }

func NewCounterpartyRepository(db *gorm.DB) CounterpartyRepository {
	return &counterpartyRepo{db: db}
}

func (r *counterpartyRepo) DB() *gorm.DB { return r.db }

func (r *counterpartyRepo) CreateClient(ctx context.Context, c *model.Client) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *counterpartyRepo) CreateWarehouse(ctx context.Context, w *model.Warehouse) error {
	return r.db.WithContext(ctx).Create(w).Error
}

func (r *counterpartyRepo) CreateLine(ctx context.Context, l *model.Line) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *counterpartyRepo) CreateCarrier(ctx context.Context, c *model.Carrier) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *counterpartyRepo) CreateCompany(ctx context.Context, c *model.Company) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *counterpartyRepo) FindWarehouse(ctx context.Context, id uuid.UUID) (*model.Warehouse, error) {
	var w model.Warehouse
	err := r.db.WithContext(ctx).First(&w, id).Error
	return &w, err
}

func (r *counterpartyRepo) FindLine(ctx context.Context, id uuid.UUID) (*model.Line, error) {
	var l model.Line
	err := r.db.WithContext(ctx).Preload("Coefficients").First(&l, id).Error
	return &l, err
}

// tableFor maps a counterparty kind to its table. The switch lives only here;
// everything above works with tagged references.
func tableFor(kind model.CounterpartyKind) (string, error) {
	switch kind {
	case model.KindClient:
		return "clients", nil
	case model.KindWarehouse:
		return "warehouses", nil
	case model.KindLine:
		return "lines", nil
	case model.KindCarrier:
		return "carriers", nil
	case model.KindCompany:
		return "companies", nil
	}
	return "", fmt.Errorf("unknown counterparty kind %q", kind)
}

type accountRow struct {
	ID             uuid.UUID
	Name           string
	InvoiceBalance decimal.Decimal
	CashBalance    decimal.Decimal
	CardBalance    decimal.Decimal
}

func (row accountRow) account(kind model.CounterpartyKind) Account {
	return Account{
		Ref:  model.CounterpartyRef{Kind: kind, ID: row.ID},
		Name: row.Name,
		Balance: model.Balance{
			InvoiceBalance: row.InvoiceBalance,
			CashBalance:    row.CashBalance,
			CardBalance:    row.CardBalance,
		},
	}
}

func (r *counterpartyRepo) FindAccount(ctx context.Context, ref model.CounterpartyRef) (*Account, error) {
	table, err := tableFor(ref.Kind)
	if err != nil {
		return nil, err
	}
	var row accountRow
	if err := r.db.WithContext(ctx).Table(table).Where("id = ?", ref.ID).Take(&row).Error; err != nil {
		return nil, err
	}
	acc := row.account(ref.Kind)
	return &acc, nil
}

func (r *counterpartyRepo) LockAccountTx(tx *gorm.DB, ref model.CounterpartyRef) (*Account, error) {
	table, err := tableFor(ref.Kind)
	if err != nil {
		return nil, err
	}
	var row accountRow
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Table(table).Where("id = ?", ref.ID).Take(&row).Error; err != nil {
		return nil, err
	}
	acc := row.account(ref.Kind)
	return &acc, nil
}

func (r *counterpartyRepo) UpdateBalanceTx(tx *gorm.DB, ref model.CounterpartyRef, b model.Balance) error {
	table, err := tableFor(ref.Kind)
	if err != nil {
		return err
	}
	return tx.Table(table).Where("id = ?", ref.ID).Updates(map[string]interface{}{
		"invoice_balance": b.InvoiceBalance,
		"cash_balance":    b.CashBalance,
		"card_balance":    b.CardBalance,
	}).Error
}

func (r *counterpartyRepo) ListByKind(ctx context.Context, kind model.CounterpartyKind) ([]Account, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	var rows []accountRow
	if err := r.db.WithContext(ctx).Table(table).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	accounts := make([]Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, row.account(kind))
	}
	return accounts, nil
}

func (r *counterpartyRepo) ListAccounts(ctx context.Context) ([]Account, error) {
	kinds := []model.CounterpartyKind{
		model.KindClient, model.KindWarehouse, model.KindLine, model.KindCarrier, model.KindCompany,
	}
	var all []Account
	for _, kind := range kinds {
		accounts, err := r.ListByKind(ctx, kind)
		if err != nil {
			return nil, err
		}
		all = append(all, accounts...)
	}
	return all, nil
}

func (r *counterpartyRepo) CoefficientsByLine(ctx context.Context, lineID uuid.UUID) (map[string]decimal.Decimal, error) {
	var rows []model.VehicleTypeCoefficient
	if err := r.db.WithContext(ctx).Where("line_id = ?", lineID).Find(&rows).Error; err != nil {
		return nil, err
	}
	coefs := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		coefs[row.VehicleType] = row.Coefficient
	}
	return coefs, nil
}

func (r *counterpartyRepo) UpsertCoefficient(ctx context.Context, c *model.VehicleTypeCoefficient) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "line_id"}, {Name: "vehicle_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"coefficient", "updated_at"}),
	}).Create(c).Error
}
