package service

import (
	"context"
	"errors"
	"fmt"

	"cargoport/internal/dto"
	"cargoport/internal/model"
	"cargoport/internal/repository"

	"github.com/google/uuid"
)

// CounterpartyService manages the five account-holding roles and the
// per-line vehicle-type coefficients that weight the surcharge split.
type CounterpartyService interface {
	CreateClient(ctx context.Context, req dto.CreateClientRequest) (*dto.CounterpartyResponse, error)
	CreateWarehouse(ctx context.Context, req dto.CreateWarehouseRequest) (*dto.CounterpartyResponse, error)
	CreateLine(ctx context.Context, req dto.CreateLineRequest) (*dto.CounterpartyResponse, error)
	CreateCarrier(ctx context.Context, req dto.CreateCarrierRequest) (*dto.CounterpartyResponse, error)
	CreateCompany(ctx context.Context, req dto.CreateCompanyRequest) (*dto.CounterpartyResponse, error)

	Get(ctx context.Context, ref model.CounterpartyRef) (*dto.CounterpartyResponse, error)
	ListByKind(ctx context.Context, kind model.CounterpartyKind) ([]dto.CounterpartyResponse, error)
	ListAll(ctx context.Context) ([]dto.CounterpartyResponse, error)

	SetCoefficient(ctx context.Context, lineID uuid.UUID, req dto.SetCoefficientRequest) error
	ListCoefficients(ctx context.Context, lineID uuid.UUID) (map[string]string, error)
}

type counterpartyService struct {
	repo repository.CounterpartyRepository
}

func NewCounterpartyService(repo repository.CounterpartyRepository) CounterpartyService {
	return &counterpartyService{repo: repo}
}

func (s *counterpartyService) CreateClient(ctx context.Context, req dto.CreateClientRequest) (*dto.CounterpartyResponse, error) {
	c := &model.Client{Name: req.Name, Email: req.Email, Phone: req.Phone, Active: true}
	if err := s.repo.CreateClient(ctx, c); err != nil {
		return nil, err
	}
	return newCounterpartyResponse(model.KindClient, c.ID, c.Name, c.Balance), nil
}

func (s *counterpartyService) CreateWarehouse(ctx context.Context, req dto.CreateWarehouseRequest) (*dto.CounterpartyResponse, error) {
	w := &model.Warehouse{Name: req.Name, FreeDays: req.FreeDays, Rate: req.Rate, Active: true}
	if err := s.repo.CreateWarehouse(ctx, w); err != nil {
		return nil, err
	}
	return newCounterpartyResponse(model.KindWarehouse, w.ID, w.Name, w.Balance), nil
}

func (s *counterpartyService) CreateLine(ctx context.Context, req dto.CreateLineRequest) (*dto.CounterpartyResponse, error) {
	l := &model.Line{Name: req.Name, Active: true}
	if err := s.repo.CreateLine(ctx, l); err != nil {
		return nil, err
	}
	return newCounterpartyResponse(model.KindLine, l.ID, l.Name, l.Balance), nil
}

func (s *counterpartyService) CreateCarrier(ctx context.Context, req dto.CreateCarrierRequest) (*dto.CounterpartyResponse, error) {
	c := &model.Carrier{Name: req.Name, Active: true}
	if err := s.repo.CreateCarrier(ctx, c); err != nil {
		return nil, err
	}
	return newCounterpartyResponse(model.KindCarrier, c.ID, c.Name, c.Balance), nil
}

func (s *counterpartyService) CreateCompany(ctx context.Context, req dto.CreateCompanyRequest) (*dto.CounterpartyResponse, error) {
	c := &model.Company{Name: req.Name}
	if err := s.repo.CreateCompany(ctx, c); err != nil {
		return nil, err
	}
	return newCounterpartyResponse(model.KindCompany, c.ID, c.Name, c.Balance), nil
}

func (s *counterpartyService) Get(ctx context.Context, ref model.CounterpartyRef) (*dto.CounterpartyResponse, error) {
	acc, err := s.repo.FindAccount(ctx, ref)
	if err != nil {
		return nil, errors.New("counterparty not found")
	}
	return accountToResponse(acc), nil
}

func (s *counterpartyService) ListByKind(ctx context.Context, kind model.CounterpartyKind) ([]dto.CounterpartyResponse, error) {
	accounts, err := s.repo.ListByKind(ctx, kind)
	if err != nil {
		return nil, err
	}
	return accountsToResponses(accounts), nil
}

func (s *counterpartyService) ListAll(ctx context.Context) ([]dto.CounterpartyResponse, error) {
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	return accountsToResponses(accounts), nil
}

func (s *counterpartyService) SetCoefficient(ctx context.Context, lineID uuid.UUID, req dto.SetCoefficientRequest) error {
	if !req.Coefficient.IsPositive() {
		return fmt.Errorf("coefficient must be positive, got %s", req.Coefficient)
	}
	if _, err := s.repo.FindLine(ctx, lineID); err != nil {
		return errors.New("line not found")
	}
	return s.repo.UpsertCoefficient(ctx, &model.VehicleTypeCoefficient{
		LineID:      lineID,
		VehicleType: req.VehicleType,
		Coefficient: req.Coefficient,
	})
}

func (s *counterpartyService) ListCoefficients(ctx context.Context, lineID uuid.UUID) (map[string]string, error) {
	coefs, err := s.repo.CoefficientsByLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(coefs))
	for vehicleType, coef := range coefs {
		out[vehicleType] = coef.String()
	}
	return out, nil
}

func newCounterpartyResponse(kind model.CounterpartyKind, id uuid.UUID, name string, b model.Balance) *dto.CounterpartyResponse {
	return &dto.CounterpartyResponse{
		Kind:           string(kind),
		ID:             id.String(),
		Name:           name,
		InvoiceBalance: b.InvoiceBalance,
		CashBalance:    b.CashBalance,
		CardBalance:    b.CardBalance,
	}
}

func accountsToResponses(accounts []repository.Account) []dto.CounterpartyResponse {
	items := make([]dto.CounterpartyResponse, 0, len(accounts))
	for i := range accounts {
		items = append(items, *accountToResponse(&accounts[i]))
	}
	return items
}
