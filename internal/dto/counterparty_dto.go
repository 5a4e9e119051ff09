package dto

import "github.com/shopspring/decimal"

type CreateClientRequest struct {
	Name  string  `json:"name"  validate:"required"`
	Email *string `json:"email" validate:"omitempty,email"`
	Phone *string `json:"phone"`
}

type CreateWarehouseRequest struct {
	Name     string          `json:"name"      validate:"required"`
	FreeDays int             `json:"free_days" validate:"min=0"`
	Rate     decimal.Decimal `json:"rate"      validate:"min=0"`
}

type CreateLineRequest struct {
	Name string `json:"name" validate:"required"`
}

type CreateCarrierRequest struct {
	Name string `json:"name" validate:"required"`
}

type CreateCompanyRequest struct {
	Name string `json:"name" validate:"required"`
}

// SetCoefficientRequest sets one vehicle-type weight for a line's THS split.
type SetCoefficientRequest struct {
	VehicleType string          `json:"vehicle_type" validate:"required,oneof=sedan suv crossover pickup van moto atv truck bus trailer boat"`
	Coefficient decimal.Decimal `json:"coefficient"  validate:"required"`
}

type CounterpartyResponse struct {
	Kind           string          `json:"kind"`
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	InvoiceBalance decimal.Decimal `json:"invoice_balance"`
	CashBalance    decimal.Decimal `json:"cash_balance"`
	CardBalance    decimal.Decimal `json:"card_balance"`
}

// BalanceAnomaly is one entry of the consistency report: a counterparty whose
// cash or card bucket went negative.
type BalanceAnomaly struct {
	Kind   string          `json:"kind"`
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Bucket string          `json:"bucket"`
	Amount decimal.Decimal `json:"amount"`
}

type ConsistencyReport struct {
	GeneratedAt string           `json:"generated_at"`
	Anomalies   []BalanceAnomaly `json:"anomalies"`
}
