package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// VehicleFilter is bound from query string of GET /v1/vehicles.
type VehicleFilter struct {
	Status      string `form:"status"` // lifecycle status | all
	ContainerID string `form:"container_id"`
	ClientID    string `form:"client_id"`
	Page        int    `form:"page,default=1"   validate:"min=1"`
	Limit       int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type VehicleListResponse struct {
	Data  []VehicleResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateVehicleRequest struct {
	VIN         string  `json:"vin"          validate:"required,min=11,max=17"`
	Year        int     `json:"year"         validate:"omitempty,min=1950,max=2100"`
	Brand       string  `json:"brand"        validate:"required"`
	VehicleType string  `json:"vehicle_type" validate:"required,oneof=sedan suv crossover pickup van moto atv truck bus trailer boat"`
	ContainerID string  `json:"container_id" validate:"required,uuid"`
	ClientID    *string `json:"client_id"    validate:"omitempty,uuid"`
}

// UpdateVehicleRequest carries only the fields being changed; nil leaves the
// field untouched. Any accepted update triggers a price recompute.
type UpdateVehicleRequest struct {
	Status       *string `json:"status"        validate:"omitempty,oneof=floating in_port unloaded transferred"`
	UnloadDate   *string `json:"unload_date"   validate:"omitempty,datetime=2006-01-02"`
	TransferDate *string `json:"transfer_date" validate:"omitempty,datetime=2006-01-02"`
	WarehouseID  *string `json:"warehouse_id"  validate:"omitempty,uuid"`
	LineID       *string `json:"line_id"       validate:"omitempty,uuid"`
	CarrierID    *string `json:"carrier_id"    validate:"omitempty,uuid"`
	ClientID     *string `json:"client_id"     validate:"omitempty,uuid"`
}

type AssignServiceRequest struct {
	CatalogEntryID string           `json:"catalog_entry_id" validate:"required,uuid"`
	CustomPrice    *decimal.Decimal `json:"custom_price"` // nil = use catalog default; zero is explicit
	Quantity       int              `json:"quantity"         validate:"required,min=1"`
	Markup         decimal.Decimal  `json:"markup"           validate:"min=0"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type VehicleResponse struct {
	ID             string          `json:"id"`
	VIN            string          `json:"vin"`
	Year           int             `json:"year"`
	Brand          string          `json:"brand"`
	VehicleType    string          `json:"vehicle_type"`
	Status         string          `json:"status"`
	ContainerID    *string         `json:"container_id"`
	WarehouseID    *string         `json:"warehouse_id"`
	LineID         *string         `json:"line_id"`
	CarrierID      *string         `json:"carrier_id"`
	ClientID       *string         `json:"client_id"`
	UnloadDate     *string         `json:"unload_date"`
	TransferDate   *string         `json:"transfer_date"`
	ChargeableDays int             `json:"chargeable_days"`
	StorageCost    decimal.Decimal `json:"storage_cost"`
	CurrentPrice   decimal.Decimal `json:"current_price"`
	FinalPrice     decimal.Decimal `json:"final_price"`
}

type VehicleServiceResponse struct {
	ID             string           `json:"id"`
	CatalogEntryID string           `json:"catalog_entry_id"`
	ProviderKind   string           `json:"provider_kind"`
	ProviderID     string           `json:"provider_id"`
	Name           string           `json:"name"`
	CustomPrice    *decimal.Decimal `json:"custom_price"`
	Quantity       int              `json:"quantity"`
	Markup         decimal.Decimal  `json:"markup"`
	FinalPrice     decimal.Decimal  `json:"final_price"`
	Source         string           `json:"source"`
}
