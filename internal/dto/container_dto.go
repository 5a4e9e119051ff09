package dto

import "github.com/shopspring/decimal"

type ContainerFilter struct {
	Status string `form:"status"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type CreateContainerRequest struct {
	Number      string  `json:"number"       validate:"required"`
	WarehouseID *string `json:"warehouse_id" validate:"omitempty,uuid"`
	LineID      *string `json:"line_id"      validate:"omitempty,uuid"`
}

// UpdateContainerRequest carries only the fields being changed. Status and
// unload-date changes propagate to the contained vehicles; THS and line or
// warehouse changes re-run the surcharge distribution.
type UpdateContainerRequest struct {
	Status      *string          `json:"status"       validate:"omitempty,oneof=floating in_port unloaded transferred"`
	UnloadDate  *string          `json:"unload_date"  validate:"omitempty,datetime=2006-01-02"`
	WarehouseID *string          `json:"warehouse_id" validate:"omitempty,uuid"`
	LineID      *string          `json:"line_id"      validate:"omitempty,uuid"`
	THSAmount   *decimal.Decimal `json:"ths_amount"`
	THSPayer    *string          `json:"ths_payer"    validate:"omitempty,oneof=line warehouse"`
}

type ContainerResponse struct {
	ID          string           `json:"id"`
	Number      string           `json:"number"`
	Status      string           `json:"status"`
	WarehouseID *string          `json:"warehouse_id"`
	LineID      *string          `json:"line_id"`
	THSAmount   *decimal.Decimal `json:"ths_amount"`
	THSPayer    *string          `json:"ths_payer"`
	UnloadDate  *string          `json:"unload_date"`
	Vehicles    int              `json:"vehicles"`
}

type ContainerListResponse struct {
	Data  []ContainerResponse `json:"data"`
	Total int64               `json:"total"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
}
