package dto

import "github.com/shopspring/decimal"

type CatalogFilter struct {
	ProviderKind string `form:"provider_kind" validate:"required,oneof=warehouse line carrier company"`
	ProviderID   string `form:"provider_id"   validate:"required,uuid"`
	ActiveOnly   bool   `form:"active_only"`
}

type CreateCatalogEntryRequest struct {
	ProviderKind  string          `json:"provider_kind"  validate:"required,oneof=warehouse line carrier company"`
	ProviderID    string          `json:"provider_id"    validate:"required,uuid"`
	Name          string          `json:"name"           validate:"required"`
	Code          *string         `json:"code"           validate:"omitempty,max=30"`
	DefaultPrice  decimal.Decimal `json:"default_price"  validate:"min=0"`
	DefaultMarkup decimal.Decimal `json:"default_markup" validate:"min=0"`
	AutoAdd       bool            `json:"auto_add"`
}

type UpdateCatalogEntryRequest struct {
	Name          *string          `json:"name"`
	Code          *string          `json:"code" validate:"omitempty,max=30"`
	DefaultPrice  *decimal.Decimal `json:"default_price"`
	DefaultMarkup *decimal.Decimal `json:"default_markup"`
	Active        *bool            `json:"active"`
	AutoAdd       *bool            `json:"auto_add"`
}

type CatalogEntryResponse struct {
	ID            string          `json:"id"`
	ProviderKind  string          `json:"provider_kind"`
	ProviderID    string          `json:"provider_id"`
	Name          string          `json:"name"`
	Code          *string         `json:"code"`
	DefaultPrice  decimal.Decimal `json:"default_price"`
	DefaultMarkup decimal.Decimal `json:"default_markup"`
	Active        bool            `json:"active"`
	AutoAdd       bool            `json:"auto_add"`
}
