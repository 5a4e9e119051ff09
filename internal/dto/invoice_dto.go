package dto

import "github.com/shopspring/decimal"

type InvoiceFilter struct {
	Status     string `form:"status"`
	IssuerKind string `form:"issuer_kind" validate:"omitempty,oneof=client warehouse line carrier company"`
	Page       int    `form:"page,default=1"   validate:"min=1"`
	Limit      int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type CounterpartyRefRequest struct {
	Kind string `json:"kind" validate:"required,oneof=client warehouse line carrier company"`
	ID   string `json:"id"   validate:"required,uuid"`
}

type CreateInvoiceRequest struct {
	Issuer     CounterpartyRefRequest `json:"issuer"      validate:"required"`
	Recipient  CounterpartyRefRequest `json:"recipient"   validate:"required"`
	VehicleIDs []string               `json:"vehicle_ids" validate:"required,min=1,dive,uuid"`
	Discount   decimal.Decimal        `json:"discount"    validate:"min=0"`
	Tax        decimal.Decimal        `json:"tax"         validate:"min=0"`
	DueDate    *string                `json:"due_date"    validate:"omitempty,datetime=2006-01-02"`
}

type InvoiceItemResponse struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	Position    int             `json:"position"`
}

type InvoiceResponse struct {
	ID            string                `json:"id"`
	Number        string                `json:"number"`
	IssuerKind    string                `json:"issuer_kind"`
	IssuerID      string                `json:"issuer_id"`
	RecipientKind string                `json:"recipient_kind"`
	RecipientID   string                `json:"recipient_id"`
	Items         []InvoiceItemResponse `json:"items"`
	Subtotal      decimal.Decimal       `json:"subtotal"`
	Discount      decimal.Decimal       `json:"discount"`
	Tax           decimal.Decimal       `json:"tax"`
	Total         decimal.Decimal       `json:"total"`
	PaidAmount    decimal.Decimal       `json:"paid_amount"`
	Status        string                `json:"status"`
	DueDate       *string               `json:"due_date"`
	IssuedAt      *string               `json:"issued_at"`
	CreatedAt     string                `json:"created_at"`
}

type InvoiceListResponse struct {
	Data  []InvoiceResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
