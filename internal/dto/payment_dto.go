package dto

import "github.com/shopspring/decimal"

type PaymentFilter struct {
	Kind      string `form:"kind" validate:"omitempty,oneof=cash card invoice all"`
	InvoiceID string `form:"invoice_id" validate:"omitempty,uuid"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type CreatePaymentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
	Kind   string          `json:"kind"   validate:"required,oneof=cash card invoice"`

	Sender    *CounterpartyRefRequest `json:"sender"`
	Recipient *CounterpartyRefRequest `json:"recipient"`

	InvoiceID *string `json:"invoice_id" validate:"omitempty,uuid"`
	// Corrective entries bypass the insufficient-funds check.
	Corrective  bool    `json:"corrective"`
	Description *string `json:"description"`
}

type PaymentResponse struct {
	ID            string          `json:"id"`
	Amount        decimal.Decimal `json:"amount"`
	Kind          string          `json:"kind"`
	SenderKind    *string         `json:"sender_kind"`
	SenderID      *string         `json:"sender_id"`
	RecipientKind *string         `json:"recipient_kind"`
	RecipientID   *string         `json:"recipient_id"`
	InvoiceID     *string         `json:"invoice_id"`
	Corrective    bool            `json:"corrective"`
	Description   *string         `json:"description"`
	CreatedAt     string          `json:"created_at"`
}

type PaymentListResponse struct {
	Data  []PaymentResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
