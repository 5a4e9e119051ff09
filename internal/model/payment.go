package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment kinds. Cash and card move the matching balance bucket; an invoice
// settlement additionally updates the linked invoice's paid amount.
const (
	PaymentKindCash    = "cash"
	PaymentKindCard    = "card"
	PaymentKindInvoice = "invoice"
)

// Payment is a single money movement between counterparties. Sender and
// recipient are both optional; equal sender and recipient is a self top-up.
// Payments are never edited — removal reverses the balance effect.
type Payment struct {
	ID     uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Amount decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	Kind   string          `gorm:"type:varchar(20);not null" json:"kind"`

	SenderKind    *CounterpartyKind `gorm:"type:varchar(20)" json:"sender_kind"`
	SenderID      *uuid.UUID        `gorm:"type:uuid" json:"sender_id"`
	RecipientKind *CounterpartyKind `gorm:"type:varchar(20)" json:"recipient_kind"`
	RecipientID   *uuid.UUID        `gorm:"type:uuid" json:"recipient_id"`

	InvoiceID *uuid.UUID `gorm:"type:uuid;index" json:"invoice_id"`

	// Corrective entries may drive a bucket negative; regular transfers are
	// rejected on insufficient funds.
	Corrective bool `gorm:"not null;default:false" json:"corrective"`

	Description *string `json:"description"`
	CreatedAt   time.Time
}

// Sender returns the tagged sender reference, when present.
func (p *Payment) Sender() (CounterpartyRef, bool) {
	if p.SenderKind == nil || p.SenderID == nil {
		return CounterpartyRef{}, false
	}
	return CounterpartyRef{Kind: *p.SenderKind, ID: *p.SenderID}, true
}

// Recipient returns the tagged recipient reference, when present.
func (p *Payment) Recipient() (CounterpartyRef, bool) {
	if p.RecipientKind == nil || p.RecipientID == nil {
		return CounterpartyRef{}, false
	}
	return CounterpartyRef{Kind: *p.RecipientKind, ID: *p.RecipientID}, true
}

// SelfPayment reports whether sender and recipient are the same counterparty.
func (p *Payment) SelfPayment() bool {
	s, okS := p.Sender()
	r, okR := p.Recipient()
	return okS && okR && s.Equal(r)
}

// BucketKind maps the payment kind to a balance bucket. Invoice settlements
// move cash by convention.
func (p *Payment) BucketKind() string {
	if p.Kind == PaymentKindCard {
		return PaymentKindCard
	}
	return PaymentKindCash
}
