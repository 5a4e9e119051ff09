package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice statuses. Draft is never auto-advanced; the rest are derived from
// paid amount and due date.
const (
	InvoiceDraft         = "draft"
	InvoiceIssued        = "issued"
	InvoicePartiallyPaid = "partially_paid"
	InvoiceOverdue       = "overdue"
	InvoicePaid          = "paid"
)

// Invoice bills one counterparty (recipient) for services on a set of
// vehicles, issued by another counterparty.
type Invoice struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Number string    `gorm:"uniqueIndex;not null" json:"number"`

	Issuer    CounterpartyRef `gorm:"embedded;embeddedPrefix:issuer_" json:"issuer"`
	Recipient CounterpartyRef `gorm:"embedded;embeddedPrefix:recipient_" json:"recipient"`

	Subtotal decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"subtotal"`
	Discount decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"discount"`
	Tax      decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"tax"`
	Total    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"total"`

	Status     string          `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	PaidAmount decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"paid_amount"`

	DueDate  *time.Time `json:"due_date"`
	IssuedAt *time.Time `json:"issued_at"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Vehicles []Vehicle     `gorm:"many2many:invoice_vehicles" json:"vehicles,omitempty"`
	Items    []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
}

// RecalculateTotals derives subtotal and total from the current item set.
func (inv *Invoice) RecalculateTotals() {
	subtotal := decimal.Zero
	for _, item := range inv.Items {
		subtotal = subtotal.Add(item.LineTotal)
	}
	inv.Subtotal = subtotal
	inv.Total = subtotal.Sub(inv.Discount).Add(inv.Tax)
}

// RefreshStatus re-derives the payment status. Draft invoices are never
// advanced automatically; PAID can regress when linked payments are removed.
func (inv *Invoice) RefreshStatus(now time.Time) {
	if inv.Status == InvoiceDraft {
		return
	}
	switch {
	case inv.Total.IsPositive() && inv.PaidAmount.GreaterThanOrEqual(inv.Total):
		inv.Status = InvoicePaid
	case inv.PaidAmount.IsPositive() && inv.PaidAmount.LessThan(inv.Total):
		inv.Status = InvoicePartiallyPaid
	case inv.DueDate != nil && now.After(*inv.DueDate):
		inv.Status = InvoiceOverdue
	default:
		inv.Status = InvoiceIssued
	}
}

// InvoiceItem is one grouped line. Description is the catalog grouping key
// (or "storage"); Position keeps display order stable across regenerations.
type InvoiceItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Description string          `gorm:"not null" json:"description"`
	Quantity    int             `gorm:"not null;default:1" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"unit_price"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"line_total"`
	Position    int             `gorm:"not null;default:0" json:"position"`
	CreatedAt   time.Time
}
