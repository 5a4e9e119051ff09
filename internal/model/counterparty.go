package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CounterpartyKind identifies one of the five account-holding roles.
type CounterpartyKind string

const (
	KindClient    CounterpartyKind = "client"
	KindWarehouse CounterpartyKind = "warehouse"
	KindLine      CounterpartyKind = "line"
	KindCarrier   CounterpartyKind = "carrier"
	KindCompany   CounterpartyKind = "company"
)

// CounterpartyRef is a tagged reference to a concrete counterparty row.
// Resolved once at construction — no string dispatch downstream.
type CounterpartyRef struct {
	Kind CounterpartyKind `gorm:"type:varchar(20)" json:"kind"`
	ID   uuid.UUID        `gorm:"type:uuid" json:"id"`
}

func (r CounterpartyRef) Equal(other CounterpartyRef) bool {
	return r.Kind == other.Kind && r.ID == other.ID
}

// IsProvider reports whether the counterparty can own a service catalog.
// Clients receive invoices but never issue priced services.
func (r CounterpartyRef) IsProvider() bool {
	return r.Kind != KindClient
}

// Balance holds the three per-counterparty buckets. InvoiceBalance is derived
// from invoice history (incoming minus outgoing totals); cash and card are
// moved only by payments.
type Balance struct {
	InvoiceBalance decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"invoice_balance"`
	CashBalance    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"cash_balance"`
	CardBalance    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"card_balance"`
}

// Bucket returns the balance bucket matching a payment kind ("cash" | "card").
func (b Balance) Bucket(kind string) decimal.Decimal {
	if kind == PaymentKindCard {
		return b.CardBalance
	}
	return b.CashBalance
}

// Client is the vehicle owner being billed by the company.
type Client struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name    string    `gorm:"index;not null" json:"name"`
	Email   *string   `json:"email"`
	Phone   *string   `json:"phone"`
	Balance `json:"balance"`
	Active    bool `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Warehouse stores vehicles and charges per-day storage beyond FreeDays.
type Warehouse struct {
	ID       uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name     string          `gorm:"index;not null" json:"name"`
	FreeDays int             `gorm:"not null;default:0" json:"free_days"`
	Rate     decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"rate"`
	Balance  `json:"balance"`
	Active    bool `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Line is a shipping line moving containers.
type Line struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name    string    `gorm:"index;not null" json:"name"`
	Balance `json:"balance"`
	Active    bool `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Coefficients []VehicleTypeCoefficient `gorm:"foreignKey:LineID" json:"coefficients,omitempty"`
}

// Carrier trucks vehicles inland after unloading.
type Carrier struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name    string    `gorm:"index;not null" json:"name"`
	Balance `json:"balance"`
	Active    bool `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Company is the freight forwarder operating the system. Usually one row.
type Company struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name    string    `gorm:"index;not null" json:"name"`
	Balance `json:"balance"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// VehicleTypeCoefficient weights the THS split for one vehicle type on one
// line. Types without a row weigh 1.0.
type VehicleTypeCoefficient struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	LineID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_line_vehicle_type" json:"line_id"`
	VehicleType string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_line_vehicle_type" json:"vehicle_type"`
	Coefficient decimal.Decimal `gorm:"type:decimal(6,2);not null;default:1" json:"coefficient"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
