package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Vehicle lifecycle statuses. Transitions are one-directional in practice:
// floating → in_port → unloaded → transferred.
const (
	StatusFloating    = "floating"
	StatusInPort      = "in_port"
	StatusUnloaded    = "unloaded"
	StatusTransferred = "transferred"
)

// Vehicle type tags used for surcharge weighting.
const (
	TypeSedan     = "sedan"
	TypeSUV       = "suv"
	TypeCrossover = "crossover"
	TypePickup    = "pickup"
	TypeVan       = "van"
	TypeMoto      = "moto"
	TypeATV       = "atv"
	TypeTruck     = "truck"
	TypeBus       = "bus"
	TypeTrailer   = "trailer"
	TypeBoat      = "boat"
)

// Vehicle is one car shipped inside a container. Price fields are computed:
// CurrentPrice is authoritative while the vehicle is active, FinalPrice once
// it is transferred — exactly one of the two is non-zero at any time.
type Vehicle struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	VIN         string    `gorm:"uniqueIndex;not null" json:"vin"`
	Year        int       `json:"year"`
	Brand       string    `json:"brand"`
	VehicleType string    `gorm:"type:varchar(20);not null;default:'sedan'" json:"vehicle_type"`
	Status      string    `gorm:"type:varchar(20);not null;default:'floating';index" json:"status"`

	UnloadDate   *time.Time `json:"unload_date"`
	TransferDate *time.Time `json:"transfer_date"`

	ContainerID *uuid.UUID `gorm:"type:uuid;index" json:"container_id"`
	WarehouseID *uuid.UUID `gorm:"type:uuid;index" json:"warehouse_id"`
	LineID      *uuid.UUID `gorm:"type:uuid;index" json:"line_id"`
	CarrierID   *uuid.UUID `gorm:"type:uuid;index" json:"carrier_id"`
	ClientID    *uuid.UUID `gorm:"type:uuid;index" json:"client_id"`

	ChargeableDays int             `gorm:"not null;default:0" json:"chargeable_days"`
	StorageCost    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"storage_cost"`
	CurrentPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"current_price"`
	FinalPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"final_price"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Container *Container `gorm:"foreignKey:ContainerID" json:"-"`
	Warehouse *Warehouse `gorm:"foreignKey:WarehouseID" json:"-"`
	Line      *Line      `gorm:"foreignKey:LineID" json:"-"`
	Carrier   *Carrier   `gorm:"foreignKey:CarrierID" json:"-"`
	Client    *Client    `gorm:"foreignKey:ClientID" json:"-"`
}

// Transferred reports whether the vehicle reached its terminal state.
func (v *Vehicle) Transferred() bool { return v.Status == StatusTransferred }

// NormalizeTransfer enforces status == transferred ⇔ transfer_date set,
// in both directions, against the given clock.
func (v *Vehicle) NormalizeTransfer(now time.Time) {
	if v.Status == StatusTransferred && v.TransferDate == nil {
		t := now
		v.TransferDate = &t
	}
	if v.TransferDate != nil && v.Status != StatusTransferred {
		v.Status = StatusTransferred
	}
}
