package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// THS payer designations: who the lump terminal handling surcharge is owed to.
const (
	THSPayerLine      = "line"
	THSPayerWarehouse = "warehouse"
)

// Container groups vehicles shipped together. Status mirrors the vehicle
// lifecycle; a container is marked transferred only once every contained
// vehicle is transferred.
type Container struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Number string    `gorm:"uniqueIndex;not null" json:"number"`
	Status string    `gorm:"type:varchar(20);not null;default:'floating';index" json:"status"`

	WarehouseID *uuid.UUID `gorm:"type:uuid;index" json:"warehouse_id"`
	LineID      *uuid.UUID `gorm:"type:uuid;index" json:"line_id"`

	// THSAmount is the lump surcharge split across vehicles; nil means none.
	THSAmount *decimal.Decimal `gorm:"type:decimal(12,2);column:ths_amount" json:"ths_amount"`
	THSPayer  *string          `gorm:"type:varchar(20);column:ths_payer" json:"ths_payer"`

	UnloadDate *time.Time `json:"unload_date"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Warehouse *Warehouse `gorm:"foreignKey:WarehouseID" json:"-"`
	Line      *Line      `gorm:"foreignKey:LineID" json:"-"`
	Vehicles  []Vehicle  `gorm:"foreignKey:ContainerID" json:"vehicles,omitempty"`
}

// THSPayerRef resolves the payer designation into a counterparty reference.
// Returns false when the container has no payer or the matching association
// is missing.
func (c *Container) THSPayerRef() (CounterpartyRef, bool) {
	if c.THSPayer == nil {
		return CounterpartyRef{}, false
	}
	switch *c.THSPayer {
	case THSPayerLine:
		if c.LineID != nil {
			return CounterpartyRef{Kind: KindLine, ID: *c.LineID}, true
		}
	case THSPayerWarehouse:
		if c.WarehouseID != nil {
			return CounterpartyRef{Kind: KindWarehouse, ID: *c.WarehouseID}, true
		}
	}
	return CounterpartyRef{}, false
}
