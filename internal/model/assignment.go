package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ServiceAssignment sources. Surcharge-sourced rows are owned by the distributor
// and fully replaced on every re-distribution.
const (
	SourceManual    = "manual"
	SourceAuto      = "auto"
	SourceSurcharge = "surcharge"
)

// ServiceAssignment attaches one catalog entry to one vehicle — the unit of
// billable work. Unique per (vehicle, catalog entry): reassigning the same
// entry updates, never duplicates. The entry belongs to exactly one provider,
// so the pair also fixes the provider.
type ServiceAssignment struct {
	ID             uuid.UUID   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	VehicleID      uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_vehicle_entry" json:"vehicle_id"`
	Provider       ProviderRef `gorm:"embedded;embeddedPrefix:provider_" json:"provider"`
	CatalogEntryID uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_vehicle_entry" json:"catalog_entry_id"`

	// CustomPrice nil means "use the catalog default". Zero is a valid
	// explicit price and must not fall back to the default.
	CustomPrice *decimal.Decimal `gorm:"type:decimal(12,2)" json:"custom_price"`
	Quantity    int              `gorm:"not null;default:1" json:"quantity"`
	// Markup is the hidden per-unit add-on, visible only on company invoices.
	Markup decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"markup"`

	Source string `gorm:"type:varchar(20);not null;default:'manual'" json:"source"`

	CreatedAt time.Time
	UpdatedAt time.Time

	CatalogEntry *CatalogEntry `gorm:"foreignKey:CatalogEntryID" json:"-"`
}

// UnitPrice resolves the effective per-unit price against the catalog default.
func (s *ServiceAssignment) UnitPrice(defaultPrice decimal.Decimal) decimal.Decimal {
	if s.CustomPrice != nil {
		return *s.CustomPrice
	}
	return defaultPrice
}

// FinalPrice is the billable amount excluding markup.
func (s *ServiceAssignment) FinalPrice(defaultPrice decimal.Decimal) decimal.Decimal {
	return s.UnitPrice(defaultPrice).Mul(decimal.NewFromInt(int64(s.Quantity)))
}

// InvoicePrice includes the hidden markup — company invoices only.
func (s *ServiceAssignment) InvoicePrice(defaultPrice decimal.Decimal) decimal.Decimal {
	return s.UnitPrice(defaultPrice).Add(s.Markup).Mul(decimal.NewFromInt(int64(s.Quantity)))
}

// DeletedServiceMarker records that a user explicitly removed a catalog entry
// from a vehicle, so auto-add never re-inserts it on subsequent saves.
type DeletedServiceMarker struct {
	ID             uuid.UUID   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	VehicleID      uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_deleted_entry" json:"vehicle_id"`
	Provider       ProviderRef `gorm:"embedded;embeddedPrefix:provider_" json:"provider"`
	CatalogEntryID uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_deleted_entry" json:"catalog_entry_id"`
	CreatedAt      time.Time
}
