package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProviderKind identifies which counterparty role owns a catalog entry.
// Clients never own catalogs.
type ProviderKind = CounterpartyKind

// ProviderRef is a tagged reference to the provider owning a catalog entry.
type ProviderRef struct {
	Kind ProviderKind `gorm:"type:varchar(20);index:idx_provider" json:"kind"`
	ID   uuid.UUID    `gorm:"type:uuid;index:idx_provider" json:"id"`
}

func (r ProviderRef) Equal(other ProviderRef) bool {
	return r.Kind == other.Kind && r.ID == other.ID
}

// SurchargeCode is the grouping key reserved for terminal handling surcharge
// entries; the distributor resolves the payer's catalog through it.
const SurchargeCode = "THS"

// StorageDescription labels the synthesized storage invoice line. Storage is
// never a catalog entry — the pricing rollup adds it as a separate term.
const StorageDescription = "storage"

// CatalogEntry is one priced service in a provider's price list. Entries
// sharing a Code collapse into one invoice line.
type CatalogEntry struct {
	ID       uuid.UUID   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Provider ProviderRef `gorm:"embedded;embeddedPrefix:provider_" json:"provider"`

	Name string  `gorm:"not null" json:"name"`
	Code *string `gorm:"type:varchar(30);index" json:"code"`

	DefaultPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"default_price"`
	DefaultMarkup decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"default_markup"`

	Active  bool `gorm:"not null;default:true" json:"active"`
	AutoAdd bool `gorm:"not null;default:false" json:"auto_add"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// GroupKey returns the invoice grouping key: the short code when present,
// otherwise the display name.
func (e *CatalogEntry) GroupKey() string {
	if e.Code != nil && *e.Code != "" {
		return *e.Code
	}
	return e.Name
}
