package service

import (
	"time"

	"cargoport/internal/model"

	"github.com/shopspring/decimal"
)

// StorageUsage is the output of the storage cost calculation.
type StorageUsage struct {
	TotalDays      int
	ChargeableDays int
	Cost           decimal.Decimal
}

// CalcStorage computes chargeable days and storage cost for one stored
// entity. The billing window runs from the unload date to the transfer date
// (for transferred entities) or to now, counting both boundary days. Days
// beyond the warehouse's free allowance are billed at its daily rate.
// Missing warehouse or unload date yields zeros, not an error.
func CalcStorage(warehouse *model.Warehouse, unloadDate, transferDate *time.Time, transferred bool, now time.Time) StorageUsage {
	if warehouse == nil || unloadDate == nil {
		return StorageUsage{Cost: decimal.Zero}
	}

	end := now
	if transferred && transferDate != nil {
		end = *transferDate
	}

	totalDays := daysBetween(*unloadDate, end) + 1
	if totalDays < 0 {
		totalDays = 0
	}

	chargeable := totalDays - warehouse.FreeDays
	if chargeable < 0 {
		chargeable = 0
	}

	return StorageUsage{
		TotalDays:      totalDays,
		ChargeableDays: chargeable,
		Cost:           warehouse.Rate.Mul(decimal.NewFromInt(int64(chargeable))),
	}
}

// daysBetween counts whole calendar days from a to b, ignoring time of day.
func daysBetween(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
