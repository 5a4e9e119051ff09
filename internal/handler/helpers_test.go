package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"cargoport/internal/dto"
	"cargoport/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	cfgErr := &service.ConfigurationError{Op: "unload container MSKU1234567", Missing: []string{"warehouse_id"}}
	fundsErr := &service.InsufficientFundsError{
		Bucket:    "cash",
		Available: decimal.RequireFromString("40"),
		Requested: decimal.RequireFromString("100"),
	}

	require.Equal(t, http.StatusConflict, statusFor(cfgErr))
	require.Equal(t, http.StatusConflict, statusFor(fundsErr))
	require.Equal(t, http.StatusConflict, statusFor(fmt.Errorf("distribute surcharge: %w", cfgErr)))
	require.Equal(t, http.StatusBadRequest, statusFor(errors.New("vehicle not found")))
}

func TestValidate_DecimalTagsWork(t *testing.T) {
	// The custom type registration must let numeric tags see through
	// decimal.Decimal instead of panicking on the struct type.
	req := dto.CreateCatalogEntryRequest{
		ProviderKind: "warehouse",
		ProviderID:   "0d9f1a6e-1111-4222-8333-444455556666",
		Name:         "unloading",
		DefaultPrice: decimal.RequireFromString("30"),
	}
	require.NoError(t, validate.Struct(req))

	req.DefaultPrice = decimal.RequireFromString("-1")
	require.Error(t, validate.Struct(req))
}
