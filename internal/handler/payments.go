package handler

import (
	"net/http"

	"cargoport/internal/apierror"
	"cargoport/internal/dto"
	"cargoport/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PaymentsHandler struct{ ledger service.LedgerService }

func NewPaymentsHandler(ledger service.LedgerService) *PaymentsHandler {
	return &PaymentsHandler{ledger: ledger}
}

// Create processes one money movement. Non-corrective transfers exceeding the
// sender's bucket are rejected with 409 and no balances change.
func (h *PaymentsHandler) Create(c *gin.Context) {
	var req dto.CreatePaymentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.ledger.ProcessPayment(c.Request.Context(), req)
	if err != nil {
		c.JSON(statusFor(err), apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Delete reverses the payment's balance effect before removing it.
func (h *PaymentsHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid ID"))
		return
	}
	if err := h.ledger.DeletePayment(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PaymentsHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid ID"))
		return
	}
	resp, err := h.ledger.GetPayment(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PaymentsHandler) List(c *gin.Context) {
	var filter dto.PaymentFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}
	resp, err := h.ledger.ListPayments(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list payments"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RecalculateBalances rebuilds every counterparty balance from invoice and
// payment history. Heavy; also run nightly by the reconcile worker.
func (h *PaymentsHandler) RecalculateBalances(c *gin.Context) {
	if err := h.ledger.RecalculateAll(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("recalculation failed"))
		return
	}
	c.Status(http.StatusNoContent)
}

// ConsistencyReport returns the latest negative-bucket report.
func (h *PaymentsHandler) ConsistencyReport(c *gin.Context) {
	resp, err := h.ledger.LatestReport(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to load consistency report"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
