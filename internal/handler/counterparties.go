package handler

import (
	"net/http"

	"cargoport/internal/apierror"
	"cargoport/internal/dto"
	"cargoport/internal/model"
	"cargoport/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CounterpartiesHandler struct {
	svc    service.CounterpartyService
	ledger service.LedgerService
}

func NewCounterpartiesHandler(svc service.CounterpartyService, ledger service.LedgerService) *CounterpartiesHandler {
	return &CounterpartiesHandler{svc: svc, ledger: ledger}
}

func (h *CounterpartiesHandler) CreateClient(c *gin.Context) {
	var req dto.CreateClientRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateClient(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CounterpartiesHandler) CreateWarehouse(c *gin.Context) {
	var req dto.CreateWarehouseRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateWarehouse(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CounterpartiesHandler) CreateLine(c *gin.Context) {
	var req dto.CreateLineRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateLine(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CounterpartiesHandler) CreateCarrier(c *gin.Context) {
	var req dto.CreateCarrierRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateCarrier(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CounterpartiesHandler) CreateCompany(c *gin.Context) {
	var req dto.CreateCompanyRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateCompany(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Get reads one counterparty by kind and ID, balances included.
func (h *CounterpartiesHandler) Get(c *gin.Context) {
	ref, ok := refFromParams(c)
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), ref)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List returns all counterparties of one kind, or every kind when the
// kind parameter is "all".
func (h *CounterpartiesHandler) List(c *gin.Context) {
	kind := c.Param("kind")
	if kind == "all" {
		resp, err := h.svc.ListAll(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, apierror.New("failed to list counterparties"))
			return
		}
		c.JSON(http.StatusOK, resp)
		return
	}
	if !validKind(kind) {
		c.JSON(http.StatusBadRequest, apierror.New("unknown counterparty kind"))
		return
	}
	resp, err := h.svc.ListByKind(c.Request.Context(), model.CounterpartyKind(kind))
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list counterparties"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SetCoefficient sets a line's surcharge weight for one vehicle type.
func (h *CounterpartiesHandler) SetCoefficient(c *gin.Context) {
	lineID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid ID"))
		return
	}
	var req dto.SetCoefficientRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.SetCoefficient(c.Request.Context(), lineID, req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CounterpartiesHandler) ListCoefficients(c *gin.Context) {
	lineID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid ID"))
		return
	}
	resp, err := h.svc.ListCoefficients(c.Request.Context(), lineID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list coefficients"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Balance returns the three balance buckets for one counterparty.
func (h *CounterpartiesHandler) Balance(c *gin.Context) {
	ref, ok := refFromParams(c)
	if !ok {
		return
	}
	resp, err := h.ledger.GetBalance(c.Request.Context(), ref)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func refFromParams(c *gin.Context) (model.CounterpartyRef, bool) {
	kind := c.Param("kind")
	if !validKind(kind) {
		c.JSON(http.StatusBadRequest, apierror.New("unknown counterparty kind"))
		return model.CounterpartyRef{}, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid ID"))
		return model.CounterpartyRef{}, false
	}
	return model.CounterpartyRef{Kind: model.CounterpartyKind(kind), ID: id}, true
}

func validKind(kind string) bool {
	switch model.CounterpartyKind(kind) {
	case model.KindClient, model.KindWarehouse, model.KindLine, model.KindCarrier, model.KindCompany:
		return true
	}
	return false
}
