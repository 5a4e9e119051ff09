package handler

import (
	"net/http"

	"cargoport/internal/apierror"
	"cargoport/internal/dto"
	"cargoport/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ContainersHandler struct {
	svc      service.ContainerService
	vehicles service.VehicleService
}

func NewContainersHandler(svc service.ContainerService, vehicles service.VehicleService) *ContainersHandler {
	return &ContainersHandler{svc: svc, vehicles: vehicles}
}

func (h *ContainersHandler) Create(c *gin.Context) {
	var req dto.CreateContainerRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Update changes container state. Status and unload-date changes propagate to
// the contained vehicles; surcharge configuration changes re-distribute the
// THS and reprice every vehicle.
func (h *ContainersHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid ID"))
		return
	}
	var req dto.UpdateContainerRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(statusFor(err), apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ContainersHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid ID"))
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ContainersHandler) List(c *gin.Context) {
	var filter dto.ContainerFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list containers"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListVehicles returns the vehicles shipped in one container.
func (h *ContainersHandler) ListVehicles(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid ID"))
		return
	}
	if _, err := h.svc.Get(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	resp, err := h.vehicles.List(c.Request.Context(), dto.VehicleFilter{
		ContainerID: id.String(),
		Page:        1,
		Limit:       200,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list vehicles"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
