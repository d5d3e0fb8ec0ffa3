package v1

import (
	"net/http"

	"github.com/classbank/classbank/internal/api/dto"
	ierr "github.com/classbank/classbank/internal/errors"
	"github.com/classbank/classbank/internal/logger"
	"github.com/classbank/classbank/internal/service"
	"github.com/gin-gonic/gin"
)

type PolicyHandler struct {
	service service.PolicyService
	log     *logger.Logger
}

func NewPolicyHandler(service service.PolicyService, log *logger.Logger) *PolicyHandler {
	return &PolicyHandler{service: service, log: log}
}

func (h *PolicyHandler) CreatePolicy(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.CreatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	policy, err := h.service.Create(ctx, &req)
	if err != nil {
		h.log.Error("Failed to create policy", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, policy)
}

func (h *PolicyHandler) GetPolicy(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()
	policy, err := h.service.Get(ctx, id)
	if err != nil {
		h.log.Error("Failed to get policy", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, policy)
}

func (h *PolicyHandler) ListPolicies(c *gin.Context) {
	ctx := c.Request.Context()
	activeOnly := c.Query("active") == "true"

	response, err := h.service.List(ctx, activeOnly)
	if err != nil {
		h.log.Error("Failed to list policies", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *PolicyHandler) UpdatePolicy(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("policy ID is required").
			WithHint("Policy ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	ctx := c.Request.Context()
	var req dto.UpdatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request payload").
			Mark(ierr.ErrValidation))
		return
	}

	policy, err := h.service.Update(ctx, id, &req)
	if err != nil {
		h.log.Error("Failed to update policy", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, policy)
}

func (h *PolicyHandler) DeactivatePolicy(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()
	if err := h.service.Deactivate(ctx, id); err != nil {
		h.log.Error("Failed to deactivate policy", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Policy deactivated successfully"})
}
