package v1

import (
	"net/http"

	"github.com/classbank/classbank/internal/api/dto"
	ierr "github.com/classbank/classbank/internal/errors"
	"github.com/classbank/classbank/internal/logger"
	"github.com/classbank/classbank/internal/service"
	"github.com/classbank/classbank/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type ClaimHandler struct {
	service service.ClaimService
	log     *logger.Logger
}

func NewClaimHandler(service service.ClaimService, log *logger.Logger) *ClaimHandler {
	return &ClaimHandler{service: service, log: log}
}

func (h *ClaimHandler) FileClaim(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.FileClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	claim, err := h.service.File(ctx, &req)
	if err != nil {
		h.log.Error("Failed to file claim", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, claim)
}

// DecideClaim applies a reviewer decision. A decision blocked by
// settlement checks is not an HTTP error; the response carries the
// failure list and the claim stays pending.
func (h *ClaimHandler) DecideClaim(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	var req dto.DecideClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.service.Decide(ctx, id, &req)
	if err != nil {
		h.log.Error("Failed to decide claim", "error", err)
		c.Error(err)
		return
	}

	if !response.Succeeded() {
		c.JSON(http.StatusUnprocessableEntity, response)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *ClaimHandler) GetClaim(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()
	claim, err := h.service.Get(ctx, id)
	if err != nil {
		h.log.Error("Failed to get claim", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, claim)
}

func (h *ClaimHandler) ListClaims(c *gin.Context) {
	ctx := c.Request.Context()
	var filter types.ClaimFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.log.Error("Failed to bind query", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation))
		return
	}

	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewDefaultQueryFilter()
	}
	if filter.GetLimit() == 0 {
		filter.Limit = lo.ToPtr(types.FILTER_DEFAULT_LIMIT)
	}

	response, err := h.service.List(ctx, &filter)
	if err != nil {
		h.log.Error("Failed to list claims", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}
