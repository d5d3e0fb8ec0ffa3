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

type LedgerHandler struct {
	service service.LedgerService
	log     *logger.Logger
}

func NewLedgerHandler(service service.LedgerService, log *logger.Logger) *LedgerHandler {
	return &LedgerHandler{service: service, log: log}
}

func (h *LedgerHandler) AppendEntry(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.AppendLedgerEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	entry, err := h.service.Append(ctx, &req)
	if err != nil {
		h.log.Error("Failed to append ledger entry", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

func (h *LedgerHandler) VoidEntry(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()
	if err := h.service.Void(ctx, id); err != nil {
		h.log.Error("Failed to void ledger entry", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ledger entry voided successfully"})
}

func (h *LedgerHandler) GetEntry(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()
	entry, err := h.service.GetEntry(ctx, id)
	if err != nil {
		h.log.Error("Failed to get ledger entry", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *LedgerHandler) ListEntries(c *gin.Context) {
	ctx := c.Request.Context()
	var filter types.LedgerEntryFilter
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

	response, err := h.service.ListEntries(ctx, &filter)
	if err != nil {
		h.log.Error("Failed to list ledger entries", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *LedgerHandler) GetBalance(c *gin.Context) {
	ctx := c.Request.Context()

	subjectID := c.Query("subject_id")
	if subjectID == "" {
		c.Error(ierr.NewError("subject_id is required").
			WithHint("Provide a subject_id query parameter").
			Mark(ierr.ErrValidation))
		return
	}

	bucket := types.AccountBucket(c.DefaultQuery("bucket", string(types.AccountBucketChecking)))

	balance, err := h.service.GetBalance(ctx, subjectID, bucket)
	if err != nil {
		h.log.Error("Failed to get balance", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, balance)
}
