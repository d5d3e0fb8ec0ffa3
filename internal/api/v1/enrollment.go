package v1

import (
	"net/http"

	"github.com/classbank/classbank/internal/api/dto"
	ierr "github.com/classbank/classbank/internal/errors"
	"github.com/classbank/classbank/internal/logger"
	"github.com/classbank/classbank/internal/service"
	"github.com/gin-gonic/gin"
)

type EnrollmentHandler struct {
	service service.EnrollmentService
	log     *logger.Logger
}

func NewEnrollmentHandler(service service.EnrollmentService, log *logger.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{service: service, log: log}
}

func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	enrollment, err := h.service.Enroll(ctx, &req)
	if err != nil {
		h.log.Error("Failed to enroll", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, enrollment)
}

func (h *EnrollmentHandler) GetEnrollment(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()
	enrollment, err := h.service.Get(ctx, id)
	if err != nil {
		h.log.Error("Failed to get enrollment", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, enrollment)
}

func (h *EnrollmentHandler) ListEnrollments(c *gin.Context) {
	ctx := c.Request.Context()

	subjectID := c.Query("subject_id")
	if subjectID == "" {
		c.Error(ierr.NewError("subject_id is required").
			WithHint("Provide a subject_id query parameter").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.service.ListBySubject(ctx, subjectID)
	if err != nil {
		h.log.Error("Failed to list enrollments", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *EnrollmentHandler) RecordPayment(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	var req dto.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	enrollment, err := h.service.RecordPayment(ctx, id, &req)
	if err != nil {
		h.log.Error("Failed to record payment", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, enrollment)
}

func (h *EnrollmentHandler) MarkUnpaid(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()
	enrollment, err := h.service.MarkUnpaid(ctx, id)
	if err != nil {
		h.log.Error("Failed to mark enrollment unpaid", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, enrollment)
}

func (h *EnrollmentHandler) CancelEnrollment(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()
	if err := h.service.Cancel(ctx, id); err != nil {
		h.log.Error("Failed to cancel enrollment", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Enrollment cancelled successfully"})
}

func (h *EnrollmentHandler) SuspendEnrollment(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()
	if err := h.service.Suspend(ctx, id); err != nil {
		h.log.Error("Failed to suspend enrollment", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Enrollment suspended successfully"})
}

func (h *EnrollmentHandler) ResumeEnrollment(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()
	if err := h.service.Resume(ctx, id); err != nil {
		h.log.Error("Failed to resume enrollment", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Enrollment resumed successfully"})
}
