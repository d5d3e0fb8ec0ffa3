package api

import (
	v1 "github.com/classbank/classbank/internal/api/v1"
	"github.com/classbank/classbank/internal/rest/middleware"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Ledger     *v1.LedgerHandler
	Policy     *v1.PolicyHandler
	Enrollment *v1.EnrollmentHandler
	Claim      *v1.ClaimHandler
}

func NewRouter(handlers Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.ErrorHandler())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// v1 routes require a tenant scope
	v1Group := router.Group("/v1", middleware.TenantMiddleware)
	registerV1Routes(v1Group, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	// Ledger routes
	ledger := router.Group("/ledger")
	{
		ledger.POST("/entries", handlers.Ledger.AppendEntry)
		ledger.GET("/entries", handlers.Ledger.ListEntries)
		ledger.GET("/entries/:id", handlers.Ledger.GetEntry)
		ledger.POST("/entries/:id/void", handlers.Ledger.VoidEntry)
		ledger.GET("/balance", handlers.Ledger.GetBalance)
	}

	// Policy routes
	policies := router.Group("/policies")
	{
		policies.POST("", handlers.Policy.CreatePolicy)
		policies.GET("", handlers.Policy.ListPolicies)
		policies.GET("/:id", handlers.Policy.GetPolicy)
		policies.PUT("/:id", handlers.Policy.UpdatePolicy)
		policies.POST("/:id/deactivate", handlers.Policy.DeactivatePolicy)
	}

	// Enrollment routes
	enrollments := router.Group("/enrollments")
	{
		enrollments.POST("", handlers.Enrollment.Enroll)
		enrollments.GET("", handlers.Enrollment.ListEnrollments)
		enrollments.GET("/:id", handlers.Enrollment.GetEnrollment)
		enrollments.POST("/:id/payments", handlers.Enrollment.RecordPayment)
		enrollments.POST("/:id/unpaid", handlers.Enrollment.MarkUnpaid)
		enrollments.POST("/:id/cancel", handlers.Enrollment.CancelEnrollment)
		enrollments.POST("/:id/suspend", handlers.Enrollment.SuspendEnrollment)
		enrollments.POST("/:id/resume", handlers.Enrollment.ResumeEnrollment)
	}

	// Claim routes
	claims := router.Group("/claims")
	{
		claims.POST("", handlers.Claim.FileClaim)
		claims.GET("", handlers.Claim.ListClaims)
		claims.GET("/:id", handlers.Claim.GetClaim)
		claims.POST("/:id/decide", handlers.Claim.DecideClaim)
	}
}
