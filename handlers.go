package main

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
	"bitbucket.org/mmdatafocus/procurement_backend/models"
	"bitbucket.org/mmdatafocus/procurement_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("procurement-backend")

// respondError maps domain errors to HTTP statuses. Document-flow refusals
// are 409 so clients can tell "you can't do that right now" apart from
// malformed input.
func respondError(c *gin.Context, err error) {
	logger := config.GetLogger()
	correlationId, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
	logger.WithFields(logrus.Fields{
		"path":           c.Request.URL.Path,
		"correlation_id": correlationId,
	}).Warn(err.Error())

	switch {
	case utils.IsStateError(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case strings.Contains(err.Error(), "not found"):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case strings.Contains(err.Error(), "business id is required"):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func queryFilter(c *gin.Context, key string) *string {
	v := c.Query(key)
	if v == "" {
		return nil
	}
	return &v
}

type statusInput struct {
	Status string `json:"status" binding:"required"`
}

type toggleInput struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// createHandler/updateHandler fold the bind-call-respond shape shared by
// every document and master type.
func createHandler[In any, Out any](create func(c *gin.Context, input *In) (*Out, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input In
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		result, err := create(c, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}

func updateHandler[In any, Out any](update func(c *gin.Context, id int, input *In) (*Out, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input In
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		result, err := update(c, id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func getHandler[Out any](get func(c *gin.Context, id int) (*Out, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		result, err := get(c, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func statusHandler[Out any](updateStatus func(c *gin.Context, id int, status string) (*Out, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input statusInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		result, err := updateStatus(c, id, input.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func convertHandler[Out any](spanName string, convert func(ctx context.Context, id int) (*Out, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		ctx, span := tracer.Start(c.Request.Context(), spanName)
		defer span.End()
		result, err := convert(ctx, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}

func toggleActiveSupplierHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input toggleInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		supplier, err := models.ToggleActiveSupplier(c.Request.Context(), id, *input.IsActive)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, supplier)
	}
}

func toggleInvoiceLineHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		detailId, err := strconv.Atoi(c.Param("detailId"))
		if err != nil || detailId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid detail id"})
			return
		}
		var input toggleInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		invoice, err := models.ToggleAPInvoiceLine(c.Request.Context(), id, detailId, *input.IsActive)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, invoice)
	}
}
