package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
	"bitbucket.org/mmdatafocus/procurement_backend/middlewares"
	"bitbucket.org/mmdatafocus/procurement_backend/models"
	"bitbucket.org/mmdatafocus/procurement_backend/workflow"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func registerRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")

	api.POST("/branches", createHandler(func(c *gin.Context, input *models.NewBranch) (*models.Branch, error) {
		return models.CreateBranch(c.Request.Context(), input)
	}))
	api.GET("/branches", func(c *gin.Context) {
		branches, err := models.GetBranches(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, branches)
	})
	api.GET("/branches/:id", getHandler(func(c *gin.Context, id int) (*models.Branch, error) {
		return models.GetBranch(c.Request.Context(), id)
	}))

	api.POST("/currencies", createHandler(func(c *gin.Context, input *models.NewCurrency) (*models.Currency, error) {
		return models.CreateCurrency(c.Request.Context(), input)
	}))
	api.GET("/currencies", func(c *gin.Context) {
		currencies, err := models.GetCurrencies(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, currencies)
	})

	api.POST("/payment-modes", createHandler(func(c *gin.Context, input *models.NewPaymentMode) (*models.PaymentMode, error) {
		return models.CreatePaymentMode(c.Request.Context(), input)
	}))
	api.GET("/payment-modes", func(c *gin.Context) {
		paymentModes, err := models.GetPaymentModes(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, paymentModes)
	})

	api.POST("/warehouses", createHandler(func(c *gin.Context, input *models.NewWarehouse) (*models.Warehouse, error) {
		return models.CreateWarehouse(c.Request.Context(), input)
	}))
	api.GET("/warehouses", func(c *gin.Context) {
		warehouses, err := models.GetWarehouses(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, warehouses)
	})

	api.POST("/transaction-number-series", createHandler(func(c *gin.Context, input *models.NewTransactionNumberSeries) (*models.TransactionNumberSeries, error) {
		return models.CreateTransactionNumberSeries(c.Request.Context(), input)
	}))
	api.GET("/transaction-number-series", func(c *gin.Context) {
		seriesList, err := models.GetTransactionNumberSeriesList(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, seriesList)
	})

	api.POST("/suppliers", createHandler(func(c *gin.Context, input *models.NewSupplier) (*models.Supplier, error) {
		return models.CreateSupplier(c.Request.Context(), input)
	}))
	api.GET("/suppliers", func(c *gin.Context) {
		suppliers, err := models.GetSuppliers(c.Request.Context(), queryFilter(c, "name"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, suppliers)
	})
	api.GET("/suppliers/:id", getHandler(func(c *gin.Context, id int) (*models.Supplier, error) {
		return models.GetSupplier(c.Request.Context(), id)
	}))
	api.PUT("/suppliers/:id", updateHandler(func(c *gin.Context, id int, input *models.NewSupplier) (*models.Supplier, error) {
		return models.UpdateSupplier(c.Request.Context(), id, input)
	}))
	api.DELETE("/suppliers/:id", getHandler(func(c *gin.Context, id int) (*models.Supplier, error) {
		return models.DeleteSupplier(c.Request.Context(), id)
	}))
	api.PATCH("/suppliers/:id/toggle-active", toggleActiveSupplierHandler())

	api.POST("/purchase-quotations", createHandler(func(c *gin.Context, input *models.NewPurchaseQuotation) (*models.PurchaseQuotation, error) {
		return models.CreatePurchaseQuotation(c.Request.Context(), input)
	}))
	api.GET("/purchase-quotations", func(c *gin.Context) {
		quotations, err := models.GetPurchaseQuotations(c.Request.Context(), queryFilter(c, "quotation_number"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, quotations)
	})
	api.GET("/purchase-quotations/:id", getHandler(func(c *gin.Context, id int) (*models.PurchaseQuotation, error) {
		return models.GetPurchaseQuotation(c.Request.Context(), id)
	}))
	api.PUT("/purchase-quotations/:id", updateHandler(func(c *gin.Context, id int, input *models.NewPurchaseQuotation) (*models.PurchaseQuotation, error) {
		return models.UpdatePurchaseQuotation(c.Request.Context(), id, input)
	}))
	api.DELETE("/purchase-quotations/:id", getHandler(func(c *gin.Context, id int) (*models.PurchaseQuotation, error) {
		return models.DeletePurchaseQuotation(c.Request.Context(), id)
	}))
	api.PATCH("/purchase-quotations/:id/status", statusHandler(func(c *gin.Context, id int, status string) (*models.PurchaseQuotation, error) {
		return models.UpdateStatusPurchaseQuotation(c.Request.Context(), id, status)
	}))
	api.POST("/purchase-quotations/:id/convert/purchase-order", convertHandler("convert-quotation-to-order", workflow.ConvertQuotationToOrder))

	api.POST("/purchase-orders", createHandler(func(c *gin.Context, input *models.NewPurchaseOrder) (*models.PurchaseOrder, error) {
		return models.CreatePurchaseOrder(c.Request.Context(), input)
	}))
	api.GET("/purchase-orders", func(c *gin.Context) {
		orders, err := models.GetPurchaseOrders(c.Request.Context(), queryFilter(c, "order_number"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	})
	api.GET("/purchase-orders/:id", getHandler(func(c *gin.Context, id int) (*models.PurchaseOrder, error) {
		return models.GetPurchaseOrder(c.Request.Context(), id)
	}))
	api.PUT("/purchase-orders/:id", updateHandler(func(c *gin.Context, id int, input *models.NewPurchaseOrder) (*models.PurchaseOrder, error) {
		return models.UpdatePurchaseOrder(c.Request.Context(), id, input)
	}))
	api.DELETE("/purchase-orders/:id", getHandler(func(c *gin.Context, id int) (*models.PurchaseOrder, error) {
		return models.DeletePurchaseOrder(c.Request.Context(), id)
	}))
	api.PATCH("/purchase-orders/:id/status", statusHandler(func(c *gin.Context, id int, status string) (*models.PurchaseOrder, error) {
		return models.UpdateStatusPurchaseOrder(c.Request.Context(), id, status)
	}))
	api.POST("/purchase-orders/:id/convert/goods-receipt", convertHandler("convert-order-to-receipt", workflow.ConvertOrderToReceipt))
	api.POST("/purchase-orders/:id/convert/ap-invoice", convertHandler("convert-order-to-invoice", workflow.ConvertOrderToInvoice))
	api.POST("/purchase-orders/:id/convert/goods-return", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		ctx, span := tracer.Start(c.Request.Context(), "convert-order-to-return")
		defer span.End()
		result, err := workflow.ConvertOrderToReturn(ctx, id, models.ReturnQuantityPolicy(c.Query("policy")))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, result)
	})

	api.POST("/goods-receipts", createHandler(func(c *gin.Context, input *models.NewGoodsReceipt) (*models.GoodsReceipt, error) {
		return models.CreateGoodsReceipt(c.Request.Context(), input)
	}))
	api.GET("/goods-receipts", func(c *gin.Context) {
		receipts, err := models.GetGoodsReceipts(c.Request.Context(), queryFilter(c, "receipt_number"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, receipts)
	})
	api.GET("/goods-receipts/:id", getHandler(func(c *gin.Context, id int) (*models.GoodsReceipt, error) {
		return models.GetGoodsReceipt(c.Request.Context(), id)
	}))
	api.PUT("/goods-receipts/:id", updateHandler(func(c *gin.Context, id int, input *models.NewGoodsReceipt) (*models.GoodsReceipt, error) {
		return models.UpdateGoodsReceipt(c.Request.Context(), id, input)
	}))
	api.PATCH("/goods-receipts/:id/status", statusHandler(func(c *gin.Context, id int, status string) (*models.GoodsReceipt, error) {
		return models.UpdateStatusGoodsReceipt(c.Request.Context(), id, status)
	}))
	api.POST("/goods-receipts/:id/convert/ap-invoice", convertHandler("convert-receipt-to-invoice", workflow.ConvertReceiptToInvoice))
	api.POST("/goods-receipts/:id/convert/goods-return", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		ctx, span := tracer.Start(c.Request.Context(), "convert-receipt-to-return")
		defer span.End()
		result, err := workflow.ConvertReceiptToReturn(ctx, id, c.Query("reason"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, result)
	})

	api.POST("/goods-returns", createHandler(func(c *gin.Context, input *models.NewGoodsReturn) (*models.GoodsReturn, error) {
		return models.CreateGoodsReturn(c.Request.Context(), input)
	}))
	api.GET("/goods-returns", func(c *gin.Context) {
		returns, err := models.GetGoodsReturns(c.Request.Context(), queryFilter(c, "return_number"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, returns)
	})
	api.GET("/goods-returns/:id", getHandler(func(c *gin.Context, id int) (*models.GoodsReturn, error) {
		return models.GetGoodsReturn(c.Request.Context(), id)
	}))
	api.PUT("/goods-returns/:id", updateHandler(func(c *gin.Context, id int, input *models.NewGoodsReturn) (*models.GoodsReturn, error) {
		return models.UpdateGoodsReturn(c.Request.Context(), id, input)
	}))
	api.PATCH("/goods-returns/:id/status", statusHandler(func(c *gin.Context, id int, status string) (*models.GoodsReturn, error) {
		return models.UpdateStatusGoodsReturn(c.Request.Context(), id, status)
	}))

	api.POST("/ap-invoices", createHandler(func(c *gin.Context, input *models.NewAPInvoice) (*models.APInvoice, error) {
		return models.CreateAPInvoice(c.Request.Context(), input)
	}))
	api.GET("/ap-invoices", func(c *gin.Context) {
		invoices, err := models.GetAPInvoices(c.Request.Context(), queryFilter(c, "invoice_number"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, invoices)
	})
	api.GET("/ap-invoices/:id", getHandler(func(c *gin.Context, id int) (*models.APInvoice, error) {
		return models.GetAPInvoice(c.Request.Context(), id)
	}))
	api.PUT("/ap-invoices/:id", updateHandler(func(c *gin.Context, id int, input *models.NewAPInvoice) (*models.APInvoice, error) {
		return models.UpdateAPInvoice(c.Request.Context(), id, input)
	}))
	api.PATCH("/ap-invoices/:id/status", statusHandler(func(c *gin.Context, id int, status string) (*models.APInvoice, error) {
		return models.UpdateStatusAPInvoice(c.Request.Context(), id, status)
	}))
	api.PATCH("/ap-invoices/:id/lines/:detailId/toggle-active", toggleInvoiceLineHandler())
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server before dependencies are ready; app endpoints
	// return 503 until they are.
	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware())
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil || config.GetRedisDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization", "X-Branch-Id", "X-Correlation-Id")
	corsConfig.AddExposeHeaders("Content-Length", "X-Correlation-Id")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(middlewares.AuthMiddleware())
	r.Use(gin.Recovery())

	registerRoutes(r)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()

	// AutoMigrate runs DDL that can block busy tables; allow running
	// migrations as a separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		if err := models.MigrateTable(); err != nil {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Panic(err.Error())
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	if err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error; err != nil {
		logger.WithFields(logrus.Fields{"field": "database"}).Warn("failed to set isolation level: " + err.Error())
	}

	log.Println("Server started on port " + port)

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}
}
