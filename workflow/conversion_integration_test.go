package workflow_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
	"bitbucket.org/mmdatafocus/procurement_backend/models"
	"bitbucket.org/mmdatafocus/procurement_backend/utils"
	"bitbucket.org/mmdatafocus/procurement_backend/workflow"
	"github.com/shopspring/decimal"
)

type fixture struct {
	ctx      context.Context
	branch   *models.Branch
	currency *models.Currency
	supplier *models.Supplier
}

func setupIntegration(t *testing.T) fixture {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "procurement_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if err := models.MigrateTable(); err != nil {
		t.Fatalf("MigrateTable: %v", err)
	}

	ctx := context.Background()
	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")
	ctx = utils.SetBusinessIdInContext(ctx, fmt.Sprintf("biz-%d", time.Now().UnixNano()))

	series, err := models.CreateTransactionNumberSeries(ctx, &models.NewTransactionNumberSeries{
		Name: "Default Series",
		Modules: []models.NewTransactionNumberSeriesModule{
			{ModuleName: "Purchase Quotation", Prefix: "PQ-"},
			{ModuleName: "Purchase Order", Prefix: "PO-"},
			{ModuleName: "Goods Receipt", Prefix: "GR-"},
			{ModuleName: "Goods Return", Prefix: "GRN-"},
			{ModuleName: "AP Invoice", Prefix: "INV-"},
		},
	})
	if err != nil {
		t.Fatalf("CreateTransactionNumberSeries: %v", err)
	}

	branch, err := models.CreateBranch(ctx, &models.NewBranch{
		Name:                      "Head Office",
		TransactionNumberSeriesId: series.ID,
	})
	if err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}

	currency, err := models.CreateCurrency(ctx, &models.NewCurrency{Symbol: "USD", Name: "US Dollar"})
	if err != nil {
		t.Fatalf("CreateCurrency: %v", err)
	}

	supplier, err := models.CreateSupplier(ctx, &models.NewSupplier{
		Name:                 "Acme Traders",
		CurrencyId:           currency.ID,
		SupplierPaymentTerms: models.PaymentTermsNet30,
	})
	if err != nil {
		t.Fatalf("CreateSupplier: %v", err)
	}

	return fixture{ctx: ctx, branch: branch, currency: currency, supplier: supplier}
}

func (f fixture) newQuotation(t *testing.T, validUntil *time.Time) *models.PurchaseQuotation {
	t.Helper()
	quotation, err := models.CreatePurchaseQuotation(f.ctx, &models.NewPurchaseQuotation{
		SupplierId:    f.supplier.ID,
		BranchId:      f.branch.ID,
		QuotationDate: time.Now(),
		ValidUntil:    validUntil,
		CurrencyId:    f.currency.ID,
		PaymentTerms:  models.PaymentTermsNet30,
		DiscountAmount: decimal.NewFromInt(5),
		CurrentStatus:  models.PurchaseQuotationStatusOpen,
		Details: []models.NewPurchaseQuotationDetail{
			{ItemCode: "WIDGET", ItemName: "Widget", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.RequireFromString("2.50"), Uom: "pcs"},
			{ItemCode: "GADGET", ItemName: "Gadget", Quantity: decimal.NewFromInt(4), UnitPrice: decimal.RequireFromString("1.25"), Uom: "pcs"},
		},
	})
	if err != nil {
		t.Fatalf("CreatePurchaseQuotation: %v", err)
	}
	return quotation
}

func (f fixture) newOrder(t *testing.T, qty int64, price string) *models.PurchaseOrder {
	t.Helper()
	order, err := models.CreatePurchaseOrder(f.ctx, &models.NewPurchaseOrder{
		SupplierId:    f.supplier.ID,
		BranchId:      f.branch.ID,
		OrderDate:     time.Now(),
		CurrencyId:    f.currency.ID,
		PaymentTerms:  models.PaymentTermsNet30,
		CurrentStatus: models.PurchaseOrderStatusOpen,
		Details: []models.NewPurchaseOrderDetail{
			{ItemCode: "WIDGET", ItemName: "Widget", Quantity: decimal.NewFromInt(qty), UnitPrice: decimal.RequireFromString(price), Uom: "pcs"},
		},
	})
	if err != nil {
		t.Fatalf("CreatePurchaseOrder: %v", err)
	}
	return order
}

func TestQuotationToOrderConversion(t *testing.T) {
	f := setupIntegration(t)

	validUntil := time.Now().AddDate(0, 1, 0).Truncate(time.Second)
	quotation := f.newQuotation(t, &validUntil)

	if quotation.TotalAmount.Cmp(decimal.RequireFromString("30.00")) != 0 {
		t.Fatalf("expected quotation total 30.00, got %s", quotation.TotalAmount)
	}
	if quotation.PayableAmount.Cmp(decimal.RequireFromString("25.00")) != 0 {
		t.Fatalf("expected quotation payable 25.00, got %s", quotation.PayableAmount)
	}
	if !strings.HasPrefix(quotation.QuotationNumber, "PQ-") {
		t.Fatalf("expected PQ- prefix, got %q", quotation.QuotationNumber)
	}

	order, err := workflow.ConvertQuotationToOrder(f.ctx, quotation.ID)
	if err != nil {
		t.Fatalf("ConvertQuotationToOrder: %v", err)
	}
	if !strings.HasPrefix(order.OrderNumber, "PO-") {
		t.Fatalf("expected PO- prefix, got %q", order.OrderNumber)
	}
	if len(order.Details) != 2 {
		t.Fatalf("expected 2 order lines, got %d", len(order.Details))
	}
	if order.DeliveryDate == nil || !order.DeliveryDate.Equal(validUntil) {
		t.Fatalf("expected delivery date %s from quotation valid-until, got %v", validUntil, order.DeliveryDate)
	}
	if order.TotalAmount.Cmp(quotation.TotalAmount) != 0 {
		t.Fatalf("order total %s must match quotation total %s", order.TotalAmount, quotation.TotalAmount)
	}

	converted, err := models.GetPurchaseQuotation(f.ctx, quotation.ID)
	if err != nil {
		t.Fatalf("GetPurchaseQuotation: %v", err)
	}
	if converted.CurrentStatus != models.PurchaseQuotationStatusConverted {
		t.Fatalf("expected quotation stamped Converted, got %s", converted.CurrentStatus)
	}

	// second conversion must refuse: a quotation converts once
	if _, err := workflow.ConvertQuotationToOrder(f.ctx, quotation.ID); !utils.IsStateError(err) {
		t.Fatalf("expected state error on double conversion, got %v", err)
	}
}

func TestOrderReceiptInvoiceChain(t *testing.T) {
	f := setupIntegration(t)

	quotation := f.newQuotation(t, nil)
	order, err := workflow.ConvertQuotationToOrder(f.ctx, quotation.ID)
	if err != nil {
		t.Fatalf("ConvertQuotationToOrder: %v", err)
	}
	widgetLine := order.Details[0] // qty 10

	// partial manual receipt for 6 widgets
	receipt1, err := models.CreateGoodsReceipt(f.ctx, &models.NewGoodsReceipt{
		SupplierId:      f.supplier.ID,
		BranchId:        f.branch.ID,
		ReceiptDate:     time.Now(),
		PurchaseOrderId: order.ID,
		CurrencyId:      f.currency.ID,
		PaymentTerms:    models.PaymentTermsNet30,
		CurrentStatus:   models.GoodsReceiptStatusOpen,
		Details: []models.NewGoodsReceiptDetail{
			{PurchaseOrderItemId: widgetLine.ID, ItemCode: "WIDGET", Quantity: decimal.NewFromInt(6), UnitPrice: decimal.RequireFromString("2.50")},
		},
	})
	if err != nil {
		t.Fatalf("CreateGoodsReceipt: %v", err)
	}

	refreshed, err := models.GetPurchaseOrder(f.ctx, order.ID)
	if err != nil {
		t.Fatalf("GetPurchaseOrder: %v", err)
	}
	if refreshed.FulfillmentStatus != models.OrderFulfillmentStatusPartiallyReceived {
		t.Fatalf("expected Partially Received, got %s", refreshed.FulfillmentStatus)
	}

	// over-receiving the widget line must refuse: only 4 remain
	_, err = models.CreateGoodsReceipt(f.ctx, &models.NewGoodsReceipt{
		SupplierId:      f.supplier.ID,
		BranchId:        f.branch.ID,
		ReceiptDate:     time.Now(),
		PurchaseOrderId: order.ID,
		CurrencyId:      f.currency.ID,
		PaymentTerms:    models.PaymentTermsNet30,
		CurrentStatus:   models.GoodsReceiptStatusOpen,
		Details: []models.NewGoodsReceiptDetail{
			{PurchaseOrderItemId: widgetLine.ID, ItemCode: "WIDGET", Quantity: decimal.NewFromInt(5), UnitPrice: decimal.RequireFromString("2.50")},
		},
	})
	if err == nil {
		t.Fatal("expected over-receipt to be rejected")
	}

	// conversion picks up the remaining 4 widgets plus the untouched gadget line
	receipt2, err := workflow.ConvertOrderToReceipt(f.ctx, order.ID)
	if err != nil {
		t.Fatalf("ConvertOrderToReceipt: %v", err)
	}
	if len(receipt2.Details) != 2 {
		t.Fatalf("expected 2 receipt lines, got %d", len(receipt2.Details))
	}
	for _, line := range receipt2.Details {
		switch line.ItemCode {
		case "WIDGET":
			if line.Quantity.Cmp(decimal.NewFromInt(4)) != 0 {
				t.Fatalf("expected remaining widget qty 4, got %s", line.Quantity)
			}
		case "GADGET":
			if line.Quantity.Cmp(decimal.NewFromInt(4)) != 0 {
				t.Fatalf("expected full gadget qty 4, got %s", line.Quantity)
			}
		default:
			t.Fatalf("unexpected line %q", line.ItemCode)
		}
	}

	refreshed, err = models.GetPurchaseOrder(f.ctx, order.ID)
	if err != nil {
		t.Fatalf("GetPurchaseOrder: %v", err)
	}
	if refreshed.FulfillmentStatus != models.OrderFulfillmentStatusReceived {
		t.Fatalf("expected Received, got %s", refreshed.FulfillmentStatus)
	}

	if _, err := workflow.ConvertOrderToReceipt(f.ctx, order.ID); !utils.IsStateError(err) {
		t.Fatalf("expected state error once fully received, got %v", err)
	}

	// bill the second receipt; its lines carry the order line refs through
	invoice, err := workflow.ConvertReceiptToInvoice(f.ctx, receipt2.ID)
	if err != nil {
		t.Fatalf("ConvertReceiptToInvoice: %v", err)
	}
	if invoice.DueDate == nil {
		t.Fatal("expected invoice due date derived from payment terms")
	}
	for _, line := range invoice.Details {
		if line.GoodsReceiptItemId == 0 {
			t.Fatalf("invoice line %q missing receipt line ref", line.ItemCode)
		}
		if line.PurchaseOrderItemId == 0 {
			t.Fatalf("invoice line %q missing transitive order line ref", line.ItemCode)
		}
	}

	refreshed, err = models.GetPurchaseOrder(f.ctx, order.ID)
	if err != nil {
		t.Fatalf("GetPurchaseOrder: %v", err)
	}
	if refreshed.BillingStatus != models.OrderBillingStatusPartiallyInvoiced {
		t.Fatalf("expected Partially Invoiced after billing 4 of 10 widgets, got %s", refreshed.BillingStatus)
	}

	// direct order invoice sweeps up what the receipt invoice did not cover
	if _, err := workflow.ConvertOrderToInvoice(f.ctx, order.ID); err != nil {
		t.Fatalf("ConvertOrderToInvoice: %v", err)
	}
	refreshed, err = models.GetPurchaseOrder(f.ctx, order.ID)
	if err != nil {
		t.Fatalf("GetPurchaseOrder: %v", err)
	}
	if refreshed.BillingStatus != models.OrderBillingStatusInvoiced {
		t.Fatalf("expected Invoiced, got %s", refreshed.BillingStatus)
	}
	if _, err := workflow.ConvertOrderToInvoice(f.ctx, order.ID); !utils.IsStateError(err) {
		t.Fatalf("expected state error once fully invoiced, got %v", err)
	}

	// cancelling the partial receipt releases its 6 widgets back to the order
	if _, err := models.UpdateStatusGoodsReceipt(f.ctx, receipt1.ID, "Cancelled"); err != nil {
		t.Fatalf("UpdateStatusGoodsReceipt: %v", err)
	}
	refreshed, err = models.GetPurchaseOrder(f.ctx, order.ID)
	if err != nil {
		t.Fatalf("GetPurchaseOrder: %v", err)
	}
	if refreshed.FulfillmentStatus != models.OrderFulfillmentStatusPartiallyReceived {
		t.Fatalf("expected Partially Received after cancelling a receipt, got %s", refreshed.FulfillmentStatus)
	}
}

func TestReceiptToReturnConversion(t *testing.T) {
	f := setupIntegration(t)

	order := f.newOrder(t, 8, "3.00")
	receipt, err := workflow.ConvertOrderToReceipt(f.ctx, order.ID)
	if err != nil {
		t.Fatalf("ConvertOrderToReceipt: %v", err)
	}

	goodsReturn, err := workflow.ConvertReceiptToReturn(f.ctx, receipt.ID, "damaged on arrival")
	if err != nil {
		t.Fatalf("ConvertReceiptToReturn: %v", err)
	}
	if goodsReturn.ReturnReason != "damaged on arrival" {
		t.Fatalf("expected return reason carried, got %q", goodsReturn.ReturnReason)
	}
	if len(goodsReturn.Details) != 1 || goodsReturn.Details[0].Quantity.Cmp(decimal.NewFromInt(8)) != 0 {
		t.Fatalf("expected one return line of qty 8")
	}
	if goodsReturn.Details[0].GoodsReceiptItemId == 0 || goodsReturn.Details[0].PurchaseOrderItemId == 0 {
		t.Fatal("return line must carry both upstream refs")
	}

	if _, err := workflow.ConvertReceiptToReturn(f.ctx, receipt.ID, ""); !utils.IsStateError(err) {
		t.Fatalf("expected state error once fully returned, got %v", err)
	}
}

func TestOrderDirectReturnPolicies(t *testing.T) {
	f := setupIntegration(t)

	// legacy policy copies the full ordered quantity every time
	fullOrder := f.newOrder(t, 5, "2.00")
	first, err := workflow.ConvertOrderToReturn(f.ctx, fullOrder.ID, models.ReturnFullQuantity)
	if err != nil {
		t.Fatalf("ConvertOrderToReturn(full): %v", err)
	}
	if first.Details[0].Quantity.Cmp(decimal.NewFromInt(5)) != 0 {
		t.Fatalf("expected full qty 5, got %s", first.Details[0].Quantity)
	}
	second, err := workflow.ConvertOrderToReturn(f.ctx, fullOrder.ID, models.ReturnFullQuantity)
	if err != nil {
		t.Fatalf("ConvertOrderToReturn(full, repeat): %v", err)
	}
	if second.Details[0].Quantity.Cmp(decimal.NewFromInt(5)) != 0 {
		t.Fatalf("full policy must ignore prior returns, got %s", second.Details[0].Quantity)
	}

	// remaining policy is ledger-aware
	remOrder := f.newOrder(t, 5, "2.00")
	if _, err := workflow.ConvertOrderToReturn(f.ctx, remOrder.ID, models.ReturnRemainingQuantity); err != nil {
		t.Fatalf("ConvertOrderToReturn(remaining): %v", err)
	}
	if _, err := workflow.ConvertOrderToReturn(f.ctx, remOrder.ID, models.ReturnRemainingQuantity); !utils.IsStateError(err) {
		t.Fatalf("expected state error once fully returned, got %v", err)
	}
}

func TestOrderEditRespectsConversionFloors(t *testing.T) {
	f := setupIntegration(t)

	order := f.newOrder(t, 10, "2.00")
	line := order.Details[0]

	// receive 6 of 10
	_, err := models.CreateGoodsReceipt(f.ctx, &models.NewGoodsReceipt{
		SupplierId:      f.supplier.ID,
		BranchId:        f.branch.ID,
		ReceiptDate:     time.Now(),
		PurchaseOrderId: order.ID,
		CurrencyId:      f.currency.ID,
		PaymentTerms:    models.PaymentTermsNet30,
		CurrentStatus:   models.GoodsReceiptStatusOpen,
		Details: []models.NewGoodsReceiptDetail{
			{PurchaseOrderItemId: line.ID, ItemCode: "WIDGET", Quantity: decimal.NewFromInt(6), UnitPrice: decimal.RequireFromString("2.00")},
		},
	})
	if err != nil {
		t.Fatalf("CreateGoodsReceipt: %v", err)
	}

	editTo := func(qty int64) *models.NewPurchaseOrder {
		return &models.NewPurchaseOrder{
			SupplierId:   f.supplier.ID,
			BranchId:     f.branch.ID,
			OrderDate:    order.OrderDate,
			CurrencyId:   f.currency.ID,
			PaymentTerms: models.PaymentTermsNet30,
			Details: []models.NewPurchaseOrderDetail{
				{DetailId: line.ID, ItemCode: "WIDGET", ItemName: "Widget", Quantity: decimal.NewFromInt(qty), UnitPrice: decimal.RequireFromString("2.00"), Uom: "pcs"},
			},
		}
	}

	// shrinking below the received quantity must refuse
	if _, err := models.UpdatePurchaseOrder(f.ctx, order.ID, editTo(5)); !utils.IsStateError(err) {
		t.Fatalf("expected state error shrinking below received qty, got %v", err)
	}

	// shrinking above it is allowed and keeps the order partially received
	updated, err := models.UpdatePurchaseOrder(f.ctx, order.ID, editTo(8))
	if err != nil {
		t.Fatalf("UpdatePurchaseOrder to 8: %v", err)
	}
	if updated.FulfillmentStatus != models.OrderFulfillmentStatusPartiallyReceived {
		t.Fatalf("expected Partially Received, got %s", updated.FulfillmentStatus)
	}

	// shrinking to exactly the received quantity flips the order to Received
	updated, err = models.UpdatePurchaseOrder(f.ctx, order.ID, editTo(6))
	if err != nil {
		t.Fatalf("UpdatePurchaseOrder to 6: %v", err)
	}
	if updated.FulfillmentStatus != models.OrderFulfillmentStatusReceived {
		t.Fatalf("expected Received, got %s", updated.FulfillmentStatus)
	}

	// strict mode refuses any edit on an order with conversions against it
	t.Setenv("STRICT_CONVERTED_DOC_IMMUTABLE", "true")
	if _, err := models.UpdatePurchaseOrder(f.ctx, order.ID, editTo(7)); !utils.IsStateError(err) {
		t.Fatalf("expected state error editing under strict immutability, got %v", err)
	}
}

func TestReceiptInvoiceRollsUpLineLevelOrderRefs(t *testing.T) {
	f := setupIntegration(t)

	order := f.newOrder(t, 8, "3.00")
	line := order.Details[0]

	// receipt carries only line-level order refs, no header ref
	receipt, err := models.CreateGoodsReceipt(f.ctx, &models.NewGoodsReceipt{
		SupplierId:    f.supplier.ID,
		BranchId:      f.branch.ID,
		ReceiptDate:   time.Now(),
		CurrencyId:    f.currency.ID,
		PaymentTerms:  models.PaymentTermsNet30,
		CurrentStatus: models.GoodsReceiptStatusOpen,
		Details: []models.NewGoodsReceiptDetail{
			{PurchaseOrderItemId: line.ID, ItemCode: "WIDGET", Quantity: decimal.NewFromInt(8), UnitPrice: decimal.RequireFromString("3.00")},
		},
	})
	if err != nil {
		t.Fatalf("CreateGoodsReceipt: %v", err)
	}
	if receipt.PurchaseOrderId != 0 {
		t.Fatalf("expected receipt without header order ref, got %d", receipt.PurchaseOrderId)
	}

	if _, err := workflow.ConvertReceiptToInvoice(f.ctx, receipt.ID); err != nil {
		t.Fatalf("ConvertReceiptToInvoice: %v", err)
	}

	refreshed, err := models.GetPurchaseOrder(f.ctx, order.ID)
	if err != nil {
		t.Fatalf("GetPurchaseOrder: %v", err)
	}
	if refreshed.BillingStatus != models.OrderBillingStatusInvoiced {
		t.Fatalf("expected billing rollup through line refs, got %s", refreshed.BillingStatus)
	}
}

func TestToggleActiveReportsUpdateFailure(t *testing.T) {
	f := setupIntegration(t)

	businessId, _ := utils.GetBusinessIdFromContext(f.ctx)
	// branches carry no is_active column, so the update must fail loudly
	// instead of rolling back and reporting success
	if _, err := models.ToggleActiveModel[models.Branch](f.ctx, businessId, f.branch.ID, false); err == nil {
		t.Fatal("expected toggle on a model without an active flag to error")
	}
}

func TestConversionBlockedByTerminalStatus(t *testing.T) {
	f := setupIntegration(t)

	order := f.newOrder(t, 3, "1.00")
	if _, err := models.UpdateStatusPurchaseOrder(f.ctx, order.ID, "Cancelled"); err != nil {
		t.Fatalf("UpdateStatusPurchaseOrder: %v", err)
	}
	if _, err := workflow.ConvertOrderToReceipt(f.ctx, order.ID); !utils.IsStateError(err) {
		t.Fatalf("expected state error for cancelled order, got %v", err)
	}
	if _, err := workflow.ConvertOrderToInvoice(f.ctx, order.ID); !utils.IsStateError(err) {
		t.Fatalf("expected state error for cancelled order, got %v", err)
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("procurement-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := dockerRun("exec", name, "redis-cli", "ping"); err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("procurement-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=procurement_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent"); err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
