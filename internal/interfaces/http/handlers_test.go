package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/vendstock-api/internal/application/dto"
	"github.com/jhoicas/vendstock-api/internal/application/inventory"
	"github.com/jhoicas/vendstock-api/internal/application/reports"
	"github.com/jhoicas/vendstock-api/internal/application/usecase"
	"github.com/jhoicas/vendstock-api/internal/infrastructure/memory"
	"github.com/jhoicas/vendstock-api/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/vendstock-api/internal/interfaces/http"
	"github.com/jhoicas/vendstock-api/pkg/metrics"
)

type apiFixture struct {
	app   *fiber.App
	admin string
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	store := memory.NewStore()
	reg := prometheus.NewRegistry()
	m := metrics.NewInventoryMetrics(reg)
	engine := inventory.NewStockEngine(store, store.Warehouses(), inventory.WithRecorder(m))

	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler})
	apphttp.Router(app, apphttp.RouterDeps{
		Engine:      engine,
		DispatchUC:  inventory.NewDispatchUseCase(engine, nil),
		ReturnUC:    inventory.NewReturnUseCase(engine, nil),
		WarehouseUC: usecase.NewWarehouseUseCase(store.Warehouses()),
		ReportUC: reports.NewReportUseCase(store.Records(), store.Movements(), store.Dispatches(), store.Warehouses(), nil,
			reports.Config{Valuer: reports.FlatValuer{Value: decimal.NewFromInt(2)}, StockAccuracy: 1, NearExpiryDays: 30}),
		PDF:            pdf.NewReportPDFGenerator(),
		ReportObserver: m,
		Gatherer:       reg,
		JWTSecret:      testJWTSecret,
		Logger:         zerolog.Nop(),
	})
	return &apiFixture{app: app, admin: tokenForRole(t, "admin")}
}

func (f *apiFixture) do(t *testing.T, method, path string, body interface{}, auth string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func (f *apiFixture) createWarehouse(t *testing.T) string {
	t.Helper()
	resp, body := f.do(t, http.MethodPost, "/api/warehouses", dto.CreateWarehouseRequest{Code: "bog-01", Name: "Norte"}, f.admin)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var wh dto.WarehouseResponse
	require.NoError(t, json.Unmarshal(body, &wh))
	assert.Equal(t, "BOG-01", wh.Code)
	return wh.ID
}

func (f *apiFixture) receive(t *testing.T, whID, sku, batch string, qty int64) dto.ReceiveStockResponse {
	t.Helper()
	resp, body := f.do(t, http.MethodPost, "/api/inventory/receive", dto.ReceiveStockRequest{
		SKU: sku, ProductName: "Producto " + sku, BatchID: batch, WarehouseID: whID, Quantity: qty,
	}, f.admin)
	require.Contains(t, []int{http.StatusOK, http.StatusCreated}, resp.StatusCode, string(body))
	var out dto.ReceiveStockResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestReceive_CreaYLuegoSuma(t *testing.T) {
	f := newAPI(t)
	whID := f.createWarehouse(t)

	resp, body := f.do(t, http.MethodPost, "/api/inventory/receive", dto.ReceiveStockRequest{
		SKU: "A1", ProductName: "Agua", BatchID: "L1", WarehouseID: whID, Quantity: 10,
	}, f.admin)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = f.do(t, http.MethodPost, "/api/inventory/receive", dto.ReceiveStockRequest{
		SKU: "A1", ProductName: "Agua", BatchID: "L1", WarehouseID: whID, Quantity: 5,
	}, f.admin)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var out dto.ReceiveStockResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.False(t, out.Created)
	assert.EqualValues(t, 15, out.Record.Quantity)
	assert.EqualValues(t, 1000, out.Record.MaxStockLevel)
}

func TestReceive_ValidacionDevuelveDetalles(t *testing.T) {
	f := newAPI(t)
	resp, body := f.do(t, http.MethodPost, "/api/inventory/receive", map[string]interface{}{
		"sku": "A1", "product_name": "Agua", "batch_id": "L1", "warehouse_id": "no-uuid", "quantity": 0,
	}, f.admin)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Equal(t, "VALIDATION", e.Code)
	assert.Contains(t, e.Details, "warehouse_id")
	assert.Contains(t, e.Details, "quantity")
}

func TestReceive_SinPermisoRetorna403(t *testing.T) {
	f := newAPI(t)
	resp, _ := f.do(t, http.MethodPost, "/api/inventory/receive", dto.ReceiveStockRequest{}, tokenForRole(t, "vendedor"))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestGetRecord_IDInvalidoRetorna400(t *testing.T) {
	f := newAPI(t)
	resp, body := f.do(t, http.MethodGet, "/api/inventory/xyz", nil, f.admin)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "INVALID_ID")

	resp, _ = f.do(t, http.MethodGet, "/api/inventory/"+uuid.NewString(), nil, f.admin)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEdit_MaxMenorQueMinRetorna422(t *testing.T) {
	f := newAPI(t)
	whID := f.createWarehouse(t)
	rec := f.receive(t, whID, "A1", "L1", 10)

	resp, body := f.do(t, http.MethodPatch, "/api/inventory/"+rec.Record.ID, map[string]interface{}{
		"min_stock_level": 50, "max_stock_level": 20,
	}, f.admin)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(body), "INVARIANT_VIOLATION")
}

func TestDispatch_StockInsuficienteRetorna422(t *testing.T) {
	f := newAPI(t)
	whID := f.createWarehouse(t)
	f.receive(t, whID, "A1", "L1", 4)

	resp, body := f.do(t, http.MethodPost, "/api/dispatches", dto.CreateDispatchRequest{
		WarehouseID: whID, Destination: "Máquina 7", Items: []dto.StockItemDTO{{SKU: "A1", Quantity: 9}},
	}, f.admin)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Equal(t, "INSUFFICIENT_STOCK", e.Code)
	assert.Equal(t, "A1", e.Details["sku"])
	assert.Equal(t, "4", e.Details["available"])
	assert.Equal(t, "9", e.Details["requested"])
}

func TestDispatch_CicloCompleto(t *testing.T) {
	f := newAPI(t)
	whID := f.createWarehouse(t)
	f.receive(t, whID, "A1", "L1", 10)

	resp, body := f.do(t, http.MethodPost, "/api/dispatches", dto.CreateDispatchRequest{
		WarehouseID: whID, Destination: "Ruta 3", Items: []dto.StockItemDTO{{SKU: "A1", Quantity: 3}},
	}, f.admin)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var d dto.DispatchResponse
	require.NoError(t, json.Unmarshal(body, &d))
	assert.True(t, strings.HasPrefix(d.Code, "DSP-"))
	require.Len(t, d.Allocations, 1)

	resp, _ = f.do(t, http.MethodPost, "/api/dispatches/"+d.ID+"/advance", nil, f.admin)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "pending no avanza sin agente")

	resp, body = f.do(t, http.MethodPost, "/api/dispatches/"+d.ID+"/assign", dto.AssignDispatchRequest{AgentID: uuid.NewString()}, f.admin)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	for _, want := range []string{"in_transit", "delivered"} {
		resp, body = f.do(t, http.MethodPost, "/api/dispatches/"+d.ID+"/advance", nil, f.admin)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		require.NoError(t, json.Unmarshal(body, &d))
		assert.Equal(t, want, d.Status)
	}

	resp, _ = f.do(t, http.MethodPost, "/api/dispatches/"+d.ID+"/cancel", nil, f.admin)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestBulkArchive_FalloParcialRetorna207(t *testing.T) {
	f := newAPI(t)
	whID := f.createWarehouse(t)
	rec := f.receive(t, whID, "A1", "L1", 10)
	missing := uuid.NewString()

	resp, body := f.do(t, http.MethodPost, "/api/inventory/bulk-archive", dto.BulkIDsRequest{IDs: []string{rec.Record.ID, missing}}, f.admin)
	require.Equal(t, http.StatusMultiStatus, resp.StatusCode, string(body))

	var out dto.BulkArchiveResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, 1, out.SucceededCount)
	assert.Equal(t, 1, out.FailedCount)
	assert.Equal(t, []string{missing}, out.FailedIDs)
	assert.Equal(t, inventory.BulkReasonNotFound, out.Failures[missing])

	// el listado por defecto ya no lo muestra
	resp, body = f.do(t, http.MethodGet, "/api/inventory?warehouse_id="+whID, nil, f.admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list dto.InventoryListResponse
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Empty(t, list.Items)

	resp, body = f.do(t, http.MethodPost, "/api/inventory/bulk-unarchive", dto.BulkIDsRequest{IDs: []string{rec.Record.ID}}, f.admin)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
}

func TestValidateStock_NoModifica(t *testing.T) {
	f := newAPI(t)
	whID := f.createWarehouse(t)
	f.receive(t, whID, "A1", "L1", 5)

	resp, body := f.do(t, http.MethodPost, "/api/inventory/validate", dto.ValidateStockRequest{
		WarehouseID: whID, Items: []dto.StockItemDTO{{SKU: "A1", Quantity: 8}},
	}, f.admin)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var out dto.ValidateStockResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.False(t, out.Sufficient)
	assert.EqualValues(t, 5, out.Available)
}

func TestReturnApprove_FaltanteQuedaRegistrado(t *testing.T) {
	f := newAPI(t)
	whID := f.createWarehouse(t)
	f.receive(t, whID, "A1", "L1", 10)

	resp, body := f.do(t, http.MethodPost, "/api/returns", dto.CreateReturnRequest{
		WarehouseID: whID, SKU: "A1", BatchID: "L1", Quantity: 25, Reason: "vencido en máquina",
	}, f.admin)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var ret dto.ReturnResponse
	require.NoError(t, json.Unmarshal(body, &ret))

	resp, body = f.do(t, http.MethodPost, "/api/returns/"+ret.ID+"/approve", nil, f.admin)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &ret))
	assert.Equal(t, "approved", ret.Status)
	assert.EqualValues(t, 15, ret.Shortfall)

	resp, _ = f.do(t, http.MethodPost, "/api/returns/"+ret.ID+"/reject", nil, f.admin)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestReports_SummaryYPDF(t *testing.T) {
	f := newAPI(t)
	whID := f.createWarehouse(t)
	f.receive(t, whID, "A1", "L1", 10)
	f.receive(t, whID, "A1", "L2", 5)

	resp, body := f.do(t, http.MethodGet, "/api/reports/summary?warehouse_id="+whID, nil, f.admin)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var sum dto.InventorySummaryReport
	require.NoError(t, json.Unmarshal(body, &sum))
	assert.Equal(t, 1, sum.TotalSKUs)
	assert.EqualValues(t, 15, sum.TotalQuantity)
	assert.True(t, sum.TotalStockValue.Equal(decimal.NewFromInt(30)))

	resp, body = f.do(t, http.MethodGet, "/api/reports/pdf?warehouse_id="+whID, nil, f.admin)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))

	resp, _ = f.do(t, http.MethodGet, "/api/reports/summary?warehouse_id="+whID+"&from=ayer", nil, f.admin)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReports_RequierePermiso(t *testing.T) {
	f := newAPI(t)
	resp, _ := f.do(t, http.MethodGet, "/api/reports/summary?warehouse_id="+uuid.NewString(), nil, tokenFor(t, "bodeguero", apphttp.PermInventoryManage))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestMetrics_ExponeContadores(t *testing.T) {
	f := newAPI(t)
	whID := f.createWarehouse(t)
	f.receive(t, whID, "A1", "L1", 1)

	resp, body := f.do(t, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "inventory_mutations_total")
}

func TestDispatch_CantidadFueraDeRangoRetorna400(t *testing.T) {
	f := newAPI(t)
	whID := f.createWarehouse(t)
	f.receive(t, whID, "A1", "L1", 5)

	resp, body := f.do(t, http.MethodPost, "/api/dispatches", dto.CreateDispatchRequest{
		WarehouseID: whID, Destination: "Ruta 1",
		Items: []dto.StockItemDTO{{SKU: "A1", Quantity: math.MaxInt64}, {SKU: "A1", Quantity: 1}},
	}, f.admin)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Equal(t, "VALIDATION", e.Code)

	resp, body = f.do(t, http.MethodGet, "/api/dispatches", nil, f.admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, string(body), "DSP-")
}

func TestReceive_LoteArchivadoRetorna409(t *testing.T) {
	f := newAPI(t)
	whID := f.createWarehouse(t)
	rec := f.receive(t, whID, "A1", "L1", 5)

	resp, body := f.do(t, http.MethodPost, "/api/inventory/"+rec.Record.ID+"/archive", nil, f.admin)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = f.do(t, http.MethodPost, "/api/inventory/receive", dto.ReceiveStockRequest{
		SKU: "A1", ProductName: "Agua", BatchID: "L1", WarehouseID: whID, Quantity: 20,
	}, f.admin)
	require.Equal(t, http.StatusConflict, resp.StatusCode, string(body))
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Equal(t, "INVALID_TRANSITION", e.Code)
}
