package router

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storeops/backend/internal/application/catalog"
	"github.com/storeops/backend/internal/application/inventory"
	"github.com/storeops/backend/internal/application/purchasing"
	"github.com/storeops/backend/internal/domain/order"
	"github.com/storeops/backend/internal/domain/shared"
	"github.com/storeops/backend/internal/infrastructure/auth"
	"github.com/storeops/backend/internal/infrastructure/cache"
	"github.com/storeops/backend/internal/infrastructure/config"
	"github.com/storeops/backend/internal/infrastructure/export"
	"github.com/storeops/backend/internal/infrastructure/persistence"
	"github.com/storeops/backend/internal/infrastructure/storage"
	"github.com/storeops/backend/internal/interfaces/http/dto"
	"github.com/storeops/backend/internal/interfaces/http/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// staticFeed serves a fixed set of orders
type staticFeed struct {
	orders []order.Order
}

func (f *staticFeed) FetchOrders(_ context.Context, _ order.FeedFilter) ([]order.Order, error) {
	return f.orders, nil
}

func (f *staticFeed) FetchOrder(_ context.Context, id string) (*order.Order, error) {
	for i := range f.orders {
		if f.orders[i].ID == id {
			o := f.orders[i]
			return &o, nil
		}
	}
	return nil, shared.ErrNotFound
}

type apiEnv struct {
	engine  *gin.Engine
	feed    *staticFeed
	storage *storage.MemoryExportStorage
	token   string
}

type envOptions struct {
	withStorage bool
	withFeed    bool
	withAuth    bool
}

func newAPIEnv(t *testing.T, opts envOptions) *apiEnv {
	t.Helper()

	database, err := persistence.NewDatabase(&config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, database.AutoMigrate())
	db := database.DB

	memCache := cache.NewMemoryCache(time.Minute)
	t.Cleanup(func() { _ = memCache.Close() })

	scope := persistence.NewGormTransactionScope(db)
	materials := persistence.NewGormMaterialRepository(db)
	mappings := persistence.NewGormMappingRepository(db)
	processed := persistence.NewGormProcessedOrderRepository(db)

	env := &apiEnv{}
	var feed order.Feed
	if opts.withFeed {
		env.feed = &staticFeed{}
		feed = env.feed
	}
	var exportStorage inventory.ExportStorage
	if opts.withStorage {
		env.storage = storage.NewMemoryExportStorage("http://exports.test")
		exportStorage = env.storage
	}

	fulfillmentSvc := inventory.NewFulfillmentService(feed, materials, mappings, processed, memCache, time.Minute, nil)
	processor := inventory.NewOrderStockProcessor(scope, processed, nil, inventory.WithCacheInvalidator(memCache))

	handlers := Handlers{
		Health:         handler.NewHealthHandler("test", map[string]handler.Pinger{"database": handler.PingFunc(func(context.Context) error { return database.Ping() })}),
		Materials:      handler.NewMaterialHandler(catalog.NewMaterialService(scope, materials, memCache, nil)),
		Stock:          handler.NewStockHandler(inventory.NewStockService(scope, memCache, nil, nil)),
		Ledger:         handler.NewLedgerHandler(inventory.NewLedgerService(persistence.NewGormLedgerRepository(db), materials, export.NewXLSXExporter(), exportStorage, nil)),
		Mappings:       handler.NewMappingHandler(catalog.NewMappingService(mappings, materials, memCache, nil)),
		Orders:         handler.NewOrderHandler(fulfillmentSvc, processor),
		PurchaseOrders: handler.NewPurchaseOrderHandler(purchasing.NewPurchaseOrderService(scope, persistence.NewGormPurchaseOrderRepository(db), memCache, nil, nil)),
	}

	options := Options{ServiceName: "storeops-test"}
	if opts.withAuth {
		verifier := auth.NewVerifier(config.JWTConfig{Enabled: true, Secret: "api-test-secret-0123456789abcdef", Issuer: "storeops"})
		options.Verifier = verifier
		env.token, err = verifier.Issue("tester", "Tester", time.Hour)
		require.NoError(t, err)
	}
	env.engine = NewEngine(options, handlers)
	return env
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func (e *apiEnv) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	var env envelope
	if ct := w.Header().Get("Content-Type"); len(ct) >= 16 && ct[:16] == "application/json" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func (e *apiEnv) createMaterial(t *testing.T, name string, stock int) catalog.MaterialResponse {
	t.Helper()
	w, env := e.do(t, http.MethodPost, "/api/v1/materials", map[string]any{"name": name, "initial_stock": stock})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[catalog.MaterialResponse](t, env.Data)
}

func (e *apiEnv) createMapping(t *testing.T, productID, materialID string, qty int) {
	t.Helper()
	w, _ := e.do(t, http.MethodPost, "/api/v1/mappings", map[string]any{
		"product_id":          productID,
		"material_product_id": materialID,
		"quantity_used":       qty,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestAPI_ProcessOrderStockOnce(t *testing.T) {
	env := newAPIEnv(t, envOptions{})
	foil := env.createMaterial(t, "Gold foil", 10)
	env.createMapping(t, "100", foil.ID.String(), 2)

	body := map[string]any{
		"order_number": "1001",
		"line_items":   []map[string]any{{"product_id": "100", "quantity": 3, "name": "Card"}},
	}
	w, resp := env.do(t, http.MethodPost, "/api/v1/orders/ord-1/process-stock", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[inventory.ProcessOrderResult](t, resp.Data)
	require.Len(t, result.Results, 1)
	assert.Equal(t, 6, result.Results[0].QuantityDeducted)
	assert.Equal(t, 4, result.Results[0].NewStock)

	w, resp = env.do(t, http.MethodPost, "/api/v1/orders/ord-1/process-stock", body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ORDER_ALREADY_PROCESSED", resp.Error.Code)

	w, resp = env.do(t, http.MethodGet, "/api/v1/orders/ord-1/processed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decode[map[string]any](t, resp.Data)
	assert.Equal(t, true, status["processed"])
	assert.Equal(t, "1001", status["order_number"])

	w, resp = env.do(t, http.MethodGet, "/api/v1/stock/ledger?material_id="+foil.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries := decode[[]inventory.LedgerEntryResponse](t, resp.Data)
	require.Len(t, entries, 2)
	assert.Equal(t, "order", entries[1].Reason)
	assert.Equal(t, -6, entries[1].QuantityChange)
	assert.Equal(t, 4, entries[1].NewStock)

	w, resp = env.do(t, http.MethodGet, "/api/v1/materials/"+foil.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4, decode[catalog.MaterialResponse](t, resp.Data).StockQuantity)
}

func TestAPI_ProcessStockWithoutFeed(t *testing.T) {
	env := newAPIEnv(t, envOptions{})
	w, resp := env.do(t, http.MethodPost, "/api/v1/orders/ord-9/process-stock", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "FEED_NOT_CONFIGURED", resp.Error.Code)
}

func TestAPI_ProcessStockFetchesFromFeed(t *testing.T) {
	env := newAPIEnv(t, envOptions{withFeed: true})
	ribbon := env.createMaterial(t, "Ribbon", 5)
	env.createMapping(t, "200", ribbon.ID.String(), 1)
	env.feed.orders = []order.Order{{
		ID: "55", Number: "55", Status: order.StatusProcessing,
		LineItems: []order.LineItem{{ProductID: "200", Quantity: 2}, {ProductID: "999", Quantity: 1}},
	}}

	w, resp := env.do(t, http.MethodPost, "/api/v1/orders/55/process-stock", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[inventory.ProcessOrderResult](t, resp.Data)
	assert.Equal(t, "55", result.OrderNumber)
	require.Len(t, result.Results, 1)
	assert.Equal(t, 3, result.Results[0].NewStock)
	require.Len(t, result.UnmappedItems, 1)
	assert.Equal(t, "999", result.UnmappedItems[0].ProductID)

	w, resp = env.do(t, http.MethodPost, "/api/v1/orders/404/process-stock", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestAPI_FulfillmentAllocatesOldestFirst(t *testing.T) {
	env := newAPIEnv(t, envOptions{withFeed: true})
	box := env.createMaterial(t, "Box", 1)
	env.createMapping(t, "300", box.ID.String(), 1)

	now := time.Now().UTC()
	env.feed.orders = []order.Order{
		{ID: "2", Number: "2", Status: order.StatusProcessing, DateCreated: now, LineItems: []order.LineItem{{ProductID: "300", Quantity: 1}}},
		{ID: "1", Number: "1", Status: order.StatusProcessing, DateCreated: now.Add(-time.Hour), LineItems: []order.LineItem{{ProductID: "300", Quantity: 1}}},
	}

	w, resp := env.do(t, http.MethodGet, "/api/v1/orders/fulfillment?status=processing", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	views := decode[[]inventory.OrderFulfillmentResponse](t, resp.Data)
	require.Len(t, views, 2)
	assert.Equal(t, "1", views[0].OrderID)
	assert.True(t, views[0].CanFulfill)
	assert.Equal(t, "2", views[1].OrderID)
	assert.False(t, views[1].CanFulfill)
	require.Len(t, views[1].MissingMaterials, 1)
	assert.Equal(t, 0, views[1].MissingMaterials[0].Available)

	w, resp = env.do(t, http.MethodPost, "/api/v1/orders/required-materials", map[string]any{"order_id": "2"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	req := decode[map[string]any](t, resp.Data)
	assert.Equal(t, true, req["can_fulfill"])
}

func TestAPI_RequiredMaterialsInlineOrder(t *testing.T) {
	env := newAPIEnv(t, envOptions{})
	glue := env.createMaterial(t, "Glue", 1)
	env.createMapping(t, "400", glue.ID.String(), 2)

	w, resp := env.do(t, http.MethodPost, "/api/v1/orders/required-materials", map[string]any{
		"order": map[string]any{"id": "x", "line_items": []map[string]any{{"product_id": "400", "quantity": 1}}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	req := decode[map[string]any](t, resp.Data)
	assert.Equal(t, false, req["can_fulfill"])

	w, resp = env.do(t, http.MethodPost, "/api/v1/orders/required-materials", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
}

func TestAPI_StockAdjustments(t *testing.T) {
	env := newAPIEnv(t, envOptions{})
	paper := env.createMaterial(t, "Paper", 0)
	base := "/api/v1/materials/" + paper.ID.String()

	w, resp := env.do(t, http.MethodPost, base+"/stock/add", map[string]any{"quantity": 5, "reason": "stock_in"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	change := decode[inventory.StockChangeResponse](t, resp.Data)
	assert.Equal(t, 0, change.PreviousStock)
	assert.Equal(t, 5, change.NewStock)

	w, resp = env.do(t, http.MethodPost, base+"/stock/set", map[string]any{"new_stock": 5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 5, decode[inventory.StockChangeResponse](t, resp.Data).NewStock)

	w, resp = env.do(t, http.MethodPost, base+"/stock/add", map[string]any{"quantity": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "quantity", resp.Error.Details[0].Field)

	w, resp = env.do(t, http.MethodGet, "/api/v1/stock/ledger?material_id="+paper.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries := decode[[]inventory.LedgerEntryResponse](t, resp.Data)
	require.Len(t, entries, 2, "zero-delta stock take is still ledgered")
	assert.Equal(t, "stock_take", entries[1].Reason)
	assert.Equal(t, 0, entries[1].QuantityChange)
}

func TestAPI_LedgerExport(t *testing.T) {
	env := newAPIEnv(t, envOptions{withStorage: true})
	env.createMaterial(t, "Ink", 7)

	w, _ := env.do(t, http.MethodGet, "/api/v1/stock/ledger/export", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	assert.Equal(t, "1", w.Header().Get("X-Entry-Count"))

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	rows, err := f.GetRows("Ledger")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Ink", rows[1][1])

	w, resp := env.do(t, http.MethodPost, "/api/v1/stock/ledger/export", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	archived := decode[inventory.LedgerExportResponse](t, resp.Data)
	assert.Equal(t, 1, archived.EntryCount)
	assert.Contains(t, archived.DownloadURL, "http://exports.test/"+archived.StorageKey)
	_, ok := env.storage.Object(archived.StorageKey)
	assert.True(t, ok)
}

func TestAPI_LedgerArchiveWithoutStorage(t *testing.T) {
	env := newAPIEnv(t, envOptions{})
	w, resp := env.do(t, http.MethodPost, "/api/v1/stock/ledger/export", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "EXPORT_STORAGE_NOT_CONFIGURED", resp.Error.Code)

	w, resp = env.do(t, http.MethodGet, "/api/v1/stock/ledger?material_id=nope", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
}

func TestAPI_PurchaseOrderReceiving(t *testing.T) {
	env := newAPIEnv(t, envOptions{})
	card := env.createMaterial(t, "Card stock", 2)

	w, resp := env.do(t, http.MethodPost, "/api/v1/purchase-orders", map[string]any{
		"supplier_id": "paper-co",
		"items": []map[string]any{
			{"material_id": card.ID.String(), "quantity_ordered": 10, "unit_price": "1.50", "vat_rate": "20"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	po := decode[purchasing.PurchaseOrderResponse](t, resp.Data)
	require.Len(t, po.Items, 1)
	itemID := po.Items[0].ID
	base := "/api/v1/purchase-orders/" + po.ID.String()

	w, _ = env.do(t, http.MethodPost, base+"/order", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, resp = env.do(t, http.MethodPost, base+"/receive", map[string]any{
		"items": []map[string]any{{"item_id": itemID, "quantity": 15}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	received := decode[purchasing.ReceiveResultResponse](t, resp.Data)
	require.Len(t, received.ReceivedItems, 1)
	assert.Equal(t, 10, received.ReceivedItems[0].Accepted)
	assert.Equal(t, 12, received.ReceivedItems[0].NewStock)
	assert.True(t, received.IsFullyReceived)
	assert.Equal(t, "received", received.Order.Status)

	w, resp = env.do(t, http.MethodPost, base+"/receive", map[string]any{
		"items": []map[string]any{{"item_id": itemID, "quantity": 1}},
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "PO_NOT_RECEIVABLE", resp.Error.Code)

	w, resp = env.do(t, http.MethodGet, "/api/v1/purchase-orders/number/"+po.PONumber, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, po.ID, decode[purchasing.PurchaseOrderResponse](t, resp.Data).ID)

	w, resp = env.do(t, http.MethodGet, "/api/v1/purchase-orders?status=received", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(1), resp.Meta.Total)
}

func (e *apiEnv) raw(t *testing.T, path, contentType string, body *bytes.Buffer) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func TestAPI_MappingCSVImport(t *testing.T) {
	env := newAPIEnv(t, envOptions{})
	env.createMapping(t, "1", "M1", 2)

	t.Run("text body", func(t *testing.T) {
		csv := "product_id,variation_id,material_product_id,material_variation_id,quantity_used\n" +
			"1,,M1,,2\n" +
			"2,20,M1,,3\n"
		w, resp := env.raw(t, "/api/v1/mappings/import", "text/csv", bytes.NewBufferString(csv))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		result := decode[catalog.BulkCreateMappingsResponse](t, resp.Data)
		assert.Len(t, result.Created, 1)
		assert.Len(t, result.Skipped, 1)
	})

	t.Run("multipart upload", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", "mappings.csv")
		require.NoError(t, err)
		_, err = part.Write([]byte("product_id,material_product_id,quantity_used\n3,M2,1\n"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		w, resp := env.raw(t, "/api/v1/mappings/import", mw.FormDataContentType(), &buf)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		result := decode[catalog.BulkCreateMappingsResponse](t, resp.Data)
		require.Len(t, result.Created, 1)
		assert.Equal(t, "M2", result.Created[0].MaterialProductID)
	})

	t.Run("bad rows reject the file", func(t *testing.T) {
		csv := "product_id,material_product_id,quantity_used\n4,M1,1\n5,M1,zero\n"
		w, resp := env.raw(t, "/api/v1/mappings/import", "text/csv", bytes.NewBufferString(csv))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "line 3.quantity_used", resp.Error.Details[0].Field)

		w, resp = env.do(t, http.MethodGet, "/api/v1/mappings?product_id=4", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decode[[]catalog.MappingResponse](t, resp.Data))
	})

	t.Run("missing columns", func(t *testing.T) {
		w, resp := env.raw(t, "/api/v1/mappings/import", "text/csv", bytes.NewBufferString("product_id\n1\n"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_CSV_HEADER", resp.Error.Code)
	})
}

func TestAPI_Errors(t *testing.T) {
	env := newAPIEnv(t, envOptions{})

	w, resp := env.do(t, http.MethodPost, "/api/v1/materials", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.RequestID)

	w, resp = env.do(t, http.MethodGet, "/api/v1/materials/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidID, resp.Error.Code)

	w, resp = env.do(t, http.MethodGet, "/api/v1/materials/00000000-0000-0000-0000-000000000001", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)

	w, resp = env.do(t, http.MethodGet, "/api/v1/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeRouteNotFound, resp.Error.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/materials", bytes.NewBufferString("{broken"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), dto.ErrCodeInvalidJSON)
}

func TestAPI_AuthGate(t *testing.T) {
	env := newAPIEnv(t, envOptions{withAuth: true})

	w, _ := env.do(t, http.MethodGet, "/api/v1/materials", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	env.token = ""
	w, resp := env.do(t, http.MethodGet, "/api/v1/materials", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeUnauthorized, resp.Error.Code)

	w, _ = env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"ok"`)
}
