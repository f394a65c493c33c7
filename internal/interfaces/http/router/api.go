package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storeops/backend/internal/infrastructure/config"
	"github.com/storeops/backend/internal/infrastructure/logger"
	"github.com/storeops/backend/internal/interfaces/http/dto"
	"github.com/storeops/backend/internal/interfaces/http/handler"
	"github.com/storeops/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Handlers are the HTTP handlers mounted by NewEngine
type Handlers struct {
	Health         *handler.HealthHandler
	Materials      *handler.MaterialHandler
	Stock          *handler.StockHandler
	Ledger         *handler.LedgerHandler
	Mappings       *handler.MappingHandler
	Orders         *handler.OrderHandler
	PurchaseOrders *handler.PurchaseOrderHandler
}

// Options configure the engine's middleware stack
type Options struct {
	Logger         *zap.Logger
	HTTP           config.HTTPConfig
	ServiceName    string
	TracingEnabled bool
	// Verifier gates /api routes; nil leaves them open
	Verifier middleware.TokenVerifier
}

// NewEngine builds the gin engine: global middleware, /health and the /api/v1 routes
func NewEngine(opts Options, h Handlers) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
		log.Warn("Invalid trusted proxies, trusting none", zap.Error(err))
		_ = engine.SetTrustedProxies(nil)
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Tracing(opts.ServiceName, opts.TracingEnabled),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.CORS(opts.HTTP),
		middleware.BodyLimit(opts.HTTP.MaxBodySize),
	)
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(dto.ErrCodeRouteNotFound, "Route not found", middleware.GetRequestID(c)))
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, dto.NewErrorResponse(dto.ErrCodeMethodNotAllowed, "Method not allowed", middleware.GetRequestID(c)))
	})

	if h.Health != nil {
		engine.GET("/health", h.Health.Health)
	}

	var apiMiddleware []gin.HandlerFunc
	if opts.Verifier != nil {
		apiMiddleware = append(apiMiddleware, middleware.AuthGate(opts.Verifier))
	}
	apiMiddleware = append(apiMiddleware, middleware.SpanEnricher())

	r := NewRouter(engine, WithMiddleware(apiMiddleware...))
	for _, g := range domainGroups(h) {
		r.Register(g)
	}
	r.Setup()
	return engine
}

func domainGroups(h Handlers) []*DomainGroup {
	var groups []*DomainGroup

	materials := NewDomainGroup("materials", "/materials")
	if h.Materials != nil {
		materials.
			POST("", h.Materials.Create).
			GET("", h.Materials.List).
			POST("/import", h.Materials.Import).
			GET("/:id", h.Materials.Get).
			PUT("/:id", h.Materials.Update).
			DELETE("/:id", h.Materials.Deactivate).
			POST("/:id/activate", h.Materials.Activate).
			POST("/:id/variations", h.Materials.AddVariation)
	}
	if h.Stock != nil {
		materials.
			POST("/:id/stock/add", h.Stock.Add).
			POST("/:id/stock/set", h.Stock.Set)
	}
	groups = append(groups, materials)

	if h.Ledger != nil {
		groups = append(groups, NewDomainGroup("stock", "/stock").
			GET("/ledger", h.Ledger.List).
			GET("/ledger/export", h.Ledger.Download).
			POST("/ledger/export", h.Ledger.Archive))
	}

	if h.Mappings != nil {
		groups = append(groups, NewDomainGroup("mappings", "/mappings").
			POST("", h.Mappings.Create).
			POST("/bulk", h.Mappings.BulkCreate).
			POST("/import", h.Mappings.Import).
			GET("", h.Mappings.ForProduct).
			GET("/material/:id", h.Mappings.ForMaterial).
			PUT("/:id", h.Mappings.UpdateQuantity).
			DELETE("/:id", h.Mappings.Delete))
	}

	if h.Orders != nil {
		groups = append(groups, NewDomainGroup("orders", "/orders").
			GET("/fulfillment", h.Orders.Fulfillment).
			GET("/processed", h.Orders.ListProcessed).
			POST("/required-materials", h.Orders.RequiredMaterials).
			POST("/:id/process-stock", h.Orders.ProcessStock).
			GET("/:id/processed", h.Orders.Processed))
	}

	if h.PurchaseOrders != nil {
		groups = append(groups, NewDomainGroup("purchase-orders", "/purchase-orders").
			POST("", h.PurchaseOrders.Create).
			GET("", h.PurchaseOrders.List).
			GET("/number/:number", h.PurchaseOrders.GetByNumber).
			GET("/:id", h.PurchaseOrders.Get).
			POST("/:id/items", h.PurchaseOrders.AddItem).
			PUT("/:id/items/:itemId", h.PurchaseOrders.UpdateItem).
			DELETE("/:id/items/:itemId", h.PurchaseOrders.RemoveItem).
			PUT("/:id/shipping", h.PurchaseOrders.SetShipping).
			POST("/:id/order", h.PurchaseOrders.MarkOrdered).
			POST("/:id/cancel", h.PurchaseOrders.Cancel).
			POST("/:id/receive", h.PurchaseOrders.Receive))
	}

	return groups
}
