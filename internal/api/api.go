package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ougirez/cancensus/internal/api/controller"
	"github.com/ougirez/cancensus/internal/pkg/logger"
	"github.com/ougirez/cancensus/internal/pkg/metrics"
	"github.com/ougirez/cancensus/internal/service"
)

type APIService struct {
	router  *echo.Echo
	service *service.Service
}

// Serve blocks until the server stops. A graceful Shutdown is not an error.
func (svc *APIService) Serve(addr string) error {
	err := svc.router.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (svc *APIService) Shutdown(ctx context.Context) error {
	return svc.router.Shutdown(ctx)
}

func (svc *APIService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	svc.router.ServeHTTP(w, r)
}

func NewAPIService(s *service.Service, m *metrics.Collector) (*APIService, error) {
	svc := &APIService{router: echo.New(), service: s}

	svc.router.HideBanner = true
	svc.router.HidePort = true
	svc.router.Logger.SetLevel(gommonLevel(s.Settings().LogLevel()))
	svc.router.Validator = NewValidator()
	svc.router.Binder = NewBinder()
	svc.router.JSONSerializer = JSONSerializer{}
	svc.router.HTTPErrorHandler = httpErrorHandler

	svc.router.Use(middleware.Recover())
	svc.router.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator:        uuid.NewString,
		RequestIDHandler: requestIDHandler,
	}))
	svc.router.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.L().Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			)
			return nil
		},
	}))
	svc.router.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST, echo.DELETE},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	if m != nil {
		if err := registry.Register(m); err != nil {
			return nil, err
		}
	}
	svc.router.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	api := svc.router.Group("/api/v1")
	cntrl := controller.NewController(s)

	datasets := api.Group("/datasets")
	datasets.GET("", cntrl.ListDatasets)
	datasets.GET("/attribution", cntrl.GetAttribution)

	regions := api.Group("/regions")
	regions.GET("/:dataset", cntrl.SearchRegions)
	regions.POST("/:dataset/intersecting", cntrl.IntersectingGeometries)

	vectors := api.Group("/vectors")
	vectors.GET("/:dataset", cntrl.SearchVectors)
	vectors.GET("/:dataset/:vector/parent", cntrl.GetParentVector)
	vectors.GET("/:dataset/:vector/children", cntrl.GetChildVectors)
	vectors.GET("/:dataset/:vector/ancestors", cntrl.GetAncestorVectors)
	vectors.GET("/:dataset/:vector/descendants", cntrl.GetDescendantVectors)

	census := api.Group("/census")
	census.POST("", cntrl.GetCensus)
	census.POST("/geometry", cntrl.GetCensusGeometry)

	cache := api.Group("/cache")
	cache.GET("", cntrl.ListCache)
	cache.DELETE("", cntrl.ClearCache, svc.AdminMiddleware)
	cache.DELETE("/:key", cntrl.RemoveCache, svc.AdminMiddleware)

	admin := api.Group("/admin")
	admin.POST("/login", cntrl.LoginAdmin)

	warehouse := api.Group("/warehouse")
	warehouse.POST("/export", cntrl.ExportCensus, svc.AdminMiddleware)
	warehouse.GET("/:dataset/regions", cntrl.ListWarehouseRegions)
	warehouse.GET("/:dataset/regions/:geo_uid", cntrl.GetWarehouseRegion)
	warehouse.GET("/:dataset/values/:vector", cntrl.ListWarehouseValues)

	return svc, nil
}

func gommonLevel(level string) log.Lvl {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	}
	return log.INFO
}
