// Package restserver implements the REST API controller: latest and span
// telemetry queries, array inventory, health, and the Prometheus metrics
// endpoint.
package restserver

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/arrayops/remotearray/internal/database"
	"github.com/arrayops/remotearray/internal/log"
	"github.com/arrayops/remotearray/internal/monitoring"
	"github.com/arrayops/remotearray/pkg/config"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Controller represents the REST server controller
type Controller struct {
	ctx            context.Context
	wg             *sync.WaitGroup
	configProvider config.ConfigProvider
	restConfig     config.RESTServerData
	Server         http.Server
	DB             *database.Client
	DBEnabled      bool
	Arrays         []config.ArrayData
	ArrayNames     map[string]bool
	logger         *zap.SugaredLogger
	handlers       *Handlers
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, rc config.RESTServerData, logger *zap.SugaredLogger) (*Controller, error) {
	ctrl := &Controller{
		ctx:            ctx,
		wg:             wg,
		configProvider: configProvider,
		restConfig:     rc,
		logger:         logger,
	}

	// Load configuration
	cfgData, err := configProvider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %v", err)
	}

	ctrl.Arrays = cfgData.Arrays
	ctrl.ArrayNames = make(map[string]bool, len(cfgData.Arrays))
	for _, array := range cfgData.Arrays {
		ctrl.ArrayNames[array.Name] = true
	}

	if rc.DefaultArray != "" && !ctrl.ArrayNames[rc.DefaultArray] {
		return nil, fmt.Errorf("rest.default_array %q is not a configured array", rc.DefaultArray)
	}

	// If a listen address was not provided, listen on all interfaces
	if rc.ListenAddr == "" {
		logger.Info("rest.listen_addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		rc.ListenAddr = "0.0.0.0"
	}

	if rc.Port == 0 {
		logger.Info("rest.port not provided; defaulting to 8080")
		rc.Port = 8080
	}

	// If a TimescaleDB database was configured, set up a client so that the
	// handlers can retrieve data
	if cfgData.Storage.TimescaleDB != nil && cfgData.Storage.TimescaleDB.ConnectionString != "" {
		ctrl.DB = database.NewClient(configProvider, logger)
		if err := ctrl.DB.Connect(); err != nil {
			return nil, fmt.Errorf("REST server could not connect to database: %v", err)
		}
		ctrl.DBEnabled = true
	}

	ctrl.handlers = NewHandlers(ctrl)

	router := ctrl.setupRouter()
	ctrl.Server.Addr = fmt.Sprintf("%v:%v", rc.ListenAddr, rc.Port)
	ctrl.Server.Handler = router

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	log.Info("Starting REST server controller...")
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		if c.restConfig.Cert != "" && c.restConfig.Key != "" {
			if err := c.Server.ListenAndServeTLS(c.restConfig.Cert, c.restConfig.Key); err != http.ErrServerClosed {
				log.Errorf("REST server error: %v", err)
			}
		} else {
			if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
				log.Errorf("REST server error: %v", err)
			}
		}
	}()

	go func() {
		<-c.ctx.Done()
		log.Info("Shutting down the REST server...")
		c.Server.Shutdown(context.Background())
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(metricsMiddleware)

	router.HandleFunc("/latest", c.handlers.GetLatest).Methods("GET")
	router.HandleFunc("/span/{span}", c.handlers.GetSpan).Methods("GET")
	router.HandleFunc("/arrays", c.handlers.GetArrays).Methods("GET")
	router.HandleFunc("/forecast", c.handlers.GetForecast).Methods("GET")
	router.HandleFunc("/health", c.handlers.GetHealth).Methods("GET")
	router.Handle("/metrics", monitoring.Handler()).Methods("GET")

	return router
}

// statusRecorder captures the response code for the request metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware records request counts and latencies per route
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, req)

		path := req.URL.Path
		if route := mux.CurrentRoute(req); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				path = tmpl
			}
		}

		monitoring.HTTPRequestDuration.WithLabelValues(req.Method, path).Observe(time.Since(start).Seconds())
		monitoring.HTTPRequestsTotal.WithLabelValues(req.Method, path, strconv.Itoa(rec.status)).Inc()
	})
}
