package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/AvivElectis/electisSpace-sub010/pkg/aims"
	"github.com/AvivElectis/electisSpace-sub010/pkg/api"
	"github.com/AvivElectis/electisSpace-sub010/pkg/auth"
	"github.com/AvivElectis/electisSpace-sub010/pkg/config"
	"github.com/AvivElectis/electisSpace-sub010/pkg/logging"
	"github.com/AvivElectis/electisSpace-sub010/pkg/metrics"
	"github.com/AvivElectis/electisSpace-sub010/pkg/models"
	"github.com/AvivElectis/electisSpace-sub010/pkg/shutdown"
	"github.com/AvivElectis/electisSpace-sub010/pkg/sse"
	"github.com/AvivElectis/electisSpace-sub010/pkg/store"
	"github.com/AvivElectis/electisSpace-sub010/pkg/syncqueue"
	"github.com/AvivElectis/electisSpace-sub010/pkg/tenancy"
	tlsutil "github.com/AvivElectis/electisSpace-sub010/pkg/tls"
)

func main() {
	cfgPath := flag.String("config", "", "config file path (default: espace.yaml in . or /etc/espace)")
	generateCert := flag.Bool("generate-cert", false, "Generate a self-signed certificate and exit")
	certSANs := flag.String("cert-sans", "", "Comma-separated extra IPs/hostnames for the generated certificate")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		os.Stderr.WriteString("Failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.JSON)
	logger.Info("starting electisSpace server", map[string]interface{}{
		"port": cfg.Server.Port, "database": cfg.Database.Type,
	})

	if *generateCert {
		var sans []string
		for _, s := range strings.Split(*certSANs, ",") {
			if s = strings.TrimSpace(s); s != "" {
				sans = append(sans, s)
			}
		}
		if err := os.MkdirAll("certs", 0755); err != nil {
			logger.Fatal("failed to create certs directory", map[string]interface{}{"error": err.Error()})
		}
		if err := tlsutil.GenerateSelfSignedCert(cfg.TLS.CertFile, cfg.TLS.KeyFile, "espace", sans...); err != nil {
			logger.Fatal("failed to generate certificate", map[string]interface{}{"error": err.Error()})
		}
		logger.Info("certificate generated", map[string]interface{}{
			"cert": cfg.TLS.CertFile, "key": cfg.TLS.KeyFile,
		})
		return
	}

	// Persistence
	db, err := store.NewStore(store.Config{
		Type:            cfg.Database.Type,
		DSN:             cfg.Database.DSN,
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		logger.Fatal("failed to open store", map[string]interface{}{"error": err.Error()})
	}

	// Observability
	recorder := metrics.NewRecorder()

	// SSE fan-out
	events := sse.NewManager(logger)
	events.SetConnectionHooks(recorder.SSEClientConnected, recorder.SSEClientDisconnected)

	// AIMS gateway
	pool := aims.NewPool(aims.PoolConfig{
		BaseURL: cfg.Aims.BaseURL,
		Timeout: cfg.Aims.Timeout,
	}, logger)
	gateway := aims.NewGateway(db, pool, logger)

	// Sync pipeline
	queue := syncqueue.NewService(db, logger)
	processor := syncqueue.NewProcessor(syncqueue.ProcessorConfig{
		PollInterval:       cfg.Sync.PollInterval,
		BatchSize:          cfg.Sync.BatchSize,
		SucceededRetention: cfg.Sync.SucceededRetention,
		RetryPolicy: &models.RetryPolicy{
			MaxAttempts:       cfg.Sync.MaxAttempts,
			InitialBackoff:    cfg.Sync.InitialBackoff,
			MaxBackoff:        cfg.Sync.MaxBackoff,
			BackoffMultiplier: 2.0,
		},
	}, db, gateway, events, recorder, logger)
	reconciler := syncqueue.NewReconciler(syncqueue.ReconcilerConfig{
		Interval: cfg.Sync.ReconcileInterval,
	}, db, gateway, queue, events, recorder, logger)

	ctx := context.Background()
	processor.Start(ctx)
	reconciler.Start(ctx)

	// REST API
	handler := api.NewHandler(db, queue, reconciler, events, logger)
	router := mux.NewRouter()
	router.Use(recorder.Middleware)
	if cfg.Server.APIKey != "" {
		logger.Info("api authentication enabled")
		router.Use(auth.Middleware(cfg.Server.APIKey))
	} else {
		logger.Warn("api authentication disabled, set server.api_key for production")
	}
	router.Use(tenancy.CompanyMiddleware)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	if cfg.TLS.Enabled {
		tlsConfig, err := tlsutil.LoadTLSConfig(cfg.TLS.CertFile, cfg.TLS.KeyFile, cfg.TLS.CAFile, cfg.TLS.MTLS)
		if err != nil {
			logger.Fatal("failed to load TLS config", map[string]interface{}{"error": err.Error()})
		}
		srv.TLSConfig = tlsConfig
	}

	// Metrics server on its own port
	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		exporter := metrics.NewExporter(db)
		metricsRouter := mux.NewRouter()
		metricsRouter.Handle("/metrics", exporter).Methods("GET")
		metricsRouter.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"healthy"}`))
		}).Methods("GET")

		metricsSrv = &http.Server{
			Addr:         ":" + cfg.Metrics.Port,
			Handler:      metricsRouter,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", map[string]interface{}{"port": cfg.Metrics.Port})
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server error", map[string]interface{}{"error": err.Error()})
			}
		}()
	}

	// Shutdown order is LIFO: HTTP servers first, then the sync loops,
	// then the store.
	sd := shutdown.New(cfg.Server.ShutdownTimeout)
	sd.Register(shutdown.CloseResource(db, "store"))
	sd.Register(func(context.Context) error {
		reconciler.Stop()
		return nil
	})
	sd.Register(func(context.Context) error {
		processor.Stop()
		return nil
	})
	if metricsSrv != nil {
		sd.Register(shutdown.StopHTTPServer(metricsSrv, "metrics"))
	}
	sd.Register(shutdown.StopHTTPServer(srv, "api"))

	go func() {
		logger.Info("api server listening", map[string]interface{}{
			"port": cfg.Server.Port, "tls": cfg.TLS.Enabled,
		})
		var err error
		if cfg.TLS.Enabled {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", map[string]interface{}{"error": err.Error()})
		}
	}()

	sd.Wait()
	logger.Info("shutting down")
	sd.Shutdown()
	logger.Info("server stopped")
}
