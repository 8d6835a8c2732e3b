// Package api implements app.Runner for the bridge API server process.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apphttp "github.com/chainsafe/crosschain-middleware/pkg/app/http"
	"github.com/chainsafe/crosschain-middleware/pkg/auth"
	bridgeservice "github.com/chainsafe/crosschain-middleware/pkg/bridge/service"
	"github.com/chainsafe/crosschain-middleware/pkg/bridgestore"
	"github.com/chainsafe/crosschain-middleware/pkg/catalog"
	"github.com/chainsafe/crosschain-middleware/pkg/chainclient/evm"
	"github.com/chainsafe/crosschain-middleware/pkg/config"
	"github.com/chainsafe/crosschain-middleware/pkg/fees"
	"github.com/chainsafe/crosschain-middleware/pkg/pgutil"
	"github.com/chainsafe/crosschain-middleware/pkg/ratelimit"
	"github.com/chainsafe/crosschain-middleware/pkg/scheduler"
)

const defaultRequestTimeout = 60

// Server holds cfg to init the api server.
type Server struct {
	cfg *config.Config
}

// NewServer initializes new api server.
func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

func (s *Server) Run() error {
	if s.cfg == nil {
		return fmt.Errorf("api server config is nil")
	}
	cfg := s.cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting bridge API server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	db, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() { _ = db.Close() }()
	logger.Info("Connected to database",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Database),
	)

	store := bridgestore.NewStore(db)
	cat := catalog.FromConfig(cfg.Chains, cfg.Tokens)

	estimator, svcCfg, err := buildBridgePolicy(&cfg.Bridge, cat)
	if err != nil {
		return err
	}

	chainClient, err := s.dialChains(cat, logger)
	if err != nil {
		return err
	}
	logger.Info("Connected to chain RPC endpoints",
		zap.Int64s("chains", cat.ChainIDs()),
		zap.String("relayer", cfg.Relayer.BaseURL),
	)

	// The scheduler and the service reference each other through closures:
	// the service arms a delayed pass per submission, the scheduler calls
	// back into the service to run it.
	var svc bridgeservice.Service
	sched := scheduler.New(cfg.Bridge.ReconcileDelay, func(ctx context.Context, id string) {
		if svc == nil {
			return
		}
		_ = svc.Reconcile(ctx, id)
	}, logger)

	svc = bridgeservice.NewLog(
		bridgeservice.NewService(store, chainClient, cat, estimator, svcCfg, logger, sched.Schedule),
		logger,
	)

	if cfg.Bridge.SweepInterval > 0 {
		sched.StartSweep(cfg.Bridge.SweepInterval, func(ctx context.Context) {
			_ = svc.SweepStale(ctx)
		})
	}

	limiter := ratelimit.New(cfg.RateLimit.Window, cfg.RateLimit.MaxRequests)
	verifier := auth.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)

	router := s.setupRouter(svc, cat, limiter, verifier, logger)

	err = apphttp.ServeAndWait(ctx, router, logger, &cfg.Server)

	// Stop background reconciliation before deferred DB close kicks in.
	sched.Stop()

	return err
}

// buildBridgePolicy parses the decimal policy knobs once at startup so a
// malformed config fails the process instead of every request.
func buildBridgePolicy(cfg *config.BridgeConfig, cat *catalog.Catalog) (*fees.Estimator, bridgeservice.Config, error) {
	feeRate, err := decimal.NewFromString(cfg.FeeRate)
	if err != nil {
		return nil, bridgeservice.Config{}, fmt.Errorf("parse bridge.fee_rate: %w", err)
	}
	gasEstimate, err := decimal.NewFromString(cfg.GasEstimateWei)
	if err != nil {
		return nil, bridgeservice.Config{}, fmt.Errorf("parse bridge.gas_estimate_wei: %w", err)
	}
	maxAmount, err := decimal.NewFromString(cfg.MaxTransferAmount)
	if err != nil {
		return nil, bridgeservice.Config{}, fmt.Errorf("parse bridge.max_transfer_amount: %w", err)
	}

	svcCfg := bridgeservice.Config{
		MaxAmount:          maxAmount,
		DefaultSourceChain: cfg.DefaultSourceChain,
		StaleAfter:         cfg.StaleAfter,
	}

	return fees.New(feeRate, gasEstimate, cat), svcCfg, nil
}

func (s *Server) dialChains(cat *catalog.Catalog, logger *zap.Logger) (*evm.Client, error) {
	rpcURLs := make(map[int64]string, len(s.cfg.Chains))
	for _, ch := range s.cfg.Chains {
		if ch.RPCURL != "" {
			rpcURLs[ch.ID] = ch.RPCURL
		}
	}

	client, err := evm.Dial(rpcURLs, s.cfg.Relayer.BaseURL, s.cfg.Relayer.RequestTimeout, cat, logger)
	if err != nil {
		return nil, fmt.Errorf("dial chain clients: %w", err)
	}
	return client, nil
}

func (s *Server) setupRouter(
	svc bridgeservice.Service,
	cat *catalog.Catalog,
	limiter *ratelimit.Limiter,
	verifier *auth.JWTVerifier,
	logger *zap.Logger,
) chi.Router {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Second * defaultRequestTimeout))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Handle("/metrics", promhttp.Handler())

	// Bridge endpoints; the catalog routes are public, everything else
	// requires a verified identity.
	r.Route("/bridge", func(r chi.Router) {
		bridgeservice.RegisterRoutes(r, svc, cat, limiter, verifier.Middleware, logger)
	})

	return r
}
