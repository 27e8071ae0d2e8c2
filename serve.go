package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"quetzal/handler"
	"quetzal/services"
	"quetzal/storage"
	"quetzal/usecase"
	"quetzal/utils"
)

var gatewayOnly bool

func init() {
	ServeCommand.Flags().BoolVar(&gatewayOnly, "gateway-only", false, "serve only the upload/download gateway, without auth or catalog")
	RootCmd.AddCommand(&ServeCommand)
}

var ServeCommand = cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if !cfg.Log.Development {
			gin.SetMode(gin.ReleaseMode)
		}

		files, err := storage.NewFileStore(cfg.Uploads.Dir)
		if err != nil {
			return err
		}

		var router http.Handler
		if gatewayOnly {
			router = handler.NewGatewayRouter(files, cfg.Server.CORSOrigins, logger)
		} else {
			if err := cfg.ValidateAuth(); err != nil {
				return err
			}
			st, err := openStores(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			blacklist := newBlacklist(ctx)
			links := utils.NewLinkBuilder(cfg.Server.PublicBaseURL)
			catalog := usecase.NewCatalog(st.catalog, links, logger, cfg.Store.Timeout)
			if err := catalog.Initialize(ctx); err != nil {
				return err
			}
			tokens := services.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)

			router = handler.NewRouter(handler.RouterDeps{
				Catalog:            catalog,
				Papers:             usecase.NewPaperService(catalog, links),
				Auth:               usecase.NewAuthService(st.users, tokens, blacklist, cfg.Auth.StaffEmail, cfg.Auth.StudentEmail, cfg.Auth.Issuer),
				Tokens:             tokens,
				Blacklist:          blacklist,
				Backend:            st.catalog,
				Files:              files,
				Logger:             logger,
				StaffEmail:         cfg.Auth.StaffEmail,
				BrowseRequiresAuth: cfg.Auth.BrowseRequires,
				CORSOrigins:        cfg.Server.CORSOrigins,
				MaxJSONBytes:       cfg.Server.MaxJSONBytes,
				Watch:              handler.WatchSettings{Debounce: cfg.Search.Debounce},
			})
		}

		return runServer(ctx, router)
	},
}

// newBlacklist prefers Redis so revoked tokens survive restarts, and falls
// back to process memory when Redis is not configured or unreachable.
func newBlacklist(ctx context.Context) services.TokenBlacklist {
	if cfg.Redis.URL == "" {
		return services.NewMemoryTokenBlacklist()
	}
	redisBlacklist, err := services.NewTokenBlacklist(ctx, cfg.Redis.URL)
	if err != nil {
		logger.Warn("redis unavailable, using in-memory token blacklist", zap.Error(err))
		return services.NewMemoryTokenBlacklist()
	}
	go func() {
		<-ctx.Done()
		_ = redisBlacklist.Close()
	}()
	return redisBlacklist
}

func runServer(ctx context.Context, h http.Handler) error {
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.Bool("tls", cfg.TLSEnabled()),
			zap.Bool("gateway_only", gatewayOnly),
		)
		var err error
		if cfg.TLSEnabled() {
			err = srv.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownWait)
		defer cancel()
		logger.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
