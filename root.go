package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"quetzal/config"
	"quetzal/repository"
	"quetzal/utils"
)

var (
	// flags
	configPath string

	cfg    config.Config
	logger *zap.Logger
)

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file (default $QUETZAL_CONFIG)")
}

var RootCmd = cobra.Command{
	Use:           "quetzal",
	Short:         "Exam paper catalog and file gateway",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = utils.NewLogger(cfg.Log.Level, cfg.Log.Development)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// stores bundles the catalog and user backends of the configured driver.
type stores struct {
	catalog repository.CatalogBackend
	users   repository.UsersStore
	close   func(context.Context) error
}

func openStores(ctx context.Context) (*stores, error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		db, err := repository.OpenSQLite(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("using sqlite store", zap.String("path", cfg.Store.SQLitePath))
		return &stores{
			catalog: repository.NewSQLCatalogRepo(db),
			users:   repository.NewSQLUserRepo(db),
			close:   func(context.Context) error { return db.Close() },
		}, nil

	case config.DriverMongo:
		client, err := utils.NewMongoClient(ctx, cfg.Store.MongoOptions())
		if err != nil {
			return nil, err
		}
		setupMongoIndexes(ctx, client)
		logger.Info("using mongo store", zap.String("database", cfg.Store.MongoDB))
		return &stores{
			catalog: repository.GetCatalogRepo(client, cfg.Store.MongoDB, cfg.Store.CatalogCollection),
			users:   repository.GetUserRepo(client, cfg.Store.MongoDB, cfg.Store.UsersCollection),
			close:   client.Disconnect,
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// setupMongoIndexes only warns on failure; an unreachable server is reported
// again by the catalog's startup ping.
func setupMongoIndexes(ctx context.Context, client *mongo.Client) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Store.Timeout)
	defer cancel()
	if err := client.Ping(ctx, nil); err != nil {
		logger.Warn("mongo unreachable, skipping index setup", zap.Error(err))
		return
	}
	db := client.Database(cfg.Store.MongoDB)
	if err := repository.SetupIndexes(db, cfg.Store.CatalogCollection, cfg.Store.UsersCollection, logger); err != nil {
		logger.Warn("index setup failed", zap.Error(err))
	}
}

func (s *stores) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Store.Timeout)
	defer cancel()
	if err := s.close(ctx); err != nil && !errors.Is(err, mongo.ErrClientDisconnected) {
		logger.Warn("failed to close store", zap.Error(err))
	}
}
