package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"quetzal/usecase"
	"quetzal/utils"
)

func init() {
	CatalogCommand.AddCommand(&CatalogExportCommand)
	CatalogCommand.AddCommand(&CatalogMigrateLinksCommand)
	RootCmd.AddCommand(&CatalogCommand)
}

var CatalogCommand = cobra.Command{
	Use:   "catalog",
	Short: "Inspect or maintain the stored catalog",
}

var CatalogExportCommand = cobra.Command{
	Use:   "export",
	Short: "Print the stored catalog as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, closeStores, err := loadCatalog(cmd)
		if err != nil {
			return err
		}
		defer closeStores()

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(catalog.All())
	},
}

var CatalogMigrateLinksCommand = cobra.Command{
	Use:   "migrate-links",
	Short: "Rewrite legacy /uploads/ links to download links",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, closeStores, err := loadCatalog(cmd)
		if err != nil {
			return err
		}
		defer closeStores()

		n, err := catalog.MigrateLinks(cmd.Context())
		if err != nil {
			return fmt.Errorf("could not migrate links: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d papers updated\n", n)
		return nil
	},
}

// loadCatalog reads the stored list as is, without the startup link
// migration, so export shows what the store holds.
func loadCatalog(cmd *cobra.Command) (*usecase.Catalog, func(), error) {
	st, err := openStores(cmd.Context())
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Store.Timeout)
	defer cancel()
	if err := st.catalog.Ping(ctx); err != nil {
		st.Close()
		return nil, nil, err
	}

	catalog := usecase.NewCatalog(st.catalog, utils.NewLinkBuilder(cfg.Server.PublicBaseURL), logger, cfg.Store.Timeout)
	catalog.Reset(cmd.Context())
	return catalog, st.Close, nil
}
