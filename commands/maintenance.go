package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"estate_hub/config"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the document and credential tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackend(cmd.Context(), cfg, logger, false)
			if err != nil {
				return err
			}
			defer b.Close()

			if err := b.pg.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Schema up to date")
			return nil
		},
	}
}

func seedTypesCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "seed-types",
		Short: "Create the default property types",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = cfg.SeedTypesPath
			}
			names, err := config.LoadSeedTypes(path)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Printf("No property types in %s\n", path)
				return nil
			}

			b, err := openBackend(cmd.Context(), cfg, logger, false)
			if err != nil {
				return err
			}
			defer b.Close()

			for _, name := range names {
				pt, err := b.properties.AddPropertyType(cmd.Context(), name)
				if err != nil {
					logger.Warn("seed property type", zap.String("name", name), zap.Error(err))
					continue
				}
				fmt.Printf("  %s (%s)\n", pt.Name, pt.UUID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "file", "", "YAML file with property_types (default SEED_TYPES_PATH)")
	return cmd
}
