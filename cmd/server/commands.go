package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/schema"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "udyam",
		Short:         "Udyam registration API server",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runServe,
	}
	root.Flags().String("port", "", "Port to listen on (overrides PORT)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}
	serveCmd.Flags().String("port", "", "Port to listen on (overrides PORT)")

	root.AddCommand(serveCmd, newMigrateCmd(), newSchemaCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the registrations and system_logs tables",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg := config.Load()
			logging.Setup(cfg.AppEnv)
			if !cfg.UsesDatabase() {
				return fmt.Errorf("migrate needs a database; STORE_DRIVER is %q", cfg.StoreDriver)
			}

			db, err := database.Connect(cfg)
			if err != nil {
				return err
			}
			defer database.Close(db)

			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			slog.Info("migration completed")
			return nil
		},
	}
}

func newSchemaCmd() *cobra.Command {
	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect the form schema artifact",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}

	schemaCmd.AddCommand(&cobra.Command{
		Use:   "validate [path]",
		Short: "Validate a form schema file, or the embedded copy",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			s, err := loadFormSchema(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "form schema is valid: step1=%d fields, step2=%d fields\n",
				len(s.Step1.Fields), len(s.Step2.Fields))
			return nil
		},
	})

	schemaCmd.AddCommand(&cobra.Command{
		Use:   "print",
		Short: "Print the form schema in use",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadFormSchema(config.Load().FormSchemaPath)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(s.Raw())
			return err
		},
	})

	return schemaCmd
}

func loadFormSchema(path string) (*schema.Schema, error) {
	if path == "" {
		return schema.Default()
	}
	return schema.LoadFromFile(path)
}
