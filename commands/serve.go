package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"estate_hub/api"
	"estate_hub/scheduler"
	"estate_hub/wizard"
	"estate_hub/workers"
)

func serveCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			b, err := openBackend(ctx, cfg, logger, true)
			if err != nil {
				return err
			}
			defer b.Close()

			if migrate {
				if err := b.pg.Migrate(ctx); err != nil {
					return err
				}
				logger.Info("schema migrated")
			}

			drafts := wizard.NewRegistry()
			sweeper := workers.NewDraftSweeper(drafts, cfg.Drafts.TTL, logger)
			go sweeper.Run(ctx)

			sched := scheduler.New(logger)
			if err := sched.Register("draft-sweeper", cfg.Drafts.SweepCron, sweeper); err != nil {
				return err
			}
			if err := sched.Start(ctx); err != nil {
				return err
			}

			srv := api.NewServer(api.Deps{
				Users:        b.users,
				Properties:   b.properties,
				Appointments: b.appointments,
				Inquiries:    b.inquiries,
				Tokens:       b.tokens,
				Drafts:       drafts,
				Logger:       logger,

				MaxRegistrationDrafts: cfg.Drafts.MaxRegistrations,
			}).HTTPServer(cfg.HTTPAddr)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("api listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
			defer stop()
			sched.Stop()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http shutdown", zap.Error(err))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply the schema before serving")
	return cmd
}
