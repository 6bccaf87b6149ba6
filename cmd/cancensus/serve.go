package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ougirez/cancensus/internal/api"
	"github.com/ougirez/cancensus/internal/pkg/logger"
	"github.com/ougirez/cancensus/internal/service/auth"
)

const shutdownTimeout = 10 * time.Second

func (a *app) serveCmd() *cobra.Command {
	var (
		addr    string
		migrate bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local caching proxy API",
		Long: `Run the local caching proxy API under /api/v1. Cache maintenance and
warehouse export need an admin token, see "cancensus admin-token".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := a.service(ctx, true)
			if err != nil {
				return err
			}
			if migrate && a.db != nil {
				if err := svc.Export.Migrate(ctx); err != nil {
					return err
				}
			}

			apiSvc, err := api.NewAPIService(svc, a.metrics)
			if err != nil {
				return err
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				logger.Infof(gctx, "listening on %s", addr)
				return apiSvc.Serve(addr)
			})
			g.Go(func() error {
				<-gctx.Done()
				logger.Infof(ctx, "shutting down")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return apiSvc.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "create the warehouse tables before serving")
	return cmd
}

func (a *app) adminTokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "admin-token",
		Short: "Issue an admin token for the proxy API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}
			token, err := svc.Auth.IssueAdminToken(cmd.Context(), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTokenTTL, "token lifetime")
	return cmd
}
