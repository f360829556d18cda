package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"scribe/internal/config"
	"scribe/internal/daemon"
	"scribe/internal/logging"
	"scribe/internal/pipeline"
	"scribe/internal/store"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the generation service in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			st, err := store.Open(cfg)
			if err != nil {
				logger.Error("open article store", logging.Error(err))
				return err
			}
			defer st.Close()

			runner, err := pipeline.NewRunner(cfg, st, logger, pipeline.NewCollaborators(cfg))
			if err != nil {
				return fmt.Errorf("build pipeline: %w", err)
			}

			d, err := daemon.New(cfg, st, logger, runner)
			if err != nil {
				return fmt.Errorf("create daemon: %w", err)
			}
			if err := d.Start(signalCtx); err != nil {
				return err
			}
			defer d.Stop()

			<-signalCtx.Done()
			logger.Info("scribe daemon shutting down")
			return nil
		},
	}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show queue and credit status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				health, err := st.Health(cmd.Context())
				if err != nil {
					return err
				}
				credits, err := st.ProjectCredits(cmd.Context(), cfg.Project.ID)
				if err != nil {
					return err
				}

				if jsonOut {
					return writeJSON(cmd, map[string]any{
						"queue":   health,
						"project": cfg.Project.ID,
						"credits": credits,
					})
				}

				rows := [][]string{
					{"Total", strconv.Itoa(health.Total)},
					{"Queued", strconv.Itoa(health.Queued)},
					{"In progress", strconv.Itoa(health.InProgress)},
					{"Ready", strconv.Itoa(health.Ready)},
					{"Review", strconv.Itoa(health.Review)},
					{"Published", strconv.Itoa(health.Published)},
					{"Credits", strconv.Itoa(credits)},
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Metric", "Value"}, rows,
					[]columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit machine-readable output")
	return cmd
}
