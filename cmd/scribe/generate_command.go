package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"scribe/internal/config"
	"scribe/internal/store"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "generate <article-id>",
		Short: "Run one generation attempt synchronously",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			articleID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid article id %q", args[0])
			}

			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				runner, err := ctx.newRunner(cfg, st)
				if err != nil {
					return err
				}

				outcome, err := runner.Generate(cmd.Context(), articleID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				switch outcome {
				case store.Claimed:
					article, err := st.GetArticle(cmd.Context(), articleID)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Article %d generated (status: %s)\n", articleID, article.Status)
				case store.AlreadyActive:
					fmt.Fprintf(out, "Article %d is already being generated\n", articleID)
				default:
					fmt.Fprintf(out, "Article %d cannot be generated from its current status\n", articleID)
				}
				return nil
			})
		},
	}
}
