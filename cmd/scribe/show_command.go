package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"scribe/internal/config"
	"scribe/internal/store"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var showText bool

	cmd := &cobra.Command{
		Use:   "show <article-id>",
		Short: "Display an article and its generation record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			articleID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid article id %q", args[0])
			}

			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				article, err := st.GetArticle(cmd.Context(), articleID)
				if err != nil {
					return err
				}
				if article == nil {
					return fmt.Errorf("article %d not found", articleID)
				}
				record, err := st.RecordForArticle(cmd.Context(), articleID)
				if err != nil {
					return err
				}

				if jsonOut {
					return writeJSON(cmd, map[string]any{
						"article": article,
						"record":  record,
					})
				}

				out := cmd.OutOrStdout()
				rows := [][]string{
					{"ID", strconv.FormatInt(article.ID, 10)},
					{"Title", article.Title},
					{"Status", statusLabel(string(article.Status))},
					{"Slug", article.Slug},
					{"Keywords", strings.Join(article.Keywords, ", ")},
					{"Tags", strings.Join(article.Tags, ", ")},
					{"Created", article.CreatedAt.Local().Format(time.DateTime)},
					{"Updated", article.UpdatedAt.Local().Format(time.DateTime)},
				}
				if record != nil {
					rows = append(rows,
						[]string{"Phase", statusLabel(string(record.Status))},
						[]string{"Progress", strconv.Itoa(record.Progress) + "%"},
					)
					if names := store.ArtifactNames(record.ArtifactsJSON); len(names) > 0 {
						rows = append(rows, []string{"Artifacts", strings.Join(names, ", ")})
					}
					if record.ErrorMessage != "" {
						rows = append(rows, []string{"Error", record.ErrorMessage})
					}
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Field", "Value"}, rows,
					[]columnAlignment{alignLeft, alignLeft}))

				if showText && article.FinalText != "" {
					fmt.Fprintln(out)
					fmt.Fprintln(out, article.FinalText)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit machine-readable output")
	cmd.Flags().BoolVar(&showText, "text", false, "Print the finished article text")
	return cmd
}
