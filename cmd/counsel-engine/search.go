// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/meshintel/counsel-engine/internal/cite"
	"github.com/meshintel/counsel-engine/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search legal authorities across case law and scholarship",
	Long: `Search queries legal APIs (CourtListener, OpenAlex, Semantic Scholar) for
authorities matching a research question or structured query parameters.
Results are deduplicated across sources, ranked by relevance with recency and
precedential boosts, and diversified so one source does not dominate.

Save a search with --save to replay it later with --load.`,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	loadPath, _ := cmd.Flags().GetString("load")
	if loadPath != "" {
		return runSearchLoad(cmd, loadPath)
	}

	query, err := queryFromFlags(cmd)
	if err != nil {
		return err
	}
	if query.IsEmpty() {
		return fmt.Errorf("query required: provide --query, --author, or --keywords")
	}

	cfg := searchConfigFromViper()
	if max, _ := cmd.Flags().GetInt("max-results"); max > 0 {
		cfg.MaxResults = max
	}

	backends := newBackends(cfg)
	out, err := search.Search(cmd.Context(), query, backends, cfg, os.Stderr)
	if err != nil {
		return err
	}

	if savePath, _ := cmd.Flags().GetString("save"); savePath != "" {
		if err := search.WriteQueryFile(savePath, query, cfg, out); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved query to %s\n", savePath)
	}

	return formatSearchOutput(cmd, out)
}

func runSearchLoad(cmd *cobra.Command, path string) error {
	qf, err := search.ReadQueryFile(path)
	if err != nil {
		return err
	}
	out := search.SearchOutput{
		Results:       qf.Results,
		DupsRemoved:   qf.Summary.DuplicatesRemoved,
		SourceCounts:  qf.Summary.SourceCounts,
		BackendErrors: qf.Summary.BackendErrors,
	}
	return formatSearchOutput(cmd, out)
}

func formatSearchOutput(cmd *cobra.Command, out search.SearchOutput) error {
	if cslOut, _ := cmd.Flags().GetBool("csl"); cslOut {
		return cite.WriteCSL(out.Results, os.Stdout)
	}
	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		return search.FormatJSON(out, os.Stdout)
	}
	search.FormatTable(out, os.Stdout)
	return nil
}

func queryFromFlags(cmd *cobra.Command) (search.Query, error) {
	freeText, _ := cmd.Flags().GetString("query")
	jurisdiction, _ := cmd.Flags().GetString("jurisdiction")
	author, _ := cmd.Flags().GetString("author")
	keywordsRaw, _ := cmd.Flags().GetString("keywords")

	query := search.Query{
		FreeText:     freeText,
		Jurisdiction: jurisdiction,
		Author:       author,
	}
	if keywordsRaw != "" {
		for _, k := range strings.Split(keywordsRaw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				query.Keywords = append(query.Keywords, k)
			}
		}
	}

	var err error
	if from, _ := cmd.Flags().GetString("from"); from != "" {
		if query.DateFrom, err = time.Parse("2006-01-02", from); err != nil {
			return search.Query{}, fmt.Errorf("invalid --from date %q: want YYYY-MM-DD", from)
		}
	}
	if to, _ := cmd.Flags().GetString("to"); to != "" {
		if query.DateTo, err = time.Parse("2006-01-02", to); err != nil {
			return search.Query{}, fmt.Errorf("invalid --to date %q: want YYYY-MM-DD", to)
		}
	}
	return query, nil
}

func init() {
	searchCmd.Flags().String("query", "", "free-text research question")
	searchCmd.Flags().String("jurisdiction", "", "filter case law by court (e.g. scotus)")
	searchCmd.Flags().String("author", "", "filter by author or judge name")
	searchCmd.Flags().String("keywords", "", "filter by keywords (comma-separated)")
	searchCmd.Flags().String("from", "", "decision/publication date range start (YYYY-MM-DD)")
	searchCmd.Flags().String("to", "", "decision/publication date range end (YYYY-MM-DD)")
	searchCmd.Flags().Int("max-results", 0, "maximum number of results to return")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().Bool("csl", false, "output results as CSL-YAML for Pandoc")
	searchCmd.Flags().String("save", "", "save query and results to a YAML file")
	searchCmd.Flags().String("load", "", "display results from a saved query file")

	rootCmd.AddCommand(searchCmd)
}
