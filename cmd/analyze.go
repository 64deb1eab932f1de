package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/xhad/seogap/internal/models"
	"github.com/xhad/seogap/pkg/analyzer"
	"github.com/xhad/seogap/pkg/similarity"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		target      string
		competitors []string
		keyword     string
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze one target page against competitor pages",
		Example: `  seogap analyze --target https://example.com/shoes \
    --competitor https://a.example/shoes --competitor https://b.example/shoes \
    --keyword "running shoes"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx := cmd.Context()
			p, err := buildPipeline(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer p.Close()

			var (
				bar      *progressbar.ProgressBar
				progress analyzer.ProgressFunc
			)
			if !asJSON {
				color.Blue("\nAnalyzing %s against %d competitors\n", target, len(competitors))
				bar = getProgressBar(len(competitors)+1, "Comparing pages...")
				progress = func(e analyzer.Event) {
					if e.Stage == analyzer.StageTarget || e.Stage == analyzer.StageCompetitor {
						bar.Add(1)
					}
				}
			}

			resp, err := p.analyzer.Analyze(ctx, models.AnalysisRequest{
				MyURL:       target,
				Competitors: competitors,
				Keyword:     keyword,
			}, progress)
			if bar != nil {
				bar.Finish()
				fmt.Fprintln(cmd.ErrOrStderr())
			}
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}

			printReport(cmd.OutOrStdout(), resp, cfg.Analysis.SimilarityThreshold)
			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "URL of your page")
	cmd.Flags().StringArrayVar(&competitors, "competitor", nil, "Competitor URL (repeatable)")
	cmd.Flags().StringVarP(&keyword, "keyword", "k", "", "Target keyword")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw JSON response")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func printReport(w io.Writer, resp *models.AnalysisResponse, threshold float64) {
	if resp.TargetError != "" {
		fmt.Fprintln(w, color.RedString("Target page failed: %s", resp.TargetError))
	}

	for i, r := range resp.Analysis {
		switch {
		case r.Failed():
			fmt.Fprintln(w, color.RedString("%d. ✗ %s", i+1, r.URL))
			fmt.Fprintf(w, "   %s\n", r.Err)
		case !similarity.Below(r.Similarity, threshold):
			fmt.Fprintln(w, color.GreenString("%d. ✓ %s  similarity %.3f", i+1, r.URL, r.Similarity))
		default:
			fmt.Fprintln(w, color.YellowString("%d. ! %s  similarity %.3f", i+1, r.URL, r.Similarity))
			fmt.Fprintf(w, "%s\n", r.Suggestion)
		}
		fmt.Fprintln(w)
	}

	if resp.KeywordExpansion != "" {
		fmt.Fprintln(w, color.CyanString("Keyword expansion"))
		fmt.Fprintln(w, resp.KeywordExpansion)
	}
}
