package cli

import (
	"fmt"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func newIngestCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file.pdf>",
		Short: "Index a PDF, replacing the current index",
		Long: `Extract, chunk and embed a PDF and persist it as the current index.
A running server picks the new index up on its next start.

Examples:
  pdfqa ingest ./manual.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			path := args[0]
			out := cmd.OutOrStdout()
			var bar *progressbar.ProgressBar
			progress := func(done, total int) {
				if bar == nil {
					bar = progressbar.NewOptions(total,
						progressbar.OptionSetWriter(out),
						progressbar.OptionEnableColorCodes(true),
						progressbar.OptionShowBytes(false),
						progressbar.OptionSetWidth(40),
						progressbar.OptionShowCount(),
						progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
						progressbar.OptionOnCompletion(func() {
							fmt.Fprintln(out)
						}),
					)
				}
				_ = bar.Set(done)
			}

			res, err := a.service.Ingest(cmd.Context(), path, filepath.Base(path), progress)
			if err != nil {
				return fmt.Errorf("ingestion failed: %w", err)
			}
			fmt.Fprintf(out, "Indexed %d chunks from %s\n", res.Chunks, res.Document)
			return nil
		},
	}
}
