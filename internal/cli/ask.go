package cli

import (
	"fmt"
	"strings"

	"github.com/akolanti/pdfqa/internal/config"
	"github.com/akolanti/pdfqa/internal/rag"
	"github.com/spf13/cobra"
)

func newAskCmd(opts *rootOptions) *cobra.Command {
	var (
		model       string
		temperature float32
		mode        string
	)
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one question against the persisted index",
		Long: `Answer a question from the current index and print the answer.

Examples:
  pdfqa ask "What is the refund window?"
  pdfqa ask --mode agent -t 0.5 "Summarise chapter 2"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if model == "" {
				model = config.DefaultChatModel
				if opts.cfg.LLM.Provider == "gemini" {
					model = opts.cfg.LLM.GeminiModel
				}
			}
			req := rag.AskRequest{
				Question: strings.Join(args, " "),
				Model:    model,
				Mode:     mode,
			}
			if cmd.Flags().Changed("temperature") {
				req.Temperature = &temperature
			}

			answer, err := a.service.Ask(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), answer)
			return nil
		},
	}
	cmd.Flags().StringVarP(&model, "model", "m", "", "generation model (default llama3, or the gemini model)")
	cmd.Flags().Float32VarP(&temperature, "temperature", "t", config.DefaultTemperature, "sampling temperature, clamped to [0, 1]")
	cmd.Flags().StringVar(&mode, "mode", rag.ModeDirect, "answering mode: direct or agent")
	return cmd
}
