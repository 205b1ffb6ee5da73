package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/casualjim/chartwise/analysis"
	"github.com/casualjim/chartwise/provider"
	"github.com/fatih/color"
	"github.com/go-openapi/swag"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"
)

func providersCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List providers and whether their API keys are configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			writeProviders(cmd.Context(), cmd.OutOrStdout(), s.app.Providers().All())
			return nil
		},
	}
}

func templatesCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List templates and their categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			writeTemplates(cmd.OutOrStdout(), s.app.Prompts().Templates())
			return nil
		},
	}
}

func validateCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check credentials and every template category",
		Long: `Check that providers have API keys and that every category of every
registered template has a system prompt and a complete output schema.

Exits with an error when a category is invalid. Missing keys are reported
but are not an error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			credentials := s.app.Providers().ValidateAll(cmd.Context())
			for _, id := range sortedKeys(credentials) {
				mark := color.GreenString("✓")
				if !credentials[id] {
					mark = color.YellowString("!")
				}
				fmt.Fprintf(w, "%s provider %s\n", mark, id)
			}

			var invalid int
			prompts := s.app.Prompts()
			for _, t := range prompts.Templates() {
				for _, key := range t.CategoryKeys() {
					v := prompts.ValidateCategoryConfig(t.ID, key)
					if v.Valid {
						fmt.Fprintf(w, "%s %s/%s\n", color.GreenString("✓"), t.ID, key)
						continue
					}
					invalid++
					fmt.Fprintf(w, "%s %s/%s: %s\n", color.RedString("✗"), t.ID, key, strings.Join(v.Errors, "; "))
				}
			}
			if invalid > 0 {
				return fmt.Errorf("%d invalid categories", invalid)
			}
			return nil
		},
	}
}

// analysisFlags are shared by run and batch.
type analysisFlags struct {
	providerID  string
	templateID  string
	input       string
	model       string
	temperature float64
	topP        float64
	maxTokens   int
	reasoning   string
	seed        int64
	raw         bool
}

func (f *analysisFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.providerID, "provider", "p", "gemini", "provider id")
	flags.StringVarP(&f.templateID, "template", "t", "clinical-overview", "template id")
	flags.StringVarP(&f.input, "input", "i", "-", "file with the patient data, - for stdin")
	flags.StringVar(&f.model, "model", "", "model override")
	flags.Float64Var(&f.temperature, "temperature", 0, "sampling temperature")
	flags.Float64Var(&f.topP, "top-p", 0, "nucleus sampling")
	flags.IntVar(&f.maxTokens, "max-tokens", 0, "maximum output tokens")
	flags.StringVar(&f.reasoning, "reasoning", "", "reasoning effort (low, medium, high)")
	flags.Int64Var(&f.seed, "seed", 0, "sampling seed")
	flags.BoolVar(&f.raw, "json", false, "print the result envelope as JSON")
}

func (f *analysisFlags) options(cmd *cobra.Command) (provider.Options, error) {
	o := provider.Options{
		Model:           f.model,
		MaxOutputTokens: f.maxTokens,
		ReasoningEffort: provider.ReasoningEffort(f.reasoning),
	}
	if f.reasoning != "" && !o.ReasoningEffort.Valid() {
		return o, fmt.Errorf("invalid reasoning effort %q", f.reasoning)
	}
	if cmd.Flags().Changed("temperature") {
		o.Temperature = swag.Float64(f.temperature)
	}
	if cmd.Flags().Changed("top-p") {
		o.TopP = swag.Float64(f.topP)
	}
	if cmd.Flags().Changed("seed") {
		o.Seed = swag.Int64(f.seed)
	}
	return o, nil
}

func readInput(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading patient data: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", errors.New("patient data is empty")
	}
	return string(data), nil
}

func runCmd(s *session) *cobra.Command {
	var (
		f        analysisFlags
		category string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Analyze patient data for one template category",
		Example: `  chartwise run -p groq -t clinical-overview -c criticalAlerts -i patient.xml
  cat visit.txt | chartwise run -t visit-brief -c visitBrief --reasoning low`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			options, err := f.options(cmd)
			if err != nil {
				return err
			}
			input, err := readInput(f.input, cmd.InOrStdin())
			if err != nil {
				return err
			}
			stop, err := s.watch(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			result := s.app.RunAnalysis(cmd.Context(), analysis.Config{
				ProviderID:  f.providerID,
				TemplateID:  f.templateID,
				CategoryKey: category,
				UserPrompt:  input,
				Options:     options,
			})
			stop()

			items := []analysis.BatchItem{{CategoryKey: category, Result: result}}
			if err := s.print(cmd, &f, items); err != nil {
				return err
			}
			if !result.Success {
				return errors.New(result.Error)
			}
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringVarP(&category, "category", "c", "", "category key")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func batchCmd(s *session) *cobra.Command {
	var f analysisFlags
	cmd := &cobra.Command{
		Use:     "batch",
		Short:   "Analyze patient data for every category of a template",
		Example: `  chartwise batch -p cerebras -t clinical-overview -i patient.xml`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			options, err := f.options(cmd)
			if err != nil {
				return err
			}
			input, err := readInput(f.input, cmd.InOrStdin())
			if err != nil {
				return err
			}
			stop, err := s.watch(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			items, err := s.app.RunBatchAnalysis(cmd.Context(), analysis.BatchConfig{
				ProviderID: f.providerID,
				TemplateID: f.templateID,
				UserPrompt: input,
				Options:    options,
			})
			stop()
			if err != nil {
				return err
			}

			if err := s.print(cmd, &f, items); err != nil {
				return err
			}
			var failed int
			for _, item := range items {
				if !item.Result.Success {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d categories failed", failed, len(items))
			}
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

// watch prints lifecycle events to w until the returned function is called.
func (s *session) watch(ctx context.Context, w io.Writer) (func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.app.Subscribe(ctx, &progressHook{w: w})
}

func (s *session) print(cmd *cobra.Command, f *analysisFlags, items []analysis.BatchItem) error {
	out := cmd.OutOrStdout()
	if s.flags.debug {
		pp.Fprintln(cmd.ErrOrStderr(), items)
	}
	if f.raw {
		if len(items) == 1 && cmd.Name() == "run" {
			return writeJSON(out, items[0].Result)
		}
		return writeJSON(out, items)
	}
	title := fmt.Sprintf("%s via %s", f.templateID, f.providerID)
	return renderMarkdown(out, reportMarkdown(title, items))
}
