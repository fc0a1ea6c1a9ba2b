package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/thauanfonseca/HDA/internal/core"
	"github.com/thauanfonseca/HDA/internal/sheet"
)

// fileResult is what classify reports for one input file.
type fileResult struct {
	File    string       `json:"file"`
	Output  string       `json:"output"`
	RunID   string       `json:"run_id"`
	Summary core.Summary `json:"summary"`
}

func (a *app) classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <file>...",
		Short: "Classify debt spreadsheets and write cleaned copies",
		Long: `Classify every row of each spreadsheet with the rules file and write
higienizado_<name>.xlsx to the output directory.

The rules file is YAML or JSON with the same shape as the HTTP config: a
mapping section naming the columns, plus optional prescription, immunity,
exemption and incomplete sections overriding the defaults.`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.runClassify,
	}

	flags := cmd.Flags()
	flags.String("rules", "", "rules file (YAML or JSON)")
	flags.String("out-dir", ".", "directory for the classified workbooks")
	flags.Bool("json", false, "print summaries as JSON")

	_ = a.v.BindPFlag("classify.rules", flags.Lookup("rules"))
	_ = a.v.BindPFlag("classify.out_dir", flags.Lookup("out-dir"))
	_ = a.v.BindPFlag("classify.json", flags.Lookup("json"))

	return cmd
}

func (a *app) runClassify(cmd *cobra.Command, args []string) error {
	rulesPath := a.v.GetString("classify.rules")
	if rulesPath == "" {
		return errors.New("a rules file is required (--rules or HDA_CLASSIFY_RULES)")
	}
	configJSON, err := readRules(rulesPath)
	if err != nil {
		return err
	}

	outDir := a.v.GetString("classify.out_dir")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	decoder, err := core.NewConfigDecoder(core.DefaultRules())
	if err != nil {
		return err
	}
	// Fail before touching any spreadsheet when the rules are wrong.
	if _, err := decoder.Decode(configJSON); err != nil {
		return fmt.Errorf("%s: %w", rulesPath, err)
	}

	svc := core.NewService(sheet.Codec{}, decoder, core.ServiceOptions{
		Engine:  core.NewEngine(core.WithLogger(slog.Default())),
		Limiter: core.NewJobLimiter(1, 0),
	})

	asJSON := a.v.GetBool("classify.json")
	var bar *progressbar.ProgressBar
	if len(args) > 1 && !asJSON {
		bar = newProgressBar(cmd.ErrOrStderr(), len(args))
	}

	ctx := cmd.Context()
	results := make([]fileResult, 0, len(args))
	var failed []string
	for _, path := range args {
		res, err := classifyFile(ctx, svc, path, configJSON, outDir)
		if bar != nil {
			_ = bar.Add(1)
		}
		if err != nil {
			slog.Error("classify failed", "file", path, "error", err)
			failed = append(failed, fmt.Sprintf("%s: %s", path, core.FormatUserError(err)))
			continue
		}
		results = append(results, res)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			renderSummary(out, r)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d files failed:\n  %s", len(failed), len(args), strings.Join(failed, "\n  "))
	}
	return nil
}

func classifyFile(ctx context.Context, svc *core.Service, path string, configJSON []byte, outDir string) (fileResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileResult{}, fmt.Errorf("failed to read file: %w", err)
	}

	res, err := svc.Export(ctx, filepath.Base(path), data, configJSON)
	if err != nil {
		return fileResult{}, err
	}

	output := filepath.Join(outDir, res.Filename)
	if err := os.WriteFile(output, res.Data, 0o644); err != nil {
		return fileResult{}, fmt.Errorf("failed to write %s: %w", output, err)
	}

	return fileResult{
		File:    path,
		Output:  output,
		RunID:   res.RunID,
		Summary: res.Summary,
	}, nil
}

// readRules returns the rules file as JSON. YAML files are converted.
func readRules(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		out, err := core.YAMLToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid YAML: %w", path, err)
		}
		return out, nil
	default:
		return data, nil
	}
}

func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Classificando planilhas...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
}
