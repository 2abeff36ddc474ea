package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"capsule/internal/diag"
	"capsule/internal/diagfmt"
	"capsule/internal/driver"
	"capsule/internal/observ"
	"capsule/internal/project"
	"capsule/internal/source"
	"capsule/internal/version"
)

// diagFlags holds the diag command flags after validation.
type diagFlags struct {
	format           string
	stage            driver.DiagnoseStage
	noWarnings       bool
	warningsAsErrors bool
	jobs             int
	withNotes        bool
	suggest          bool
	preview          bool
	fullPath         bool
	diskCache        bool
	ui               uiMode
}

func newDiagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diag [flags] <file.cap|directory>",
		Short: "Report capture diagnostics for a file or directory",
		Long:  `Run the elaboration pipeline on a .cap file, or every .cap file under a directory, and report use-after-move, aliasing and call-trait violations`,
		Args:  cobra.ExactArgs(1),
		RunE:  runDiagnose,
	}
	cmd.Flags().String("format", "", "output format (pretty|short|json|sarif); defaults to capsule.toml or pretty")
	cmd.Flags().String("stages", "all", "stages to run (tokenize|syntax|sema|all)")
	cmd.Flags().Bool("no-warnings", false, "ignore warnings and infos")
	cmd.Flags().Bool("warnings-as-errors", false, "treat warnings as errors")
	cmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	cmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	cmd.Flags().Bool("suggest", false, "include fix suggestions in output")
	cmd.Flags().Bool("preview", false, "show fixed source lines for suggestions")
	cmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	cmd.Flags().Bool("disk-cache", false, "reuse results of unchanged files across runs")
	cmd.Flags().String("ui", "off", "progress UI for directories (auto|on|off)")
	return cmd
}

func readDiagFlags(cmd *cobra.Command, cfg project.Config) (diagFlags, error) {
	var (
		out diagFlags
		err error
	)
	flags := cmd.Flags()
	if out.format, err = flags.GetString("format"); err != nil {
		return out, fmt.Errorf("failed to get format flag: %w", err)
	}
	if out.format == "" {
		out.format = cfg.Diagnostics.Format
	}
	if out.format == "" {
		out.format = "pretty"
	}
	stages, err := flags.GetString("stages")
	if err != nil {
		return out, fmt.Errorf("failed to get stages flag: %w", err)
	}
	switch stages {
	case "tokenize":
		out.stage = driver.DiagnoseStageTokenize
	case "syntax":
		out.stage = driver.DiagnoseStageSyntax
	case "sema":
		out.stage = driver.DiagnoseStageSema
	case "all":
		out.stage = driver.DiagnoseStageAll
	default:
		return out, fmt.Errorf("unknown stages value: %s", stages)
	}
	if out.noWarnings, err = flags.GetBool("no-warnings"); err != nil {
		return out, fmt.Errorf("failed to get no-warnings flag: %w", err)
	}
	if out.warningsAsErrors, err = flags.GetBool("warnings-as-errors"); err != nil {
		return out, fmt.Errorf("failed to get warnings-as-errors flag: %w", err)
	}
	if out.noWarnings && out.warningsAsErrors {
		return out, fmt.Errorf("no-warnings and warnings-as-errors flags cannot be used together")
	}
	if out.jobs, err = flags.GetInt("jobs"); err != nil {
		return out, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if out.withNotes, err = flags.GetBool("with-notes"); err != nil {
		return out, fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	out.withNotes = out.withNotes || cfg.Diagnostics.WithNotes
	if out.suggest, err = flags.GetBool("suggest"); err != nil {
		return out, fmt.Errorf("failed to get suggest flag: %w", err)
	}
	if out.preview, err = flags.GetBool("preview"); err != nil {
		return out, fmt.Errorf("failed to get preview flag: %w", err)
	}
	if out.fullPath, err = flags.GetBool("fullpath"); err != nil {
		return out, fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	if out.diskCache, err = flags.GetBool("disk-cache"); err != nil {
		return out, fmt.Errorf("failed to get disk-cache flag: %w", err)
	}
	uiValue, err := flags.GetString("ui")
	if err != nil {
		return out, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if out.ui, err = readUIMode(uiValue); err != nil {
		return out, err
	}
	return out, nil
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	target := args[0]
	st, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}
	cfg, err := loadSettings(cmd, target)
	if err != nil {
		return err
	}
	flags, err := readDiagFlags(cmd, cfg)
	if err != nil {
		return err
	}
	maxDiags, err := maxDiagnostics(cmd, cfg)
	if err != nil {
		return err
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	colored, err := useColor(cmd, os.Stdout)
	if err != nil {
		return err
	}

	opts := driver.DiagnoseOptions{
		Stage:            flags.stage,
		MaxDiagnostics:   maxDiags,
		IgnoreWarnings:   flags.noWarnings,
		WarningsAsErrors: flags.warningsAsErrors,
		EnableTimings:    showTimings,
		Analysis:         cfg.Analysis,
	}
	r := &diagRenderer{out: cmd.OutOrStdout(), flags: flags, color: colored}

	var (
		failed  bool
		reports []observ.Report
	)
	if !st.IsDir() {
		res, err := driver.DiagnoseWithOptions(cmd.Context(), target, &opts)
		if err != nil {
			return fmt.Errorf("diagnosis failed: %w", err)
		}
		if err := r.file(res); err != nil {
			return err
		}
		failed = res.Bag.HasErrors()
		if res.Timing != nil {
			reports = append(reports, *res.Timing)
		}
	} else {
		dirOpts := driver.DiagnoseDirOptions{DiagnoseOptions: opts, Jobs: flags.jobs}
		if flags.diskCache {
			if dirOpts.Cache, err = driver.OpenDiskCache("capsule"); err != nil {
				return fmt.Errorf("failed to open disk cache: %w", err)
			}
		}
		var (
			fs      *source.FileSet
			results []driver.DiagnoseDirResult
		)
		if shouldUseTUI(flags.ui) {
			files, listErr := driver.ListSourceFiles(target)
			if listErr != nil {
				return fmt.Errorf("diagnosis failed: %w", listErr)
			}
			fs, results, err = runDirWithUI(cmd.Context(), cmd.ErrOrStderr(), target, files, dirOpts)
		} else {
			fs, results, err = driver.DiagnoseDir(cmd.Context(), target, &dirOpts)
		}
		if err != nil {
			return fmt.Errorf("diagnosis failed: %w", err)
		}
		if err := r.dir(fs, results); err != nil {
			return err
		}
		for _, res := range results {
			failed = failed || res.Bag.HasErrors()
			if res.Timing != nil {
				reports = append(reports, *res.Timing)
			}
		}
	}

	if showTimings && len(reports) > 0 {
		fmt.Fprint(cmd.ErrOrStderr(), observ.Merge(reports...).Summary())
	}
	if failed {
		return errDiagnostics
	}
	return nil
}

type diagRenderer struct {
	out   io.Writer
	flags diagFlags
	color bool
}

func (r *diagRenderer) pathMode() diagfmt.PathMode {
	if r.flags.fullPath {
		return diagfmt.PathModeAbsolute
	}
	return diagfmt.PathModeAuto
}

func (r *diagRenderer) prettyOpts() diagfmt.PrettyOpts {
	return diagfmt.PrettyOpts{
		Color:       r.color,
		Context:     2,
		PathMode:    r.pathMode(),
		ShowNotes:   r.flags.withNotes,
		ShowFixes:   r.flags.suggest || r.flags.preview,
		ShowPreview: r.flags.preview,
	}
}

func (r *diagRenderer) jsonOpts() diagfmt.JSONOpts {
	return diagfmt.JSONOpts{
		IncludePositions: true,
		PathMode:         r.pathMode(),
		IncludeNotes:     r.flags.withNotes,
		IncludeFixes:     r.flags.suggest || r.flags.preview,
		IncludePreviews:  r.flags.preview,
	}
}

func sarifMeta() diagfmt.SarifRunMeta {
	return diagfmt.SarifRunMeta{ToolName: "capsule", ToolVersion: version.Version, InvocationArgs: os.Args[1:]}
}

func semanticsOf(res *driver.DiagnoseResult) *diagfmt.SemanticsInput {
	if res == nil || res.Symbols == nil || res.Analysis == nil {
		return nil
	}
	return &diagfmt.SemanticsInput{
		Builder:  res.Builder,
		Symbols:  res.Symbols,
		Analysis: res.Analysis,
		Module:   res.Module,
	}
}

func (r *diagRenderer) file(res *driver.DiagnoseResult) error {
	switch r.flags.format {
	case "pretty":
		diagfmt.Pretty(r.out, res.Bag, res.FileSet, r.prettyOpts())
		return nil
	case "short":
		return diagfmt.Short(r.out, res.Bag, res.FileSet, r.flags.withNotes)
	case "json":
		opts := r.jsonOpts()
		sem := semanticsOf(res)
		opts.IncludeSemantics = sem != nil
		if err := diagfmt.JSON(r.out, res.Bag, res.FileSet, opts, sem); err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
		return nil
	case "sarif":
		return diagfmt.Sarif(r.out, res.Bag, res.FileSet, sarifMeta())
	default:
		return fmt.Errorf("unknown format: %s", r.flags.format)
	}
}

func (r *diagRenderer) displayPath(fs *source.FileSet, res *driver.DiagnoseDirResult) string {
	mode := "auto"
	if r.flags.fullPath {
		mode = "absolute"
	}
	if res.Bag != nil && res.Result == nil && !res.Cached {
		// load failures have no file in the set
		if abs, err := source.AbsolutePath(res.Path); err == nil && r.flags.fullPath {
			return abs
		}
		return res.Path
	}
	return fs.Get(res.FileID).FormatPath(mode, fs.BaseDir())
}

func (r *diagRenderer) dir(fs *source.FileSet, results []driver.DiagnoseDirResult) error {
	switch r.flags.format {
	case "pretty":
		for i := range results {
			if i > 0 {
				fmt.Fprintln(r.out)
			}
			fmt.Fprintf(r.out, "== %s ==\n", r.displayPath(fs, &results[i]))
			diagfmt.Pretty(r.out, results[i].Bag, fs, r.prettyOpts())
		}
		return nil
	case "short":
		var all []diag.Diagnostic
		for _, res := range results {
			all = append(all, res.Bag.Items()...)
		}
		if text := diag.FormatShortDiagnostics(all, fs, r.flags.withNotes); text != "" {
			fmt.Fprintln(r.out, text)
		}
		return nil
	case "json":
		output := make(map[string]diagfmt.DiagnosticsOutput, len(results))
		for i := range results {
			opts := r.jsonOpts()
			sem := semanticsOf(results[i].Result)
			opts.IncludeSemantics = sem != nil
			data, err := diagfmt.BuildDiagnosticsOutput(results[i].Bag, fs, opts, sem)
			if err != nil {
				return fmt.Errorf("failed to build diagnostics output: %w", err)
			}
			output[r.displayPath(fs, &results[i])] = data
		}
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(output); err != nil {
			return fmt.Errorf("failed to encode diagnostics output: %w", err)
		}
		return nil
	case "sarif":
		total := 0
		for _, res := range results {
			total += res.Bag.Len()
		}
		merged := diag.NewBag(total)
		for _, res := range results {
			merged.Merge(res.Bag)
		}
		return diagfmt.Sarif(r.out, merged, fs, sarifMeta())
	default:
		return fmt.Errorf("unknown format: %s", r.flags.format)
	}
}
