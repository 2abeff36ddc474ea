package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"capsule/internal/diag"
	"capsule/internal/diagfmt"
	"capsule/internal/driver"
	"capsule/internal/hir"
)

func newElabCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "elab [flags] <file.cap>",
		Short: "Print captures, call traits and desugared environments",
		Args:  cobra.ExactArgs(1),
		RunE:  runElab,
	}
	cmd.Flags().String("format", "text", "output format (text|json)")
	return cmd
}

// elabOutput is the JSON document of `capsule elab`.
type elabOutput struct {
	File      string                   `json:"file"`
	Semantics *diagfmt.SemanticsOutput `json:"semantics"`
	Errors    int                      `json:"errors"`
}

func runElab(cmd *cobra.Command, args []string) error {
	path := args[0]
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format: %s", format)
	}
	cfg, err := loadSettings(cmd, path)
	if err != nil {
		return err
	}
	maxDiags, err := maxDiagnostics(cmd, cfg)
	if err != nil {
		return err
	}

	res, err := driver.DiagnoseWithOptions(cmd.Context(), path, &driver.DiagnoseOptions{
		Stage:          driver.DiagnoseStageAll,
		MaxDiagnostics: maxDiags,
		Analysis:       cfg.Analysis,
	})
	if err != nil {
		return fmt.Errorf("elaboration failed: %w", err)
	}
	if res.Analysis == nil {
		return fmt.Errorf("elaboration failed: no analysis for %s", path)
	}

	sem, err := diagfmt.BuildSemanticsOutput(semanticsOf(res))
	if err != nil {
		return fmt.Errorf("elaboration failed: %w", err)
	}
	errorCount := 0
	for _, d := range res.Bag.Items() {
		if d.Severity == diag.SevError {
			errorCount++
		}
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(elabOutput{File: res.File.Path, Semantics: sem, Errors: errorCount}); err != nil {
			return fmt.Errorf("failed to encode elaboration: %w", err)
		}
	} else {
		if err := writeElabText(out, sem); err != nil {
			return err
		}
		if res.Module != nil {
			fmt.Fprintln(out)
			if err := hir.Dump(out, res.Builder, res.Module); err != nil {
				return fmt.Errorf("failed to dump environments: %w", err)
			}
		}
	}

	if res.Bag.HasErrors() {
		colored, err := useColor(cmd, os.Stderr)
		if err != nil {
			return err
		}
		diagfmt.Pretty(cmd.ErrOrStderr(), res.Bag, res.FileSet, diagfmt.PrettyOpts{Color: colored, Context: 2})
		return errDiagnostics
	}
	return nil
}

// writeElabText prints one block per closure:
//
//	closure main#0 (move): FnOnce
//	  s: string by consume (body needs read)
func writeElabText(w io.Writer, sem *diagfmt.SemanticsOutput) error {
	for _, c := range sem.Closures {
		var sb strings.Builder
		sb.WriteString("closure " + c.Name)
		if c.Directive == "move" {
			sb.WriteString(" (" + c.Directive + ")")
		}
		sb.WriteString(": " + c.Trait)
		if c.CoercibleToFnPtr {
			sb.WriteString(", coercible to fn pointer")
		}
		if c.Parent != "" {
			sb.WriteString(", nested in " + c.Parent)
		}
		sb.WriteByte('\n')
		for _, cv := range c.Captures {
			fmt.Fprintf(&sb, "  %s: %s by %s", cv.Name, cv.Type, cv.Mode)
			if cv.Inferred != "" {
				fmt.Fprintf(&sb, " (body needs %s)", cv.Inferred)
			}
			sb.WriteByte('\n')
		}
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}
