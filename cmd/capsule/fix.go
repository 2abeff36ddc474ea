package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"capsule/internal/driver"
	"capsule/internal/fix"
)

func newFixCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fix [flags] <file.cap>",
		Short: "Apply suggested fixes, such as adding `move` to escaping closures",
		Long:  "Run the elaboration pipeline, list the fixes its diagnostics suggest and apply them according to the chosen strategy.",
		Args:  cobra.ExactArgs(1),
		RunE:  runFix,
	}
	cmd.Flags().Bool("all", false, "apply every fix that does not need manual review")
	cmd.Flags().Bool("once", false, "apply the first available fix (default)")
	cmd.Flags().String("id", "", "apply the fix with this identifier (see --list)")
	cmd.Flags().Bool("list", false, "list available fixes without applying them")
	cmd.Flags().Bool("dry-run", false, "print the fixed file instead of writing it")
	return cmd
}

func runFix(cmd *cobra.Command, args []string) error {
	path := args[0]
	flags := cmd.Flags()
	applyAll, err := flags.GetBool("all")
	if err != nil {
		return err
	}
	applyOnce, err := flags.GetBool("once")
	if err != nil {
		return err
	}
	targetID, err := flags.GetString("id")
	if err != nil {
		return err
	}
	list, err := flags.GetBool("list")
	if err != nil {
		return err
	}
	dryRun, err := flags.GetBool("dry-run")
	if err != nil {
		return err
	}
	if targetID != "" && (applyAll || applyOnce) {
		return fmt.Errorf("--id cannot be combined with --all or --once")
	}
	if applyAll && applyOnce {
		return fmt.Errorf("--all and --once are mutually exclusive")
	}

	opts := fix.ApplyOptions{Mode: fix.ApplyModeOnce, TargetID: targetID, DryRun: dryRun}
	switch {
	case targetID != "":
		opts.Mode = fix.ApplyModeID
	case applyAll:
		opts.Mode = fix.ApplyModeAll
	}

	cfg, err := loadSettings(cmd, path)
	if err != nil {
		return err
	}
	maxDiags, err := maxDiagnostics(cmd, cfg)
	if err != nil {
		return err
	}
	result, err := driver.DiagnoseWithOptions(cmd.Context(), path, &driver.DiagnoseOptions{
		Stage:          driver.DiagnoseStageAll,
		MaxDiagnostics: maxDiags,
		Analysis:       cfg.Analysis,
	})
	if err != nil {
		return fmt.Errorf("fix: diagnose failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if list {
		cands, _ := fix.Candidates(result.FileSet, result.Bag.Items())
		if len(cands) == 0 {
			fmt.Fprintln(out, "No fixes available.")
			return nil
		}
		for _, c := range cands {
			fmt.Fprintf(out, "%s  %s (%s)\n", c.Fix.ID, c.Fix.Title, c.Fix.Applicability)
		}
		return nil
	}

	res, applyErr := fix.Apply(result.FileSet, result.Bag.Items(), opts)
	if err := printApplyResult(out, res, applyErr); err != nil {
		return err
	}
	if dryRun && res != nil {
		for _, change := range res.FileChanges {
			fmt.Fprintf(out, "--- %s\n%s", change.Path, change.Content)
		}
	}
	return nil
}

func printApplyResult(out io.Writer, res *fix.ApplyResult, applyErr error) error {
	if res == nil {
		return applyErr
	}
	if len(res.Applied) > 0 {
		fmt.Fprintf(out, "Applied %d fix(es):\n", len(res.Applied))
		for _, item := range res.Applied {
			location := item.PrimaryPath
			if location == "" {
				location = "(unknown location)"
			}
			fmt.Fprintf(out, "  %s [%s] at %s (%d edits, %s)\n", item.Title, item.ID, location, item.EditCount, item.Applicability)
		}
	}
	if len(res.FileChanges) > 0 {
		fmt.Fprintln(out, "Updated files:")
		for _, change := range res.FileChanges {
			fmt.Fprintf(out, "  %s (%d edits)\n", change.Path, change.EditCount)
		}
	}
	if len(res.Skipped) > 0 {
		fmt.Fprintln(out, "Skipped fixes:")
		for _, skip := range res.Skipped {
			id := skip.ID
			if id == "" {
				id = "(unnamed)"
			}
			if skip.Title != "" {
				fmt.Fprintf(out, "  %s [%s]: %s\n", skip.Title, id, skip.Reason)
			} else {
				fmt.Fprintf(out, "  [%s]: %s\n", id, skip.Reason)
			}
		}
	}
	if applyErr != nil {
		if errors.Is(applyErr, fix.ErrNoFixes) {
			fmt.Fprintln(out, "No applicable fixes found.")
			return nil
		}
		return applyErr
	}
	return nil
}
