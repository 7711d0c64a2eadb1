package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/vkir/internal/store"
)

// DriftOptions holds flags for the drift command.
type DriftOptions struct {
	*RootOptions
	Database string
}

// DriftReport lists the chains whose IDs differ between two builds.
type DriftReport struct {
	From   string        `json:"from"`
	To     string        `json:"to"`
	Drifts []store.Drift `json:"drifts"`
}

// NewDriftCommand creates the drift command.
func NewDriftCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DriftOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "drift [registry.xml]",
		Short: "Report chain IDs that changed between builds",
		Long: `Compare extension chain IDs between builds.

With a registry argument, the registry is compiled and compared against the
latest recorded build. Without one, the two most recent recorded builds are
compared. Exits 1 when any chain was renumbered, added or removed.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDrift(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "manifest path (default $VKIR_DB or vkir.db)")

	return cmd
}

func runDrift(opts *DriftOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := store.Open(opts.dbPath(opts.Database))
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeManifest, err.Error(), nil)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing manifest", "error", closeErr)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var report DriftReport
	var prev, next map[string]int
	if len(args) == 1 {
		_, doc, err := CompileRegistry(args[0], opts.Tables)
		if err != nil {
			code, message := loadErrorCode(err)
			return formatter.Fail(ExitCommandError, code, message, nil)
		}
		latest, err := st.LatestBuild(ctx)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeManifest, err.Error(), nil)
		}
		if prev, err = st.ChainIDs(ctx, latest.RunID); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeManifest, err.Error(), nil)
		}
		next = store.ChainEntries(doc)
		report.From, report.To = latest.RunID, args[0]
	} else {
		builds, err := st.LatestBuilds(ctx, 2)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeManifest, err.Error(), nil)
		}
		if len(builds) < 2 {
			return formatter.Fail(ExitCommandError, ErrCodeManifest,
				fmt.Sprintf("need two recorded builds to compare, have %d", len(builds)), nil)
		}
		if prev, err = st.ChainIDs(ctx, builds[1].RunID); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeManifest, err.Error(), nil)
		}
		if next, err = st.ChainIDs(ctx, builds[0].RunID); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeManifest, err.Error(), nil)
		}
		report.From, report.To = builds[1].RunID, builds[0].RunID
	}

	report.Drifts = store.CompareChains(prev, next)
	if report.Drifts == nil {
		report.Drifts = []store.Drift{}
	}
	slog.Debug("compared chains", "from", report.From, "to", report.To, "old", len(prev), "new", len(next))

	if err := outputDrift(formatter, report); err != nil {
		return err
	}
	if len(report.Drifts) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d chain(s) drifted", len(report.Drifts)))
	}
	return nil
}

func outputDrift(formatter *OutputFormatter, report DriftReport) error {
	if formatter.Format == "json" {
		return formatter.Success(report)
	}

	if len(report.Drifts) == 0 {
		fmt.Fprintf(formatter.Writer, "✓ No chain ID drift (%s -> %s)\n", report.From, report.To)
		return nil
	}

	fmt.Fprintf(formatter.Writer, "✗ Chain ID drift (%s -> %s)\n\n", report.From, report.To)
	for _, d := range report.Drifts {
		switch d.Kind {
		case store.DriftRenumbered:
			fmt.Fprintf(formatter.Writer, "  renumbered %d -> %d  %s\n", d.OldID, d.NewID, d.Key)
		case store.DriftAdded:
			fmt.Fprintf(formatter.Writer, "  added      %d  %s\n", d.NewID, d.Key)
		case store.DriftRemoved:
			fmt.Fprintf(formatter.Writer, "  removed    %d  %s\n", d.OldID, d.Key)
		}
	}
	return nil
}
