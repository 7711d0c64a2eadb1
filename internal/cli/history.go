package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/vkir/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "history",
		Short:         "List recorded builds, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "manifest path (default $VKIR_DB or vkir.db)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 10, "number of builds to list")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Limit <= 0 {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("--limit must be positive, got %d", opts.Limit), nil)
	}

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
	builds, err := st.LatestBuilds(ctx, opts.Limit)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeManifest, err.Error(), nil)
	}

	if formatter.Format == "json" {
		if builds == nil {
			builds = []store.Build{}
		}
		return formatter.Success(builds)
	}

	if len(builds) == 0 {
		fmt.Fprintln(formatter.Writer, "No builds recorded")
		return nil
	}
	for _, b := range builds {
		fmt.Fprintf(formatter.Writer, "%4d  %s  %s\n", b.Seq, b.RunID, b.RegistryPath)
		fmt.Fprintf(formatter.Writer, "      ir %s  chains=%d ctors=%d commands=%d\n",
			shortDigest(b.IRDigest), b.ChainCount, b.CtorCount, b.CommandCount)
	}
	return nil
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
