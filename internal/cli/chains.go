package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/vkir/internal/compiler"
	"github.com/roach88/vkir/internal/ir"
	"github.com/roach88/vkir/internal/store"
)

// ChainsOptions holds flags for the chains command.
type ChainsOptions struct {
	*RootOptions
	Base string
}

// ChainEntry is one listed extension chain.
type ChainEntry struct {
	ID    int      `json:"id"`
	Key   string   `json:"key"`
	Types []string `json:"types"`
}

// NewChainsCommand creates the chains command.
func NewChainsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ChainsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "chains <registry.xml>",
		Short: "List extension chains and their IDs",
		Long: `Compile a registry and list every extension chain with the ID it is
assigned, in ID order. --base restricts the list to chains rooted at one struct.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChains(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Base, "base", "", "only chains rooted at this struct")

	return cmd
}

func runChains(opts *ChainsOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loaded, doc, err := CompileRegistry(path, opts.Tables)
	if err != nil {
		code, message := loadErrorCode(err)
		return formatter.Fail(ExitCommandError, code, message, nil)
	}

	base := opts.Base
	if base != "" {
		// Accept both VkFoo and vk::Foo.
		canon, err := compiler.NewCanonicalizer(loaded.Tables.Types)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
		}
		base = canon.Name(base)
	}
	entries := filterChains(doc.ChainTraits, base)
	if formatter.Format == "json" {
		return formatter.Success(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(formatter.Writer, "No chains")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(formatter.Writer, "%6d  %s\n", e.ID, e.Key)
	}
	return nil
}

func filterChains(traits []ir.ChainTrait, base string) []ChainEntry {
	entries := []ChainEntry{}
	for _, t := range traits {
		if base != "" && t.Types[0] != base {
			continue
		}
		entries = append(entries, ChainEntry{ID: t.ID, Key: store.ChainKey(t.Types), Types: t.Types})
	}
	return entries
}
