package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/vkir/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool `json:"valid"`
	Structs  int  `json:"structs"`
	Commands int  `json:"commands"`
	Bases    int  `json:"bases"`
	Skipped  int  `json:"skipped"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <registry.xml>",
		Short: "Check a registry without emitting IR",
		Long: `Ingest and classify every declaration of a registry without emitting IR.

Reports the first unrecognized attribute, qualifier token, element shape or
structextends cycle, with the same error codes compile uses.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	loaded, err := LoadRegistry(path, opts.Tables)
	if err != nil {
		code, message := loadErrorCode(err)
		return formatter.Fail(ExitCommandError, code, message, nil)
	}

	model, err := compiler.Check(loaded.Registry, loaded.Tables)
	if err != nil {
		code, message := loadErrorCode(convertBuildError(err))
		return formatter.Fail(ExitCommandError, code, message, nil)
	}

	result := ValidationResult{
		Valid:    true,
		Structs:  len(model.Structs),
		Commands: len(model.Commands),
		Bases:    len(model.Graph.Bases()),
		Skipped:  model.Skipped,
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Registry valid: %d struct(s), %d command(s), %d chain base(s), %d skipped\n",
		result.Structs, result.Commands, result.Bases, result.Skipped)
	return nil
}
