package cli

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/vkir/internal/artifact"
	"github.com/roach88/vkir/internal/ir"
	"github.com/roach88/vkir/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output   string // output file path; stdout when empty
	Database string // record the build in this manifest when set
	Publish  bool

	// Publisher overrides the S3 store built from the environment (for testing).
	Publisher artifact.Putter
	// NewRunID overrides store.NewRunID (for testing).
	NewRunID func() (string, error)
}

// CompileSummary is the result reported after a successful compile.
type CompileSummary struct {
	RunID          string `json:"run_id,omitempty"`
	Seq            int64  `json:"seq,omitempty"`
	Output         string `json:"output,omitempty"`
	RegistryDigest string `json:"registry_digest"`
	IRDigest       string `json:"ir_digest"`
	Chains         int    `json:"chains"`
	ChainCtors     int    `json:"chain_ctors"`
	NonChainCtors  int    `json:"non_chain_ctors"`
	Commands       int    `json:"commands"`
	Published      string `json:"published,omitempty"`
}

func (s CompileSummary) String() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "✓ Compiled %d chain(s), %d chain ctor(s), %d non-chain ctor(s), %d command(s)\n",
		s.Chains, s.ChainCtors, s.NonChainCtors, s.Commands)
	fmt.Fprintf(&b, "  ir digest: %s", s.IRDigest)
	if s.Output != "" {
		fmt.Fprintf(&b, "\nWrote IR to %s", s.Output)
	}
	if s.RunID != "" {
		fmt.Fprintf(&b, "\nRecorded build %s (seq %d)", s.RunID, s.Seq)
	}
	if s.Published != "" {
		fmt.Fprintf(&b, "\nPublished %s", s.Published)
	}
	return b.String()
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <registry.xml>",
		Short: "Compile a registry to the binding IR",
		Long: `Compile a Vulkan registry XML file to the binding IR.

Without --output the IR document is written to stdout. With --db the build
and its chain IDs are recorded in the manifest; with --publish the document
is uploaded to the configured S3-compatible bucket.

Nothing is written when the build fails.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path (default stdout)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the build in this manifest")
	cmd.Flags().BoolVar(&opts.Publish, "publish", false, "upload the IR to the artifact bucket")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loaded, doc, err := CompileRegistry(path, opts.Tables)
	if err != nil {
		code, message := loadErrorCode(err)
		return formatter.Fail(ExitCommandError, code, message, nil)
	}

	var encoded bytes.Buffer
	if err := ir.Encode(&encoded, doc); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("encoding IR: %v", err), nil)
	}
	digest, err := ir.Digest(doc)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDigestFailed, err.Error(), nil)
	}

	summary := CompileSummary{
		Output:         opts.Output,
		RegistryDigest: loaded.RegistryDigest,
		IRDigest:       digest,
		Chains:         len(doc.ChainTraits),
		ChainCtors:     len(doc.ChainCtors),
		NonChainCtors:  len(doc.NonChainCtors),
		Commands:       len(doc.Commands),
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, encoded.Bytes(), 0o644); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
		slog.Info("wrote IR", "path", opts.Output, "bytes", encoded.Len())
	}

	if opts.Database != "" || opts.Publish {
		newRunID := opts.NewRunID
		if newRunID == nil {
			newRunID = store.NewRunID
		}
		runID, err := newRunID()
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
		}
		summary.RunID = runID

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		if opts.Database != "" {
			build := store.NewBuild(runID, loaded.RegistryPath, loaded.RegistryDigest, digest, loaded.TablesSource, doc)
			seq, err := recordBuild(ctx, opts.Database, build, doc)
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeManifest, err.Error(), nil)
			}
			summary.Seq = seq
			slog.Info("recorded build", "run_id", runID, "seq", seq, "db", opts.Database)
		}

		if opts.Publish {
			key, err := publish(ctx, opts, runID, doc)
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodePublish, err.Error(), nil)
			}
			summary.Published = key
			slog.Info("published IR", "key", key)
		}
	}

	// stdout carries the document itself when no output file is given, so
	// it is written only once the manifest and publish steps have succeeded.
	if opts.Output == "" {
		if _, err := cmd.OutOrStdout().Write(encoded.Bytes()); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing IR: %v", err), nil)
		}
		slog.Info("compile complete", "ir_digest", digest, "chains", summary.Chains, "commands", summary.Commands)
		return nil
	}
	return formatter.Success(summary)
}

func recordBuild(ctx context.Context, dbPath string, b store.Build, doc *ir.Document) (int64, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return 0, err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing manifest", "error", closeErr)
		}
	}()
	return st.RecordBuild(ctx, b, doc)
}

func publish(ctx context.Context, opts *CompileOptions, runID string, doc *ir.Document) (string, error) {
	putter := opts.Publisher
	if putter == nil {
		env := opts.Env.Artifact
		if !env.Enabled() {
			return "", fmt.Errorf("--publish needs VKIR_ARTIFACT_ENDPOINT")
		}
		s3, err := artifact.NewS3Store(artifact.S3Config{
			Endpoint:  env.Endpoint,
			Region:    env.Region,
			AccessKey: env.AccessKey,
			SecretKey: env.SecretKey,
			Bucket:    env.Bucket,
			UseSSL:    env.UseSSL,
		})
		if err != nil {
			return "", err
		}
		putter = s3
	}
	return artifact.Publish(ctx, putter, runID, doc)
}
