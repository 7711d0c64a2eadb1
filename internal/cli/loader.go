package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/roach88/vkir/internal/compiler"
	"github.com/roach88/vkir/internal/config"
	"github.com/roach88/vkir/internal/decl"
	"github.com/roach88/vkir/internal/ir"
	"github.com/roach88/vkir/internal/registry"
)

// Error code constants, unified across all CLI commands.
// Build errors carry their own E2xx code from the compiler.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeReadFailed    = "E002" // Registry file unreadable
	ErrCodeParseFailed   = "E003" // Registry XML malformed or not a <registry>
	ErrCodeTablesInvalid = "E004" // Tables file unreadable or invalid
	ErrCodeNotFound      = "E005" // Path not found
	ErrCodeDigestFailed  = "E006" // IR digest failed
	ErrCodeWriteFailed   = "E007" // File write error
	ErrCodeManifest      = "E008" // Build manifest error
	ErrCodePublish       = "E009" // Artifact publish error
)

// LoadResult is a parsed registry together with the tables it will be
// compiled with.
type LoadResult struct {
	RegistryPath   string
	RegistryDigest string
	TablesSource   string
	Registry       *decl.Registry
	Tables         *config.Tables
}

// LoadError is a load or build failure with its CLI error code.
type LoadError struct {
	Code    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadRegistry reads and parses the registry at path and loads the tables
// (the embedded defaults when tablesPath is empty).
func LoadRegistry(path, tablesPath string) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("registry not found: %s", path), Err: err}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("reading registry: %v", err), Err: err}
	}

	reg, err := registry.Read(bytes.NewReader(data))
	if err != nil {
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("%s: %v", path, err), Err: err}
	}

	tables, err := config.Load(tablesPath)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeTablesInvalid, Message: err.Error(), Err: err}
	}

	source := "defaults"
	if tablesPath != "" {
		source = tablesPath
	}
	return &LoadResult{
		RegistryPath:   path,
		RegistryDigest: ir.RegistryDigest(data),
		TablesSource:   source,
		Registry:       reg,
		Tables:         tables,
	}, nil
}

// CompileRegistry loads the registry and builds its IR document.
func CompileRegistry(path, tablesPath string) (*LoadResult, *ir.Document, error) {
	loaded, err := LoadRegistry(path, tablesPath)
	if err != nil {
		return nil, nil, err
	}
	doc, err := compiler.Build(loaded.Registry, loaded.Tables)
	if err != nil {
		return nil, nil, convertBuildError(err)
	}
	return loaded, doc, nil
}

// convertBuildError keeps the compiler's error code for declaration errors.
func convertBuildError(err error) *LoadError {
	var dErr *compiler.DeclError
	if errors.As(err, &dErr) {
		msg := fmt.Sprintf("%s: %s: %s", dErr.Kind, dErr.Decl, dErr.Detail)
		return &LoadError{Code: dErr.Code, Message: msg, Err: err}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error(), Err: err}
}

// loadErrorCode returns the CLI code and message for err.
func loadErrorCode(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}
