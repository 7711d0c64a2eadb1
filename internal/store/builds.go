package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/vkir/internal/ir"
)

// ErrNoBuilds is returned when the manifest holds no recorded build.
var ErrNoBuilds = errors.New("no builds recorded")

// Build is one row of the manifest.
type Build struct {
	RunID           string `json:"run_id"`
	Seq             int64  `json:"seq"`
	RegistryPath    string `json:"registry_path"`
	RegistryDigest  string `json:"registry_digest"`
	IRDigest        string `json:"ir_digest"`
	TablesSource    string `json:"tables_source"`
	ChainCount      int    `json:"chain_count"`
	CtorCount       int    `json:"ctor_count"`
	CommandCount    int    `json:"command_count"`
	IRVersion       string `json:"ir_version"`
	CompilerVersion string `json:"compiler_version"`
}

// NewRunID returns a time-ordered UUIDv7 run ID.
func NewRunID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate run id: %w", err)
	}
	return id.String(), nil
}

// ChainKey is the stable identity of an extension chain.
func ChainKey(types []string) string {
	return strings.Join(types, " -> ")
}

// NewBuild fills the counts and versions of a manifest row from doc.
// Seq is assigned by RecordBuild.
func NewBuild(runID, registryPath, registryDigest, irDigest, tablesSource string, doc *ir.Document) Build {
	return Build{
		RunID:           runID,
		RegistryPath:    registryPath,
		RegistryDigest:  registryDigest,
		IRDigest:        irDigest,
		TablesSource:    tablesSource,
		ChainCount:      len(doc.ChainTraits),
		CtorCount:       len(doc.ChainCtors) + len(doc.NonChainCtors),
		CommandCount:    len(doc.Commands),
		IRVersion:       ir.IRVersion,
		CompilerVersion: ir.CompilerVersion,
	}
}

// RecordBuild writes b and the chain IDs of doc in one transaction and
// returns the seq assigned to the build.
func (s *Store) RecordBuild(ctx context.Context, b Build, doc *ir.Document) (int64, error) {
	if b.RunID == "" {
		return 0, fmt.Errorf("record build: empty run id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(seq), 0) + 1 FROM builds").Scan(&seq); err != nil {
		return 0, fmt.Errorf("next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO builds (
			run_id, seq, registry_path, registry_digest, ir_digest, tables_source,
			chain_count, ctor_count, command_count, ir_version, compiler_version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, b.RunID, seq, b.RegistryPath, b.RegistryDigest, b.IRDigest, b.TablesSource,
		b.ChainCount, b.CtorCount, b.CommandCount, b.IRVersion, b.CompilerVersion)
	if err != nil {
		return 0, fmt.Errorf("insert build %s: %w", b.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO chain_ids (run_id, chain_key, chain_id) VALUES (?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("prepare chain insert: %w", err)
	}
	defer stmt.Close()

	for _, trait := range doc.ChainTraits {
		if _, err := stmt.ExecContext(ctx, b.RunID, ChainKey(trait.Types), trait.ID); err != nil {
			return 0, fmt.Errorf("insert chain %d: %w", trait.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit build: %w", err)
	}
	return seq, nil
}

// LatestBuilds returns up to limit builds, newest first.
func (s *Store) LatestBuilds(ctx context.Context, limit int) ([]Build, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seq, registry_path, registry_digest, ir_digest, tables_source,
			chain_count, ctor_count, command_count, ir_version, compiler_version
		FROM builds
		ORDER BY seq DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	var builds []Build
	for rows.Next() {
		var b Build
		if err := rows.Scan(&b.RunID, &b.Seq, &b.RegistryPath, &b.RegistryDigest, &b.IRDigest,
			&b.TablesSource, &b.ChainCount, &b.CtorCount, &b.CommandCount,
			&b.IRVersion, &b.CompilerVersion); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		builds = append(builds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate builds: %w", err)
	}
	return builds, nil
}

// LatestBuild returns the most recent build or ErrNoBuilds.
func (s *Store) LatestBuild(ctx context.Context) (Build, error) {
	builds, err := s.LatestBuilds(ctx, 1)
	if err != nil {
		return Build{}, err
	}
	if len(builds) == 0 {
		return Build{}, ErrNoBuilds
	}
	return builds[0], nil
}

// ChainIDs returns the chain key to chain ID map recorded for runID.
func (s *Store) ChainIDs(ctx context.Context, runID string) (map[string]int, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM builds WHERE run_id = ?", runID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("build %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup build %s: %w", runID, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT chain_key, chain_id FROM chain_ids
		WHERE run_id = ?
		ORDER BY chain_key COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query chain ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]int)
	for rows.Next() {
		var key string
		var id int
		if err := rows.Scan(&key, &id); err != nil {
			return nil, fmt.Errorf("scan chain id: %w", err)
		}
		ids[key] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chain ids: %w", err)
	}
	return ids, nil
}
