// Package store keeps the vkir build manifest in SQLite.
//
// Every recorded build gets a row in builds and one row per emitted
// extension chain in chain_ids. Chain IDs are part of the generated
// bindings' contract, so the manifest is what lets `vkir drift` notice
// when a registry update renumbers them.
//
// # Invariants
//
//   - Builds are ordered by seq, a logical counter assigned inside the
//     write transaction. There are no timestamps.
//   - A chain is keyed by its member names joined with " -> ", which is
//     stable across builds even when its numeric ID is not.
//   - Listing queries order by seq and then by key with COLLATE BINARY
//     so results are identical across runs.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
package store
