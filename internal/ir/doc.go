// Package ir defines the document handed to the downstream binding
// generator and the canonical serialization used to fingerprint it.
//
// This package contains type definitions and serialization only. The
// compiler builds a Document; ir imports nothing internal.
//
// Key constraints:
//   - NO float types anywhere; counts and IDs are int
//   - Every collection encodes as an array, never null
//   - Object keys are emitted in the fixed order of the struct fields
package ir
