package ir

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainDocument = "vkir/document/v1"
	DomainRegistry = "vkir/registry/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Digest fingerprints a document by hashing its canonical JSON.
// Two builds of the same registry under the same tables have equal digests.
func Digest(doc *Document) (string, error) {
	generic, err := toGeneric(doc)
	if err != nil {
		return "", fmt.Errorf("Digest: %w", err)
	}
	canonical, err := MarshalCanonical(generic)
	if err != nil {
		return "", fmt.Errorf("Digest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDocument, canonical), nil
}

// RegistryDigest fingerprints the raw registry bytes a build was made from.
func RegistryDigest(data []byte) string {
	return hashWithDomain(DomainRegistry, data)
}

// toGeneric round-trips v through encoding/json into map/slice form,
// keeping numbers as json.Number.
func toGeneric(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
