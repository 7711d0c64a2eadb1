package compiler

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/roach88/vkir/internal/config"
	"github.com/roach88/vkir/internal/decl"
)

// canonCacheSize bounds the memo table. A full registry references a few
// thousand distinct (const, depth, name) triples.
const canonCacheSize = 8192

type canonKey struct {
	isConst bool
	depth   int
	raw     string
}

// Canonicalizer maps raw registry type names to binding-facing names.
//
// Names with the native prefix lose it and gain the namespace
// ("VkDevice" becomes "vk::Device"); other names pass through. Types on the
// drop-reference list are passed by value, so a single pointer to one of
// them is not rendered.
type Canonicalizer struct {
	prefix    string
	namespace string
	dropRef   map[string]bool
	cache     *lru.Cache[canonKey, string]
}

// NewCanonicalizer returns a memoizing canonicalizer for the type tables.
func NewCanonicalizer(t config.TypeTables) (*Canonicalizer, error) {
	cache, err := lru.New[canonKey, string](canonCacheSize)
	if err != nil {
		return nil, err
	}
	return &Canonicalizer{
		prefix:    t.NativePrefix,
		namespace: t.Namespace,
		dropRef:   toSet(t.DropReference),
		cache:     cache,
	}, nil
}

// Canonicalize renders raw with its qualifiers: an optional "const " prefix
// and one "*" per pointer level.
func (c *Canonicalizer) Canonicalize(isConst bool, depth int, raw string) string {
	key := canonKey{isConst: isConst, depth: depth, raw: raw}
	if name, ok := c.cache.Get(key); ok {
		return name
	}

	if depth == 1 && c.dropRef[raw] {
		depth = 0
	}

	var b strings.Builder
	if isConst {
		b.WriteString("const ")
	}
	if c.prefix != "" && strings.HasPrefix(raw, c.prefix) {
		b.WriteString(c.namespace)
		b.WriteString(strings.TrimPrefix(raw, c.prefix))
	} else {
		b.WriteString(raw)
	}
	b.WriteString(strings.Repeat("*", depth))

	name := b.String()
	c.cache.Add(key, name)
	return name
}

// Name canonicalizes a bare type name.
func (c *Canonicalizer) Name(raw string) string {
	return c.Canonicalize(false, 0, raw)
}

// Ref canonicalizes a type reference.
func (c *Canonicalizer) Ref(t decl.TypeRef) string {
	return c.Canonicalize(t.Const, t.Pointers, t.Name)
}
