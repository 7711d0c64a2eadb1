package compiler

import (
	"github.com/roach88/vkir/internal/config"
	"github.com/roach88/vkir/internal/decl"
)

// semanticAttributes are the attributes ingestion reads, per kind.
var semanticAttributes = map[decl.Kind][]string{
	decl.KindStruct:  {"name", "category", "alias", "structextends"},
	decl.KindMember:  {"optional", "len"},
	decl.KindCommand: {"name", "alias"},
	decl.KindParam:   {"optional", "len"},
}

// AttributeValidator enforces the closed attribute whitelist of each
// declaration kind.
type AttributeValidator struct {
	semantic map[decl.Kind]map[string]bool
	noEffect map[decl.Kind]map[string]bool
}

// NewAttributeValidator builds a validator from the no-effect whitelists.
func NewAttributeValidator(t config.AttributeTables) *AttributeValidator {
	v := &AttributeValidator{
		semantic: make(map[decl.Kind]map[string]bool),
		noEffect: map[decl.Kind]map[string]bool{
			decl.KindStruct:  toSet(t.Struct),
			decl.KindMember:  toSet(t.Member),
			decl.KindCommand: toSet(t.Command),
			decl.KindParam:   toSet(t.Param),
		},
	}
	for kind, keys := range semanticAttributes {
		v.semantic[kind] = toSet(keys)
	}
	return v
}

// Validate returns the attributes of attrs that affect the model. Whitelisted
// attributes without effect are dropped. Any other key fails with
// UnrecognizedAttribute naming owner.
func (v *AttributeValidator) Validate(kind decl.Kind, owner string, attrs []decl.Attr) (map[string]string, error) {
	out := make(map[string]string)
	for _, a := range attrs {
		switch {
		case v.semantic[kind][a.Key]:
			out[a.Key] = a.Value
		case v.noEffect[kind][a.Key]:
		default:
			return nil, declError(UnrecognizedAttribute, owner, "unknown %s attribute %q", kind, a.Key)
		}
	}
	return out, nil
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
