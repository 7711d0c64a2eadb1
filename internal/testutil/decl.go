// Package testutil builds raw registry declarations and deterministic run
// IDs for tests.
package testutil

import (
	"fmt"

	"github.com/roach88/vkir/internal/decl"
)

// RegistryBuilder accumulates raw declarations in document order.
type RegistryBuilder struct {
	reg decl.Registry
}

// NewRegistry starts an empty registry.
func NewRegistry() *RegistryBuilder {
	return &RegistryBuilder{}
}

// Struct appends struct declarations.
func (b *RegistryBuilder) Struct(structs ...decl.RawStruct) *RegistryBuilder {
	b.reg.Structs = append(b.reg.Structs, structs...)
	return b
}

// Command appends command declarations.
func (b *RegistryBuilder) Command(commands ...decl.RawCommand) *RegistryBuilder {
	b.reg.Commands = append(b.reg.Commands, commands...)
	return b
}

// Build returns the registry.
func (b *RegistryBuilder) Build() *decl.Registry {
	reg := b.reg
	return &reg
}

// Attr is shorthand for a raw attribute.
func Attr(key, value string) decl.Attr {
	return decl.Attr{Key: key, Value: value}
}

// Struct declares a struct with category and name attributes.
func Struct(name string, members ...decl.RawField) decl.RawStruct {
	return decl.RawStruct{
		Name:    name,
		Attrs:   []decl.Attr{Attr("category", "struct"), Attr("name", name)},
		Members: members,
	}
}

// Extending declares a struct that extends the comma-separated bases.
func Extending(name, bases string, members ...decl.RawField) decl.RawStruct {
	s := Struct(name, members...)
	s.Attrs = append(s.Attrs, Attr("structextends", bases))
	return s
}

// ChainStruct declares a struct with sType and pNext followed by members.
func ChainStruct(name string, members ...decl.RawField) decl.RawStruct {
	return Struct(name, append([]decl.RawField{SType(), PNext()}, members...)...)
}

// AliasStruct declares an alias-only struct.
func AliasStruct(name, target string) decl.RawStruct {
	return decl.RawStruct{
		Name:  name,
		Attrs: []decl.Attr{Attr("category", "struct"), Attr("name", name), Attr("alias", target)},
	}
}

// Field builds a member or param: leading text, type, type tail and name.
func Field(text, typ, tail, name string, attrs ...decl.Attr) decl.RawField {
	return decl.RawField{
		Text:  text,
		Attrs: attrs,
		Elems: []decl.Elem{
			{Tag: "type", Text: typ, Tail: tail},
			{Tag: "name", Text: name},
		},
	}
}

// Plain is a field of a bare type, e.g. "uint32_t width".
func Plain(typ, name string, attrs ...decl.Attr) decl.RawField {
	return Field("", typ, " ", name, attrs...)
}

// Ptr is a mutable single pointer, e.g. "VkDevice* pDevice".
func Ptr(typ, name string, attrs ...decl.Attr) decl.RawField {
	return Field("", typ, "* ", name, attrs...)
}

// ConstPtr is a const single pointer, e.g. "const VkFooInfo* pInfo".
func ConstPtr(typ, name string, attrs ...decl.Attr) decl.RawField {
	return Field("const ", typ, "* ", name, attrs...)
}

// CArray is a fixed inline array param, e.g. "const float blendConstants[4]".
func CArray(typ, name string, size int) decl.RawField {
	f := Field("const ", typ, " ", name)
	f.Elems[1].Tail = fmt.Sprintf("[%d]", size)
	return f
}

// SType is the structure type tag member.
func SType() decl.RawField {
	return Plain("VkStructureType", "sType")
}

// PNext is the extension-chain member.
func PNext() decl.RawField {
	return ConstPtr("void", "pNext")
}

// Command declares a command with a return type and params.
func Command(ret, name string, params ...decl.RawField) decl.RawCommand {
	return decl.RawCommand{
		Name: name,
		Proto: []decl.Elem{
			{Tag: "type", Text: ret, Tail: " "},
			{Tag: "name", Text: name},
		},
		Params: params,
	}
}

// AliasCommand declares an alias-only command.
func AliasCommand(name, target string) decl.RawCommand {
	return decl.RawCommand{
		Name:  name,
		Attrs: []decl.Attr{Attr("name", name), Attr("alias", target)},
	}
}
