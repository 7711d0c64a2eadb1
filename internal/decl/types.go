package decl

// Optionality describes the registry's optional="..." marker.
type Optionality int

const (
	OptionalNone Optionality = iota
	Optional
	OptionalPair // "false,true" or "true,false": the pointer is required, the pointee optional (or vice versa)
)

// VoidType is the raw name of the void return type.
const VoidType = "void"

// TypeRef is a raw type reference with its qualifiers.
type TypeRef struct {
	Name     string
	Const    bool
	Pointers int // 0, 1 or 2
}

// IsVoid reports whether the reference is a plain void (not void*).
func (t TypeRef) IsVoid() bool {
	return t.Name == VoidType && t.Pointers == 0
}

// Member is a struct field.
type Member struct {
	Name          string
	Type          TypeRef
	IsArray       bool
	LenRefs       []string
	Optionality   Optionality
	LengthCarrier bool // another member's len names this one
}

// Struct is a normalized struct declaration.
type Struct struct {
	Name             string
	Members          []Member
	HasExtensionSlot bool
	Extends          []string // bases named by structextends, in attribute order
	Alias            string
}

// Param is a command parameter.
type Param struct {
	Name          string
	Type          TypeRef
	IsArray       bool
	IsCArray      bool // fixed-size inline array, e.g. float blendConstants[4]
	CArraySize    int
	LenRefs       []string
	Optionality   Optionality
	LengthCarrier bool
}

// Command is a normalized command declaration.
type Command struct {
	Name   string
	Return TypeRef
	Params []Param
	Alias  string
}
