package decl

// Kind identifies which declaration shape an attribute set belongs to.
type Kind string

const (
	KindStruct  Kind = "struct"
	KindMember  Kind = "member"
	KindCommand Kind = "command"
	KindParam   Kind = "param"
)

// Attr is a single raw attribute in document order.
type Attr struct {
	Key   string
	Value string
}

// Elem is a child element of a member, param or proto.
// Tail is the character data between the end of this element and the next sibling.
type Elem struct {
	Tag  string
	Text string
	Tail string
}

// RawField is a <member> or <param> as read from the registry.
// Text is the character data before the first child element ("const ", "struct ").
type RawField struct {
	Text  string
	Attrs []Attr
	Elems []Elem
}

// RawStruct is a struct or union type declaration.
type RawStruct struct {
	Name    string
	Attrs   []Attr
	Members []RawField
}

// RawCommand is a command declaration. Name comes from the proto or, for
// alias-only commands, from the name attribute.
type RawCommand struct {
	Name   string
	Attrs  []Attr
	Proto  []Elem
	Params []RawField
}

// Registry is the full declaration sequence handed to the compiler.
// Structs are always ingested before commands.
type Registry struct {
	Structs  []RawStruct
	Commands []RawCommand
}

// Lookup returns the value of the first attribute named key.
func Lookup(attrs []Attr, key string) (string, bool) {
	for _, a := range attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}
