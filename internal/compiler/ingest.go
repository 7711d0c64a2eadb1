package compiler

import (
	"strconv"
	"strings"

	"github.com/roach88/vkir/internal/config"
	"github.com/roach88/vkir/internal/decl"
)

// ingester turns raw registry declarations into the normalized model.
// It validates every attribute and token it meets.
type ingester struct {
	attrs      *AttributeValidator
	chainLink  string
	fixedSizes map[int]bool
}

func newIngester(t *config.Tables) *ingester {
	sizes := make(map[int]bool, len(t.Types.FixedArraySizes))
	for _, n := range t.Types.FixedArraySizes {
		sizes[n] = true
	}
	return &ingester{
		attrs:      NewAttributeValidator(t.Attributes),
		chainLink:  t.Structs.ChainLinkMember,
		fixedSizes: sizes,
	}
}

// Struct normalizes a struct declaration. Alias-only declarations come back
// with Alias set and no members.
func (in *ingester) Struct(raw decl.RawStruct) (*decl.Struct, error) {
	attrs, err := in.attrs.Validate(decl.KindStruct, raw.Name, raw.Attrs)
	if err != nil {
		return nil, err
	}

	s := &decl.Struct{Name: raw.Name, Alias: attrs["alias"]}
	if s.Name == "" {
		return nil, declError(UnrecognizedElementShape, "<struct>", "missing name attribute")
	}
	if s.Alias != "" && len(raw.Members) == 0 {
		return s, nil
	}
	if ext, ok := attrs["structextends"]; ok && ext != "" {
		s.Extends = strings.Split(ext, ",")
	}

	lengthNames := make(map[string]bool)
	for _, rm := range raw.Members {
		m, err := in.member(raw.Name, rm)
		if err != nil {
			return nil, err
		}
		for _, ref := range m.LenRefs {
			lengthNames[ref] = true
		}
		if m.Name == in.chainLink {
			s.HasExtensionSlot = true
		}
		s.Members = append(s.Members, m)
	}
	for i := range s.Members {
		s.Members[i].LengthCarrier = lengthNames[s.Members[i].Name]
	}
	return s, nil
}

func (in *ingester) member(owner string, raw decl.RawField) (decl.Member, error) {
	var m decl.Member

	isConst, ok := leadingConst(raw.Text)
	if !ok {
		return m, declError(UnrecognizedQualifierToken, owner, "unrecognized member text %q", raw.Text)
	}
	m.Type.Const = isConst

	attrs, err := in.attrs.Validate(decl.KindMember, owner, raw.Attrs)
	if err != nil {
		return m, err
	}
	if v, ok := attrs["optional"]; ok {
		if m.Optionality, err = parseOptionality(owner, v, true); err != nil {
			return m, err
		}
	}
	if v, ok := attrs["len"]; ok {
		m.LenRefs = strings.Split(v, ",")
		m.IsArray = true
	}

	// Children other than type and name (comments, enum sizes) carry
	// nothing the model needs.
	for _, e := range raw.Elems {
		switch e.Tag {
		case "type":
			m.Type.Name = e.Text
			depth, ok := memberTail(e.Tail)
			if !ok {
				return m, declError(UnrecognizedQualifierToken, owner, "unrecognized member type tail %q", e.Tail)
			}
			m.Type.Pointers = depth
		case "name":
			m.Name = e.Text
		}
	}
	return m, nil
}

// Command normalizes a command declaration. Alias-only declarations come
// back with Alias set and no proto.
func (in *ingester) Command(raw decl.RawCommand) (*decl.Command, error) {
	attrs, err := in.attrs.Validate(decl.KindCommand, raw.Name, raw.Attrs)
	if err != nil {
		return nil, err
	}

	c := &decl.Command{Name: raw.Name, Alias: attrs["alias"]}
	if c.Alias != "" && len(raw.Proto) == 0 {
		return c, nil
	}
	if len(raw.Proto) == 0 {
		return nil, declError(UnrecognizedElementShape, raw.Name, "command has no proto")
	}

	for _, e := range raw.Proto {
		switch e.Tag {
		case "name":
			c.Name = e.Text
		case "type":
			c.Return.Name = e.Text
			depth, ok := paramTail(e.Tail)
			if !ok {
				return nil, declError(UnrecognizedQualifierToken, raw.Name, "unrecognized proto type tail %q", e.Tail)
			}
			c.Return.Pointers = depth
		default:
			return nil, declError(UnrecognizedElementShape, raw.Name, "unknown proto element <%s>", e.Tag)
		}
	}
	if c.Name == "" {
		return nil, declError(UnrecognizedElementShape, "<command>", "proto has no name")
	}

	lengthNames := make(map[string]bool)
	for _, rp := range raw.Params {
		p, err := in.param(c.Name, rp)
		if err != nil {
			return nil, err
		}
		for _, ref := range p.LenRefs {
			lengthNames[ref] = true
		}
		c.Params = append(c.Params, p)
	}
	for i := range c.Params {
		c.Params[i].LengthCarrier = lengthNames[c.Params[i].Name]
	}
	return c, nil
}

func (in *ingester) param(owner string, raw decl.RawField) (decl.Param, error) {
	var p decl.Param

	isConst, ok := leadingConst(raw.Text)
	if !ok {
		return p, declError(UnrecognizedQualifierToken, owner, "unrecognized param text %q", raw.Text)
	}
	p.Type.Const = isConst

	attrs, err := in.attrs.Validate(decl.KindParam, owner, raw.Attrs)
	if err != nil {
		return p, err
	}
	if v, ok := attrs["optional"]; ok {
		if p.Optionality, err = parseOptionality(owner, v, false); err != nil {
			return p, err
		}
	}
	if v, ok := attrs["len"]; ok {
		p.LenRefs = strings.Split(v, ",")
		p.IsArray = true
	}

	for _, e := range raw.Elems {
		switch e.Tag {
		case "type":
			p.Type.Name = e.Text
			depth, ok := paramTail(e.Tail)
			if !ok {
				return p, declError(UnrecognizedQualifierToken, owner, "unrecognized param type tail %q", e.Tail)
			}
			p.Type.Pointers = depth
		case "name":
			p.Name = e.Text
			size, ok := in.arraySuffix(e.Tail)
			if !ok {
				return p, declError(UnrecognizedQualifierToken, owner, "unrecognized param name tail %q", e.Tail)
			}
			if size > 0 {
				p.IsCArray = true
				p.CArraySize = size
			}
		default:
			return p, declError(UnrecognizedElementShape, owner, "unknown param element <%s>", e.Tag)
		}
	}
	return p, nil
}

// leadingConst reports whether the text before the type marks it const.
// "struct " is a C elaboration and carries nothing.
func leadingConst(text string) (bool, bool) {
	switch strings.TrimSpace(text) {
	case "":
		return false, true
	case "const", "const struct":
		return true, true
	case "struct":
		return false, true
	}
	return false, false
}

func memberTail(tail string) (int, bool) {
	switch strings.TrimSpace(tail) {
	case "":
		return 0, true
	case "*":
		return 1, true
	case "* const*", "* const *":
		return 2, true
	}
	return 0, false
}

func paramTail(tail string) (int, bool) {
	switch strings.TrimSpace(tail) {
	case "**":
		return 2, true
	}
	return memberTail(tail)
}

// arraySuffix parses a "[N]" name tail. It returns 0 for an empty tail.
func (in *ingester) arraySuffix(tail string) (int, bool) {
	t := strings.TrimSpace(tail)
	if t == "" {
		return 0, true
	}
	if !strings.HasPrefix(t, "[") || !strings.HasSuffix(t, "]") {
		return 0, false
	}
	n, err := strconv.Atoi(t[1 : len(t)-1])
	if err != nil || !in.fixedSizes[n] {
		return 0, false
	}
	return n, true
}

func parseOptionality(owner, value string, allowReversedPair bool) (decl.Optionality, error) {
	switch value {
	case "false":
		return decl.OptionalNone, nil
	case "true":
		return decl.Optional, nil
	case "false,true":
		return decl.OptionalPair, nil
	case "true,false":
		if allowReversedPair {
			return decl.OptionalPair, nil
		}
	}
	return decl.OptionalNone, declError(UnrecognizedOptionality, owner, "unknown optionality %q", value)
}
