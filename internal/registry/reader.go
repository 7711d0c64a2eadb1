// Package registry reads a vk.xml-style API registry into raw declarations.
//
// Only struct/union types and commands are extracted. The reader preserves
// the exact token layout (leading text, element tails, attribute order) so
// that ingestion can reject anything it does not recognize.
package registry

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/roach88/vkir/internal/decl"
)

// ErrNotRegistry is returned when the document root is not <registry>.
var ErrNotRegistry = errors.New("document root is not <registry>")

// node is a minimal element tree that keeps text and tails.
type node struct {
	tag      string
	attrs    []decl.Attr
	text     string
	children []*node
	tail     string
}

func (n *node) attr(key string) string {
	v, _ := decl.Lookup(n.attrs, key)
	return v
}

// ReadFile parses the registry at path.
func ReadFile(path string) (*decl.Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	defer f.Close()

	reg, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// Read parses a registry document from r.
func Read(r io.Reader) (*decl.Registry, error) {
	root, err := parseTree(r)
	if err != nil {
		return nil, err
	}
	if root == nil || root.tag != "registry" {
		return nil, ErrNotRegistry
	}

	reg := &decl.Registry{}
	for _, section := range root.children {
		switch section.tag {
		case "types":
			for _, t := range section.children {
				if t.tag != "type" {
					continue
				}
				category := t.attr("category")
				if category != "struct" && category != "union" {
					continue
				}
				reg.Structs = append(reg.Structs, toRawStruct(t))
			}
		case "commands":
			for _, c := range section.children {
				if c.tag != "command" {
					continue
				}
				reg.Commands = append(reg.Commands, toRawCommand(c))
			}
		}
	}
	return reg, nil
}

func toRawStruct(t *node) decl.RawStruct {
	s := decl.RawStruct{
		Name:  t.attr("name"),
		Attrs: t.attrs,
	}
	for _, m := range t.children {
		if m.tag == "member" {
			s.Members = append(s.Members, toRawField(m))
		}
	}
	return s
}

func toRawCommand(c *node) decl.RawCommand {
	cmd := decl.RawCommand{
		Name:  c.attr("name"),
		Attrs: c.attrs,
	}
	for _, child := range c.children {
		switch child.tag {
		case "proto":
			cmd.Proto = toElems(child.children)
			for _, e := range cmd.Proto {
				if e.Tag == "name" {
					cmd.Name = e.Text
				}
			}
		case "param":
			cmd.Params = append(cmd.Params, toRawField(child))
		}
	}
	return cmd
}

func toRawField(n *node) decl.RawField {
	return decl.RawField{
		Text:  n.text,
		Attrs: n.attrs,
		Elems: toElems(n.children),
	}
}

func toElems(nodes []*node) []decl.Elem {
	elems := make([]decl.Elem, 0, len(nodes))
	for _, n := range nodes {
		elems = append(elems, decl.Elem{Tag: n.tag, Text: n.text, Tail: n.tail})
	}
	return elems
}

// parseTree builds the element tree. Character data before an element's
// first child is its text; character data after a child is that child's tail.
func parseTree(r io.Reader) (*node, error) {
	dec := xml.NewDecoder(r)
	var (
		root  *node
		stack []*node
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse registry xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{tag: t.Name.Local}
			for _, a := range t.Attr {
				n.attrs = append(n.attrs, decl.Attr{Key: a.Name.Local, Value: a.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("parse registry xml: multiple root elements")
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			if len(top.children) == 0 {
				top.text += string(t)
			} else {
				last := top.children[len(top.children)-1]
				last.tail += string(t)
			}
		}
	}
	return root, nil
}
