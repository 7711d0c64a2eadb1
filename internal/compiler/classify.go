package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/vkir/internal/config"
	"github.com/roach88/vkir/internal/decl"
)

// Receiver is the handle-typed first parameter of a member call.
type Receiver struct {
	Type   string // canonical handle type, e.g. vk::Device
	Access string
	Strip  []string
}

// Slot is one classified parameter. Inputs and outputs are numbered
// separately; Access is the call-site expression reading the slot.
type Slot struct {
	Name     string
	Type     string
	Index    int
	Access   string
	Output   bool
	IsArray  bool
	IsCArray bool
}

// ClassifiedCommand is a command split into receiver, inputs and outputs.
type ClassifiedCommand struct {
	Name      string
	VkhppName string
	Receiver  *Receiver
	Inputs    []Slot
	Outputs   []Slot
	// Interp lists inputs and outputs in declaration order.
	Interp []Slot
	// Collapsed is the trailing array output, removed from Outputs and Interp.
	Collapsed       *Slot
	HasScalarReturn bool
	ReturnType      string
	// Elided names the length carriers dropped from both lists.
	Elided []string
}

// Classifier splits commands into receiver, inputs and outputs and decides
// which commands are emitted at all.
type Classifier struct {
	canon          *Canonicalizer
	handles        []config.Handle
	skipped        map[string]bool
	skipSubstrings []string
	lengthExempt   map[string]bool
	voidReturn     map[string]bool
	templates      map[string]string
	commandPrefix  string
	namespace      string
	render         config.Render
}

// NewClassifier returns a classifier for the given tables.
func NewClassifier(t *config.Tables, canon *Canonicalizer) *Classifier {
	return &Classifier{
		canon:          canon,
		handles:        t.Handles,
		skipped:        toSet(t.Commands.Skipped),
		skipSubstrings: t.Commands.SkipSubstrings,
		lengthExempt:   toSet(t.Commands.LengthExempt),
		voidReturn:     toSet(t.Commands.VoidReturn),
		templates:      t.Commands.MemberTemplates,
		commandPrefix:  t.Types.CommandPrefix,
		namespace:      t.Types.Namespace,
		render:         t.Render,
	}
}

// Skip reports whether the command is left out of the IR entirely.
func (c *Classifier) Skip(name string) bool {
	if c.skipped[name] {
		return true
	}
	for _, sub := range c.skipSubstrings {
		if strings.Contains(name, sub) {
			return true
		}
	}
	return false
}

// Classify splits cmd. Positional indices start at 1 when the receiver
// takes index 0.
func (c *Classifier) Classify(cmd *decl.Command) ClassifiedCommand {
	cc := ClassifiedCommand{Name: cmd.Name}

	params := cmd.Params
	inputIndex, outputIndex := 0, 0
	if len(params) > 0 {
		if h, ok := c.handleFor(params[0].Type); ok {
			cc.Receiver = &Receiver{
				Type:   c.canon.Name(h.Type),
				Access: fmt.Sprintf(c.render.ParamAccess, inputIndex),
				Strip:  h.Strip,
			}
			inputIndex++
			params = params[1:]
		}
	}

	for _, p := range params {
		if p.LengthCarrier && !c.lengthExempt[cmd.Name] {
			cc.Elided = append(cc.Elided, p.Name)
			continue
		}

		slot := Slot{
			Name:     p.Name,
			Type:     c.paramType(p),
			IsArray:  p.IsArray,
			IsCArray: p.IsCArray,
			Output:   p.Type.Pointers == 1 && !p.Type.Const,
		}
		if slot.Output {
			slot.Index = outputIndex
			slot.Access = fmt.Sprintf(c.render.ResultAccess, outputIndex)
			outputIndex++
			cc.Outputs = append(cc.Outputs, slot)
		} else {
			slot.Index = inputIndex
			slot.Access = fmt.Sprintf(c.render.ParamAccess, inputIndex)
			inputIndex++
			cc.Inputs = append(cc.Inputs, slot)
		}
		cc.Interp = append(cc.Interp, slot)
	}

	if n := len(cc.Outputs); n > 0 && cc.Outputs[n-1].IsArray {
		last := cc.Outputs[n-1]
		cc.Collapsed = &last
		cc.Outputs = cc.Outputs[:n-1]
		for i, s := range cc.Interp {
			if s.Output && s.Index == last.Index {
				cc.Interp = append(cc.Interp[:i:i], cc.Interp[i+1:]...)
				break
			}
		}
	}

	if !cmd.Return.IsVoid() && !c.voidReturn[cmd.Name] {
		cc.HasScalarReturn = true
		cc.ReturnType = c.canon.Ref(cmd.Return)
	}

	cc.VkhppName = c.bindingName(cmd.Name, cc.Receiver)
	return cc
}

func (c *Classifier) handleFor(t decl.TypeRef) (config.Handle, bool) {
	if t.Pointers != 0 {
		return config.Handle{}, false
	}
	for _, h := range c.handles {
		if h.Type == t.Name {
			return h, true
		}
	}
	return config.Handle{}, false
}

// paramType renders a parameter. Arrays become owned sequences; fixed
// inline arrays keep their size.
func (c *Classifier) paramType(p decl.Param) string {
	switch {
	case p.IsCArray:
		inner := fmt.Sprintf(c.render.FixedArray, c.canon.Name(p.Type.Name), p.CArraySize)
		return c.canon.Canonicalize(p.Type.Const, 0, inner)
	case p.IsArray && p.Type.Name == decl.VoidType:
		return c.render.ByteBuffer
	case p.IsArray && p.Type.Name == "char":
		return c.render.Text
	case p.IsArray:
		return fmt.Sprintf(c.render.Sequence, c.canon.Name(p.Type.Name))
	}
	return c.canon.Ref(p.Type)
}

// bindingName derives the binding-facing command name. A member call drops
// the command prefix and every receiver fragment, then lower-cases the first
// letter; some names are replaced by a template instantiation. A free
// function is the lower-cased name in the binding namespace.
func (c *Classifier) bindingName(name string, recv *Receiver) string {
	if c.commandPrefix == "" || !strings.HasPrefix(name, c.commandPrefix) {
		return name
	}
	base := strings.TrimPrefix(name, c.commandPrefix)

	if recv == nil {
		return c.namespace + lowerFirst(base)
	}
	for _, frag := range recv.Strip {
		base = strings.ReplaceAll(base, frag, "")
	}
	base = lowerFirst(base)
	if tmpl, ok := c.templates[base]; ok {
		return tmpl
	}
	return base
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
