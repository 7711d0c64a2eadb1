package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/vkir/internal/config"
	"github.com/roach88/vkir/internal/decl"
	"github.com/roach88/vkir/internal/ir"
)

// emitter renders the built model into IR values. One typeid counter is
// shared by chain traits, non-chain constructors and commands, in that
// order.
type emitter struct {
	canon     *Canonicalizer
	render    config.Render
	chainLink string
	typeTag   string
	nextID    int
}

func newEmitter(t *config.Tables, canon *Canonicalizer) *emitter {
	return &emitter{
		canon:     canon,
		render:    t.Render,
		chainLink: t.Structs.ChainLinkMember,
		typeTag:   t.Structs.TypeTagMember,
		nextID:    1,
	}
}

func (e *emitter) id() int {
	id := e.nextID
	e.nextID++
	return id
}

// chainTraits enumerates every base in first-observed order.
func (e *emitter) chainTraits(g *ExtendsGraph, exclude map[string]bool) []ir.ChainTrait {
	traits := []ir.ChainTrait{}
	for _, base := range g.Bases() {
		if exclude[base] {
			continue
		}
		for _, chain := range g.Enumerate(base, exclude) {
			types := make([]string, len(chain))
			for i, name := range chain {
				types[i] = e.canon.Name(name)
			}
			traits = append(traits, ir.ChainTrait{ID: e.id(), Types: types})
		}
	}
	return traits
}

// ctorMembers returns the members a constructor takes: everything except
// the type tag and length carriers.
func (e *emitter) ctorMembers(s *decl.Struct) []decl.Member {
	var out []decl.Member
	for _, m := range s.Members {
		if m.LengthCarrier || m.Name == e.typeTag {
			continue
		}
		out = append(out, m)
	}
	return out
}

func (e *emitter) memberType(m decl.Member) string {
	switch {
	case m.IsArray && m.Type.Name == decl.VoidType:
		return e.render.StructByteBuffer
	case m.IsArray && m.Type.Name == "char":
		return e.render.Text
	case m.IsArray:
		return fmt.Sprintf(e.render.Sequence, e.canon.Name(m.Type.Name))
	}
	return e.canon.Ref(m.Type)
}

func (e *emitter) chainCtor(s *decl.Struct) ir.ChainCtor {
	params := []ir.ChainCtorParam{}
	for i, m := range e.ctorMembers(s) {
		p := ir.ChainCtorParam{
			Index:    i,
			Name:     m.Name,
			Optional: m.Optionality != decl.OptionalNone,
		}
		if m.Name == e.chainLink {
			p.Chain = true
			p.Type = e.render.ChainTail
		} else {
			p.Type = e.memberType(m)
		}
		params = append(params, p)
	}
	return ir.ChainCtor{
		Type:       e.canon.Name(s.Name),
		Name:       e.render.CtorPrefix + s.Name,
		Params:     params,
		ParamCount: len(params),
	}
}

func (e *emitter) nonChainCtor(s *decl.Struct) ir.NonChainCtor {
	params := []ir.Param{}
	for i, m := range e.ctorMembers(s) {
		params = append(params, ir.Param{
			Index:    i,
			Type:     e.memberType(m),
			Name:     m.Name,
			Optional: m.Optionality != decl.OptionalNone,
		})
	}
	return ir.NonChainCtor{
		Type:       e.canon.Name(s.Name),
		Name:       e.render.CtorPrefix + s.Name,
		Params:     params,
		ParamCount: len(params),
		TypeID:     e.id(),
	}
}

func (e *emitter) lazy(t string) string {
	return fmt.Sprintf(e.render.Lazy, t)
}

// command renders a classified command. The result tuple is the scalar
// return (when there is one), each output in order, then the collapsed
// array output.
func (e *emitter) command(cc ClassifiedCommand) ir.Command {
	out := ir.Command{
		Name:          cc.Name,
		VkhppName:     cc.VkhppName,
		MainResult:    e.render.VoidResult,
		HasMainResult: cc.HasScalarReturn,
		Params:        []ir.Param{},
		Results:       []ir.Param{},
		Interp:        []ir.Interp{},
	}
	if cc.Receiver != nil {
		out.IsMemberCall = true
		out.MemberType = cc.Receiver.Type
		out.MemberAccess = cc.Receiver.Access
	}

	var tuple []string
	if cc.HasScalarReturn {
		out.MainResult = e.lazy(cc.ReturnType)
		tuple = append(tuple, out.MainResult)
	}

	for _, s := range cc.Inputs {
		out.Params = append(out.Params, ir.Param{Index: s.Index, Type: s.Type, Name: s.Name})
	}
	for _, s := range cc.Outputs {
		out.Results = append(out.Results, ir.Param{Index: s.Index, Type: s.Type, Name: s.Name})
		tuple = append(tuple, e.lazy(s.Type))
	}
	for _, s := range cc.Interp {
		out.Interp = append(out.Interp, interp(s))
	}
	if cc.Collapsed != nil {
		last := interp(*cc.Collapsed)
		out.LastResultIsArray = true
		out.LastResult = ir.LastResult{Interp: &last}
		tuple = append(tuple, e.lazy(cc.Collapsed.Type))
	}

	if len(tuple) == 0 {
		tuple = []string{e.render.VoidResult}
	}
	out.ResultType = fmt.Sprintf(e.render.Tuple, strings.Join(tuple, ", "))
	out.ParamCount = len(out.Params)
	out.ResultCount = len(out.Results)
	out.TypeID = e.id()
	return out
}

func interp(s Slot) ir.Interp {
	return ir.Interp{
		Type:     s.Type,
		Access:   s.Access,
		IsCArray: s.IsCArray,
	}
}
