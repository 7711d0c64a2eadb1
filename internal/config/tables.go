// Package config loads the declarative tables that steer classification
// and the environment settings of the vkir command line.
//
// The default tables are an embedded CUE document checked against an
// embedded CUE schema. Override files (.cue, .yaml, .yml, .json) replace
// whole sections of the defaults; sections they omit keep their defaults.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

//go:embed defaults.cue
var defaultsCUE []byte

// Tables is the full set of classification tables.
type Tables struct {
	Attributes AttributeTables `json:"attributes" yaml:"attributes"`
	Structs    StructTables    `json:"structs" yaml:"structs"`
	Commands   CommandTables   `json:"commands" yaml:"commands"`
	Types      TypeTables      `json:"types" yaml:"types"`
	Handles    []Handle        `json:"handles" yaml:"handles"`
	Render     Render          `json:"render" yaml:"render"`
}

// AttributeTables lists, per declaration kind, attributes that are accepted
// but have no effect on the model.
type AttributeTables struct {
	Struct  []string `json:"struct" yaml:"struct"`
	Member  []string `json:"member" yaml:"member"`
	Command []string `json:"command" yaml:"command"`
	Param   []string `json:"param" yaml:"param"`
}

type StructTables struct {
	Ignored         []string `json:"ignored" yaml:"ignored"`
	DuplicateBases  []string `json:"duplicate_bases" yaml:"duplicate_bases"`
	ChainLinkMember string   `json:"chain_link_member" yaml:"chain_link_member"`
	TypeTagMember   string   `json:"type_tag_member" yaml:"type_tag_member"`
}

type CommandTables struct {
	Skipped         []string          `json:"skipped" yaml:"skipped"`
	SkipSubstrings  []string          `json:"skip_substrings" yaml:"skip_substrings"`
	LengthExempt    []string          `json:"length_exempt" yaml:"length_exempt"`
	VoidReturn      []string          `json:"void_return" yaml:"void_return"`
	MemberTemplates map[string]string `json:"member_templates" yaml:"member_templates"`
}

type TypeTables struct {
	NativePrefix    string   `json:"native_prefix" yaml:"native_prefix"`
	Namespace       string   `json:"namespace" yaml:"namespace"`
	CommandPrefix   string   `json:"command_prefix" yaml:"command_prefix"`
	DropReference   []string `json:"drop_reference" yaml:"drop_reference"`
	FixedArraySizes []int    `json:"fixed_array_sizes" yaml:"fixed_array_sizes"`
}

// Handle is a receiver type. Strip lists the fragments removed from the
// command name when it becomes a member call.
type Handle struct {
	Type  string   `json:"type" yaml:"type"`
	Strip []string `json:"strip" yaml:"strip"`
}

// Render holds the target-language spellings used by the emitter.
// Fields ending in a format verb are fmt patterns.
type Render struct {
	Sequence         string `json:"sequence" yaml:"sequence"`
	ByteBuffer       string `json:"byte_buffer" yaml:"byte_buffer"`
	StructByteBuffer string `json:"struct_byte_buffer" yaml:"struct_byte_buffer"`
	Text             string `json:"text" yaml:"text"`
	FixedArray       string `json:"fixed_array" yaml:"fixed_array"`
	Lazy             string `json:"lazy" yaml:"lazy"`
	Tuple            string `json:"tuple" yaml:"tuple"`
	VoidResult       string `json:"void_result" yaml:"void_result"`
	ChainTail        string `json:"chain_tail" yaml:"chain_tail"`
	CtorPrefix       string `json:"ctor_prefix" yaml:"ctor_prefix"`
	ParamAccess      string `json:"param_access" yaml:"param_access"`
	ResultAccess     string `json:"result_access" yaml:"result_access"`
}

// TablesError reports an unusable tables document.
type TablesError struct {
	Source  string
	Message string
}

func (e *TablesError) Error() string {
	return fmt.Sprintf("tables %s: %s", e.Source, e.Message)
}

// Default returns the embedded default tables.
func Default() (*Tables, error) {
	return parseCUE(defaultsCUE, "defaults.cue")
}

// Load returns the default tables with the sections present in path
// replacing their defaults. An empty path yields the defaults.
func Load(path string) (*Tables, error) {
	t, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tables file: %w", err)
	}

	var override *Tables
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".cue":
		override, err = parseCUE(data, path)
	case ".yaml", ".yml":
		override, err = parseYAML(data, path)
	case ".json":
		override, err = parseJSON(data, path)
	default:
		return nil, &TablesError{Source: path, Message: fmt.Sprintf("unsupported extension %q (want .cue, .yaml, .yml or .json)", ext)}
	}
	if err != nil {
		return nil, err
	}

	t.Merge(override)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Merge replaces every section that is set in o.
func (t *Tables) Merge(o *Tables) {
	if o == nil {
		return
	}
	replace(&t.Attributes.Struct, o.Attributes.Struct)
	replace(&t.Attributes.Member, o.Attributes.Member)
	replace(&t.Attributes.Command, o.Attributes.Command)
	replace(&t.Attributes.Param, o.Attributes.Param)

	replace(&t.Structs.Ignored, o.Structs.Ignored)
	replace(&t.Structs.DuplicateBases, o.Structs.DuplicateBases)
	replaceString(&t.Structs.ChainLinkMember, o.Structs.ChainLinkMember)
	replaceString(&t.Structs.TypeTagMember, o.Structs.TypeTagMember)

	replace(&t.Commands.Skipped, o.Commands.Skipped)
	replace(&t.Commands.SkipSubstrings, o.Commands.SkipSubstrings)
	replace(&t.Commands.LengthExempt, o.Commands.LengthExempt)
	replace(&t.Commands.VoidReturn, o.Commands.VoidReturn)
	if o.Commands.MemberTemplates != nil {
		t.Commands.MemberTemplates = o.Commands.MemberTemplates
	}

	replaceString(&t.Types.NativePrefix, o.Types.NativePrefix)
	replaceString(&t.Types.Namespace, o.Types.Namespace)
	replaceString(&t.Types.CommandPrefix, o.Types.CommandPrefix)
	replace(&t.Types.DropReference, o.Types.DropReference)
	if o.Types.FixedArraySizes != nil {
		t.Types.FixedArraySizes = o.Types.FixedArraySizes
	}

	if o.Handles != nil {
		t.Handles = o.Handles
	}

	r := &t.Render
	replaceString(&r.Sequence, o.Render.Sequence)
	replaceString(&r.ByteBuffer, o.Render.ByteBuffer)
	replaceString(&r.StructByteBuffer, o.Render.StructByteBuffer)
	replaceString(&r.Text, o.Render.Text)
	replaceString(&r.FixedArray, o.Render.FixedArray)
	replaceString(&r.Lazy, o.Render.Lazy)
	replaceString(&r.Tuple, o.Render.Tuple)
	replaceString(&r.VoidResult, o.Render.VoidResult)
	replaceString(&r.ChainTail, o.Render.ChainTail)
	replaceString(&r.CtorPrefix, o.Render.CtorPrefix)
	replaceString(&r.ParamAccess, o.Render.ParamAccess)
	replaceString(&r.ResultAccess, o.Render.ResultAccess)
}

// Validate checks the invariants the compiler relies on.
func (t *Tables) Validate() error {
	if t.Structs.ChainLinkMember == "" {
		return &TablesError{Source: "merged", Message: "structs.chain_link_member must be set"}
	}
	for i, h := range t.Handles {
		if h.Type == "" {
			return &TablesError{Source: "merged", Message: fmt.Sprintf("handles[%d].type must be set", i)}
		}
	}
	for name, f := range map[string]string{
		"render.sequence":      t.Render.Sequence,
		"render.lazy":          t.Render.Lazy,
		"render.tuple":         t.Render.Tuple,
		"render.param_access":  t.Render.ParamAccess,
		"render.result_access": t.Render.ResultAccess,
		"render.fixed_array":   t.Render.FixedArray,
	} {
		if !strings.Contains(f, "%") {
			return &TablesError{Source: "merged", Message: fmt.Sprintf("%s must be a format pattern, got %q", name, f)}
		}
	}
	return nil
}

func replace(dst *[]string, src []string) {
	if src != nil {
		*dst = src
	}
}

func replaceString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

func parseCUE(data []byte, source string) (*Tables, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, &TablesError{Source: "schema.cue", Message: cueMessage(err)}
	}
	def := schema.LookupPath(cue.ParsePath("#Tables"))

	v := ctx.CompileBytes(data, cue.Filename(source))
	if err := v.Err(); err != nil {
		return nil, &TablesError{Source: source, Message: cueMessage(err)}
	}
	tv := v.LookupPath(cue.ParsePath("tables"))
	if !tv.Exists() {
		return nil, &TablesError{Source: source, Message: "missing top-level tables field"}
	}

	unified := def.Unify(tv)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, &TablesError{Source: source, Message: cueMessage(err)}
	}

	var t Tables
	if err := unified.Decode(&t); err != nil {
		return nil, &TablesError{Source: source, Message: cueMessage(err)}
	}
	return &t, nil
}

// cueMessage flattens a CUE error list into one line, keeping positions.
func cueMessage(err error) string {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		msg := e.Error()
		if pos := errors.Positions(e); len(pos) > 0 && pos[0].IsValid() {
			msg = fmt.Sprintf("%s:%d:%d: %s", pos[0].Filename(), pos[0].Line(), pos[0].Column(), msg)
		}
		parts = append(parts, msg)
	}
	return strings.Join(parts, "; ")
}

func parseYAML(data []byte, source string) (*Tables, error) {
	var doc struct {
		Tables Tables `yaml:"tables"`
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, &TablesError{Source: source, Message: fmt.Sprintf("parsing YAML: %v", err)}
	}
	return &doc.Tables, nil
}

func parseJSON(data []byte, source string) (*Tables, error) {
	var doc struct {
		Tables Tables `json:"tables"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, &TablesError{Source: source, Message: fmt.Sprintf("parsing JSON: %v", err)}
	}
	return &doc.Tables, nil
}
