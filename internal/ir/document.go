package ir

import (
	"bytes"
	"encoding/json"
	"io"
)

// Document is the complete IR for one registry.
// Field order is the key order of the emitted JSON.
type Document struct {
	ChainTraits   []ChainTrait   `json:"chainTraits"`
	ChainCtors    []ChainCtor    `json:"chainCtors"`
	NonChainCtors []NonChainCtor `json:"nonChainCtors"`
	Commands      []Command      `json:"commands"`
}

// ChainTrait is one extension chain: a base struct followed by the
// structs linked behind it.
type ChainTrait struct {
	ID    int      `json:"id"`
	Types []string `json:"types"`
}

// ChainCtor constructs a struct that carries an extension slot.
type ChainCtor struct {
	Type       string           `json:"type"`
	Name       string           `json:"name"`
	Params     []ChainCtorParam `json:"params"`
	ParamCount int              `json:"param_count"`
}

// ChainCtorParam is a constructor field. Chain is set on the extension slot.
type ChainCtorParam struct {
	Chain    bool   `json:"chain"`
	Index    int    `json:"index"`
	Type     string `json:"type"`
	Name     string `json:"name"`
	Optional bool   `json:"optional"`
}

// NonChainCtor constructs a struct without an extension slot.
type NonChainCtor struct {
	Type       string  `json:"type"`
	Name       string  `json:"name"`
	Params     []Param `json:"params"`
	ParamCount int     `json:"param_count"`
	TypeID     int     `json:"typeid"`
}

// Param is a positional constructor field, command parameter or command result.
type Param struct {
	Index    int    `json:"index"`
	Type     string `json:"type"`
	Name     string `json:"name"`
	Optional bool   `json:"optional"`
}

// Command is a classified command.
type Command struct {
	Name              string     `json:"name"`
	VkhppName         string     `json:"vkhpp_name"`
	IsMemberCall      bool       `json:"is_member_call"`
	MemberType        string     `json:"member_type"`
	MemberAccess      string     `json:"member_access"`
	ResultType        string     `json:"result_type"`
	MainResult        string     `json:"main_result"`
	HasMainResult     bool       `json:"has_main_result"`
	Params            []Param    `json:"params"`
	ParamCount        int        `json:"param_count"`
	Results           []Param    `json:"results"`
	ResultCount       int        `json:"result_count"`
	LastResultIsArray bool       `json:"last_result_is_array"`
	LastResult        LastResult `json:"last_result"`
	TypeID            int        `json:"typeid"`
	Interp            []Interp   `json:"interp"`
}

// Interp describes how the native call site reads one argument, in the
// original parameter order.
type Interp struct {
	Type     string `json:"type"`
	Optional bool   `json:"optional"`
	Access   string `json:"access"`
	IsCArray bool   `json:"is_c_array"`
}

// LastResult holds the collapsed array output of a command.
// It encodes as {} when there is none.
type LastResult struct {
	*Interp
}

// MarshalJSON implements json.Marshaler.
func (l LastResult) MarshalJSON() ([]byte, error) {
	if l.Interp == nil {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(l.Interp); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *LastResult) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("{}")) || bytes.Equal(trimmed, []byte("null")) {
		l.Interp = nil
		return nil
	}
	var in Interp
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	l.Interp = &in
	return nil
}

// Encode writes doc as indented JSON followed by a newline.
// Angle brackets in rendered type names are written literally.
func Encode(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Decode reads a document written by Encode.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
