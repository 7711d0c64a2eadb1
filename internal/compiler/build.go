// Package compiler turns registry declarations into the IR document.
//
// Build is the single entry point. It runs one pass, in order:
//  1. Ingest structs, validating attributes and tokens and recording
//     structextends edges
//  2. Check the extends graph for cycles and enumerate extension chains
//  3. Emit chain and non-chain constructors
//  4. Ingest, classify and emit commands
//
// All state is local to one Build call. The first error aborts the build and
// no document is returned.
package compiler

import (
	"fmt"
	"log/slog"

	"github.com/roach88/vkir/internal/config"
	"github.com/roach88/vkir/internal/decl"
	"github.com/roach88/vkir/internal/ir"
)

// Model is the normalized registry: every emitted struct and command plus
// the extends graph.
type Model struct {
	Structs  []*decl.Struct
	Commands []*decl.Command
	Graph    *ExtendsGraph
	// Skipped counts declarations left out on purpose (ignored structs,
	// skipped commands, aliases).
	Skipped int
}

// Build compiles reg into an IR document using tables.
func Build(reg *decl.Registry, tables *config.Tables) (*ir.Document, error) {
	canon, err := NewCanonicalizer(tables.Types)
	if err != nil {
		return nil, fmt.Errorf("canonicalizer: %w", err)
	}
	classifier := NewClassifier(tables, canon)

	model, err := Ingest(reg, tables, classifier)
	if err != nil {
		return nil, err
	}
	if err := model.Graph.CheckAcyclic(); err != nil {
		return nil, err
	}

	em := newEmitter(tables, canon)
	doc := &ir.Document{
		ChainCtors:    []ir.ChainCtor{},
		NonChainCtors: []ir.NonChainCtor{},
		Commands:      []ir.Command{},
	}
	doc.ChainTraits = em.chainTraits(model.Graph, toSet(tables.Structs.DuplicateBases))

	for _, s := range model.Structs {
		if s.HasExtensionSlot {
			doc.ChainCtors = append(doc.ChainCtors, em.chainCtor(s))
		} else {
			doc.NonChainCtors = append(doc.NonChainCtors, em.nonChainCtor(s))
		}
	}
	for _, c := range model.Commands {
		doc.Commands = append(doc.Commands, em.command(classifier.Classify(c)))
	}

	slog.Debug("build complete",
		"structs", len(model.Structs),
		"commands", len(doc.Commands),
		"chains", len(doc.ChainTraits),
		"skipped", model.Skipped,
	)
	return doc, nil
}

// Check runs ingestion and the cycle check without emitting anything.
// Classification and emission cannot fail, so Check rejects exactly the
// registries Build rejects.
func Check(reg *decl.Registry, tables *config.Tables) (*Model, error) {
	canon, err := NewCanonicalizer(tables.Types)
	if err != nil {
		return nil, fmt.Errorf("canonicalizer: %w", err)
	}
	classifier := NewClassifier(tables, canon)

	model, err := Ingest(reg, tables, classifier)
	if err != nil {
		return nil, err
	}
	if err := model.Graph.CheckAcyclic(); err != nil {
		return nil, err
	}
	return model, nil
}

// Ingest normalizes every declaration of reg, structs before commands, and
// builds the extends graph. Structs with an extension slot are present in
// the graph even when nothing extends them.
func Ingest(reg *decl.Registry, tables *config.Tables, classifier *Classifier) (*Model, error) {
	in := newIngester(tables)
	ignored := toSet(tables.Structs.Ignored)
	model := &Model{Graph: NewExtendsGraph()}

	for _, raw := range reg.Structs {
		if ignored[raw.Name] {
			model.Skipped++
			continue
		}
		s, err := in.Struct(raw)
		if err != nil {
			return nil, err
		}
		if s.Alias != "" && len(s.Members) == 0 {
			model.Skipped++
			continue
		}
		for _, base := range s.Extends {
			model.Graph.AddEdge(base, s.Name)
		}
		model.Structs = append(model.Structs, s)
	}
	for _, s := range model.Structs {
		if s.HasExtensionSlot {
			model.Graph.EnsureBase(s.Name)
		}
	}
	slog.Debug("structs ingested", "structs", len(model.Structs), "bases", len(model.Graph.Bases()))

	for _, raw := range reg.Commands {
		if classifier.Skip(raw.Name) {
			model.Skipped++
			continue
		}
		c, err := in.Command(raw)
		if err != nil {
			return nil, err
		}
		if c.Alias != "" && len(c.Params) == 0 && c.Return.Name == "" {
			model.Skipped++
			continue
		}
		model.Commands = append(model.Commands, c)
	}
	slog.Debug("commands ingested", "commands", len(model.Commands))
	return model, nil
}
