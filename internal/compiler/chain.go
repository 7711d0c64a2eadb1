package compiler

import (
	"strings"
)

// ExtendsGraph records which structs extend which bases.
//
// Bases are kept in the order they were first observed and each extender
// list keeps insertion order. Chain IDs depend on both orders, so the graph
// never iterates a Go map.
type ExtendsGraph struct {
	order []string
	adj   map[string][]string
}

// NewExtendsGraph returns an empty graph.
func NewExtendsGraph() *ExtendsGraph {
	return &ExtendsGraph{adj: make(map[string][]string)}
}

// AddEdge records that extender extends base.
func (g *ExtendsGraph) AddEdge(base, extender string) {
	g.EnsureBase(base)
	g.adj[base] = append(g.adj[base], extender)
}

// EnsureBase registers base with no extenders if it is not yet known.
func (g *ExtendsGraph) EnsureBase(base string) {
	if _, ok := g.adj[base]; ok {
		return
	}
	g.adj[base] = []string{}
	g.order = append(g.order, base)
}

// Bases returns every base in first-observed order.
func (g *ExtendsGraph) Bases() []string {
	return g.order
}

// Extenders returns the structs extending base, in insertion order.
func (g *ExtendsGraph) Extenders(base string) []string {
	return g.adj[base]
}

// Enumerate returns every chain rooted at base, depth first: the chain of
// base alone, then for each extender in order, base prepended to each of the
// extender's chains. Excluded structs contribute no chains.
//
// For a base B extended by {X, Y}, where X is extended by {Z}, the result is
// [B], [B X], [B X Z], [B Y].
func (g *ExtendsGraph) Enumerate(base string, exclude map[string]bool) [][]string {
	if exclude[base] {
		return nil
	}
	chains := [][]string{{base}}
	for _, ext := range g.adj[base] {
		if exclude[ext] {
			continue
		}
		for _, tail := range g.Enumerate(ext, exclude) {
			chain := make([]string, 0, len(tail)+1)
			chain = append(chain, base)
			chain = append(chain, tail...)
			chains = append(chains, chain)
		}
	}
	return chains
}

// CheckAcyclic fails with CyclicExtension if any struct extends itself,
// directly or through other structs. Enumerate would not terminate on such
// a graph.
//
// The check runs Tarjan's algorithm over the bases in first-observed order,
// so the reported cycle is the same on every run.
func (g *ExtendsGraph) CheckAcyclic() error {
	for _, scc := range g.tarjanSCC() {
		if len(scc) > 1 || g.hasSelfLoop(scc[0]) {
			path := g.cyclePath(scc)
			return declError(CyclicExtension, path[0], "structextends cycle: %s", strings.Join(path, " -> "))
		}
	}
	return nil
}

func (g *ExtendsGraph) hasSelfLoop(node string) bool {
	for _, next := range g.adj[node] {
		if next == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Edges run from a base to its extenders.
func (g *ExtendsGraph) tarjanSCC() [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.adj[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range g.order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// cyclePath returns a cycle through the component's first-observed member,
// ending where it starts. Neighbours are tried in insertion order and dead
// ends are backtracked.
func (g *ExtendsGraph) cyclePath(scc []string) []string {
	members := make(map[string]bool, len(scc))
	for _, n := range scc {
		members[n] = true
	}
	start := scc[0]
	for _, n := range g.order {
		if members[n] {
			start = n
			break
		}
	}

	path := []string{start}
	visited := map[string]bool{start: true}
	var walk func(string) bool
	walk = func(current string) bool {
		for _, w := range g.adj[current] {
			if w == start {
				path = append(path, w)
				return true
			}
			if !members[w] || visited[w] {
				continue
			}
			visited[w] = true
			path = append(path, w)
			if walk(w) {
				return true
			}
			path = path[:len(path)-1]
		}
		return false
	}
	walk(start)
	return path
}
