package finance

import (
	"slices"
)

// graph is the account dependency graph. An edge from -> to means "to" can
// only be projected once "from" is complete.
type graph struct {
	nodes []string // declaration order
	index map[string]int
	out   [][]int
	in    [][]int
}

func newGraph(ids []string) *graph {
	g := &graph{
		nodes: ids,
		index: make(map[string]int, len(ids)),
		out:   make([][]int, len(ids)),
		in:    make([][]int, len(ids)),
	}
	for i, id := range ids {
		g.index[id] = i
	}
	return g
}

func (g *graph) addEdge(from, to string) {
	f, t := g.index[from], g.index[to]
	if f == t || slices.Contains(g.out[f], t) {
		return
	}
	g.out[f] = append(g.out[f], t)
	g.in[t] = append(g.in[t], f)
}

// order returns a topological order, preferring earlier declared accounts
// whenever several are ready.
func (g *graph) order() ([]string, error) {
	indeg := make([]int, len(g.nodes))
	for i := range g.nodes {
		indeg[i] = len(g.in[i])
	}
	done := make([]bool, len(g.nodes))
	order := make([]string, 0, len(g.nodes))
	for len(order) < len(g.nodes) {
		next := -1
		for i, d := range indeg {
			if d == 0 && !done[i] {
				next = i
				break
			}
		}
		if next < 0 {
			return nil, &DependencyCycleError{Accounts: g.cycle(done)}
		}
		done[next] = true
		order = append(order, g.nodes[next])
		for _, t := range g.out[next] {
			indeg[t]--
		}
	}
	return order, nil
}

// cycle walks predecessors among the unfinished nodes until one repeats.
// Every unfinished node has an unfinished predecessor, so the walk always
// closes. The result is in edge order starting at the earliest declared
// account.
func (g *graph) cycle(done []bool) []string {
	start := slices.Index(done, false)
	seen := make(map[int]int)
	var path []int
	for n := start; ; {
		if at, ok := seen[n]; ok {
			path = path[at:]
			break
		}
		seen[n] = len(path)
		path = append(path, n)
		for _, p := range g.in[n] {
			if !done[p] {
				n = p
				break
			}
		}
	}
	slices.Reverse(path)
	first := slices.Index(path, slices.Min(path))
	path = append(path[first:], path[:first]...)
	out := make([]string, len(path))
	for i, n := range path {
		out[i] = g.nodes[n]
	}
	return out
}
