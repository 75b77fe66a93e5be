package task

import "sort"

// Node is a vertex in the container dependency DAG.
type Node struct {
	Name       string
	Container  *Container
	DependsOn  []*Node // containers this one must wait on
	Dependents []*Node // containers that wait on this one
}

// Graph is the validated, cycle-free dependency DAG for a single task,
// rooted at Main. It is immutable once returned by Task.Graph.
type Graph struct {
	Main  string
	Nodes map[string]*Node
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{Nodes: make(map[string]*Node)}
}

// AddNode inserts a container as a vertex.
func (g *Graph) AddNode(c *Container) (*Node, error) {
	if c == nil {
		return nil, newValidationError("container cannot be nil", nil)
	}
	if _, exists := g.Nodes[c.Name]; exists {
		return nil, newDuplicateError(c.Name)
	}
	node := &Node{Name: c.Name, Container: c}
	g.Nodes[c.Name] = node
	return node, nil
}

// AddEdge records that `to` depends on `from` (from must be ready first).
func (g *Graph) AddEdge(from, to string) error {
	source, ok := g.Nodes[from]
	if !ok {
		return newValidationError("unknown dependency source", map[string]interface{}{"from": from})
	}
	target, ok := g.Nodes[to]
	if !ok {
		return newValidationError("unknown dependency target", map[string]interface{}{"to": to})
	}
	target.DependsOn = append(target.DependsOn, source)
	source.Dependents = append(source.Dependents, target)
	return nil
}

// DetectCycles runs a DFS over the graph and returns a DomainError naming the
// offending path if a cycle exists.
func (g *Graph) DetectCycles() error {
	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(g.Nodes))
	var path []string

	var visit func(name string) error
	visit = func(name string) error {
		color[name] = gray
		path = append(path, name)
		node := g.Nodes[name]
		deps := make([]string, 0, len(node.DependsOn))
		for _, d := range node.DependsOn {
			deps = append(deps, d.Name)
		}
		sort.Strings(deps)
		for _, dep := range deps {
			switch color[dep] {
			case white:
				if err := visit(dep); err != nil {
					return err
				}
			case gray:
				cycle := append([]string(nil), path...)
				cycle = append(cycle, dep)
				return newCycleError(cycle)
			}
		}
		color[name] = black
		path = path[:len(path)-1]
		return nil
	}

	names := make([]string, 0, len(g.Nodes))
	for name := range g.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if color[name] == white {
			if err := visit(name); err != nil {
				return err
			}
		}
	}
	return nil
}

// pruneToMainClosure keeps only nodes in the transitive dependency closure of
// Main (Main itself plus every container it depends on, directly or not),
// matching spec.md's "main container plus a transitive set of dependency
// containers" definition of a task.
func (g *Graph) pruneToMainClosure() error {
	if _, ok := g.Nodes[g.Main]; !ok {
		return newValidationError("main container not present in graph", map[string]interface{}{"main": g.Main})
	}

	reachable := make(map[string]struct{})
	var walk func(name string)
	walk = func(name string) {
		if _, seen := reachable[name]; seen {
			return
		}
		reachable[name] = struct{}{}
		for _, dep := range g.Nodes[name].DependsOn {
			walk(dep.Name)
		}
	}
	walk(g.Main)

	for name, node := range g.Nodes {
		if _, keep := reachable[name]; keep {
			continue
		}
		delete(g.Nodes, name)
		for _, dependent := range node.Dependents {
			dependent.DependsOn = removeNode(dependent.DependsOn, name)
		}
	}
	return nil
}

func removeNode(nodes []*Node, name string) []*Node {
	out := nodes[:0]
	for _, n := range nodes {
		if n.Name != name {
			out = append(out, n)
		}
	}
	return out
}

// Names returns a sorted list of every container name in the graph.
func (g *Graph) Names() []string {
	names := make([]string, 0, len(g.Nodes))
	for name := range g.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dependencies returns the sorted names of the containers `name` directly
// depends on, or nil if `name` is not in the graph.
func (g *Graph) Dependencies(name string) []string {
	node, ok := g.Nodes[name]
	if !ok {
		return nil
	}
	deps := make([]string, 0, len(node.DependsOn))
	for _, d := range node.DependsOn {
		deps = append(deps, d.Name)
	}
	sort.Strings(deps)
	return deps
}
