package flow

import (
	"strings"

	"github.com/TexhubPro/texhub-telegram-bot-builder/model"
)

// Graph indexes one flow for O(1) node and edge lookup. Flows are small, so
// the indices are rebuilt from scratch on every traversal start. Edges that
// reference unknown node ids stay in the indices and are skipped by callers.
type Graph struct {
	flow  model.Flow
	nodes map[string]model.Node
	out   map[string][]model.Edge
	in    map[string][]model.Edge
}

func NewGraph(f model.Flow) *Graph {
	g := &Graph{
		flow:  f,
		nodes: make(map[string]model.Node, len(f.Nodes)),
		out:   make(map[string][]model.Edge, len(f.Edges)),
		in:    make(map[string][]model.Edge, len(f.Edges)),
	}
	for _, n := range f.Nodes {
		if n.ID == "" {
			continue
		}
		g.nodes[n.ID] = n
	}
	for _, e := range f.Edges {
		g.out[e.Source] = append(g.out[e.Source], e)
		g.in[e.Target] = append(g.in[e.Target], e)
	}
	return g
}

func (g *Graph) Flow() model.Flow {
	return g.flow
}

func (g *Graph) Node(id string) (model.Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

func (g *Graph) Kind(id string) string {
	n, ok := g.nodes[id]
	if !ok {
		return ""
	}
	return n.Data.Kind()
}

func (g *Graph) Outgoing(id string) []model.Edge {
	return g.out[id]
}

func (g *Graph) Incoming(id string) []model.Edge {
	return g.in[id]
}

func (g *Graph) NodesOfKind(kind string) []model.Node {
	var out []model.Node
	for _, n := range g.flow.Nodes {
		if n.Data.Kind() == kind {
			out = append(out, n)
		}
	}
	return out
}

// NormalizeCommand reduces "/Start@SomeBot arg" to "start". Returns "" for
// anything that is not a command.
func NormalizeCommand(text string) string {
	cleaned := strings.TrimSpace(text)
	if !strings.HasPrefix(cleaned, "/") {
		return ""
	}
	value := cleaned[1:]
	if value == "" {
		return ""
	}
	value = strings.Fields(value)[0]
	value, _, _ = strings.Cut(value, "@")
	return strings.ToLower(value)
}

// FindCommand locates the command node matching a normalized command. A
// command node without commandText defaults to "/start".
func (g *Graph) FindCommand(command string) (model.Node, bool) {
	command = strings.ToLower(command)
	for _, n := range g.flow.Nodes {
		if n.Data.Kind() != model.KIND_COMMAND {
			continue
		}
		text := n.Data.String("commandText")
		if text == "" {
			text = "/start"
		}
		normalized := strings.ToLower(strings.TrimSpace(strings.TrimLeft(text, "/")))
		if normalized == "" {
			continue
		}
		if normalized == command {
			return n, true
		}
	}
	return model.Node{}, false
}

// FindReplyButton matches a message text against reply-button labels.
func (g *Graph) FindReplyButton(text string) (model.Node, bool) {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return model.Node{}, false
	}
	for _, n := range g.flow.Nodes {
		if n.Data.Kind() != model.KIND_REPLY_BUTTON {
			continue
		}
		label := n.Data.String("buttonText")
		if label == "" {
			label = n.Data.String("label")
		}
		if strings.ToLower(label) == needle {
			return n, true
		}
	}
	return model.Node{}, false
}
