package timeline

import (
	"github.com/ajitpratap0/marquee/internal/models"
	"github.com/ajitpratap0/marquee/internal/recall"
)

// buildGraph derives person nodes from every association and undirected
// edges from the "works with" lists. Nodes and edges keep first-seen order;
// an edge's weight counts the rows that name the pair.
func buildGraph(prods []models.Production) models.Graph {
	g := models.Graph{Nodes: []models.GraphNode{}, Edges: []models.GraphEdge{}}
	nodeAt := make(map[string]int)
	edgeAt := make(map[[2]string]int)

	node := func(name string) string {
		key := recall.Fold(name)
		if _, ok := nodeAt[key]; !ok {
			nodeAt[key] = len(g.Nodes)
			g.Nodes = append(g.Nodes, models.GraphNode{ID: key, Label: name, Productions: []string{}})
		}
		return key
	}

	for _, p := range prods {
		for _, pa := range p.People {
			if pa.Name == "" {
				continue
			}
			from := node(pa.Name)
			n := &g.Nodes[nodeAt[from]]
			if len(n.Productions) == 0 || n.Productions[len(n.Productions)-1] != p.ID {
				n.Productions = append(n.Productions, p.ID)
			}

			for _, other := range pa.WorksWith {
				to := node(other)
				if to == from {
					continue
				}
				pair := [2]string{from, to}
				if to < from {
					pair = [2]string{to, from}
				}
				if i, ok := edgeAt[pair]; ok {
					g.Edges[i].Weight++
					continue
				}
				edgeAt[pair] = len(g.Edges)
				g.Edges = append(g.Edges, models.GraphEdge{From: pair[0], To: pair[1], Weight: 1})
			}
		}
	}
	return g
}
