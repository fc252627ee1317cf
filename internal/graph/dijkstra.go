package graph

import (
	"container/heap"

	"github.com/yourorg/velora/internal/geo"
	"github.com/yourorg/velora/internal/models"
)

const (
	// Desviación angular máxima de una arista respecto al rumbo del
	// corredor. Aristas que retroceden o se desvían más quedan fuera.
	maxBearingDevDeg = 30.0

	// Peso de la desviación angular en el costo de una arista
	bearingPenalty = 0.5

	// Máximo de saltos del camino final
	maxHops = 6
)

type queueItem struct {
	node  int
	cost  float64
	index int
}

type priorityQueue []*queueItem

func (pq priorityQueue) Len() int           { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool { return pq[i].cost < pq[j].cost }

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	item := x.(*queueItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}

// ShortestPath busca el camino de menor costo entre StartID y EndID.
// Es un Dijkstra direccional: el rumbo del corredor se calcula una vez y
// las aristas que se desvían más de 30° se podan; las restantes pagan su
// desviación en el costo. Devuelve los nodos en orden, o nil si no hay
// camino (el caller cae al trayecto directo de dos nodos).
func (g *Graph) ShortestPath() []models.GraphNode {
	start, okS := g.Nodes[g.StartID]
	end, okE := g.Nodes[g.EndID]
	if !okS || !okE {
		return nil
	}
	if g.StartID == g.EndID {
		return []models.GraphNode{start}
	}

	corridorBearing := geo.BearingDeg(start.Lat, start.Lon, end.Lat, end.Lon)

	dist := make(map[int]float64, len(g.Nodes))
	prev := make(map[int]int, len(g.Nodes))
	visited := make(map[int]bool, len(g.Nodes))

	pq := priorityQueue{}
	heap.Init(&pq)
	heap.Push(&pq, &queueItem{node: g.StartID, cost: 0})
	dist[g.StartID] = 0

	for pq.Len() > 0 {
		item := heap.Pop(&pq).(*queueItem)
		u := item.node
		if visited[u] {
			continue
		}
		visited[u] = true
		if u == g.EndID {
			break
		}

		for _, edge := range g.Adj[u] {
			if visited[edge.To] {
				continue
			}

			from, to := g.Nodes[edge.From], g.Nodes[edge.To]
			edgeBearing := geo.BearingDeg(from.Lat, from.Lon, to.Lat, to.Lon)
			dev := geo.AngularDiffDeg(edgeBearing, corridorBearing)
			if dev > maxBearingDevDeg {
				continue
			}

			cost := dist[u] + edge.TimeMin + bearingPenalty*dev
			if cur, seen := dist[edge.To]; !seen || cost < cur {
				dist[edge.To] = cost
				prev[edge.To] = u
				heap.Push(&pq, &queueItem{node: edge.To, cost: cost})
			}
		}
	}

	if !visited[g.EndID] {
		return nil
	}

	// Reconstruir el camino hacia atrás
	var ids []int
	for at := g.EndID; ; at = prev[at] {
		ids = append(ids, at)
		if at == g.StartID {
			break
		}
	}
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}

	path := make([]models.GraphNode, len(ids))
	for i, id := range ids {
		path[i] = g.Nodes[id]
	}

	return truncateHops(path)
}

// truncateHops acota el camino a maxHops saltos conservando los extremos
func truncateHops(path []models.GraphNode) []models.GraphNode {
	if len(path) <= maxHops+1 {
		return path
	}
	out := make([]models.GraphNode, 0, maxHops+1)
	out = append(out, path[:maxHops]...)
	out = append(out, path[len(path)-1])
	return out
}
