package graph

// Betweenness computes betweenness centrality per uid using Brandes'
// algorithm over unweighted directed shortest paths. O(V*E), fine for
// candidate pools in the low thousands.
func (g *Graph) Betweenness() map[int]float64 {
	n := len(g.uids)
	centrality := make([]float64, n)

	sigma := make([]float64, n) // shortest path counts
	dist := make([]int, n)
	delta := make([]float64, n) // dependency accumulation
	preds := make([][]int, n)

	for s := 0; s < n; s++ {
		for i := 0; i < n; i++ {
			sigma[i] = 0
			dist[i] = -1
			delta[i] = 0
			preds[i] = preds[i][:0]
		}
		sigma[s] = 1
		dist[s] = 0

		// BFS, recording the visit order for the dependency pass.
		order := make([]int, 0, n)
		queue := []int{s}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			order = append(order, v)
			for _, w := range g.out[v] {
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					preds[w] = append(preds[w], v)
				}
			}
		}

		// Accumulate dependencies in reverse BFS order.
		for i := len(order) - 1; i >= 0; i-- {
			w := order[i]
			for _, v := range preds[w] {
				delta[v] += sigma[v] / sigma[w] * (1 + delta[w])
			}
			if w != s {
				centrality[w] += delta[w]
			}
		}
	}

	result := make(map[int]float64, n)
	for i, c := range centrality {
		result[g.uids[i]] = c
	}
	return result
}
