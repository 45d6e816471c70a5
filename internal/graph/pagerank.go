package graph

// PageRankOptions configures the power iteration.
type PageRankOptions struct {
	// Damping is the probability of following an edge vs teleporting (default: 0.85)
	Damping float64

	// MaxIterations is the maximum number of power iterations (default: 100)
	MaxIterations int

	// Tolerance for convergence detection (default: 1e-6)
	Tolerance float64
}

// DefaultPageRankOptions returns the standard parameters.
func DefaultPageRankOptions() PageRankOptions {
	return PageRankOptions{
		Damping:       0.85,
		MaxIterations: 100,
		Tolerance:     1e-6,
	}
}

// PageRank computes uniform-weight PageRank over the graph and returns a
// score per uid. Dangling mass is redistributed uniformly so scores keep
// summing to one on graphs with sink nodes.
func (g *Graph) PageRank(opts PageRankOptions) map[int]float64 {
	n := len(g.uids)
	if n == 0 {
		return map[int]float64{}
	}

	if opts.Damping <= 0 || opts.Damping >= 1 {
		opts.Damping = 0.85
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 100
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = 1e-6
	}

	scores := make([]float64, n)
	next := make([]float64, n)
	uniform := 1.0 / float64(n)
	for i := range scores {
		scores[i] = uniform
	}

	for iter := 0; iter < opts.MaxIterations; iter++ {
		dangling := 0.0
		for i := range next {
			next[i] = 0
		}

		for i, edges := range g.out {
			if len(edges) == 0 {
				dangling += scores[i]
				continue
			}
			contrib := scores[i] / float64(len(edges))
			for _, nb := range edges {
				next[nb] += contrib
			}
		}

		base := (1-opts.Damping)*uniform + opts.Damping*dangling*uniform
		maxDiff := 0.0
		for i := range next {
			next[i] = base + opts.Damping*next[i]
			diff := next[i] - scores[i]
			if diff < 0 {
				diff = -diff
			}
			if diff > maxDiff {
				maxDiff = diff
			}
		}

		scores, next = next, scores

		if maxDiff < opts.Tolerance {
			break
		}
	}

	result := make(map[int]float64, n)
	for i, s := range scores {
		result[g.uids[i]] = s
	}
	return result
}
