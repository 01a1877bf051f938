package feature

// EdgeKind distinguishes the two virtual boundary edges from the internal label-to-label edges
type EdgeKind int

const (
	EdgeStart EdgeKind = iota
	EdgeInternal
	EdgeStop
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeStart:
		return "start"
	case EdgeInternal:
		return "internal"
	case EdgeStop:
		return "stop"
	}
	return "unknown"
}

// Edge is one position of the chain. For a sequence of n labels edge 0 joins the virtual start
// state to label 0, edge e joins label e-1 to label e and edge n joins label n-1 to the virtual
// stop state.
type Edge struct {
	Pos  int
	Kind EdgeKind
}

// EdgeAt returns the edge at pos for a sequence of n labels
func EdgeAt(pos, n int) Edge {
	switch {
	case pos == 0:
		return Edge{Pos: pos, Kind: EdgeStart}
	case pos >= n:
		return Edge{Pos: pos, Kind: EdgeStop}
	}
	return Edge{Pos: pos, Kind: EdgeInternal}
}

// Edges returns all n+1 edges of a sequence of n labels in chain order
func Edges(n int) []Edge {
	edges := make([]Edge, 0, n+1)
	for pos := 0; pos <= n; pos++ {
		edges = append(edges, EdgeAt(pos, n))
	}
	return edges
}

// Dims returns the transition matrix shape of the edge. The virtual start and stop states are
// the single row of a start matrix and the single column of a stop matrix.
func (e Edge) Dims(numLabels int) (int, int) {
	switch e.Kind {
	case EdgeStart:
		return 1, numLabels
	case EdgeStop:
		return numLabels, 1
	}
	return numLabels, numLabels
}

// Labelled reports whether the edge ends in a real label, i.e. whether emissions apply to it.
func (e Edge) Labelled() bool {
	return e.Kind != EdgeStop
}

// Cell returns the (row, column) of the edge's matrix selected by a label sequence
func (e Edge) Cell(labels []int) (int, int) {
	switch e.Kind {
	case EdgeStart:
		return 0, labels[0]
	case EdgeStop:
		return labels[len(labels)-1], 0
	}
	return labels[e.Pos-1], labels[e.Pos]
}
