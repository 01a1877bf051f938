package crf

// Results is the full inference output for one observation sequence
type Results struct {
	Observations []int       `json:"observations"`
	Labels       []int       `json:"labels"`      // most probable label sequence
	Probability  float64     `json:"probability"` // P(Labels | Observations)
	Marginals    [][]float64 `json:"marginals"`   // P(y_t = b | Observations) per position t and label b
}
