package feature

import "fmt"

// Labels maps feature names to their position in the parameter vector. Names are unique.
type Labels struct {
	idx    map[string]int
	labels []Feature
}

// NewLabels indexes features in the given order and rejects repeated names
func NewLabels(features []Feature) (*Labels, error) {
	idx := make(map[string]int, len(features))
	for i, f := range features {
		name := f.String()
		if prev, exists := idx[name]; exists {
			return nil, fmt.Errorf("%s at index %d and %d, %w", name, prev, i, ErrDuplicateFeature)
		}
		idx[name] = i
	}
	return &Labels{
		idx:    idx,
		labels: append([]Feature(nil), features...),
	}, nil
}

func (f *Labels) Len() int {
	return len(f.labels)
}

func (f *Labels) Labels() []Feature {
	labels := make([]Feature, len(f.labels))
	copy(labels, f.labels)
	return labels
}

// Names returns the feature names in parameter order
func (f *Labels) Names() []string {
	names := make([]string, 0, len(f.labels))
	for _, l := range f.labels {
		names = append(names, l.String())
	}
	return names
}

func (f *Labels) Index(label Feature) (int, bool) {
	return f.IndexOf(label.String())
}

// IndexOf looks up a feature position by its name
func (f *Labels) IndexOf(name string) (int, bool) {
	if idx, exists := f.idx[name]; exists {
		return idx, true
	}
	return -1, false
}
