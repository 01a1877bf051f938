// Package feature defines the basis functions that parameterize the transition matrices of a
// linear-chain CRF. A feature is either a Transition, evaluated as a matrix over adjacent label
// pairs, or an Emission, evaluated as a vector over the label drawn at one position.
package feature

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var ErrUnknownKind = errors.New("unknown feature kind")

type Kind int

const (
	KindTransition Kind = iota
	KindEmission
)

func (k Kind) String() string {
	switch k {
	case KindTransition:
		return "transition"
	case KindEmission:
		return "emission"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case KindTransition, KindEmission:
		return []byte(k.String()), nil
	}
	return nil, fmt.Errorf("%d, %w", int(k), ErrUnknownKind)
}

func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "transition":
		*k = KindTransition
	case "emission":
		*k = KindEmission
	default:
		return fmt.Errorf("%q, %w", string(text), ErrUnknownKind)
	}
	return nil
}

// Feature is implemented only by *Transition and *Emission.
type Feature interface {
	String() string
	Kind() Kind
	isFeature()
}

// TransitionFunc evaluates a transition feature at an edge. The returned matrix must have the
// shape reported by Edge.Dims and is treated as read-only. A nil result means the feature does
// not fire anywhere on that edge.
type TransitionFunc func(e Edge, obs []int) mat.Matrix

// EmissionFunc evaluates an emission feature at a labelled edge. The returned vector is indexed
// by the destination label of the edge and is treated as read-only. A nil result means the
// feature does not fire.
type EmissionFunc func(e Edge, obs []int) mat.Vector

// Transition is a feature over adjacent label pairs
type Transition struct {
	name string
	fn   TransitionFunc
}

func NewTransition(name string, fn TransitionFunc) *Transition {
	return &Transition{name: name, fn: fn}
}

func (t *Transition) String() string {
	return t.name
}

func (t *Transition) Kind() Kind {
	return KindTransition
}

func (t *Transition) Eval(e Edge, obs []int) mat.Matrix {
	if t.fn == nil {
		return nil
	}
	return t.fn(e, obs)
}

func (t *Transition) isFeature() {}

// Emission is a feature over a single label and the observations
type Emission struct {
	name string
	fn   EmissionFunc
}

func NewEmission(name string, fn EmissionFunc) *Emission {
	return &Emission{name: name, fn: fn}
}

func (em *Emission) String() string {
	return em.name
}

func (em *Emission) Kind() Kind {
	return KindEmission
}

func (em *Emission) Eval(e Edge, obs []int) mat.Vector {
	if em.fn == nil || !e.Labelled() {
		return nil
	}
	return em.fn(e, obs)
}

func (em *Emission) isFeature() {}
