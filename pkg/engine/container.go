package engine

import (
	"fmt"
)

// Inputs is the map of named input values accepted at the engine
// boundary. Values may be float64, int, []float64, or []int; everything is
// stored as a float64 slice (scalars as length 1), mirroring how the
// variants consume them.
type Inputs map[string]any

// DataContainer is a named mutable holder for one input value. The engine
// creates a container per input on first build; subsequent runs overwrite
// the contents in place, which is the mechanism that lets the cached graph
// be reused on new data. The length is fixed at creation: rebinding a
// value of a different length is a shape mismatch.
//
// Containers are not synchronized. Concurrent use must be serialized by
// the caller, as with the engine that owns them.
type DataContainer struct {
	name string
	data []float64
}

// Name returns the input name the container is bound to.
func (c *DataContainer) Name() string { return c.name }

// Len returns the fixed length of the contained value.
func (c *DataContainer) Len() int { return len(c.data) }

// Get returns the contained value. The slice is the container's backing
// storage; callers must not mutate it.
func (c *DataContainer) Get() []float64 { return c.data }

// Scalar returns the contained value as a scalar. It panics for
// containers of length other than 1; variants only call it for inputs
// they declared scalar.
func (c *DataContainer) Scalar() float64 {
	if len(c.data) != 1 {
		panic(fmt.Sprintf("engine: input %q has length %d, not a scalar", c.name, len(c.data)))
	}
	return c.data[0]
}

// Set overwrites the contained value in place. The new value must have
// the container's length.
func (c *DataContainer) Set(v []float64) error {
	if len(v) != len(c.data) {
		return NewShapeMismatchError(c.name, len(c.data), len(v))
	}
	copy(c.data, v)
	return nil
}

// InputSet is an insertion-ordered registry of data containers, one per
// named input.
type InputSet struct {
	names  []string
	byName map[string]*DataContainer
}

// NewInputSet returns an empty input set.
func NewInputSet() *InputSet {
	return &InputSet{byName: make(map[string]*DataContainer)}
}

// Names returns the input names in insertion order.
func (s *InputSet) Names() []string {
	return append([]string(nil), s.names...)
}

// Has reports whether the named input is bound.
func (s *InputSet) Has(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// Get returns the container for the named input, or a missing-input
// error.
func (s *InputSet) Get(name string) (*DataContainer, error) {
	c, ok := s.byName[name]
	if !ok {
		return nil, NewMissingInputError(name)
	}
	return c, nil
}

// Vector returns the named input's value.
func (s *InputSet) Vector(name string) ([]float64, error) {
	c, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	return c.Get(), nil
}

// Scalar returns the named input's value as a scalar.
func (s *InputSet) Scalar(name string) (float64, error) {
	c, err := s.Get(name)
	if err != nil {
		return 0, err
	}
	if c.Len() != 1 {
		return 0, NewInvalidParameterError(
			fmt.Sprintf("input %q has length %d, expected a scalar", name, c.Len()), nil)
	}
	return c.data[0], nil
}

// bind wraps value in a fresh container under name, replacing any
// existing binding.
func (s *InputSet) bind(name string, value any) error {
	data, err := toFloats(name, value)
	if err != nil {
		return err
	}
	if _, exists := s.byName[name]; !exists {
		s.names = append(s.names, name)
	}
	s.byName[name] = &DataContainer{name: name, data: data}
	return nil
}

// rebind overwrites the existing container for name in place.
func (s *InputSet) rebind(name string, value any) error {
	c, ok := s.byName[name]
	if !ok {
		return NewMissingInputError(name)
	}
	data, err := toFloats(name, value)
	if err != nil {
		return err
	}
	return c.Set(data)
}

// toFloats normalizes an input value to a float64 slice.
func toFloats(name string, value any) ([]float64, error) {
	switch v := value.(type) {
	case []float64:
		return append([]float64(nil), v...), nil
	case float64:
		return []float64{v}, nil
	case int:
		return []float64{float64(v)}, nil
	case []int:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	default:
		return nil, NewInvalidParameterError(
			fmt.Sprintf("input %q has unsupported type %T", name, value), nil)
	}
}
