// Package uictl holds read-only control surfaces shared between a model
// and the widgets that render it.
package uictl

import "golang.org/x/exp/constraints"

type Number interface {
	constraints.Integer | constraints.Float
}

// Dial is a control that can read some value.
type Dial[N Number] interface {
	Read() N
}

// CappedDial is a Dial with a maximum cap value.
type CappedDial[N Number] interface {
	Dial[N]
	Cap() (num, max N)
}

// DialFunc adapts a function to a Dial.
type DialFunc[N Number] func() N

func (f DialFunc[N]) Read() N { return f() }

type cappedDial[N Number] struct {
	Dial[N]
	max N
}

func (c cappedDial[N]) Cap() (N, N) { return c.Read(), c.max }

// WithCap wraps d in a CappedDial that reports max as its ceiling.
func WithCap[N Number](d Dial[N], max N) CappedDial[N] {
	return cappedDial[N]{Dial: d, max: max}
}
