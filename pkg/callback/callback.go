package callback

import (
	"context"
	"fmt"
)

// Kind distinguishes the three dependency roles a callback can declare.
type Kind int

const (
	// KindOutput marks a property the callback writes.
	KindOutput Kind = iota
	// KindInput marks a property whose changes fire the callback.
	KindInput
	// KindState marks a property the callback reads without subscribing.
	KindState
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindOutput:
		return "output"
	case KindInput:
		return "input"
	case KindState:
		return "state"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Dep is a single dependency on a component property.
type Dep struct {
	// Kind is the dependency role: Output, Input, or State.
	Kind Kind

	// ID is the component identifier.
	ID string

	// Prop is the property name on the component (e.g. "children", "value").
	Prop string

	// AllowDuplicate permits another callback to target the same Output.
	// Only meaningful on Output deps.
	AllowDuplicate bool
}

// Key returns the "id.prop" address of the dependency, used by hosts to
// index the callback graph.
func (d Dep) Key() string {
	return d.ID + "." + d.Prop
}

// DepOption configures an Output dependency.
type DepOption func(*Dep)

// WithAllowDuplicate permits multiple callbacks to write the same output.
// Hosts that track output ownership must honor this flag; it mirrors the
// duplicate-output escape hatch found in callback-graph frameworks.
func WithAllowDuplicate() DepOption {
	return func(d *Dep) {
		d.AllowDuplicate = true
	}
}

// Output declares a property the callback writes.
func Output(id, prop string, opts ...DepOption) Dep {
	d := Dep{Kind: KindOutput, ID: id, Prop: prop}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// Input declares a property whose changes fire the callback.
func Input(id, prop string) Dep {
	return Dep{Kind: KindInput, ID: id, Prop: prop}
}

// State declares a property the callback reads without subscribing.
func State(id, prop string) Dep {
	return Dep{Kind: KindState, ID: id, Prop: prop}
}

// Func is a callback handler. It receives the current Input values followed
// by the State values, in declaration order, and returns one value per
// declared Output. Returning an error aborts the update; no outputs are
// written.
type Func func(ctx context.Context, args []any) ([]any, error)

// Options carries registration options.
type Options struct {
	// PreventInitialCall suppresses the callback during the host's initial
	// flush; it only fires on subsequent input changes.
	PreventInitialCall bool
}

// Option configures callback registration.
type Option func(*Options)

// PreventInitialCall suppresses the callback during the host's initial flush.
func PreventInitialCall() Option {
	return func(o *Options) {
		o.PreventInitialCall = true
	}
}

// BuildOptions folds a list of options into an Options value.
func BuildOptions(opts ...Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Host is the registration surface a reactive UI framework exposes.
// Implementations must reject registrations with no Output or no Input
// dependency.
type Host interface {
	Callback(deps []Dep, fn Func, opts ...Option) error
}

// Split partitions deps by kind, preserving declaration order within each
// kind.
func Split(deps []Dep) (outputs, inputs, states []Dep) {
	for _, d := range deps {
		switch d.Kind {
		case KindOutput:
			outputs = append(outputs, d)
		case KindInput:
			inputs = append(inputs, d)
		case KindState:
			states = append(states, d)
		}
	}
	return outputs, inputs, states
}

// Validate checks that a dependency list can be registered: at least one
// Output, at least one Input, and no empty IDs or property names.
func Validate(deps []Dep) error {
	outputs, inputs, _ := Split(deps)
	if len(outputs) == 0 {
		return fmt.Errorf("callback: no outputs declared")
	}
	if len(inputs) == 0 {
		return fmt.Errorf("callback: no inputs declared")
	}
	for _, d := range deps {
		if d.ID == "" || d.Prop == "" {
			return fmt.Errorf("callback: %s dep with empty id or prop", d.Kind)
		}
	}
	return nil
}
