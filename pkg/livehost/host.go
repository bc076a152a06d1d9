package livehost

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vango-dev/liveguard/pkg/callback"
)

// Host is an in-memory callback host. It is safe for concurrent use, but
// callbacks themselves run sequentially: one property change and its whole
// cascade finish before the next begins.
//
// Handlers must not call back into the host; outputs are the only way a
// callback changes properties.
type Host struct {
	mu       sync.Mutex
	logger   *slog.Logger
	maxDepth int

	props     map[string]any
	regs      []*registration
	byInput   map[string][]*registration
	outputOwn map[string]bool // outputs claimed without AllowDuplicate
	started   bool
}

type registration struct {
	outputs []callback.Dep
	inputs  []callback.Dep
	states  []callback.Dep
	fn      callback.Func
	opts    callback.Options
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) HostOption {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMaxDepth caps cascade depth, the budget against update storms where
// callbacks feed each other's inputs. Default: 32.
func WithMaxDepth(n int) HostOption {
	return func(h *Host) {
		if n > 0 {
			h.maxDepth = n
		}
	}
}

// New creates an empty host.
func New(opts ...HostOption) *Host {
	h := &Host{
		logger:    slog.Default(),
		maxDepth:  32,
		props:     make(map[string]any),
		byInput:   make(map[string][]*registration),
		outputOwn: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Callback registers a handler on the dependency graph. Registration fails
// after Start, on an invalid dep list, or when an output is already owned
// by another callback and the new dep lacks AllowDuplicate.
func (h *Host) Callback(deps []callback.Dep, fn callback.Func, opts ...callback.Option) error {
	if fn == nil {
		return fmt.Errorf("livehost: nil handler")
	}
	if err := callback.Validate(deps); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.started {
		return fmt.Errorf("livehost: host already started")
	}

	outputs, inputs, states := callback.Split(deps)
	for _, out := range outputs {
		if h.outputOwn[out.Key()] && !out.AllowDuplicate {
			return fmt.Errorf("livehost: output %s already owned (use AllowDuplicate)", out.Key())
		}
		if !out.AllowDuplicate {
			h.outputOwn[out.Key()] = true
		}
	}

	reg := &registration{
		outputs: outputs,
		inputs:  inputs,
		states:  states,
		fn:      fn,
		opts:    callback.BuildOptions(opts...),
	}
	h.regs = append(h.regs, reg)
	for _, in := range inputs {
		h.byInput[in.Key()] = append(h.byInput[in.Key()], reg)
	}
	return nil
}

// Seed sets a property without firing callbacks. Use it to lay out initial
// state before Start.
func (h *Host) Seed(id, prop string, value any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.props[id+"."+prop] = value
}

// Prop returns the current value of a property.
func (h *Host) Prop(id, prop string) any {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.props[id+"."+prop]
}

// Start performs the initial flush: every callback not registered with
// PreventInitialCall fires once, in registration order, against the seeded
// properties.
func (h *Host) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.started {
		return fmt.Errorf("livehost: host already started")
	}
	h.started = true

	for _, reg := range h.regs {
		if reg.opts.PreventInitialCall {
			continue
		}
		if err := h.invoke(ctx, reg, 0); err != nil {
			return err
		}
	}
	return nil
}

// SetProp sets a property and fires the callbacks subscribed to it.
// The whole cascade runs before SetProp returns.
func (h *Host) SetProp(ctx context.Context, id, prop string, value any) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.started {
		return fmt.Errorf("livehost: host not started (did you mean Seed?)")
	}
	return h.apply(ctx, []propWrite{{key: id + "." + prop, value: value}}, 0)
}

type propWrite struct {
	key   string
	value any
}

// apply writes a batch of properties, then dispatches subscribers. All
// writes land before any callback fires, so a callback that outputs several
// properties (the token pair) is observed atomically by its dependents.
// Called with the host lock held.
func (h *Host) apply(ctx context.Context, writes []propWrite, depth int) error {
	if depth > h.maxDepth {
		return fmt.Errorf("livehost: cascade depth %d exceeded updating %s", h.maxDepth, writes[0].key)
	}

	for _, w := range writes {
		h.props[w.key] = w.value
	}

	// Each callback fires at most once per batch, even when several of its
	// inputs changed.
	seen := make(map[*registration]bool)
	for _, w := range writes {
		for _, reg := range h.byInput[w.key] {
			if seen[reg] {
				continue
			}
			seen[reg] = true
			if err := h.invoke(ctx, reg, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// invoke assembles the argument list (Inputs then States, declaration
// order), runs the handler, and applies its outputs. A handler error aborts
// the update: no outputs are written.
func (h *Host) invoke(ctx context.Context, reg *registration, depth int) error {
	args := make([]any, 0, len(reg.inputs)+len(reg.states))
	for _, d := range reg.inputs {
		args = append(args, h.props[d.Key()])
	}
	for _, d := range reg.states {
		args = append(args, h.props[d.Key()])
	}

	out, err := reg.fn(ctx, args)
	if err != nil {
		h.logger.Warn("callback failed", "error", err)
		return err
	}
	if len(out) != len(reg.outputs) {
		return fmt.Errorf("livehost: callback returned %d outputs, declared %d", len(out), len(reg.outputs))
	}

	writes := make([]propWrite, len(reg.outputs))
	for i, d := range reg.outputs {
		writes[i] = propWrite{key: d.Key(), value: out[i]}
	}
	return h.apply(ctx, writes, depth)
}
