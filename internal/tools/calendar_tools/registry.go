package calendar_tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/teemow/calendaragent/internal/calendar"
	"github.com/teemow/calendaragent/internal/tools/common"
)

// ErrUnknownTool is returned by Call for a name outside the registry.
var ErrUnknownTool = errors.New("unknown tool")

// Options configures a Registry.
type Options struct {
	// Location is the reference zone for zone-less times. Defaults to UTC.
	Location *time.Location
	// Now overrides the clock used for default listing ranges.
	Now func() time.Time
	// Instrumentation wraps every tool call. The zero value records nothing.
	Instrumentation common.Instrumentation
}

// Registry holds the calendar tools bound to one backend.
type Registry struct {
	backend calendar.Backend
	loc     *time.Location
	now     func() time.Time
	tools   map[Name]common.ToolFunc
}

// NewRegistry binds the four calendar tools to backend.
func NewRegistry(backend calendar.Backend, opts Options) *Registry {
	r := &Registry{
		backend: backend,
		loc:     opts.Location,
		now:     opts.Now,
	}
	if r.loc == nil {
		r.loc = time.UTC
	}
	if r.now == nil {
		r.now = time.Now
	}

	handlers := map[Name]common.ToolFunc{
		CreateEventTool:   r.handleCreateEvent,
		ListEventsTool:    r.handleListEvents,
		PostponeEventTool: r.handlePostponeEvent,
		DeleteEventTool:   r.handleDeleteEvent,
	}
	r.tools = make(map[Name]common.ToolFunc, len(handlers))
	for name, fn := range handlers {
		r.tools[name] = common.InstrumentedTool(string(name), opts.Instrumentation, fn)
	}
	return r
}

// Location returns the reference zone.
func (r *Registry) Location() *time.Location {
	return r.loc
}

// Specs returns the tool descriptions in advertised order.
func (r *Registry) Specs() []Spec {
	out := make([]Spec, 0, len(Names))
	for _, name := range Names {
		out = append(out, specs[name])
	}
	return out
}

// Lookup resolves a model-supplied name to a registered tool.
func (r *Registry) Lookup(name string) (Name, bool) {
	n, ok := ParseName(name)
	if !ok {
		return "", false
	}
	_, ok = r.tools[n]
	return n, ok
}

// Call runs the named tool. Argument and backend problems are reported in
// the Result; the error is reserved for unknown tools and internal failures.
func (r *Registry) Call(ctx context.Context, name Name, args map[string]any) (common.Result, error) {
	fn, ok := r.tools[name]
	if !ok {
		return common.Result{}, fmt.Errorf("%w %q", ErrUnknownTool, name)
	}
	if args == nil {
		args = map[string]any{}
	}
	return fn(ctx, args)
}
