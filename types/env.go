package types

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Env is a stack of scope frames mapping names to types, innermost last.
// The module and every function body own one frame each.
type Env struct {
	frames []map[string]Type
}

func NewEnv() *Env {
	return &Env{}
}

func (e *Env) EnterScope() {
	e.frames = append(e.frames, make(map[string]Type))
}

func (e *Env) ExitScope() {
	if len(e.frames) == 0 {
		panic("types: ExitScope on an empty scope stack")
	}
	e.frames = e.frames[:len(e.frames)-1]
}

func (e *Env) Depth() int {
	return len(e.frames)
}

// Lookup searches the frames from innermost to outermost.
func (e *Env) Lookup(name string) (Type, bool) {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if t, ok := e.frames[i][name]; ok {
			return t, true
		}
	}
	return nil, false
}

func (e *Env) LookupLocal(name string) (Type, bool) {
	if len(e.frames) == 0 {
		return nil, false
	}
	t, ok := e.frames[len(e.frames)-1][name]
	return t, ok
}

// Bind records the type of name in the innermost frame. Rebinding a name to
// an equal type is a no-op; rebinding it to a different type in the same
// frame is a *TypeMismatchError and leaves the frame unchanged.
func (e *Env) Bind(name string, t Type) error {
	if len(e.frames) == 0 {
		panic("types: Bind with no scope")
	}
	frame := e.frames[len(e.frames)-1]
	if old, ok := frame[name]; ok && !Equal(old, t) {
		return &TypeMismatchError{
			Name:   name,
			Want:   old,
			Got:    t,
			Reason: fmt.Sprintf("type of variable %s in local scope does not match inferred type %s", name, typeString(t)),
		}
	}
	frame[name] = t
	return nil
}

func (e *Env) String() string {
	sb := new(strings.Builder)
	buf := tabwriter.NewWriter(sb, 0, 0, 1, ' ', 0)
	for i, frame := range e.frames {
		if i > 0 {
			fmt.Fprint(buf, "↑\n")
		}
		if len(frame) == 0 {
			fmt.Fprint(buf, "(empty)\n")
			continue
		}
		names := maps.Keys(frame)
		slices.Sort(names)
		for _, name := range names {
			fmt.Fprintf(buf, "%s:\t%s\n", name, typeString(frame[name]))
		}
	}
	buf.Flush()
	return sb.String()
}
