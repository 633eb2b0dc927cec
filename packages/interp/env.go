package interp

// Env is a lexically scoped variable environment. Test bodies get one
// frame; each function call pushes another over the file's globals.
type Env struct {
	store map[string]any
	outer *Env
}

func NewEnv(outer *Env) *Env {
	return &Env{store: make(map[string]any), outer: outer}
}

func (e *Env) Define(name string, v any) {
	e.store[name] = v
}

func (e *Env) Get(name string) (any, bool) {
	if v, ok := e.store[name]; ok {
		return v, true
	}
	if e.outer != nil {
		return e.outer.Get(name)
	}
	return nil, false
}

// Assign rebinds an existing name, walking outward so helper functions
// can mutate file-level state. It fails when the name was never bound.
func (e *Env) Assign(name string, v any) bool {
	if _, ok := e.store[name]; ok {
		e.store[name] = v
		return true
	}
	if e.outer != nil {
		return e.outer.Assign(name, v)
	}
	return false
}
