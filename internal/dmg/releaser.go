package dmg

// releaser accumulates cleanup functions during a packaging run and executes
// them in reverse order on every exit path. Mounted volumes, temporary images
// and staged files are registered the moment they are acquired, so an early
// return or a failure can never leak them.
type releaser struct {
	fns []func()
}

// add registers a cleanup function. Functions must be safe to call after the
// resource was already released by the success path.
func (r *releaser) add(fn func()) {
	r.fns = append(r.fns, fn)
}

// release runs the registered functions LIFO.
func (r *releaser) release() {
	for i := len(r.fns) - 1; i >= 0; i-- {
		r.fns[i]()
	}
}
