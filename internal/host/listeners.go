// Package host holds pieces shared by the terminal and browser hosts.
package host

// Listeners is an ordered set of callbacks with removable registrations.
// It is not goroutine safe.
type Listeners struct {
	nextID int
	list   []listener
}

type listener struct {
	id int
	fn func()
}

// Add registers fn and returns its remover. Calling the remover more than
// once is a no-op.
func (l *Listeners) Add(fn func()) (remove func()) {
	l.nextID++
	id := l.nextID
	l.list = append(l.list, listener{id: id, fn: fn})

	return func() {
		for i, ln := range l.list {
			if ln.id == id {
				l.list = append(l.list[:i], l.list[i+1:]...)
				return
			}
		}
	}
}

// Fire calls every listener in registration order. Listeners added or
// removed during Fire take effect on the next call.
func (l *Listeners) Fire() {
	snapshot := append([]listener(nil), l.list...)
	for _, ln := range snapshot {
		ln.fn()
	}
}

// Len returns the number of registered listeners.
func (l *Listeners) Len() int {
	return len(l.list)
}
