package term

import "context"

// Pump reads backend events and posts them to the loop until the backend
// closes, ctx ends, or a handled event asks to quit. quit must be safe to
// call from any goroutine.
func (h *Host) Pump(ctx context.Context, post func(func()) bool, quit func()) error {
	for {
		ev := h.backend.PollEvent()
		if ctx.Err() != nil {
			return nil
		}
		if ev.Type == EventClosed {
			quit()
			return nil
		}
		ok := post(func() {
			if !h.HandleEvent(ev) {
				quit()
			}
		})
		if !ok {
			return nil
		}
	}
}
