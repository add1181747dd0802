package browser

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// BindingName is the runtime binding the page calls into Go with.
const BindingName = "__bandswap"

// bootstrapJS installs the page side of the bridge. It is idempotent so
// it can run both on the current document and on every new one. A fresh
// document reports itself once its markup has been parsed.
const bootstrapJS = `(fresh) => {
	if (window.__bandswapInstalled) return;
	window.__bandswapInstalled = true;
	const send = (msg) => window.__bandswap(JSON.stringify(msg));
	if (fresh) {
		document.addEventListener('DOMContentLoaded', () => send({type: 'document'}), {once: true});
	}
	window.addEventListener('scroll', () => send({type: 'scroll'}), {passive: true});
	window.addEventListener('resize', () => send({type: 'resize'}));
	const observers = new Map();
	window.__bandswapWatch = (id, el) => {
		let ro = observers.get(id);
		if (!ro) {
			ro = new ResizeObserver(() => send({type: 'size', watcher: id}));
			observers.set(id, ro);
		}
		ro.observe(el);
	};
	window.__bandswapUnwatch = (id) => {
		const ro = observers.get(id);
		if (ro) {
			ro.disconnect();
			observers.delete(id);
		}
	};
}`

// EventType is the kind of a bridged page event.
type EventType string

const (
	EventScroll   EventType = "scroll"
	EventResize   EventType = "resize"
	EventSize     EventType = "size"
	EventDocument EventType = "document"
)

// Event is one decoded binding payload.
type Event struct {
	Type    EventType
	Watcher int
}

var errBadPayload = errors.New("bad binding payload")

// parseEvent decodes a binding payload.
func parseEvent(payload string) (Event, error) {
	if !gjson.Valid(payload) {
		return Event{}, errBadPayload
	}
	doc := gjson.Parse(payload)

	ev := Event{Type: EventType(doc.Get("type").String())}
	switch ev.Type {
	case EventScroll, EventResize, EventDocument:
	case EventSize:
		w := doc.Get("watcher")
		if !w.Exists() {
			return Event{}, fmt.Errorf("%w: size event without watcher", errBadPayload)
		}
		ev.Watcher = int(w.Int())
	default:
		return Event{}, fmt.Errorf("%w: unknown type %q", errBadPayload, ev.Type)
	}
	return ev, nil
}
