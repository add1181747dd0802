package browser

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ysmood/gson"

	"github.com/dshills/bandswap/internal/clip"
	"github.com/dshills/bandswap/internal/core"
	"github.com/dshills/bandswap/internal/logging"
)

func TestParseEvent(t *testing.T) {
	tests := []struct {
		payload string
		want    Event
	}{
		{`{"type":"scroll"}`, Event{Type: EventScroll}},
		{`{"type":"resize"}`, Event{Type: EventResize}},
		{`{"type":"size","watcher":3}`, Event{Type: EventSize, Watcher: 3}},
		{`{"type":"document"}`, Event{Type: EventDocument}},
	}
	for _, tt := range tests {
		got, err := parseEvent(tt.payload)
		if err != nil {
			t.Errorf("parseEvent(%s): %v", tt.payload, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseEvent(%s) = %+v, want %+v", tt.payload, got, tt.want)
		}
	}
}

func TestParseEvent_Invalid(t *testing.T) {
	for _, payload := range []string{
		``,
		`not json`,
		`{"type":"click"}`,
		`{"type":"size"}`,
	} {
		if _, err := parseEvent(payload); !errors.Is(err, errBadPayload) {
			t.Errorf("parseEvent(%q) error = %v, want errBadPayload", payload, err)
		}
	}
}

func TestRectFromValue(t *testing.T) {
	got := rectFromValue(gson.New([]any{12.5, 40.0}))
	if got.Top != 12.5 || got.Height != 40 {
		t.Errorf("rect = %+v, want top 12.5 height 40", got)
	}

	for _, v := range []gson.JSON{
		gson.New(nil),
		gson.New([]any{1.0}),
		gson.New("x"),
	} {
		if r := rectFromValue(v); r != (core.Rect{}) {
			t.Errorf("rectFromValue(%v) = %+v, want zero", v, r)
		}
	}
}

func strp(s string) *string { return &s }

func TestTargetFromAttrs(t *testing.T) {
	got, err := targetFromAttrs(strp("dark"), nil, nil)
	if err != nil {
		t.Fatalf("targetFromAttrs: %v", err)
	}
	if got.Name != "dark" || got.Default || got.Geometry != clip.GeometryBand {
		t.Errorf("target = %+v", got)
	}

	got, err = targetFromAttrs(strp("light"), strp(""), strp("own"))
	if err != nil {
		t.Fatalf("targetFromAttrs: %v", err)
	}
	if !got.Default || got.Geometry != clip.GeometryOwn {
		t.Errorf("present empty default attribute should mark default, own geometry: %+v", got)
	}

	if _, err := targetFromAttrs(nil, nil, nil); err == nil {
		t.Error("missing name should fail")
	}
	if _, err := targetFromAttrs(strp("x"), nil, strp("sideways")); err == nil {
		t.Error("unknown geometry should fail")
	}
}

func TestHostDispatch(t *testing.T) {
	h := &Host{logger: logging.Null(), watchers: make(map[int]*sizeWatcher)}

	var got []string
	h.OnScroll(func() { got = append(got, "scroll") })
	h.OnResize(func() { got = append(got, "resize") })
	remove := h.OnDocument(func() { got = append(got, "document") })
	sw := h.NewSizeWatcher(func() { got = append(got, "size") }).(*sizeWatcher)

	for _, ev := range []Event{
		{Type: EventDocument},
		{Type: EventScroll},
		{Type: EventSize, Watcher: sw.id},
		{Type: EventSize, Watcher: sw.id + 1},
		{Type: EventResize},
	} {
		h.dispatch(ev)
	}
	remove()
	h.dispatch(Event{Type: EventDocument})

	want := []string{"document", "scroll", "size", "resize"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dispatch mismatch (-want +got):\n%s", diff)
	}
}
