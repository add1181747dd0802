package trace

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tidwall/gjson"

	"github.com/dshills/bandswap/internal/core"
	"github.com/dshills/bandswap/internal/page"
)

const tracePage = `
band:
  height: 4
variants:
  - name: light
    default: true
  - name: dark
sections:
  - height: 10
  - variant: dark
    height: 8
  - height: 30
`

func mustPage(t *testing.T) *page.Page {
	t.Helper()
	p, err := page.Parse([]byte(tracePage))
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func readRecords(t *testing.T, buf *bytes.Buffer) []Record {
	t.Helper()
	var out []Record
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		rec, err := ParseLine(sc.Bytes())
		if err != nil {
			t.Fatalf("ParseLine(%q): %v", sc.Text(), err)
		}
		out = append(out, rec)
	}
	return out
}

func av(pairs ...any) []core.ActiveVariant {
	var out []core.ActiveVariant
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, core.ActiveVariant{Name: pairs[i].(string), Progress: pairs[i+1].(float64)})
	}
	return out
}

func TestRun(t *testing.T) {
	var buf bytes.Buffer
	n, err := Run(context.Background(), &buf, mustPage(t), Options{Width: 40, Height: 20})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got := readRecords(t, &buf)
	want := []Record{
		{Scroll: 0, Active: av("light", 1.0)},
		{Scroll: 7, Active: av("light", 0.75, "dark", 0.25)},
		{Scroll: 8, Active: av("light", 0.5, "dark", 0.5)},
		{Scroll: 9, Active: av("light", 0.25, "dark", 0.75)},
		{Scroll: 10, Active: av("dark", 1.0)},
		{Scroll: 15, Active: av("light", 0.25, "dark", 0.75)},
		{Scroll: 16, Active: av("light", 0.5, "dark", 0.5)},
		{Scroll: 17, Active: av("light", 0.75, "dark", 0.25)},
		{Scroll: 18, Active: av("light", 1.0)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
	if n != len(want) {
		t.Errorf("Run returned %d lines, want %d", n, len(want))
	}
}

type fixedHook struct{ calls int }

func (h *fixedHook) OnChange(active []core.ActiveVariant) (string, error) {
	h.calls++
	return active[len(active)-1].Name, nil
}

func TestRun_WithHook(t *testing.T) {
	var buf bytes.Buffer
	hook := &fixedHook{}
	n, err := Run(context.Background(), &buf, mustPage(t), Options{Width: 40, Height: 20, Hook: hook})
	if err != nil {
		t.Fatal(err)
	}
	if hook.calls != n {
		t.Errorf("hook calls = %d, want %d", hook.calls, n)
	}

	first, _, _ := strings.Cut(buf.String(), "\n")
	if got := gjson.Get(first, "status").String(); got != "light" {
		t.Errorf("status = %q, want light", got)
	}
}

func TestRun_Step(t *testing.T) {
	var buf bytes.Buffer
	if _, err := Run(context.Background(), &buf, mustPage(t), Options{Width: 40, Height: 20, Step: 4}); err != nil {
		t.Fatal(err)
	}
	recs := readRecords(t, &buf)
	last := recs[len(recs)-1]
	// Steps land on 4, 8, ... 28 and finish at the end of the page.
	for _, r := range recs {
		if r.Scroll != 0 && int(r.Scroll)%4 != 0 && r.Scroll != 29 {
			t.Errorf("unexpected scroll %v", r.Scroll)
		}
	}
	if last.Active[0].Name != "light" || last.Active[0].Progress != 1 {
		t.Errorf("last record = %+v", last)
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	n, err := Run(ctx, &buf, mustPage(t), Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	// The initial state is still written.
	if n != 1 {
		t.Errorf("lines = %d, want 1", n)
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRun_WriteError(t *testing.T) {
	_, err := Run(context.Background(), failWriter{}, mustPage(t), Options{})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("err = %v", err)
	}
}

func TestLine(t *testing.T) {
	line, err := Line(2.5, av("light", 0.33333, "dark", 0.66667), "")
	if err != nil {
		t.Fatal(err)
	}

	if got := gjson.GetBytes(line, "scroll").Float(); got != 2.5 {
		t.Errorf("scroll = %v", got)
	}
	if got := gjson.GetBytes(line, "active.#").Int(); got != 2 {
		t.Errorf("active count = %d", got)
	}
	if got := gjson.GetBytes(line, "active.1.progress").Float(); got != 0.667 {
		t.Errorf("progress = %v, want rounded 0.667", got)
	}
	if gjson.GetBytes(line, "status").Exists() {
		t.Error("empty status should be omitted")
	}

	empty, err := Line(0, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if got := gjson.GetBytes(empty, "active").Raw; got != "[]" {
		t.Errorf("empty active = %s, want []", got)
	}
}

func TestParseLine_Invalid(t *testing.T) {
	for _, in := range []string{"", "{", `{"active":[]}`} {
		if _, err := ParseLine([]byte(in)); !errors.Is(err, ErrInvalidLine) {
			t.Errorf("ParseLine(%q) err = %v", in, err)
		}
	}
}
