package irweb

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kwkoo/irremote"
)

func TestIngestMacros(t *testing.T) {
	input := `[
		{"name":"tv_on", "instructions":["press power", "pause 10", "press volmin"]},
		{"name":"radio", "instructions":["press fmradio", "send 36", "send6 4 247"]}
	]`
	macros, err := IngestMacros(strings.NewReader(input), irremote.DefaultButtons())
	if err != nil {
		t.Fatal(err)
	}
	if len(macros) != 2 {
		t.Fatalf("expected 2 macros, got %d", len(macros))
	}
	if n := macros["tv_on"].Len(); n != 3 {
		t.Errorf("expected 3 instructions in tv_on, got %d", n)
	}
	if n := macros["radio"].Len(); n != 3 {
		t.Errorf("expected 3 instructions in radio, got %d", n)
	}
}

func TestIngestMacrosErrors(t *testing.T) {
	tables := []struct {
		name  string
		input string
	}{
		{"unknown instruction", `[{"name":"m","instructions":["jump 3"]}]`},
		{"unknown button", `[{"name":"m","instructions":["press mute"]}]`},
		{"press without button", `[{"name":"m","instructions":["press"]}]`},
		{"send not a number", `[{"name":"m","instructions":["send twelve"]}]`},
		{"send too many arguments", `[{"name":"m","instructions":["send 1 2"]}]`},
		{"send6 two digit address", `[{"name":"m","instructions":["send6 12 1"]}]`},
		{"send6 missing function", `[{"name":"m","instructions":["send6 4"]}]`},
		{"negative pause", `[{"name":"m","instructions":["pause -1"]}]`},
		{"blank instruction", `[{"name":"m","instructions":["  "]}]`},
		{"missing name", `[{"instructions":["press power"]}]`},
		{"unknown field", `[{"name":"m","steps":[]}]`},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			if _, err := IngestMacros(strings.NewReader(table.input), irremote.DefaultButtons()); err == nil {
				t.Error("expected an error but did not get it")
			}
		})
	}
}

func TestMacroRun(t *testing.T) {
	rec := &pathRecorder{}
	ts := httptest.NewServer(rec)
	defer ts.Close()

	input := `[{"name":"m","instructions":["press power", "pause 20", "send 12", "send6 4 247"]}]`
	macros, err := IngestMacros(strings.NewReader(input), irremote.DefaultButtons())
	if err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	if err := macros["m"].Run(context.Background(), NewClient(ts.URL, time.Second)); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("macro finished in %v, expected a pause", elapsed)
	}

	expected := []string{"/b/power", "/c/12", "/c6/4/247"}
	got := rec.recorded()
	if strings.Join(got, " ") != strings.Join(expected, " ") {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestMacroRunCancelled(t *testing.T) {
	rec := &pathRecorder{}
	ts := httptest.NewServer(rec)
	defer ts.Close()

	input := `[{"name":"m","instructions":["pause 10000", "press power"]}]`
	macros, err := IngestMacros(strings.NewReader(input), irremote.DefaultButtons())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := macros["m"].Run(ctx, NewClient(ts.URL, time.Second)); err == nil {
		t.Error("expected an error but did not get it")
	}
	if n := len(rec.recorded()); n != 0 {
		t.Errorf("expected no requests, got %d", n)
	}
}
