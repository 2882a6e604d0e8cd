package irweb

import (
	"strings"
	"testing"
)

func TestIngestButtons(t *testing.T) {
	tables := []struct {
		name  string
		input string
		count int
		isErr bool
	}{
		{"valid", `[{"token":"power","label":"Power","code":12},{"token":"mute","code":13}]`, 2, false},
		{"empty list", `[]`, 0, false},
		{"unknown field", `[{"token":"power","code":12,"protocol":"rc5"}]`, 0, true},
		{"duplicate", `[{"token":"power","code":12},{"token":"power","code":13}]`, 0, true},
		{"code out of range", `[{"token":"power","code":256}]`, 0, true},
		{"not a list", `{"token":"power","code":12}`, 0, true},
		{"malformed", `[{"token":`, 0, true},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			buttons, err := IngestButtons(strings.NewReader(table.input))
			if table.isErr {
				if err == nil {
					t.Error("expected an error but did not get it")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if buttons.Count() != table.count {
				t.Errorf("expected %d buttons, got %d", table.count, buttons.Count())
			}
		})
	}
}

func TestIngestButtonsDefaultsLabel(t *testing.T) {
	buttons, err := IngestButtons(strings.NewReader(`[{"token":"mute","code":13}]`))
	if err != nil {
		t.Fatal(err)
	}
	b, ok := buttons.Lookup("mute")
	if !ok || b.Label != "mute" || b.Code != 13 {
		t.Errorf("unexpected button %+v", b)
	}
}
