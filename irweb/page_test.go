package irweb

import (
	"strings"
	"testing"

	"github.com/kwkoo/irremote"
)

func TestRenderPage(t *testing.T) {
	buttons := irremote.DefaultButtons()
	page, err := RenderPage(buttons)
	if err != nil {
		t.Fatal(err)
	}
	s := string(page)

	for _, b := range buttons.Buttons() {
		if !strings.Contains(s, "xhr('/b/"+b.Token+"')") {
			t.Errorf("page does not contain a button for %v", b.Token)
		}
	}
	for _, want := range []string{">Power<", ">&lt;<", ">&gt;<", "xhr('/c/'+", "xhr('/c6/'+", "Blast"} {
		if !strings.Contains(s, want) {
			t.Errorf("page does not contain %q", want)
		}
	}

	// order follows the table
	last := -1
	for _, b := range buttons.Buttons() {
		i := strings.Index(s, "'/b/"+b.Token+"'")
		if i < last {
			t.Errorf("button %v is out of order", b.Token)
		}
		last = i
	}
}

func TestRenderPageEscapesLabels(t *testing.T) {
	buttons, err := irremote.NewButtonTable([]irremote.Button{{Token: "x", Label: "<b>x</b>", Code: 1}})
	if err != nil {
		t.Fatal(err)
	}
	page, err := RenderPage(buttons)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(page), "<b>x</b>") || !strings.Contains(string(page), "&lt;b&gt;x&lt;/b&gt;") {
		t.Error("label was not escaped")
	}
}
