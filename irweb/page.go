package irweb

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"

	"github.com/kwkoo/irremote"
)

//go:embed page.html
var pageSource string

var pageTemplate = template.Must(template.New("page").Parse(pageSource))

// RenderPage renders the control panel for buttons. It is rendered once at
// startup and served for every request that isn't a command.
func RenderPage(buttons *irremote.ButtonTable) ([]byte, error) {
	var buf bytes.Buffer
	data := struct {
		Buttons []irremote.Button
	}{
		Buttons: buttons.Buttons(),
	}
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("error rendering page: %v", err)
	}
	return buf.Bytes(), nil
}
