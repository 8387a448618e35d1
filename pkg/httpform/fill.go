package httpform

import (
	"net/url"
	"slices"

	"golang.org/x/net/html"

	"github.com/goliatone/go-formvalidator/pkg/dom"
)

// Fill writes submitted values into the controls of form, hidden inputs
// included. Repeated names take their values in document order; checkboxes
// and radios are checked when their value was submitted. Names missing from
// values are cleared. Buttons and file inputs are left alone.
func Fill(doc *dom.HTMLDocument, form *html.Node, values url.Values) {
	seen := make(map[string]int)
	for _, control := range doc.Fields(form) {
		submitted := values[control.Name]
		switch dom.InputType(control.Node) {
		case "submit", "reset", "button", "image", "file":
			continue
		case "checkbox", "radio":
			own := doc.Value(control.Node)
			if slices.Contains(submitted, own) {
				doc.SetValue(control.Node, own)
			} else {
				doc.SetValue(control.Node, "")
			}
			continue
		}
		switch control.Kind {
		case "BUTTON", "FIELDSET", "OUTPUT", "OBJECT":
			continue
		}

		idx := seen[control.Name]
		seen[control.Name] = idx + 1
		value := ""
		if idx < len(submitted) {
			value = submitted[idx]
		}
		doc.SetValue(control.Node, value)
	}
}
