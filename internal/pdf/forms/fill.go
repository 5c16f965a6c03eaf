package forms

import (
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// SetText writes a text field value. The widget's stale appearance is
// dropped so the value is drawn from /V.
func (d *Document) SetText(w *Widget, value string) error {
	if w.Type != FieldText {
		return fmt.Errorf("field %s is a %s, not a text field", w.Name, w.Type)
	}
	w.field["V"] = encodeText(value)
	delete(w.annot, "AP")
	return nil
}

// SetChecked ticks a checkbox using its own on-state name
func (d *Document) SetChecked(w *Widget) error {
	if w.Type != FieldCheckbox && w.Type != FieldRadio {
		return fmt.Errorf("field %s is a %s, not a checkbox", w.Name, w.Type)
	}
	on := types.Name(w.OnState)
	w.field["V"] = on
	w.annot["AS"] = on
	return nil
}

// Value reads a text widget's current value
func (d *Document) Value(w *Widget) string {
	obj, found := d.inherited(w.field, "V")
	if !found {
		return ""
	}
	s, err := d.ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil)
	if err != nil {
		return ""
	}
	return s
}

// Checked reports whether a checkbox widget shows its on state
func (d *Document) Checked(w *Widget) bool {
	if as := d.name(w.annot, "AS"); as != "" {
		return as == w.OnState
	}
	obj, found := d.inherited(w.field, "V")
	if !found {
		return false
	}
	v, err := d.ctx.DereferenceName(obj, model.V10, nil)
	return err == nil && string(v) == w.OnState
}

// ReadValues returns every field's current value by name. Checkboxes read
// as "true" or "false".
func (d *Document) ReadValues() map[string]string {
	out := make(map[string]string, len(d.widgets))
	for _, w := range d.widgets {
		switch w.Type {
		case FieldCheckbox, FieldRadio:
			if d.Checked(w) || out[w.Name] == "true" {
				out[w.Name] = "true"
			} else {
				out[w.Name] = "false"
			}
		case FieldText, FieldChoice:
			out[w.Name] = d.Value(w)
		}
	}
	return out
}

// encodeText produces a PDF text string. ASCII goes into an escaped
// literal; anything else is UTF-16BE with a byte order mark.
func encodeText(s string) types.Object {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			ascii = false
			break
		}
	}
	if ascii {
		r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
		return types.StringLiteral(r.Replace(s))
	}

	units := utf16.Encode([]rune(s))
	buf := make([]byte, 2, 2+2*len(units))
	buf[0], buf[1] = 0xfe, 0xff
	for _, u := range units {
		buf = append(buf, byte(u>>8), byte(u))
	}
	return types.HexLiteral(hex.EncodeToString(buf))
}
