package forms

import (
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// FieldType identifies what kind of form field a widget belongs to
type FieldType string

const (
	FieldText      FieldType = "text"
	FieldCheckbox  FieldType = "checkbox"
	FieldRadio     FieldType = "radio"
	FieldButton    FieldType = "button"
	FieldChoice    FieldType = "choice"
	FieldSignature FieldType = "signature"
	FieldUnknown   FieldType = "unknown"
)

// Field flag bits
const (
	flagRadio      = 1 << 15
	flagPushButton = 1 << 16
)

// Widget is one widget annotation together with the field it belongs to
type Widget struct {
	Name    string    `json:"name"`
	Type    FieldType `json:"type"`
	Page    int       `json:"page"`
	Rect    Rect      `json:"rect"`
	OnState string    `json:"on_state,omitempty"`

	annot types.Dict
	field types.Dict
}

// IsCheckbox reports whether the widget is a checkbox
func (w *Widget) IsCheckbox() bool { return w.Type == FieldCheckbox }

func (d *Document) discoverWidgets() error {
	for page := 0; page < d.ctx.PageCount; page++ {
		pageDict, _, _, err := d.pageDict(page)
		if err != nil {
			return err
		}
		annotsObj, found := pageDict.Find("Annots")
		if !found {
			continue
		}
		annots, err := d.ctx.DereferenceArray(annotsObj)
		if err != nil {
			return fmt.Errorf("failed to dereference annotations on page %d: %w", page, err)
		}
		for _, obj := range annots {
			annot, err := d.ctx.DereferenceDict(obj)
			if err != nil || annot == nil {
				continue
			}
			if subtype := d.name(annot, "Subtype"); subtype != "Widget" {
				continue
			}
			d.widgets = append(d.widgets, d.newWidget(page, annot))
		}
	}
	return nil
}

func (d *Document) newWidget(page int, annot types.Dict) *Widget {
	w := &Widget{Page: page, annot: annot, field: annot}

	// A widget without its own name is a kid of the named field
	if _, named := annot.Find("T"); !named {
		if parent := d.parent(annot); parent != nil {
			w.field = parent
		}
	}

	w.Name = d.qualifiedName(w.field)
	w.Type = d.fieldType(w.field)
	w.Rect = d.rect(annot)
	if w.Type == FieldCheckbox || w.Type == FieldRadio {
		w.OnState = d.onState(annot)
	}
	return w
}

func (d *Document) parent(dict types.Dict) types.Dict {
	obj, found := dict.Find("Parent")
	if !found {
		return nil
	}
	parent, err := d.ctx.DereferenceDict(obj)
	if err != nil {
		return nil
	}
	return parent
}

// qualifiedName joins the partial names of a field and its ancestors
func (d *Document) qualifiedName(field types.Dict) string {
	var parts []string
	for dict, depth := field, 0; dict != nil && depth < 32; dict, depth = d.parent(dict), depth+1 {
		obj, found := dict.Find("T")
		if !found {
			continue
		}
		if name, err := d.ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil); err == nil && name != "" {
			parts = append([]string{name}, parts...)
		}
	}
	return strings.Join(parts, ".")
}

// inherited looks a key up on the field and then up the parent chain
func (d *Document) inherited(field types.Dict, key string) (types.Object, bool) {
	for dict, depth := field, 0; dict != nil && depth < 32; dict, depth = d.parent(dict), depth+1 {
		if obj, found := dict.Find(key); found {
			return obj, true
		}
	}
	return nil, false
}

func (d *Document) fieldType(field types.Dict) FieldType {
	obj, found := d.inherited(field, "FT")
	if !found {
		return FieldUnknown
	}
	ft, err := d.ctx.DereferenceName(obj, model.V10, nil)
	if err != nil {
		return FieldUnknown
	}

	switch ft {
	case "Btn":
		if flagsObj, found := d.inherited(field, "Ff"); found {
			if flags, err := d.ctx.DereferenceInteger(flagsObj); err == nil && flags != nil {
				switch {
				case int(*flags)&flagRadio != 0:
					return FieldRadio
				case int(*flags)&flagPushButton != 0:
					return FieldButton
				}
			}
		}
		return FieldCheckbox
	case "Tx":
		return FieldText
	case "Ch":
		return FieldChoice
	case "Sig":
		return FieldSignature
	default:
		return FieldUnknown
	}
}

func (d *Document) rect(annot types.Dict) Rect {
	obj, found := annot.Find("Rect")
	if !found {
		return Rect{}
	}
	arr, err := d.ctx.DereferenceArray(obj)
	if err != nil || len(arr) != 4 {
		return Rect{}
	}
	var c [4]float64
	for i, o := range arr {
		if f, err := d.ctx.DereferenceNumber(o); err == nil {
			c[i] = f
		}
	}
	return Rect{LLX: min(c[0], c[2]), LLY: min(c[1], c[3]), URX: max(c[0], c[2]), URY: max(c[1], c[3])}
}

// onState finds the appearance name that means "checked": the normal
// appearance key other than Off. Templates without appearances use Yes.
func (d *Document) onState(annot types.Dict) string {
	if apObj, found := annot.Find("AP"); found {
		if ap, err := d.ctx.DereferenceDict(apObj); err == nil && ap != nil {
			if nObj, found := ap.Find("N"); found {
				if n, err := d.ctx.DereferenceDict(nObj); err == nil {
					for key := range n {
						if key != "Off" {
							return key
						}
					}
				}
			}
		}
	}
	return "Yes"
}

func (d *Document) name(dict types.Dict, key string) string {
	obj, found := dict.Find(key)
	if !found {
		return ""
	}
	n, err := d.ctx.DereferenceName(obj, model.V10, nil)
	if err != nil {
		return ""
	}
	return string(n)
}
