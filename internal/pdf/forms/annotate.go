package forms

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Annotation colours
var (
	highlightColor = types.Array{types.Float(1), types.Float(1), types.Float(0)}
	strikeColor    = types.Array{types.Float(0), types.Float(0), types.Float(0)}
)

// printFlag makes annotations show up when printed or rasterized
const printFlag = 4

func floats(vs ...float64) types.Array {
	arr := make(types.Array, len(vs))
	for i, v := range vs {
		arr[i] = types.Float(v)
	}
	return arr
}

// AddHighlight draws a highlight annotation over a user-space rectangle
func (d *Document) AddHighlight(page int, r Rect) error {
	if r.Empty() {
		return fmt.Errorf("empty highlight rectangle %+v on page %d", r, page)
	}
	annot := types.Dict{
		"Type":    types.Name("Annot"),
		"Subtype": types.Name("Highlight"),
		"Rect":    floats(r.LLX, r.LLY, r.URX, r.URY),
		// upper-left, upper-right, lower-left, lower-right
		"QuadPoints": floats(r.LLX, r.URY, r.URX, r.URY, r.LLX, r.LLY, r.URX, r.LLY),
		"C":          highlightColor,
		"CA":         types.Float(1),
		"F":          types.Integer(printFlag),
	}
	return d.addAnnotation(page, annot)
}

// AddLine draws a straight line annotation between two user-space points
func (d *Document) AddLine(page int, x1, y1, x2, y2, width float64) error {
	pad := width
	annot := types.Dict{
		"Type":    types.Name("Annot"),
		"Subtype": types.Name("Line"),
		"Rect":    floats(min(x1, x2)-pad, min(y1, y2)-pad, max(x1, x2)+pad, max(y1, y2)+pad),
		"L":       floats(x1, y1, x2, y2),
		"BS": types.Dict{
			"Type": types.Name("Border"),
			"W":    types.Float(width),
			"S":    types.Name("S"),
		},
		"C": strikeColor,
		"F": types.Integer(printFlag),
	}
	return d.addAnnotation(page, annot)
}

func (d *Document) addAnnotation(page int, annot types.Dict) error {
	pageDict, pageRef, _, err := d.pageDict(page)
	if err != nil {
		return err
	}

	if pageRef != nil {
		annot["P"] = *pageRef
	}
	ref, err := d.ctx.IndRefForNewObject(annot)
	if err != nil {
		return fmt.Errorf("failed to add annotation on page %d: %w", page, err)
	}

	var annots types.Array
	if obj, found := pageDict.Find("Annots"); found {
		existing, err := d.ctx.DereferenceArray(obj)
		if err != nil {
			return fmt.Errorf("failed to dereference annotations on page %d: %w", page, err)
		}
		annots = append(annots, existing...)
	}
	pageDict["Annots"] = append(annots, *ref)
	return nil
}

// Annotations counts annotations of a subtype on a page
func (d *Document) Annotations(page int, subtype string) (int, error) {
	pageDict, _, _, err := d.pageDict(page)
	if err != nil {
		return 0, err
	}
	obj, found := pageDict.Find("Annots")
	if !found {
		return 0, nil
	}
	annots, err := d.ctx.DereferenceArray(obj)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, o := range annots {
		if annot, err := d.ctx.DereferenceDict(o); err == nil && annot != nil && d.name(annot, "Subtype") == subtype {
			n++
		}
	}
	return n, nil
}
