package forms

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Document is a form template loaded for editing
type Document struct {
	ctx     *model.Context
	widgets []*Widget
}

// Configuration returns the pdfcpu configuration used for templates
func Configuration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Open parses a template and discovers its widgets
func Open(data []byte) (*Document, error) {
	ctx, err := api.ReadContext(bytes.NewReader(data), Configuration())
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}

	d := &Document{ctx: ctx}
	if err := d.discoverWidgets(); err != nil {
		return nil, err
	}
	return d, nil
}

// PageCount returns the number of pages
func (d *Document) PageCount() int { return d.ctx.PageCount }

// Widgets returns every widget in page order
func (d *Document) Widgets() []*Widget {
	out := make([]*Widget, len(d.widgets))
	copy(out, d.widgets)
	return out
}

// PageBox returns the geometry of a zero-based page
func (d *Document) PageBox(page int) (Box, error) {
	pageDict, _, inherited, err := d.pageDict(page)
	if err != nil {
		return Box{}, err
	}

	box := Box{LLX: 0, LLY: 0, URX: 612, URY: 792}
	if inherited != nil && inherited.MediaBox != nil {
		mb := inherited.MediaBox
		box = Box{LLX: mb.LL.X, LLY: mb.LL.Y, URX: mb.UR.X, URY: mb.UR.Y}
	}
	if inherited != nil {
		box.Rotate = inherited.Rotate
	}
	if obj, ok := pageDict.Find("Rotate"); ok {
		if r, err := d.ctx.DereferenceInteger(obj); err == nil && r != nil {
			box.Rotate = int(*r)
		}
	}
	box.Rotate = normalizeRotation(box.Rotate)
	return box, nil
}

func (d *Document) pageDict(page int) (types.Dict, *types.IndirectRef, *model.InheritedPageAttrs, error) {
	if page < 0 || page >= d.ctx.PageCount {
		return nil, nil, nil, fmt.Errorf("page %d out of range (document has %d pages)", page, d.ctx.PageCount)
	}
	pageDict, ref, inherited, err := d.ctx.PageDict(page+1, false)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load page %d: %w", page, err)
	}
	if pageDict == nil {
		return nil, nil, nil, fmt.Errorf("page %d has no dictionary", page)
	}
	return pageDict, ref, inherited, nil
}

// Bytes serializes the document with every change applied
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := api.WriteContext(d.ctx, &buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// acroForm returns the interactive form dictionary, if any
func (d *Document) acroForm() (types.Dict, error) {
	root, err := d.ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}
	obj, found := root.Find("AcroForm")
	if !found {
		return nil, nil
	}
	return d.ctx.DereferenceDict(obj)
}

// NeedAppearances asks viewers to regenerate field appearances from values
func (d *Document) NeedAppearances() error {
	form, err := d.acroForm()
	if err != nil {
		return err
	}
	if form == nil {
		return nil
	}
	form["NeedAppearances"] = types.Boolean(true)
	return nil
}
