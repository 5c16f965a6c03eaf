// Package render turns a scored instrument into a filled, annotated form
package render

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/a3tai/assessment-forms/internal/instrument"
	"github.com/a3tai/assessment-forms/internal/logging"
	"github.com/a3tai/assessment-forms/internal/pdf/forms"
	"github.com/a3tai/assessment-forms/internal/pdf/textsearch"
	"github.com/a3tai/assessment-forms/internal/record"
)

// Renderer fills form templates
type Renderer struct {
	logger  *zap.Logger
	indexes *textsearch.Cache
}

// NewRenderer creates a renderer; a nil logger discards output
func NewRenderer(logger *zap.Logger) *Renderer {
	return &Renderer{
		logger:  logging.OrNop(logger),
		indexes: textsearch.NewCache(textsearch.DefaultCacheCapacity),
	}
}

// Render fills template with the result's fields, ticks its checkboxes and
// draws its highlights and strike-throughs. The template bytes are not
// modified.
func (r *Renderer) Render(template []byte, general record.General, res *instrument.Result) ([]byte, error) {
	doc, err := forms.Open(template)
	if err != nil {
		return nil, err
	}

	values := fieldValues(general, res)
	checks := make(map[string]bool, len(res.Checks))
	for _, name := range res.Checks {
		checks[name] = true
	}

	filled, ticked := 0, 0
	for _, w := range doc.Widgets() {
		key := record.NormalizeKeyString(w.Name)
		switch w.Type {
		case forms.FieldCheckbox, forms.FieldRadio:
			if !checks[w.Name] && !checks[key] {
				continue
			}
			if err := doc.SetChecked(w); err != nil {
				return nil, err
			}
			ticked++
		case forms.FieldText, forms.FieldChoice:
			v, ok := values[key]
			if !ok {
				continue
			}
			if err := doc.SetText(w, v); err != nil {
				return nil, err
			}
			filled++
		}
	}

	for _, h := range res.Highlights {
		page, rect, err := r.locate(doc, template, h)
		if err != nil {
			return nil, err
		}
		if err := doc.AddHighlight(page, rect); err != nil {
			return nil, err
		}
	}

	for _, s := range res.Strikes {
		box, err := doc.PageBox(s.Page)
		if err != nil {
			return nil, err
		}
		x1, y1 := box.ToUser(s.From.X, s.From.Y)
		x2, y2 := box.ToUser(s.To.X, s.To.Y)
		if err := doc.AddLine(s.Page, x1, y1, x2, y2, s.Width); err != nil {
			return nil, err
		}
	}

	if err := doc.NeedAppearances(); err != nil {
		return nil, err
	}

	r.logger.Debug("rendered form",
		zap.String("instrument", res.Instrument),
		zap.Int("filled", filled),
		zap.Int("ticked", ticked),
		zap.Int("highlights", len(res.Highlights)),
		zap.Int("strikes", len(res.Strikes)),
	)
	return doc.Bytes()
}

// fieldValues merges general and instrument fields by normalized name; the
// instrument wins on collisions.
func fieldValues(general record.General, res *instrument.Result) map[string]string {
	values := make(map[string]string)
	if res.IncludeGeneral {
		for _, k := range general.Keys() {
			values[record.NormalizeKeyString(k)] = general.Get(k)
		}
	}
	if res.Fields != nil {
		for _, k := range res.Fields.Keys() {
			v, _ := res.Fields.Get(k)
			values[record.NormalizeKeyString(k)] = v
		}
	}
	return values
}

// locate resolves a highlight to a page and user-space rectangle. Text
// matches are searched in the untouched template, whose index is cached
// across renders.
func (r *Renderer) locate(doc *forms.Document, template []byte, h instrument.Highlight) (int, forms.Rect, error) {
	switch {
	case h.Rect != nil:
		box, err := doc.PageBox(h.Page)
		if err != nil {
			return 0, forms.Rect{}, err
		}
		y0, y1 := h.Rect.Y0, h.Rect.Y1
		if h.Rect.MirrorY {
			y0, y1 = box.Width()-y0, box.Width()-y1
		}
		return h.Page, box.RectToUser(h.Rect.X0, y0, h.Rect.X1, y1), nil

	case h.Text != nil:
		index, err := r.indexes.Index(template)
		if err != nil {
			return 0, forms.Rect{}, err
		}
		m, ok := index.Find(h.Text.Needle, h.Text.CaseSensitive, h.Text.Occurrence)
		if !ok {
			return 0, forms.Rect{}, fmt.Errorf("text %q (occurrence %d) not found on template", h.Text.Needle, h.Text.Occurrence)
		}
		return m.Page, m.Rect, nil
	}
	return 0, forms.Rect{}, fmt.Errorf("highlight has neither a rectangle nor a text match")
}
