package service

import (
	"go.uber.org/zap"

	"github.com/a3tai/assessment-forms/internal/config"
	"github.com/a3tai/assessment-forms/internal/instrument"
	"github.com/a3tai/assessment-forms/internal/pdf/flatten"
	"github.com/a3tai/assessment-forms/internal/pipeline"
	"github.com/a3tai/assessment-forms/internal/templates"
)

// Build wires the registry, template directory, pipeline and MuPDF
// flattening described by cfg into a Service
func Build(cfg *config.Config, logger *zap.Logger) (*Service, error) {
	registry := instrument.Default()
	provider := templates.NewDirProvider(cfg.FormsDirectory)

	assembler := flatten.NewAssembler(flatten.FitzRasterizer{},
		flatten.WithZoom(cfg.Zoom),
		flatten.WithFlatten(cfg.Flatten),
		flatten.WithLogger(logger),
	)
	p := pipeline.New(pipeline.Config{
		Workers:      cfg.Workers,
		PartialBatch: cfg.PartialBatch,
	}, registry, provider, assembler, logger)

	return NewService(cfg, registry, provider, p, logger)
}
