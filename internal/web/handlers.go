package web

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	ferrors "github.com/a3tai/assessment-forms/internal/errors"
	"github.com/a3tai/assessment-forms/internal/pipeline"
	"github.com/a3tai/assessment-forms/internal/service"
)

// Content types
const (
	MIMEZip  = "application/zip"
	MIMEPDF  = "application/pdf"
	MIMEXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// UploadField is the multipart field carrying workbooks
const UploadField = "files[]"

// ErrorResponse maps dataset identifiers to their error messages
type ErrorResponse struct {
	Errors map[string][]string `json:"errors"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"service": s.cfg.ServerName,
		"version": s.cfg.Version,
	})
}

func (s *Server) handleUpload(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "expected a multipart form")
	}
	headers := form.File[UploadField]
	if len(headers) == 0 {
		headers = form.File["files"]
	}

	uploads, closers, err := openUploads(headers)
	defer func() {
		for _, f := range closers {
			f.Close()
		}
	}()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	batch, err := s.service.ProcessUploads(c.Request().Context(), uploads)
	if err != nil {
		if ferrors.KindOf(err) == ferrors.KindInput {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Errors: map[string][]string{"upload": {err.Error()}}})
		}
		return err
	}

	artifacts := batch.Artifacts()
	if len(artifacts) == 0 {
		return c.JSON(http.StatusBadRequest, errorResponse(batch))
	}

	var buf bytes.Buffer
	if err := pipeline.WriteArchive(&buf, artifacts); err != nil {
		return err
	}
	if batch.Failed() {
		c.Response().Header().Set("X-Failed-Datasets", fmt.Sprint(len(batch.Errors())))
	}
	s.logger.Info("upload processed",
		zap.String("batch_id", batch.ID.String()),
		zap.Int("documents", len(artifacts)),
	)
	return attachment(c, service.ArchiveName, MIMEZip, buf.Bytes())
}

func openUploads(headers []*multipart.FileHeader) ([]service.Upload, []io.Closer, error) {
	uploads := make([]service.Upload, 0, len(headers))
	closers := make([]io.Closer, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, closers, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
		}
		closers = append(closers, f)
		uploads = append(uploads, service.Upload{Name: fh.Filename, Data: f})
	}
	return uploads, closers, nil
}

func errorResponse(batch *pipeline.BatchResult) ErrorResponse {
	resp := ErrorResponse{Errors: make(map[string][]string)}
	for _, c := range batch.Errors() {
		resp.Errors[c.Dataset] = append(resp.Errors[c.Dataset], c.Messages()...)
	}
	return resp
}

func (s *Server) handleDownloadTemplate(c echo.Context) error {
	var buf bytes.Buffer
	if err := s.service.WriteInputTemplate(&buf); err != nil {
		return err
	}
	return attachment(c, service.InputTemplateName, MIMEXLSX, buf.Bytes())
}

func (s *Server) handleDownloadForm(c echo.Context) error {
	name, data, err := s.service.BlankForm(c.Param("name"))
	if err != nil {
		s.logger.Debug("blank form unavailable", zap.String("name", c.Param("name")), zap.Error(err))
		return echo.NewHTTPError(http.StatusNotFound, "form not found")
	}
	return attachment(c, name, MIMEPDF, data)
}

func attachment(c echo.Context, name, contentType string, data []byte) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, contentType, data)
}
