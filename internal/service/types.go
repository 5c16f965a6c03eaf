package service

import (
	"io"

	ferrors "github.com/a3tai/assessment-forms/internal/errors"
	"github.com/a3tai/assessment-forms/internal/pdf/forms"
)

// FileInfo represents basic information about a workbook file
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// Upload is a workbook received over a transport
type Upload struct {
	Name string
	Data io.Reader
}

// Request types

// FillRequest names workbooks to score and fill
type FillRequest struct {
	Paths []string `json:"paths"`
	// Archive packs the documents into one zip instead of separate PDFs
	Archive bool `json:"archive"`
}

// ValidateRequest names a workbook to check without rendering
type ValidateRequest struct {
	Path string `json:"path"`
}

// SearchRequest looks for workbooks in a directory
type SearchRequest struct {
	Directory string `json:"directory"`
	Query     string `json:"query,omitempty"`
}

// Result types

// FillResult lists the documents written and the errors that held others
// back
type FillResult struct {
	BatchID string                `json:"batch_id"`
	Outputs []string              `json:"outputs"`
	Errors  []*ferrors.Collection `json:"errors,omitempty"`
}

// InstrumentScore is one instrument's computed fields
type InstrumentScore struct {
	Instrument string             `json:"instrument"`
	Fields     map[string]string  `json:"fields"`
	Totals     map[string]float64 `json:"totals"`
}

// ValidateResult reports whether a workbook would render and what it scores
type ValidateResult struct {
	Path        string              `json:"path"`
	Valid       bool                `json:"valid"`
	Patient     string              `json:"patient,omitempty"`
	Instruments []string            `json:"instruments,omitempty"`
	Scores      []InstrumentScore   `json:"scores,omitempty"`
	Errors      *ferrors.Collection `json:"errors,omitempty"`
}

// SearchResult lists workbooks found in a directory
type SearchResult struct {
	Files       []FileInfo `json:"files"`
	TotalCount  int        `json:"total_count"`
	Directory   string     `json:"directory"`
	SearchQuery string     `json:"search_query,omitempty"`
}

// InstrumentInfo describes a supported instrument
type InstrumentInfo struct {
	Name              string   `json:"name"`
	Slug              string   `json:"slug,omitempty"`
	Keys              []string `json:"keys"`
	TemplateAvailable bool     `json:"template_available"`
}

// TemplateFieldsResult lists the widgets of an instrument's blank form
type TemplateFieldsResult struct {
	Instrument string          `json:"instrument"`
	Pages      int             `json:"pages"`
	Fields     []*forms.Widget `json:"fields"`
}

// ToolInfo represents information about an available tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Parameters  string `json:"parameters"`
}

// ServerInfoResult summarizes the server, its instruments and its tools
type ServerInfoResult struct {
	ServerName       string           `json:"server_name"`
	Version          string           `json:"version"`
	WorkDirectory    string           `json:"work_directory"`
	OutputDirectory  string           `json:"output_directory"`
	MaxFileSize      int64            `json:"max_file_size"`
	Flatten          bool             `json:"flatten"`
	Zoom             float64          `json:"zoom"`
	Instruments      []InstrumentInfo `json:"instruments"`
	MissingTemplates []string         `json:"missing_templates,omitempty"`
	Workbooks        []FileInfo       `json:"workbooks"`
	AvailableTools   []ToolInfo       `json:"available_tools"`
	UsageGuidance    string           `json:"usage_guidance"`
}
