package service

import (
	"github.com/a3tai/assessment-forms/internal/descriptions"
)

// ServerInfo returns server configuration, instruments, workbooks and tools
func (s *Service) ServerInfo(serverName, version string) *ServerInfoResult {
	result := &ServerInfoResult{
		ServerName:      serverName,
		Version:         version,
		WorkDirectory:   s.inputs.Directory(),
		OutputDirectory: s.outputs.Directory(),
		MaxFileSize:     s.cfg.MaxFileSize,
		Flatten:         s.cfg.Flatten,
		Zoom:            s.cfg.Zoom,
		Instruments:     s.ListInstruments(),
		Workbooks:       []FileInfo{},
		AvailableTools:  availableTools(),
		UsageGuidance:   usageGuidance,
	}
	for _, info := range result.Instruments {
		if !info.TemplateAvailable {
			result.MissingTemplates = append(result.MissingTemplates, info.Name)
		}
	}

	if found, err := s.SearchWorkbooks(SearchRequest{}); err == nil {
		result.Workbooks = found.Files
	}
	return result
}

func availableTools() []ToolInfo {
	return []ToolInfo{
		{
			Name:        descriptions.ToolFillWorkbook,
			Description: "Score workbooks and write the filled PDF forms",
			Usage:       "Fill one or more workbooks from the work directory",
			Parameters:  "paths (required, comma separated), archive (optional bool)",
		},
		{
			Name:        descriptions.ToolValidateWorkbook,
			Description: "Check a workbook and preview its scores",
			Usage:       "Run before filling to catch blank or invalid answers",
			Parameters:  "path (required)",
		},
		{
			Name:        descriptions.ToolSearchWorkbooks,
			Description: "Find workbooks in the work directory",
			Usage:       "Discover workbooks to validate or fill",
			Parameters:  "directory (optional), query (optional)",
		},
		{
			Name:        descriptions.ToolListInstruments,
			Description: "List supported instruments and their question keys",
			Usage:       "Check instrument names, slugs and installed templates",
			Parameters:  "none",
		},
		{
			Name:        descriptions.ToolWriteInputTemplate,
			Description: "Write a blank input workbook",
			Usage:       "Start a new assessment",
			Parameters:  "none",
		},
		{
			Name:        descriptions.ToolTemplateFields,
			Description: "List form fields of a blank instrument form",
			Usage:       "Template maintenance",
			Parameters:  "instrument (required, name or slug)",
		},
		{
			Name:        descriptions.ToolServerInfo,
			Description: "Show this overview",
			Usage:       "First call in a session",
			Parameters:  "none",
		},
	}
}

const usageGuidance = `Workflow:
1. forms_write_input_template to get a blank workbook, or use an existing one.
2. Fill the GENERAL rows and the answer column of each instrument administered.
3. forms_validate_workbook to list blank or invalid answers and preview totals.
4. forms_fill_workbook to write one combined PDF per workbook to the output directory.

Columns whose answer column is entirely blank are ignored. Dates are read day first (DD/MM/YYYY) or as ISO dates.`
