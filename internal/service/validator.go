package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WorkbookExt is the only accepted workbook extension
const WorkbookExt = ".xlsx"

// Validator handles workbook file checks before any parsing
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new workbook validator with the specified size limit
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{maxFileSize: maxFileSize}
}

// IsWorkbookName reports whether a file name has the workbook extension
func IsWorkbookName(name string) bool {
	return strings.EqualFold(filepath.Ext(name), WorkbookExt)
}

// ValidateFile checks that a path names a readable, non-empty workbook
func (v *Validator) ValidateFile(filePath string) error {
	if filePath == "" {
		return fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", filePath)
	}
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}
	return v.ValidateFileInfo(filePath, fileInfo)
}

// ValidateFileInfo performs the checks that need no file contents
func (v *Validator) ValidateFileInfo(filePath string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}
	if !IsWorkbookName(filePath) {
		return fmt.Errorf("file is not an %s workbook: %s", WorkbookExt, filePath)
	}
	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty: %s", filePath)
	}
	if fileInfo.Size() > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)", fileInfo.Size(), v.maxFileSize)
	}
	return nil
}
