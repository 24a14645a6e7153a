package extraction

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// FileKind selects the extractor used for an uploaded file.
type FileKind string

const (
	KindExcel FileKind = "excel"
	KindCSV   FileKind = "csv"
	KindPDF   FileKind = "pdf"
)

var (
	ErrUnsupportedFileType = errors.New("unsupported_file_type")
	ErrFileFormat          = errors.New("file_format_error")
)

// KindFromFilename maps an extension to its extractor. Matching is case-insensitive.
func KindFromFilename(name string) (FileKind, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xls":
		return KindExcel, nil
	case ".csv":
		return KindCSV, nil
	case ".pdf":
		return KindPDF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, filepath.Ext(name))
	}
}

func isLegacyExcel(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".xls")
}

func fileFormatError(name string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrFileFormat, filepath.Base(name), err)
}
