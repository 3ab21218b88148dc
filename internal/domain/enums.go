package domain

// FileType represents the allowed input file types.
type FileType string

const (
	FileTypePDF FileType = "pdf"
	FileTypeJPG FileType = "jpg"
	FileTypePNG FileType = "png"
)

// AllowedFileTypes maps FileType to its MIME content type.
var AllowedFileTypes = map[FileType]string{
	FileTypePDF: "application/pdf",
	FileTypeJPG: "image/jpeg",
	FileTypePNG: "image/png",
}

// AllowedContentTypes maps MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
	"image/jpeg":      FileTypeJPG,
	"image/png":       FileTypePNG,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
}

// OutputFormat is the requested rendering of the aggregated tag document.
type OutputFormat string

const (
	FormatMarkdown OutputFormat = "markdown"
	FormatHTML     OutputFormat = "html"
	FormatJSON     OutputFormat = "json"
)

// TableFormat is the requested rendering for table-only exports.
type TableFormat string

const (
	TableFormatCSV  TableFormat = "csv"
	TableFormatXLSX TableFormat = "xlsx"
)

// ParseOutputFormat validates a format string from the API.
func ParseOutputFormat(s string) (OutputFormat, bool) {
	switch OutputFormat(s) {
	case FormatMarkdown, FormatHTML, FormatJSON:
		return OutputFormat(s), true
	}
	return "", false
}

// ParseTableFormat validates a table export format string from the API.
func ParseTableFormat(s string) (TableFormat, bool) {
	switch TableFormat(s) {
	case TableFormatCSV, TableFormatXLSX:
		return TableFormat(s), true
	}
	return "", false
}

// Extension returns the artifact file extension for a format.
func (f OutputFormat) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatHTML:
		return "html"
	case FormatJSON:
		return "json"
	}
	return "txt"
}

// ContentType returns the MIME type served for a format's artifact.
func (f OutputFormat) ContentType() string {
	switch f {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatJSON:
		return "application/json"
	}
	return "text/plain; charset=utf-8"
}
