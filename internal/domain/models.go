package domain

// PageImage is one rasterized page of an input document. For a plain image
// upload there is exactly one; for a PDF there is one per page, in page order.
type PageImage struct {
	PageNo      int // 1-based
	Bytes       []byte
	ContentType string
}

// InputDocument is the ordered page sequence produced by input acquisition.
// It is owned by a single request and discarded when processing completes.
type InputDocument struct {
	Name  string
	Pages []PageImage
}

// ProcessResult is the outcome of one document submission.
type ProcessResult struct {
	DocumentName string
	Format       OutputFormat
	Content      string
	PreviewHTML  string
	PageCount    int
	Log          string
	ModelUsed    string
	ArtifactKey  string
}

// TableExportResult is the outcome of a table-only export.
type TableExportResult struct {
	DocumentName string
	Format       TableFormat
	Data         []byte
	TableCount   int
	ArtifactKey  string
}
