package domain

import (
	"strconv"
	"time"
)

// UnassignedProjectID marks a document that belongs to no project.
// It never maps to a Project record.
const UnassignedProjectID = 0

// Metadata keys written on every chunk. They are part of the persisted
// index format and must not change.
const (
	MetaDocumentID  = "document_id"
	MetaChunkIndex  = "chunk_index"
	MetaTotalChunks = "total_chunks"
	MetaProjectID   = "project_id"
	MetaFilename    = "filename"
	MetaFormat      = "format"
	MetaSize        = "size"
	MetaUploadedBy  = "uploaded_by"
	MetaIngestedAt  = "ingested_at"
)

// Document is a logical unit of ingested text. Its chunk set is fixed
// once written; re-ingesting the same file creates a new document.
type Document struct {
	// ID is a random UUID assigned at ingest.
	ID string `json:"id"`

	// Filename is the caller-supplied name of the source file.
	Filename string `json:"filename"`

	// Format is the source format (txt, md, pdf, ...).
	Format string `json:"format"`

	// SizeBytes is the size of the original upload.
	SizeBytes int64 `json:"size_bytes"`

	// UploadedBy identifies the caller that ingested the document.
	UploadedBy string `json:"uploaded_by"`

	// ProjectID is the owning project, or UnassignedProjectID.
	ProjectID int `json:"project_id"`

	// ChunkIDs lists the document's chunks in index order.
	ChunkIDs []string `json:"chunk_ids"`

	// IngestedAt is when the chunks were written.
	IngestedAt time.Time `json:"ingested_at"`
}

// Chunk is a contiguous text segment of a document and the unit of
// retrieval. A chunk is owned by exactly one document.
type Chunk struct {
	// ID is derived from the document ID and position, see ChunkID.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Content is the trimmed segment text.
	Content string

	// Index is the 0-based position within the document.
	Index int

	// Total is the number of chunks in the document.
	Total int

	// ProjectID is copied from the document.
	ProjectID int

	// Metadata holds the flattened chunk metadata as stored in the index.
	Metadata Metadata
}

// ChunkID returns the deterministic identifier of the i-th chunk of a document.
func ChunkID(documentID string, i int) string {
	return documentID + "_chunk_" + strconv.Itoa(i)
}

// DocumentSummary is the per-document view produced by grouping chunk
// metadata. Fields come from the first chunk encountered.
type DocumentSummary struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	Format     string `json:"format"`
	SizeBytes  int64  `json:"size_bytes"`
	UploadedBy string `json:"uploaded_by"`
	ProjectID  int    `json:"project_id"`
	Chunks     int    `json:"chunks"`
}

// IngestRequest carries plain extracted text and its provenance.
type IngestRequest struct {
	// Text is the extracted document text. Must contain non-whitespace.
	Text string

	// Filename is the display name of the source file.
	Filename string

	// Format is the source format; defaults to "txt".
	Format string

	// SizeBytes is the original file size. Defaults to len(Text).
	SizeBytes int64

	// UploadedBy identifies the caller.
	UploadedBy string

	// ProjectID assigns the document to a project. Zero means none.
	ProjectID int

	// Metadata is extra caller metadata copied onto every chunk.
	// Values must be strings, numbers or booleans.
	Metadata Metadata
}
