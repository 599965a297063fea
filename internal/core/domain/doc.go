// Package domain defines the core entities of the ingestion and retrieval engine.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A logical unit of ingested text
//   - Chunk: A searchable segment within a document
//   - Project: A named group of documents with a document counter
//   - Metadata: Flat scalar attributes stored with every chunk
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
