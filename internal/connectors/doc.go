// Package connectors locates source documents for ingestion.
//
// Connectors only find and address files; decoding and indexing happen in
// the import service.
package connectors
