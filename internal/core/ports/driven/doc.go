// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - VectorIndex: Chunk vectors, text and metadata (memory, SQLite, Qdrant)
//   - EmbeddingService: Text to vector (hashing, Ollama, OpenAI)
//   - ProjectStore: Project registry snapshots (JSON file, memory)
//   - Segmenter: Text to ordered chunks
//   - Decoder, DecoderRegistry: File bytes to plain text (plaintext, markdown, HTML, DOCX, PDF)
//   - ConfigStore: Engine configuration (TOML)
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
