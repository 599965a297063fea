package driven

// Segmenter splits document text into ordered chunk texts.
// Implementations are pure: the same input always yields the same chunks.
type Segmenter interface {
	// Name returns the segmenter name for logging.
	Name() string

	// Split returns trimmed, non-empty chunk texts. Blank text yields none.
	Split(text string) []string
}
