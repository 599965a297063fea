package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/ragindex/internal/core/domain"
	"github.com/custodia-labs/ragindex/internal/core/ports/driven"
	"github.com/custodia-labs/ragindex/internal/core/ports/driving"
	"github.com/custodia-labs/ragindex/internal/logger"
	"github.com/custodia-labs/ragindex/internal/observability"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentConfig tunes embedding during ingest.
type DocumentConfig struct {
	// BatchSize is the number of chunk texts per EmbedBatch call.
	BatchSize int

	// Concurrency bounds parallel EmbedBatch calls for one document.
	Concurrency int
}

// DocumentService ingests documents into the vector index and keeps
// project document counters in step with the index.
type DocumentService struct {
	index     driven.VectorIndex
	embedder  driven.EmbeddingService
	segmenter driven.Segmenter
	projects  driving.ProjectService

	batchSize   int
	concurrency int

	// mutations is held shared by ingests and deletes from their index write
	// through their counter update, and exclusively by reconciliation.
	mutations sync.RWMutex
	docLocks  keyedMutex
	newID     func() string
	now       func() time.Time
}

// NewDocumentService creates a new document service.
// projects may be nil, in which case only unassigned documents are accepted.
func NewDocumentService(
	index driven.VectorIndex,
	embedder driven.EmbeddingService,
	segmenter driven.Segmenter,
	projects driving.ProjectService,
	cfg DocumentConfig,
) *DocumentService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = domain.DefaultEmbedBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &DocumentService{
		index:       index,
		embedder:    embedder,
		segmenter:   segmenter,
		projects:    projects,
		batchSize:   cfg.BatchSize,
		concurrency: cfg.Concurrency,
		newID:       uuid.NewString,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Ingest segments, embeds and indexes text as a new document. The chunk
// batch is inserted in one step; the project counter is incremented only
// after the insert succeeded, and the chunks are removed again if the
// increment fails.
func (s *DocumentService) Ingest(ctx context.Context, req domain.IngestRequest) (doc *domain.Document, err error) {
	start := time.Now()
	defer func() {
		observability.IngestsTotal.WithLabelValues(observability.Status(err)).Inc()
		observability.ObserveSince(observability.IngestDuration, start)
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, domain.ErrEmptyContent
	}
	if err := req.Metadata.Validate(); err != nil {
		return nil, err
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if req.ProjectID != domain.UnassignedProjectID {
		if err := s.checkProject(ctx, req.ProjectID); err != nil {
			return nil, err
		}
	}

	logger.Section("Ingest")
	pieces := s.segmenter.Split(req.Text)
	if len(pieces) == 0 {
		logger.Error("segmenter %s produced no chunks for %d characters of text", s.segmenter.Name(), len(req.Text))
		return nil, fmt.Errorf("%w: %q produced no chunks", domain.ErrChunking, req.Filename)
	}

	doc = &domain.Document{
		ID:         s.newID(),
		Filename:   req.Filename,
		Format:     req.Format,
		SizeBytes:  req.SizeBytes,
		UploadedBy: req.UploadedBy,
		ProjectID:  req.ProjectID,
		IngestedAt: s.now(),
	}
	if doc.Format == "" {
		doc.Format = "txt"
	}
	if doc.SizeBytes == 0 {
		doc.SizeBytes = int64(len(req.Text))
	}
	logger.Debug("document %s: %d chunks from %q", doc.ID, len(pieces), doc.Filename)

	vectors, err := s.embedAll(ctx, pieces)
	if err != nil {
		return nil, fmt.Errorf("embedding chunks: %w", err)
	}

	doc.ChunkIDs = make([]string, len(pieces))
	metas := make([]domain.Metadata, len(pieces))
	for i := range pieces {
		doc.ChunkIDs[i] = domain.ChunkID(doc.ID, i)
		metas[i] = chunkMetadata(doc, req.Metadata, i, len(pieces))
	}
	records, err := driven.ZipRecords(doc.ChunkIDs, vectors, pieces, metas)
	if err != nil {
		return nil, fmt.Errorf("building chunk batch: %w", err)
	}

	// Cancellation is honoured up to here. Once the insert is issued the
	// call runs to completion so the counter cannot drift from the index.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	wctx := context.WithoutCancel(ctx)

	s.mutations.RLock()
	defer s.mutations.RUnlock()
	if err := s.index.Insert(wctx, records); err != nil {
		return nil, fmt.Errorf("indexing chunks: %w", err)
	}
	observability.ChunksIndexedTotal.Add(float64(len(records)))

	if doc.ProjectID != domain.UnassignedProjectID {
		if err := s.projects.IncrementDocumentCount(wctx, doc.ProjectID); err != nil {
			if derr := s.index.Delete(wctx, doc.ChunkIDs); derr != nil {
				logger.Error("document %s: counter update failed and chunks could not be removed: %v", doc.ID, derr)
			}
			return nil, fmt.Errorf("updating project %d document count: %w", doc.ProjectID, err)
		}
	}

	logger.Info("ingested %q as %s (%d chunks)", doc.Filename, doc.ID, len(records))
	return doc, nil
}

func (s *DocumentService) checkProject(ctx context.Context, projectID int) error {
	if s.projects == nil {
		return fmt.Errorf("project %d: %w", projectID, domain.ErrNotFound)
	}
	p, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return err
	}
	if !p.Active {
		return fmt.Errorf("project %d: %w", projectID, domain.ErrProjectInactive)
	}
	return nil
}

// embedAll embeds texts in batches, up to concurrency batches at a time.
// Each batch writes into its own slots so the output order matches texts.
func (s *DocumentService) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for lo := 0; lo < len(texts); lo += s.batchSize {
		hi := min(lo+s.batchSize, len(texts))
		g.Go(func() error {
			vecs, err := s.embedder.EmbedBatch(gctx, texts[lo:hi])
			if err != nil {
				return err
			}
			if len(vecs) != hi-lo {
				return fmt.Errorf("%w: provider returned %d vectors for %d texts",
					domain.ErrEmbeddingUnavailable, len(vecs), hi-lo)
			}
			copy(out[lo:hi], vecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func chunkMetadata(doc *domain.Document, extra domain.Metadata, i, total int) domain.Metadata {
	meta := extra.Clone()
	if meta == nil {
		meta = make(domain.Metadata, 9)
	}
	meta[domain.MetaDocumentID] = doc.ID
	meta[domain.MetaChunkIndex] = i
	meta[domain.MetaTotalChunks] = total
	meta[domain.MetaProjectID] = doc.ProjectID
	meta[domain.MetaFilename] = doc.Filename
	meta[domain.MetaFormat] = doc.Format
	meta[domain.MetaSize] = doc.SizeBytes
	meta[domain.MetaUploadedBy] = doc.UploadedBy
	meta[domain.MetaIngestedAt] = doc.IngestedAt.Format(time.RFC3339)
	return meta
}

// Get reconstructs a document from its stored chunk metadata.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	hits, err := s.index.Get(ctx, domain.Metadata{domain.MetaDocumentID: documentID})
	if err != nil {
		return nil, fmt.Errorf("reading chunks: %w", err)
	}
	if len(hits) == 0 {
		return nil, fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		a, _ := hits[i].Metadata.Int(domain.MetaChunkIndex)
		b, _ := hits[j].Metadata.Int(domain.MetaChunkIndex)
		return a < b
	})

	first := hits[0].Metadata
	doc := summaryOf(documentID, first)
	out := &domain.Document{
		ID:         documentID,
		Filename:   doc.Filename,
		Format:     doc.Format,
		SizeBytes:  doc.SizeBytes,
		UploadedBy: doc.UploadedBy,
		ProjectID:  doc.ProjectID,
		ChunkIDs:   make([]string, len(hits)),
	}
	if ts, err := time.Parse(time.RFC3339, first.String(domain.MetaIngestedAt)); err == nil {
		out.IngestedAt = ts
	}
	for i, h := range hits {
		out.ChunkIDs[i] = h.ID
	}
	return out, nil
}

// Delete removes every chunk of a document and decrements its project's
// counter once. Concurrent deletes of the same document are serialised,
// so only the one that removed chunks touches the counter.
func (s *DocumentService) Delete(ctx context.Context, documentID string) (deleted bool, err error) {
	defer func() {
		status := observability.Status(err)
		if err == nil && !deleted {
			status = "missing"
		}
		observability.DeletesTotal.WithLabelValues(status).Inc()
	}()

	if strings.TrimSpace(documentID) == "" {
		return false, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}

	unlock := s.docLocks.Lock(documentID)
	defer unlock()
	s.mutations.RLock()
	defer s.mutations.RUnlock()

	filter := domain.Metadata{domain.MetaDocumentID: documentID}
	hits, err := s.index.Get(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("reading chunks: %w", err)
	}
	if len(hits) == 0 {
		return false, nil
	}
	projectID, _ := hits[0].Metadata.Int(domain.MetaProjectID)

	wctx := context.WithoutCancel(ctx)
	removed, err := s.index.DeleteWhere(wctx, filter)
	if err != nil {
		return false, fmt.Errorf("deleting chunks: %w", err)
	}
	if removed == 0 {
		return false, nil
	}
	logger.Info("deleted document %s (%d chunks)", documentID, removed)

	if projectID != domain.UnassignedProjectID && s.projects != nil {
		err := s.projects.DecrementDocumentCount(wctx, projectID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			logger.Warn("document %s referenced project %d which no longer exists", documentID, projectID)
		case err != nil:
			return true, fmt.Errorf("updating project %d document count: %w", projectID, err)
		}
	}
	return true, nil
}

// List groups chunks by document. The first chunk seen for a document
// supplies its summary fields.
func (s *DocumentService) List(ctx context.Context) ([]domain.DocumentSummary, error) {
	hits, err := s.index.Get(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("reading chunks: %w", err)
	}

	byID := make(map[string]*domain.DocumentSummary)
	counted := make(map[string]int)
	order := make([]string, 0)
	for _, h := range hits {
		id := h.Metadata.String(domain.MetaDocumentID)
		if id == "" {
			logger.Warn("chunk %s has no document_id", h.ID)
			continue
		}
		counted[id]++
		if _, seen := byID[id]; seen {
			continue
		}
		summary := summaryOf(id, h.Metadata)
		byID[id] = &summary
		order = append(order, id)
	}

	out := make([]domain.DocumentSummary, 0, len(order))
	for _, id := range order {
		summary := byID[id]
		if summary.Chunks == 0 {
			summary.Chunks = counted[id]
		}
		out = append(out, *summary)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Filename != out[j].Filename {
			return out[i].Filename < out[j].Filename
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func summaryOf(id string, meta domain.Metadata) domain.DocumentSummary {
	size, _ := meta.Int(domain.MetaSize)
	total, _ := meta.Int(domain.MetaTotalChunks)
	project, _ := meta.Int(domain.MetaProjectID)
	return domain.DocumentSummary{
		ID:         id,
		Filename:   meta.String(domain.MetaFilename),
		Format:     meta.String(domain.MetaFormat),
		SizeBytes:  int64(size),
		UploadedBy: meta.String(domain.MetaUploadedBy),
		ProjectID:  project,
		Chunks:     total,
	}
}

// ClearAll removes every chunk from the index. Project counters are not
// touched and go stale; ReconcileProjectCounts repairs them.
func (s *DocumentService) ClearAll(ctx context.Context) error {
	if err := s.index.Clear(ctx); err != nil {
		return fmt.Errorf("clearing index: %w", err)
	}
	logger.Warn("index cleared; project document counts are unchanged until reconciled")
	return nil
}

// ReconcileProjectCounts recomputes every project's document counter from
// the documents present in the index and returns the counts applied.
// Ingests and deletes through this service wait until it finishes; writers
// in other processes sharing the same store are not held off.
func (s *DocumentService) ReconcileProjectCounts(ctx context.Context) (map[int]int, error) {
	if s.projects == nil {
		return nil, fmt.Errorf("project service: %w", domain.ErrNotFound)
	}

	s.mutations.Lock()
	defer s.mutations.Unlock()
	summaries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[int]int)
	for _, d := range summaries {
		if d.ProjectID != domain.UnassignedProjectID {
			counts[d.ProjectID]++
		}
	}
	if err := s.projects.SetDocumentCounts(ctx, counts); err != nil {
		return nil, err
	}
	return counts, nil
}

// Dump returns every stored chunk as parallel arrays.
func (s *DocumentService) Dump(ctx context.Context) (*domain.Dump, error) {
	hits, err := s.index.Get(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("reading chunks: %w", err)
	}
	dump := &domain.Dump{
		IDs:       make([]string, len(hits)),
		Documents: make([]string, len(hits)),
		Metadatas: make([]domain.Metadata, len(hits)),
	}
	for i, h := range hits {
		dump.IDs[i] = h.ID
		dump.Documents[i] = h.Text
		dump.Metadatas[i] = h.Metadata
	}
	return dump, nil
}

// Stats summarises the index contents.
func (s *DocumentService) Stats(ctx context.Context) (*domain.Stats, error) {
	docs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	chunks, err := s.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting chunks: %w", err)
	}
	info := s.index.Info()
	stats := &domain.Stats{
		TotalDocuments: len(docs),
		TotalChunks:    chunks,
		Collection:     info.Collection,
		IndexBackend:   string(info.Backend),
	}
	if s.embedder != nil {
		stats.EmbeddingModel = s.embedder.ModelName()
	}
	return stats, nil
}
