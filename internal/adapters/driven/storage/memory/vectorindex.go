package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/ragindex/internal/core/domain"
	"github.com/custodia-labs/ragindex/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is an in-memory implementation of driven.VectorIndex.
// Queries are exact: every candidate is scored with cosine distance.
type VectorIndex struct {
	mu         sync.RWMutex
	collection string
	fixedDim   int
	dim        int
	order      []string
	records    map[string]entry
}

type entry struct {
	vector []float32
	norm   float64
	text   string
	meta   domain.Metadata
}

// NewVectorIndex creates an empty index. A dimensions of zero makes the
// index adopt the length of the first inserted vector.
func NewVectorIndex(collection string, dimensions int) *VectorIndex {
	if collection == "" {
		collection = domain.DefaultCollection
	}
	return &VectorIndex{
		collection: collection,
		fixedDim:   dimensions,
		dim:        dimensions,
		records:    make(map[string]entry),
	}
}

// Insert validates the whole batch, then adds every record under one lock.
func (x *VectorIndex) Insert(_ context.Context, records []driven.VectorRecord) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	dim, err := x.validateLocked(records)
	if err != nil {
		return err
	}
	x.applyLocked(dim, records)
	return nil
}

// Validate checks a batch against the current index state without writing.
func (x *VectorIndex) Validate(records []driven.VectorRecord) error {
	x.mu.RLock()
	defer x.mu.RUnlock()
	_, err := x.validateLocked(records)
	return err
}

// Load replaces the index contents with records, as read back from disk.
// The records must already be valid.
func (x *VectorIndex) Load(records []driven.VectorRecord) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.resetLocked()
	if len(records) > 0 {
		x.applyLocked(len(records[0].Vector), records)
	}
}

func (x *VectorIndex) validateLocked(records []driven.VectorRecord) (int, error) {
	dim := x.dim
	seen := make(map[string]struct{}, len(records))
	for i, r := range records {
		if r.ID == "" {
			return 0, domain.IndexError(fmt.Errorf("%w: record %d has an empty id", domain.ErrInvalidInput, i))
		}
		if _, dup := seen[r.ID]; dup {
			return 0, domain.IndexError(fmt.Errorf("%w: duplicate id %q in batch", domain.ErrInvalidInput, r.ID))
		}
		if _, exists := x.records[r.ID]; exists {
			return 0, domain.IndexError(fmt.Errorf("%w: id %q already indexed", domain.ErrInvalidInput, r.ID))
		}
		seen[r.ID] = struct{}{}

		if len(r.Vector) == 0 {
			return 0, domain.IndexError(fmt.Errorf("%w: record %q has an empty vector", domain.ErrInvalidInput, r.ID))
		}
		if dim == 0 {
			dim = len(r.Vector)
		}
		if len(r.Vector) != dim {
			return 0, domain.IndexError(fmt.Errorf("%w: record %q has %d dimensions, index has %d",
				domain.ErrDimensionMismatch, r.ID, len(r.Vector), dim))
		}
		if err := r.Metadata.Validate(); err != nil {
			return 0, domain.IndexError(err)
		}
	}
	return dim, nil
}

func (x *VectorIndex) applyLocked(dim int, records []driven.VectorRecord) {
	x.dim = dim
	for _, r := range records {
		vec := make([]float32, len(r.Vector))
		copy(vec, r.Vector)
		x.records[r.ID] = entry{
			vector: vec,
			norm:   norm(vec),
			text:   r.Text,
			meta:   r.Metadata.Clone(),
		}
		x.order = append(x.order, r.ID)
	}
}

// Query scores every matching record and returns the k nearest.
func (x *VectorIndex) Query(_ context.Context, vector []float32, k int, filter domain.Metadata) ([]driven.VectorHit, error) {
	if k <= 0 {
		return []driven.VectorHit{}, nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.dim != 0 && len(vector) != x.dim {
		return nil, domain.IndexError(fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(vector), x.dim))
	}

	qnorm := norm(vector)
	hits := make([]driven.VectorHit, 0, len(x.order))
	for _, id := range x.order {
		e := x.records[id]
		if !e.meta.Matches(filter) {
			continue
		}
		hits = append(hits, driven.VectorHit{
			ID:       id,
			Text:     e.text,
			Metadata: e.meta.Clone(),
			Distance: cosineDistance(vector, qnorm, e.vector, e.norm),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ID < hits[j].ID
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Get returns matching records in insertion order.
func (x *VectorIndex) Get(_ context.Context, filter domain.Metadata) ([]driven.VectorHit, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	hits := make([]driven.VectorHit, 0)
	for _, id := range x.order {
		e := x.records[id]
		if !e.meta.Matches(filter) {
			continue
		}
		hits = append(hits, driven.VectorHit{ID: id, Text: e.text, Metadata: e.meta.Clone()})
	}
	return hits, nil
}

// Delete removes records by ID.
func (x *VectorIndex) Delete(_ context.Context, ids []string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	remove := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := x.records[id]; ok {
			remove[id] = struct{}{}
		}
	}
	x.removeLocked(remove)
	return nil
}

// DeleteWhere removes all records matching filter in one step.
// An empty filter is rejected; Clear empties the index.
func (x *VectorIndex) DeleteWhere(_ context.Context, filter domain.Metadata) (int, error) {
	if len(filter) == 0 {
		return 0, fmt.Errorf("%w: delete filter is empty", domain.ErrInvalidInput)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	remove := make(map[string]struct{})
	for id, e := range x.records {
		if e.meta.Matches(filter) {
			remove[id] = struct{}{}
		}
	}
	x.removeLocked(remove)
	return len(remove), nil
}

// MatchingIDs returns the IDs of records matching filter.
func (x *VectorIndex) MatchingIDs(filter domain.Metadata) []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var ids []string
	for _, id := range x.order {
		if x.records[id].meta.Matches(filter) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (x *VectorIndex) removeLocked(remove map[string]struct{}) {
	if len(remove) == 0 {
		return
	}
	kept := x.order[:0]
	for _, id := range x.order {
		if _, gone := remove[id]; gone {
			delete(x.records, id)
			continue
		}
		kept = append(kept, id)
	}
	x.order = kept
}

// Count returns the number of stored records.
func (x *VectorIndex) Count(_ context.Context) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.records), nil
}

// Clear removes every record.
func (x *VectorIndex) Clear(_ context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.resetLocked()
	return nil
}

func (x *VectorIndex) resetLocked() {
	x.records = make(map[string]entry)
	x.order = nil
	x.dim = x.fixedDim
}

// Info describes the index.
func (x *VectorIndex) Info() driven.IndexInfo {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return driven.IndexInfo{
		Backend:    domain.IndexBackendMemory,
		Collection: x.collection,
		Dimensions: x.dim,
	}
}

// Close releases resources.
func (x *VectorIndex) Close() error {
	return nil
}

// CosineDistance returns 1 - cos(a, b). A zero vector is treated as
// orthogonal to everything.
func CosineDistance(a, b []float32) float64 {
	return cosineDistance(a, norm(a), b, norm(b))
}

func cosineDistance(a []float32, anorm float64, b []float32, bnorm float64) float64 {
	if anorm == 0 || bnorm == 0 {
		return 1
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	cos := dot / (anorm * bnorm)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return 1 - cos
}

func norm(v []float32) float64 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	return math.Sqrt(sum)
}
