package qdrant

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	pb "github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/custodia-labs/ragindex/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragindex/internal/core/domain"
	"github.com/custodia-labs/ragindex/internal/core/ports/driven"
)

// fakeQdrant is an in-process stand-in for one Qdrant collection.
type fakeQdrant struct {
	mu      sync.Mutex
	exists  bool
	size    uint64
	points  map[string]*pb.PointStruct
	apiKeys []string
	creates int
}

func newFakeQdrant() *fakeQdrant {
	return &fakeQdrant{points: make(map[string]*pb.PointStruct)}
}

func (f *fakeQdrant) recordKey(ctx context.Context) {
	md, _ := metadata.FromOutgoingContext(ctx)
	f.apiKeys = append(f.apiKeys, md.Get("api-key")...)
}

func (f *fakeQdrant) notFound() error {
	return status.Error(codes.NotFound, "collection not found")
}

type fakeCollections struct {
	pb.CollectionsClient
	*fakeQdrant
}

type fakePoints struct {
	pb.PointsClient
	*fakeQdrant
}

func (f *fakeCollections) Get(ctx context.Context, _ *pb.GetCollectionInfoRequest, _ ...grpc.CallOption) (*pb.GetCollectionInfoResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recordKey(ctx)
	if !f.exists {
		return nil, f.notFound()
	}
	return &pb.GetCollectionInfoResponse{Result: &pb.CollectionInfo{Config: &pb.CollectionConfig{
		Params: &pb.CollectionParams{VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{Params: &pb.VectorParams{Size: f.size, Distance: pb.Distance_Cosine}},
		}},
	}}}, nil
}

func (f *fakeCollections) Create(_ context.Context, in *pb.CreateCollection, _ ...grpc.CallOption) (*pb.CollectionOperationResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	f.exists = true
	f.size = in.GetVectorsConfig().GetParams().GetSize()
	return &pb.CollectionOperationResponse{Result: true}, nil
}

func (f *fakeCollections) Delete(_ context.Context, _ *pb.DeleteCollection, _ ...grpc.CallOption) (*pb.CollectionOperationResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.exists {
		return nil, f.notFound()
	}
	f.exists = false
	f.points = make(map[string]*pb.PointStruct)
	return &pb.CollectionOperationResponse{Result: true}, nil
}

func (f *fakePoints) Upsert(ctx context.Context, in *pb.UpsertPoints, _ ...grpc.CallOption) (*pb.PointsOperationResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recordKey(ctx)
	if !f.exists {
		return nil, f.notFound()
	}
	for _, p := range in.GetPoints() {
		f.points[p.GetId().GetUuid()] = p
	}
	return &pb.PointsOperationResponse{}, nil
}

func (f *fakeQdrant) matching(filter *pb.Filter) []*pb.PointStruct {
	var out []*pb.PointStruct
	for _, p := range f.points {
		if matches(p.GetPayload(), filter) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GetId().GetUuid() < out[j].GetId().GetUuid() })
	return out
}

func (f *fakePoints) Search(_ context.Context, in *pb.SearchPoints, _ ...grpc.CallOption) (*pb.SearchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.exists {
		return nil, f.notFound()
	}
	var scored []*pb.ScoredPoint
	for _, p := range f.matching(in.GetFilter()) {
		d := memory.CosineDistance(in.GetVector(), p.GetVectors().GetVector().GetData())
		scored = append(scored, &pb.ScoredPoint{Id: p.GetId(), Payload: p.GetPayload(), Score: float32(1 - d)})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if uint64(len(scored)) > in.GetLimit() {
		scored = scored[:in.GetLimit()]
	}
	return &pb.SearchResponse{Result: scored}, nil
}

func (f *fakePoints) Scroll(_ context.Context, in *pb.ScrollPoints, _ ...grpc.CallOption) (*pb.ScrollResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.exists {
		return nil, f.notFound()
	}
	all := f.matching(in.GetFilter())
	start := 0
	if off := in.GetOffset(); off != nil {
		for i, p := range all {
			if p.GetId().GetUuid() == off.GetUuid() {
				start = i
				break
			}
		}
	}
	end := start + int(in.GetLimit())
	resp := &pb.ScrollResponse{}
	if end < len(all) {
		resp.NextPageOffset = all[end].GetId()
	} else {
		end = len(all)
	}
	for _, p := range all[start:end] {
		resp.Result = append(resp.Result, &pb.RetrievedPoint{Id: p.GetId(), Payload: p.GetPayload()})
	}
	return resp, nil
}

func (f *fakePoints) Count(_ context.Context, in *pb.CountPoints, _ ...grpc.CallOption) (*pb.CountResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.exists {
		return nil, f.notFound()
	}
	return &pb.CountResponse{Result: &pb.CountResult{Count: uint64(len(f.matching(in.GetFilter())))}}, nil
}

func (f *fakePoints) Delete(_ context.Context, in *pb.DeletePoints, _ ...grpc.CallOption) (*pb.PointsOperationResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.exists {
		return nil, f.notFound()
	}
	switch sel := in.GetPoints().GetPointsSelectorOneOf().(type) {
	case *pb.PointsSelector_Points:
		for _, id := range sel.Points.GetIds() {
			delete(f.points, id.GetUuid())
		}
	case *pb.PointsSelector_Filter:
		for _, p := range f.matching(sel.Filter) {
			delete(f.points, p.GetId().GetUuid())
		}
	}
	return &pb.PointsOperationResponse{}, nil
}

func matches(payload map[string]*pb.Value, filter *pb.Filter) bool {
	for _, c := range filter.GetMust() {
		fc := c.GetField()
		v, ok := payload[fc.GetKey()]
		if !ok {
			return false
		}
		if r := fc.GetRange(); r != nil {
			n := v.GetDoubleValue()
			if iv, isInt := v.GetKind().(*pb.Value_IntegerValue); isInt {
				n = float64(iv.IntegerValue)
			}
			if n < r.GetGte() || n > r.GetLte() {
				return false
			}
			continue
		}
		switch m := fc.GetMatch().GetMatchValue().(type) {
		case *pb.Match_Keyword:
			if v.GetStringValue() != m.Keyword {
				return false
			}
		case *pb.Match_Integer:
			if iv, isInt := v.GetKind().(*pb.Value_IntegerValue); !isInt || iv.IntegerValue != m.Integer {
				return false
			}
		case *pb.Match_Boolean:
			if bv, isBool := v.GetKind().(*pb.Value_BoolValue); !isBool || bv.BoolValue != m.Boolean {
				return false
			}
		}
	}
	return true
}

func newTestIndex(f *fakeQdrant, cfg Config) *VectorIndex {
	return newWithClients(&fakePoints{fakeQdrant: f}, &fakeCollections{fakeQdrant: f}, cfg)
}

func rec(id, docID string, idx int, vec ...float32) driven.VectorRecord {
	return driven.VectorRecord{
		ID:     id,
		Vector: vec,
		Text:   "text " + id,
		Metadata: domain.Metadata{
			domain.MetaDocumentID: docID,
			domain.MetaChunkIndex: idx,
		},
	}
}

func TestVectorIndex_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFakeQdrant()
	x := newTestIndex(f, Config{Collection: "docs", APIKey: "secret"})

	n, err := x.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, x.Insert(ctx, []driven.VectorRecord{
		rec("a:0", "a", 0, 1, 0),
		rec("a:1", "a", 1, 0, 1),
		rec("b:0", "b", 0, 1, 1),
	}))
	assert.Equal(t, 1, f.creates)
	assert.Equal(t, uint64(2), f.size)
	assert.Contains(t, f.apiKeys, "secret")

	info := x.Info()
	assert.Equal(t, domain.IndexBackendQdrant, info.Backend)
	assert.Equal(t, "docs", info.Collection)
	assert.Equal(t, 2, info.Dimensions)

	hits, err := x.Query(ctx, []float32{1, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a:0", hits[0].ID)
	assert.Equal(t, "text a:0", hits[0].Text)
	assert.InDelta(t, 0, hits[0].Distance, 1e-6)
	assert.Equal(t, "b:0", hits[1].ID)

	hits, err = x.Query(ctx, []float32{1, 0}, 5, domain.Metadata{domain.MetaDocumentID: "a", domain.MetaChunkIndex: 1})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a:1", hits[0].ID)

	got, err := x.Get(ctx, domain.Metadata{domain.MetaDocumentID: "a"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a:0", got[0].ID)
	idx, ok := got[1].Metadata.Int(domain.MetaChunkIndex)
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.NotContains(t, got[0].Metadata, payloadText)

	_, err = x.Query(ctx, []float32{1, 0, 0}, 1, nil)
	assert.True(t, errors.Is(err, domain.ErrDimensionMismatch))
}

func TestVectorIndex_GetPaginates(t *testing.T) {
	ctx := context.Background()
	f := newFakeQdrant()
	x := newTestIndex(f, Config{})

	records := make([]driven.VectorRecord, scrollPage+10)
	for i := range records {
		records[i] = rec(domain.ChunkID("doc", i), "doc", i, 1, float32(i))
	}
	require.NoError(t, x.Insert(ctx, records))

	got, err := x.Get(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, got, len(records))
}

func TestVectorIndex_DeleteAndClear(t *testing.T) {
	ctx := context.Background()
	f := newFakeQdrant()
	x := newTestIndex(f, Config{})

	require.NoError(t, x.Insert(ctx, []driven.VectorRecord{
		rec("a:0", "a", 0, 1, 0),
		rec("a:1", "a", 1, 0, 1),
		rec("b:0", "b", 0, 1, 1),
	}))

	_, err := x.DeleteWhere(ctx, domain.Metadata{})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	n, err := x.DeleteWhere(ctx, domain.Metadata{domain.MetaDocumentID: "a"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = x.DeleteWhere(ctx, domain.Metadata{domain.MetaDocumentID: "a"})
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, x.Delete(ctx, []string{"b:0"}))
	n, err = x.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, x.Clear(ctx))
	assert.False(t, f.exists)
	assert.Zero(t, x.Info().Dimensions)

	hits, err := x.Query(ctx, []float32{1, 2, 3}, 3, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)

	require.NoError(t, x.Clear(ctx))
	require.NoError(t, x.Insert(ctx, []driven.VectorRecord{rec("c:0", "c", 0, 1, 2, 3)}))
	assert.Equal(t, uint64(3), f.size)
}

func TestVectorIndex_InsertValidation(t *testing.T) {
	ctx := context.Background()
	f := newFakeQdrant()
	x := newTestIndex(f, Config{Dimensions: 2})

	err := x.Insert(ctx, []driven.VectorRecord{rec("a:0", "a", 0, 1, 0), rec("a:0", "a", 0, 1, 0)})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	err = x.Insert(ctx, []driven.VectorRecord{rec("a:0", "a", 0, 1, 0, 0)})
	assert.True(t, errors.Is(err, domain.ErrDimensionMismatch))

	bad := rec("a:0", "a", 0, 1, 0)
	bad.Metadata["nested"] = []string{"x"}
	err = x.Insert(ctx, []driven.VectorRecord{bad})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	assert.Zero(t, f.creates)
}

func TestVectorIndex_FixedDimensionsCreatesCollection(t *testing.T) {
	ctx := context.Background()
	f := newFakeQdrant()
	x := newTestIndex(f, Config{Dimensions: 2})
	require.NoError(t, x.loadDimensions(ctx))
	assert.Equal(t, 2, x.Info().Dimensions)

	require.NoError(t, x.Insert(ctx, []driven.VectorRecord{rec("a:0", "a", 0, 1, 0)}))
	assert.Equal(t, 1, f.creates)
	assert.Equal(t, uint64(2), f.size)

	require.NoError(t, x.Insert(ctx, []driven.VectorRecord{rec("b:0", "b", 0, 0, 1)}))
	assert.Equal(t, 1, f.creates)

	require.NoError(t, x.Clear(ctx))
	assert.False(t, f.exists)
	assert.Equal(t, 2, x.Info().Dimensions)

	require.NoError(t, x.Insert(ctx, []driven.VectorRecord{rec("c:0", "c", 0, 1, 1)}))
	assert.Equal(t, 2, f.creates)
	n, err := x.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	err = x.Insert(ctx, []driven.VectorRecord{rec("d:0", "d", 0, 1, 1, 1)})
	assert.True(t, errors.Is(err, domain.ErrDimensionMismatch))
}

func TestLoadDimensions(t *testing.T) {
	ctx := context.Background()

	f := newFakeQdrant()
	f.exists = true
	f.size = 4
	x := newTestIndex(f, Config{})
	require.NoError(t, x.loadDimensions(ctx))
	assert.Equal(t, 4, x.Info().Dimensions)

	x = newTestIndex(f, Config{Dimensions: 8})
	err := x.loadDimensions(ctx)
	assert.True(t, errors.Is(err, domain.ErrDimensionMismatch))

	x = newTestIndex(newFakeQdrant(), Config{})
	require.NoError(t, x.loadDimensions(ctx))
	assert.Zero(t, x.Info().Dimensions)
}
