// Package qdrant implements the VectorIndex port on a Qdrant collection over gRPC.
//
// Chunk IDs are mapped to UUIDv5 point IDs; the original ID and chunk text
// travel in the payload next to the chunk metadata. The collection is created
// on first insert with cosine distance.
package qdrant

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/custodia-labs/ragindex/internal/core/domain"
	"github.com/custodia-labs/ragindex/internal/core/ports/driven"
)

const (
	// payloadID holds the chunk ID inside the point payload.
	payloadID = "_chunk_id"
	// payloadText holds the chunk text inside the point payload.
	payloadText = "_text"

	scrollPage = 256
)

// pointNamespace seeds the UUIDv5 point IDs.
var pointNamespace = uuid.MustParse("5b0b7c8e-3f4e-4f8a-9a57-6f1f0c3d2a10")

// Verify interface compliance.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// Config holds connection settings.
type Config struct {
	Host       string
	Port       int
	APIKey     string
	Collection string
	Dimensions int
}

// VectorIndex stores chunks as points of one Qdrant collection.
type VectorIndex struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
	apiKey      string
	fixedDim    int

	mu     sync.Mutex
	dim    int
	exists bool
}

// New connects to Qdrant and reads the collection's vector size if it exists.
func New(ctx context.Context, cfg Config) (*VectorIndex, error) {
	if cfg.Host == "" {
		cfg.Host = domain.DefaultQdrantHost
	}
	if cfg.Port == 0 {
		cfg.Port = domain.DefaultQdrantPort
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}

	x := newWithClients(pb.NewPointsClient(conn), pb.NewCollectionsClient(conn), cfg)
	x.conn = conn
	if err := x.loadDimensions(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return x, nil
}

func newWithClients(points pb.PointsClient, collections pb.CollectionsClient, cfg Config) *VectorIndex {
	if cfg.Collection == "" {
		cfg.Collection = domain.DefaultCollection
	}
	return &VectorIndex{
		points:      points,
		collections: collections,
		collection:  cfg.Collection,
		apiKey:      cfg.APIKey,
		fixedDim:    cfg.Dimensions,
		dim:         cfg.Dimensions,
	}
}

// loadDimensions adopts the size of an existing collection.
func (x *VectorIndex) loadDimensions(ctx context.Context) error {
	resp, err := x.collections.Get(x.auth(ctx), &pb.GetCollectionInfoRequest{CollectionName: x.collection})
	if isNotFound(err) {
		x.mu.Lock()
		x.exists = false
		x.mu.Unlock()
		return nil
	}
	if err != nil {
		return domain.IndexError(fmt.Errorf("reading collection %s: %w", x.collection, err))
	}
	x.mu.Lock()
	x.exists = true
	x.mu.Unlock()

	size := int(resp.GetResult().GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize())
	if size == 0 {
		return nil
	}
	if x.fixedDim != 0 && size != x.fixedDim {
		return domain.IndexError(fmt.Errorf("%w: collection %s has %d dimensions, configured %d",
			domain.ErrDimensionMismatch, x.collection, size, x.fixedDim))
	}
	x.mu.Lock()
	x.dim = size
	x.mu.Unlock()
	return nil
}

// Insert validates the batch, creates the collection if needed and upserts
// every point in one request.
func (x *VectorIndex) Insert(ctx context.Context, records []driven.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	dim, err := validate(x.dim, records)
	if err != nil {
		return err
	}

	ctx = x.auth(ctx)
	if !x.exists {
		if err := x.createCollection(ctx, dim); err != nil {
			return err
		}
		x.exists = true
	}
	x.dim = dim

	points := make([]*pb.PointStruct, len(records))
	for i, r := range records {
		payload, err := toPayload(r)
		if err != nil {
			return domain.IndexError(err)
		}
		points[i] = &pb.PointStruct{
			Id:      pointID(r.ID),
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: r.Vector}}},
			Payload: payload,
		}
	}

	wait := true
	if _, err := x.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: x.collection,
		Wait:           &wait,
		Points:         points,
	}); err != nil {
		return domain.IndexError(fmt.Errorf("upserting points: %w", err))
	}
	return nil
}

func (x *VectorIndex) createCollection(ctx context.Context, dim int) error {
	_, err := x.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: x.collection,
		VectorsConfig: &pb.VectorsConfig{Config: &pb.VectorsConfig_Params{Params: &pb.VectorParams{
			Size:     uint64(dim),
			Distance: pb.Distance_Cosine,
		}}},
	})
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return domain.IndexError(fmt.Errorf("creating collection %s: %w", x.collection, err))
	}
	return nil
}

// Query returns the k nearest points matching filter.
func (x *VectorIndex) Query(ctx context.Context, vector []float32, k int, filter domain.Metadata) ([]driven.VectorHit, error) {
	if k <= 0 {
		return []driven.VectorHit{}, nil
	}
	if dim := x.dimensions(); dim != 0 && len(vector) != dim {
		return nil, domain.IndexError(fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(vector), dim))
	}

	resp, err := x.points.Search(x.auth(ctx), &pb.SearchPoints{
		CollectionName: x.collection,
		Vector:         vector,
		Limit:          uint64(k),
		Filter:         buildFilter(filter),
		WithPayload:    withPayload(),
	})
	if isNotFound(err) {
		return []driven.VectorHit{}, nil
	}
	if err != nil {
		return nil, domain.IndexError(fmt.Errorf("searching points: %w", err))
	}

	hits := make([]driven.VectorHit, len(resp.GetResult()))
	for i, pt := range resp.GetResult() {
		hits[i] = fromPayload(pt.GetPayload())
		// Cosine collections score by similarity.
		hits[i].Distance = 1 - float64(pt.GetScore())
	}
	return hits, nil
}

// Get scrolls every point matching filter, ordered by chunk ID.
func (x *VectorIndex) Get(ctx context.Context, filter domain.Metadata) ([]driven.VectorHit, error) {
	ctx = x.auth(ctx)
	limit := uint32(scrollPage)
	req := &pb.ScrollPoints{
		CollectionName: x.collection,
		Filter:         buildFilter(filter),
		Limit:          &limit,
		WithPayload:    withPayload(),
	}

	hits := []driven.VectorHit{}
	for {
		resp, err := x.points.Scroll(ctx, req)
		if isNotFound(err) {
			return []driven.VectorHit{}, nil
		}
		if err != nil {
			return nil, domain.IndexError(fmt.Errorf("scrolling points: %w", err))
		}
		for _, pt := range resp.GetResult() {
			hits = append(hits, fromPayload(pt.GetPayload()))
		}
		if resp.GetNextPageOffset() == nil {
			break
		}
		req.Offset = resp.GetNextPageOffset()
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].ID < hits[j].ID })
	return hits, nil
}

// Delete removes points by chunk ID.
func (x *VectorIndex) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	pids := make([]*pb.PointId, len(ids))
	for i, id := range ids {
		pids[i] = pointID(id)
	}
	return x.deletePoints(ctx, &pb.PointsSelector{
		PointsSelectorOneOf: &pb.PointsSelector_Points{Points: &pb.PointsIdsList{Ids: pids}},
	})
}

// DeleteWhere counts and then removes every point matching a non-empty filter.
func (x *VectorIndex) DeleteWhere(ctx context.Context, filter domain.Metadata) (int, error) {
	if len(filter) == 0 {
		return 0, fmt.Errorf("%w: delete filter must not be empty", domain.ErrInvalidInput)
	}
	n, err := x.count(ctx, buildFilter(filter))
	if err != nil || n == 0 {
		return 0, err
	}
	if err := x.deletePoints(ctx, &pb.PointsSelector{
		PointsSelectorOneOf: &pb.PointsSelector_Filter{Filter: buildFilter(filter)},
	}); err != nil {
		return 0, err
	}
	return n, nil
}

func (x *VectorIndex) deletePoints(ctx context.Context, selector *pb.PointsSelector) error {
	wait := true
	_, err := x.points.Delete(x.auth(ctx), &pb.DeletePoints{
		CollectionName: x.collection,
		Wait:           &wait,
		Points:         selector,
	})
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return domain.IndexError(fmt.Errorf("deleting points: %w", err))
	}
	return nil
}

// Count returns the exact number of points in the collection.
func (x *VectorIndex) Count(ctx context.Context) (int, error) {
	return x.count(ctx, nil)
}

func (x *VectorIndex) count(ctx context.Context, filter *pb.Filter) (int, error) {
	exact := true
	resp, err := x.points.Count(x.auth(ctx), &pb.CountPoints{
		CollectionName: x.collection,
		Filter:         filter,
		Exact:          &exact,
	})
	if isNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, domain.IndexError(fmt.Errorf("counting points: %w", err))
	}
	return int(resp.GetResult().GetCount()), nil
}

// Clear drops the collection. It is recreated by the next insert.
func (x *VectorIndex) Clear(ctx context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	_, err := x.collections.Delete(x.auth(ctx), &pb.DeleteCollection{CollectionName: x.collection})
	if err != nil && !isNotFound(err) {
		return domain.IndexError(fmt.Errorf("deleting collection %s: %w", x.collection, err))
	}
	x.dim = x.fixedDim
	x.exists = false
	return nil
}

// Info describes the index.
func (x *VectorIndex) Info() driven.IndexInfo {
	return driven.IndexInfo{
		Backend:    domain.IndexBackendQdrant,
		Collection: x.collection,
		Dimensions: x.dimensions(),
	}
}

// Close closes the gRPC connection.
func (x *VectorIndex) Close() error {
	if x.conn == nil {
		return nil
	}
	return x.conn.Close()
}

func (x *VectorIndex) dimensions() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.dim
}

// auth attaches the API key header when one is configured.
func (x *VectorIndex) auth(ctx context.Context) context.Context {
	if x.apiKey == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "api-key", x.apiKey)
}

func isNotFound(err error) bool {
	return err != nil && status.Code(err) == codes.NotFound
}

func withPayload() *pb.WithPayloadSelector {
	return &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}}
}
