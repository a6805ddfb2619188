// Package retriever is the narrow search interface the knowledge agent uses
// for citations. It stores document chunks in Qdrant and finds the closest
// ones for a question. The copilot never implements similarity math itself;
// Qdrant and the embeddings endpoint are external collaborators.
package retriever

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	qdrant "github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Config holds the Qdrant connection settings.
type Config struct {
	Host       string
	Port       int
	Collection string
	Dimension  int
}

// Document is one chunk of ingested source material.
type Document struct {
	ID      string
	Source  string
	Content string
}

// Hit is one search result.
type Hit struct {
	Source  string
	Snippet string
	Score   float32
}

// Embedder turns text into a vector. Implemented by the OpenAI embedder;
// tests substitute their own.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// QdrantRetriever talks to Qdrant over gRPC.
type QdrantRetriever struct {
	conn        *grpc.ClientConn
	points      qdrant.PointsClient
	collections qdrant.CollectionsClient
	embedder    Embedder
	cfg         Config
	logger      *zap.Logger
}

// NewQdrant connects to Qdrant and makes sure the collection exists.
func NewQdrant(cfg Config, embedder Embedder, logger *zap.Logger) (*QdrantRetriever, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := grpc.Dial(
		fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to dial qdrant: %w", err)
	}

	r := &QdrantRetriever{
		conn:        conn,
		points:      qdrant.NewPointsClient(conn),
		collections: qdrant.NewCollectionsClient(conn),
		embedder:    embedder,
		cfg:         cfg,
		logger:      logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.ensureCollection(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return r, nil
}

func (r *QdrantRetriever) ensureCollection(ctx context.Context) error {
	if _, err := r.collections.Get(ctx, &qdrant.GetCollectionInfoRequest{
		CollectionName: r.cfg.Collection,
	}); err == nil {
		return nil
	}

	r.logger.Info("creating qdrant collection", zap.String("collection", r.cfg.Collection))
	_, err := r.collections.Create(ctx, &qdrant.CreateCollection{
		CollectionName: r.cfg.Collection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(r.cfg.Dimension),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", r.cfg.Collection, err)
	}
	return nil
}

// Index embeds and upserts one document chunk.
func (r *QdrantRetriever) Index(ctx context.Context, doc Document) error {
	embedding, err := r.embedder.Embed(ctx, doc.Content)
	if err != nil {
		return fmt.Errorf("failed to embed chunk %s: %w", doc.ID, err)
	}

	hash := fnv.New64a()
	hash.Write([]byte(doc.ID))

	point := &qdrant.PointStruct{
		Id: &qdrant.PointId{PointIdOptions: &qdrant.PointId_Num{Num: hash.Sum64()}},
		Vectors: &qdrant.Vectors{VectorsOptions: &qdrant.Vectors_Vector{
			Vector: &qdrant.Vector{Data: embedding},
		}},
		Payload: map[string]*qdrant.Value{
			"original_id": {Kind: &qdrant.Value_StringValue{StringValue: doc.ID}},
			"source":      {Kind: &qdrant.Value_StringValue{StringValue: doc.Source}},
			"content":     {Kind: &qdrant.Value_StringValue{StringValue: doc.Content}},
		},
	}

	wait := true
	_, err = r.points.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: r.cfg.Collection,
		Points:         []*qdrant.PointStruct{point},
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert chunk %s: %w", doc.ID, err)
	}
	return nil
}

// Search returns the closest chunks to the query.
func (r *QdrantRetriever) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	resp, err := r.points.Search(ctx, &qdrant.SearchPoints{
		CollectionName: r.cfg.Collection,
		Vector:         embedding,
		Limit:          uint64(limit),
		WithPayload:    &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}

	hits := make([]Hit, 0, len(resp.Result))
	for _, point := range resp.Result {
		hit := Hit{Score: point.Score}
		if payload := point.Payload; payload != nil {
			if source := payload["source"]; source != nil {
				hit.Source = source.GetStringValue()
			}
			if content := payload["content"]; content != nil {
				hit.Snippet = content.GetStringValue()
			}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Close closes the gRPC connection.
func (r *QdrantRetriever) Close() error {
	return r.conn.Close()
}
