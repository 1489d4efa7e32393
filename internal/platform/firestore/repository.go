package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// Document is a decoded snapshot plus the server timestamps catalog rows care about.
type Document[T any] struct {
	ID         string
	Data       T
	CreateTime time.Time
	UpdateTime time.Time
}

// Encoder turns a typed value into the payload written to Firestore.
type Encoder[T any] func(ctx context.Context, value T) (any, error)

// Decoder turns a snapshot back into a typed value.
type Decoder[T any] func(ctx context.Context, snap *firestore.DocumentSnapshot) (T, error)

// QueryBuilder narrows a collection query before it runs.
type QueryBuilder func(query firestore.Query) firestore.Query

var errMissingDocumentID = errors.New("firestore: document id is required")

// BaseRepository binds one collection to a codec. Writes go through transactions, so it only
// exposes reads, document references and the encoder.
type BaseRepository[T any] struct {
	provider   *Provider
	collection string
	encode     Encoder[T]
	decode     Decoder[T]
}

// NewBaseRepository binds collection to the codec. A nil encoder writes values as-is and a nil
// decoder uses DataTo.
func NewBaseRepository[T any](provider *Provider, collection string, encode Encoder[T], decode Decoder[T]) *BaseRepository[T] {
	if encode == nil {
		encode = func(_ context.Context, value T) (any, error) { return value, nil }
	}
	if decode == nil {
		decode = dataToDecoder[T]
	}
	return &BaseRepository[T]{
		provider:   provider,
		collection: strings.TrimSpace(collection),
		encode:     encode,
		decode:     decode,
	}
}

// Encode applies the configured encoder.
func (r *BaseRepository[T]) Encode(ctx context.Context, id string, value T) (any, error) {
	payload, err := r.encode(ctx, value)
	if err != nil {
		return nil, fmt.Errorf("firestore: encode %s/%s: %w", r.collection, id, err)
	}
	return payload, nil
}

// Get reads one document. A missing document surfaces as a not-found *Error.
func (r *BaseRepository[T]) Get(ctx context.Context, id string) (Document[T], error) {
	ref, err := r.DocumentRef(ctx, id)
	if err != nil {
		return Document[T]{}, err
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		return Document[T]{}, WrapError(r.collection+".get", err)
	}
	return r.toDocument(ctx, snap)
}

// Each streams matching documents to fn and stops at the first error.
func (r *BaseRepository[T]) Each(ctx context.Context, build QueryBuilder, fn func(Document[T]) error) error {
	coll, err := r.collectionRef(ctx)
	if err != nil {
		return err
	}
	query := coll.Query
	if build != nil {
		query = build(query)
	}

	it := query.Documents(ctx)
	defer it.Stop()
	for {
		snap, err := it.Next()
		switch {
		case errors.Is(err, iterator.Done):
			return nil
		case err != nil:
			return WrapError(r.collection+".query", err)
		}
		doc, err := r.toDocument(ctx, snap)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
}

// Query collects every matching document.
func (r *BaseRepository[T]) Query(ctx context.Context, build QueryBuilder) ([]Document[T], error) {
	var out []Document[T]
	if err := r.Each(ctx, build, func(doc Document[T]) error {
		out = append(out, doc)
		return nil
	}); err != nil {
		return nil, err
	}
	return out, nil
}

// DocumentRef resolves id inside the bound collection, for use within a transaction.
func (r *BaseRepository[T]) DocumentRef(ctx context.Context, id string) (*firestore.DocumentRef, error) {
	if strings.TrimSpace(id) == "" {
		return nil, WrapError(r.collection+".document", errMissingDocumentID)
	}
	coll, err := r.collectionRef(ctx)
	if err != nil {
		return nil, err
	}
	return coll.Doc(id), nil
}

func (r *BaseRepository[T]) toDocument(ctx context.Context, snap *firestore.DocumentSnapshot) (Document[T], error) {
	data, err := r.decode(ctx, snap)
	if err != nil {
		return Document[T]{}, fmt.Errorf("firestore: decode %s/%s: %w", r.collection, snap.Ref.ID, err)
	}
	return Document[T]{ID: snap.Ref.ID, Data: data, CreateTime: snap.CreateTime, UpdateTime: snap.UpdateTime}, nil
}

func (r *BaseRepository[T]) collectionRef(ctx context.Context) (*firestore.CollectionRef, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("firestore: repository has no provider")
	}
	if r.collection == "" {
		return nil, errors.New("firestore: collection name is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(r.collection), nil
}

func dataToDecoder[T any](_ context.Context, snap *firestore.DocumentSnapshot) (T, error) {
	var out T
	err := snap.DataTo(&out)
	return out, err
}

// MapEncoder writes map values unchanged.
func MapEncoder[T ~map[string]any]() Encoder[T] {
	return func(_ context.Context, value T) (any, error) {
		return map[string]any(value), nil
	}
}

// MapDecoder reads documents as plain maps, never nil.
func MapDecoder() Decoder[map[string]any] {
	return func(_ context.Context, snap *firestore.DocumentSnapshot) (map[string]any, error) {
		if data := snap.Data(); data != nil {
			return data, nil
		}
		return map[string]any{}, nil
	}
}
