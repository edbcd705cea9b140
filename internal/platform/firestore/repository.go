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

// Document is a strongly typed Firestore document with server timestamps.
type Document[T any] struct {
	ID         string
	Data       T
	CreateTime time.Time
	UpdateTime time.Time
}

// MutationResult captures the update timestamp returned by mutations.
type MutationResult struct {
	UpdateTime time.Time
}

// Encoder serialises the typed entity before persistence.
type Encoder[T any] func(ctx context.Context, value T) (any, error)

// Decoder hydrates the typed entity from a snapshot.
type Decoder[T any] func(ctx context.Context, snap *firestore.DocumentSnapshot) (T, error)

// QueryBuilder customises a collection query before execution.
type QueryBuilder func(query firestore.Query) firestore.Query

// CollectionPath resolves the collection segments for a given scope, letting
// repositories address per-user subcollections such as users/{uid}/orders.
// The returned slice must have odd length: collection, (doc, collection)...
type CollectionPath func(scope string) []string

// RootCollection addresses a top-level collection; the scope is ignored.
func RootCollection(name string) CollectionPath {
	return func(string) []string { return []string{name} }
}

// UserSubcollection addresses users/{scope}/<name>.
func UserSubcollection(name string) CollectionPath {
	return func(scope string) []string { return []string{"users", scope, name} }
}

// BaseRepository provides typed helpers over a scoped Firestore collection.
type BaseRepository[T any] struct {
	provider *Provider
	name     string
	path     CollectionPath
	encode   Encoder[T]
	decode   Decoder[T]
}

// NewBaseRepository binds a repository to the collection the path resolves.
// name is used for error annotations only.
func NewBaseRepository[T any](provider *Provider, name string, path CollectionPath, encode Encoder[T], decode Decoder[T]) *BaseRepository[T] {
	if encode == nil {
		encode = IdentityEncoder[T]()
	}
	if decode == nil {
		decode = StructDecoder[T]()
	}
	return &BaseRepository[T]{
		provider: provider,
		name:     strings.TrimSpace(name),
		path:     path,
		encode:   encode,
		decode:   decode,
	}
}

// Set upserts the value under the given document ID.
func (r *BaseRepository[T]) Set(ctx context.Context, scope, id string, value T, opts ...firestore.SetOption) (MutationResult, error) {
	doc, err := r.documentRef(ctx, scope, id)
	if err != nil {
		return MutationResult{}, err
	}
	payload, err := r.encode(ctx, value)
	if err != nil {
		return MutationResult{}, fmt.Errorf("firestore: encode document %s: %w", id, err)
	}
	result, err := doc.Set(ctx, payload, opts...)
	if err != nil {
		return MutationResult{}, WrapError(r.op("set"), err)
	}
	return MutationResult{UpdateTime: result.UpdateTime}, nil
}

// Update applies a field-path patch; it fails with not-found when the
// document does not exist and never creates one.
func (r *BaseRepository[T]) Update(ctx context.Context, scope, id string, updates []firestore.Update, preconds ...firestore.Precondition) (MutationResult, error) {
	doc, err := r.documentRef(ctx, scope, id)
	if err != nil {
		return MutationResult{}, err
	}
	result, err := doc.Update(ctx, updates, preconds...)
	if err != nil {
		return MutationResult{}, WrapError(r.op("update"), err)
	}
	return MutationResult{UpdateTime: result.UpdateTime}, nil
}

// Get fetches and decodes one document.
func (r *BaseRepository[T]) Get(ctx context.Context, scope, id string) (Document[T], error) {
	doc, err := r.documentRef(ctx, scope, id)
	if err != nil {
		return Document[T]{}, err
	}
	snap, err := doc.Get(ctx)
	if err != nil {
		return Document[T]{}, WrapError(r.op("get"), err)
	}
	return r.decodeSnapshot(ctx, snap)
}

// Query runs a collection query and decodes every matching document.
func (r *BaseRepository[T]) Query(ctx context.Context, scope string, build QueryBuilder) ([]Document[T], error) {
	coll, err := r.collectionRef(ctx, scope)
	if err != nil {
		return nil, err
	}

	query := coll.Query
	if build != nil {
		query = build(query)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var docs []Document[T]
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, WrapError(r.op("query"), err)
		}
		decoded, err := r.decodeSnapshot(ctx, snap)
		if err != nil {
			return nil, fmt.Errorf("firestore: decode document %s: %w", snap.Ref.ID, err)
		}
		docs = append(docs, decoded)
	}
	return docs, nil
}

// DocumentRef exposes the raw document reference for transactional use.
func (r *BaseRepository[T]) DocumentRef(ctx context.Context, scope, id string) (*firestore.DocumentRef, error) {
	return r.documentRef(ctx, scope, id)
}

func (r *BaseRepository[T]) decodeSnapshot(ctx context.Context, snap *firestore.DocumentSnapshot) (Document[T], error) {
	entity, err := r.decode(ctx, snap)
	if err != nil {
		return Document[T]{}, err
	}
	return Document[T]{
		ID:         snap.Ref.ID,
		Data:       entity,
		CreateTime: snap.CreateTime,
		UpdateTime: snap.UpdateTime,
	}, nil
}

func (r *BaseRepository[T]) collectionRef(ctx context.Context, scope string) (*firestore.CollectionRef, error) {
	if r == nil || r.provider == nil {
		return nil, WrapError(r.op("collection"), errors.New("firestore: provider is nil"))
	}
	if r.path == nil {
		return nil, WrapError(r.op("collection"), errors.New("firestore: collection path is required"))
	}
	segments := r.path(strings.TrimSpace(scope))
	if len(segments) == 0 || len(segments)%2 == 0 {
		return nil, WrapError(r.op("collection"), errors.New("firestore: collection path must alternate collection/document"))
	}
	for _, segment := range segments {
		if strings.TrimSpace(segment) == "" {
			return nil, WrapError(r.op("collection"), errors.New("firestore: empty path segment"))
		}
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}

	coll := client.Collection(segments[0])
	for i := 1; i+1 < len(segments); i += 2 {
		coll = coll.Doc(segments[i]).Collection(segments[i+1])
	}
	return coll, nil
}

func (r *BaseRepository[T]) documentRef(ctx context.Context, scope, id string) (*firestore.DocumentRef, error) {
	if strings.TrimSpace(id) == "" {
		return nil, WrapError(r.op("document"), errors.New("firestore: document id is required"))
	}
	coll, err := r.collectionRef(ctx, scope)
	if err != nil {
		return nil, err
	}
	return coll.Doc(id), nil
}

func (r *BaseRepository[T]) op(action string) string {
	name := "firestore"
	if r != nil && r.name != "" {
		name = r.name
	}
	return name + "." + action
}

// IdentityEncoder writes the value unchanged.
func IdentityEncoder[T any]() Encoder[T] {
	return func(_ context.Context, value T) (any, error) {
		return value, nil
	}
}

// StructDecoder uses Firestore's native struct decoding.
func StructDecoder[T any]() Decoder[T] {
	return func(_ context.Context, snap *firestore.DocumentSnapshot) (T, error) {
		var target T
		if err := snap.DataTo(&target); err != nil {
			return target, err
		}
		return target, nil
	}
}
