package idempotency

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pfirestore "github.com/brightcart/api/internal/platform/firestore"
)

const (
	defaultCollection = "catalogIdempotencyKeys"
	defaultTxAttempts = 3
	opReserve         = "idempotency.reserve"
	opSaveResponse    = "idempotency.save"
	opReleaseKey      = "idempotency.release"
)

// FirestoreStore keeps reservations in a Firestore collection. Documents carry expiresAt so a
// TTL policy on that field can purge them.
type FirestoreStore struct {
	provider *pfirestore.Provider
	docs     *pfirestore.BaseRepository[keyDocument]
}

var _ Store = (*FirestoreStore)(nil)

// FirestoreOption customises the FirestoreStore.
type FirestoreOption func(*firestoreOptions)

type firestoreOptions struct {
	collection string
}

// WithCollection overrides the collection holding the keys.
func WithCollection(name string) FirestoreOption {
	return func(o *firestoreOptions) {
		if name != "" {
			o.collection = name
		}
	}
}

// NewFirestoreStore constructs a store sharing the catalog Firestore client.
func NewFirestoreStore(provider *pfirestore.Provider, opts ...FirestoreOption) (*FirestoreStore, error) {
	if provider == nil {
		return nil, errors.New("idempotency: firestore provider is required")
	}
	o := firestoreOptions{collection: defaultCollection}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return &FirestoreStore{
		provider: provider,
		docs:     pfirestore.NewBaseRepository[keyDocument](provider, o.collection, nil, nil),
	}, nil
}

func (s *FirestoreStore) Reserve(ctx context.Context, key, fingerprint string, now time.Time, ttl time.Duration) (State, Record, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now = now.UTC()
	ref, err := s.docs.DocumentRef(ctx, documentID(key))
	if err != nil {
		return 0, Record{}, err
	}

	var (
		state  State
		record Record
	)
	err = s.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}
		if err == nil {
			var doc keyDocument
			if err := snap.DataTo(&doc); err != nil {
				return err
			}
			existing := doc.record()
			if !expired(existing, now) {
				if existing.Fingerprint != fingerprint {
					return ErrFingerprintMismatch
				}
				record = existing
				state = StatePending
				if existing.Completed {
					state = StateCompleted
				}
				return nil
			}
		}

		record = Record{Key: key, Fingerprint: fingerprint, ExpiresAt: now.Add(ttl)}
		state = StateNew
		return tx.Set(ref, newKeyDocument(record, now))
	}, pfirestore.WithTxAttempts(defaultTxAttempts))
	if errors.Is(err, ErrFingerprintMismatch) {
		return 0, Record{}, ErrFingerprintMismatch
	}
	if err != nil {
		return 0, Record{}, pfirestore.WrapError(opReserve, err)
	}
	return state, record, nil
}

func (s *FirestoreStore) SaveResponse(ctx context.Context, record Record, now time.Time, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now = now.UTC()
	ref, err := s.docs.DocumentRef(ctx, documentID(record.Key))
	if err != nil {
		return err
	}

	record.Completed = true
	record.ExpiresAt = now.Add(ttl)
	err = s.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}
		if err == nil {
			var doc keyDocument
			if err := snap.DataTo(&doc); err != nil {
				return err
			}
			if doc.Fingerprint != record.Fingerprint {
				return ErrFingerprintMismatch
			}
		}
		return tx.Set(ref, newKeyDocument(record, now))
	}, pfirestore.WithTxAttempts(defaultTxAttempts))
	if errors.Is(err, ErrFingerprintMismatch) {
		return ErrFingerprintMismatch
	}
	return pfirestore.WrapError(opSaveResponse, err)
}

func (s *FirestoreStore) Release(ctx context.Context, key string) error {
	ref, err := s.docs.DocumentRef(ctx, documentID(key))
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil && status.Code(err) != codes.NotFound {
		return pfirestore.WrapError(opReleaseKey, err)
	}
	return nil
}

type keyDocument struct {
	Key         string              `firestore:"key"`
	Fingerprint string              `firestore:"fingerprint"`
	Completed   bool                `firestore:"completed"`
	Status      int                 `firestore:"status"`
	Header      map[string][]string `firestore:"header,omitempty"`
	Body        []byte              `firestore:"body,omitempty"`
	UpdatedAt   time.Time           `firestore:"updatedAt"`
	ExpiresAt   time.Time           `firestore:"expiresAt"`
}

func newKeyDocument(r Record, now time.Time) keyDocument {
	return keyDocument{
		Key:         r.Key,
		Fingerprint: r.Fingerprint,
		Completed:   r.Completed,
		Status:      r.Status,
		Header:      r.Header,
		Body:        r.Body,
		UpdatedAt:   now,
		ExpiresAt:   r.ExpiresAt,
	}
}

func (d keyDocument) record() Record {
	return Record{
		Key:         d.Key,
		Fingerprint: d.Fingerprint,
		Completed:   d.Completed,
		Status:      d.Status,
		Header:      d.Header,
		Body:        d.Body,
		ExpiresAt:   d.ExpiresAt,
	}
}
