package firestore

import (
	"context"
	"errors"
	"sort"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/brightcart/api/internal/catalog"
	domain "github.com/brightcart/api/internal/domain"
	pfirestore "github.com/brightcart/api/internal/platform/firestore"
	"github.com/brightcart/api/internal/repositories"
)

// CatalogRepository serves one catalog partition stored as a Firestore collection.
// Firestore has no substring operator, so Find streams the collection and evaluates the
// predicate in process.
type CatalogRepository struct {
	domain   domain.CatalogDomain
	provider *pfirestore.Provider
	docs     *pfirestore.BaseRepository[map[string]any]
}

var _ repositories.CatalogRepository = (*CatalogRepository)(nil)

// NewCatalogRepository binds the repository to the collection named by desc.
func NewCatalogRepository(provider *pfirestore.Provider, desc catalog.Descriptor) (*CatalogRepository, error) {
	if provider == nil {
		return nil, errors.New("catalog repository requires firestore provider")
	}
	collection := strings.TrimSpace(desc.Collection)
	if collection == "" {
		return nil, errors.New("catalog repository requires a collection name")
	}
	docs := pfirestore.NewBaseRepository[map[string]any](provider, collection, pfirestore.MapEncoder[map[string]any](), pfirestore.MapDecoder())
	return &CatalogRepository{domain: desc.Domain, provider: provider, docs: docs}, nil
}

func (r *CatalogRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	if r == nil || r.docs == nil {
		return domain.Product{}, errors.New("catalog repository not initialised")
	}
	productID = strings.TrimSpace(productID)
	if !validDocumentID(productID) {
		return domain.Product{}, repositories.NewCatalogError(r.op("get"), repositories.CatalogErrorInvalidID, errors.New("malformed product id"))
	}

	doc, err := r.docs.Get(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}
	product := decodeProduct(doc.ID, doc.Data, doc.CreateTime)
	product.Catalog = r.domain
	return product, nil
}

func (r *CatalogRepository) Find(ctx context.Context, pred catalog.Predicate) ([]domain.Product, error) {
	if r == nil || r.docs == nil {
		return nil, errors.New("catalog repository not initialised")
	}
	if pred == nil {
		pred = catalog.MatchAll()
	}

	// Ordering server-side would drop documents lacking createdAt, so sort after decoding.
	var out []domain.Product
	err := r.docs.Each(ctx, nil, func(doc pfirestore.Document[map[string]any]) error {
		product := decodeProduct(doc.ID, doc.Data, doc.CreateTime)
		product.Catalog = r.domain
		if pred.Match(product) {
			out = append(out, product)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *CatalogRepository) Insert(ctx context.Context, product domain.Product) error {
	if r == nil || r.docs == nil {
		return errors.New("catalog repository not initialised")
	}
	id := strings.TrimSpace(product.ID)
	if !validDocumentID(id) {
		return repositories.NewCatalogError(r.op("insert"), repositories.CatalogErrorInvalidID, errors.New("malformed product id"))
	}

	return r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.docs.DocumentRef(ctx, id)
		if err != nil {
			return err
		}
		if _, err := tx.Get(ref); err == nil {
			return repositories.NewCatalogError(r.op("insert"), repositories.CatalogErrorConflict, errors.New("product "+id+" already exists"))
		} else if status.Code(err) != codes.NotFound {
			return err
		}
		payload, err := r.docs.Encode(ctx, id, encodeProduct(product))
		if err != nil {
			return err
		}
		return tx.Create(ref, payload)
	}, pfirestore.WithTxAttempts(3))
}

func (r *CatalogRepository) Ping(ctx context.Context) error {
	if r == nil || r.docs == nil {
		return errors.New("catalog repository not initialised")
	}
	_, err := r.docs.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Limit(1)
	})
	return err
}

func (r *CatalogRepository) op(action string) string {
	return "firestore." + r.domain.String() + "." + action
}

// validDocumentID rejects ids Firestore cannot address as a single document.
func validDocumentID(id string) bool {
	if id == "" || id == "." || id == ".." || len(id) > 1500 {
		return false
	}
	if strings.Contains(id, "/") {
		return false
	}
	return !(strings.HasPrefix(id, "__") && strings.HasSuffix(id, "__"))
}
