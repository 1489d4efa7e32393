package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"

	"github.com/brightcart/api/internal/catalog"
	domain "github.com/brightcart/api/internal/domain"
	"github.com/brightcart/api/internal/repositories"
)

const (
	maxProductImages = 3

	adminEventGenericDestination = "catalog.admin.generic_destination"
	adminEventPublishFailed      = "catalog.admin.publish_failed"
)

// ProductAdminServiceDeps bundles collaborators required by the product admin service.
type ProductAdminServiceDeps struct {
	Registry    *catalog.Registry
	Catalogs    repositories.Registry
	Presenter   *ProductPresenter
	Events      ProductEventPublisher
	Clock       func() time.Time
	IDGenerator func() string
	Logger      LogFunc
}

type productAdminService struct {
	registry  *catalog.Registry
	catalogs  repositories.Registry
	presenter *ProductPresenter
	events    ProductEventPublisher
	clock     func() time.Time
	newID     func() string
	sanitizer *bluemonday.Policy
	logger    LogFunc
}

var _ ProductAdminService = (*productAdminService)(nil)

// NewProductAdminService constructs the admin write path.
func NewProductAdminService(deps ProductAdminServiceDeps) (ProductAdminService, error) {
	if deps.Registry == nil {
		return nil, errors.New("product admin service: catalog registry is required")
	}
	if deps.Catalogs == nil {
		return nil, errors.New("product admin service: repository registry is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	presenter := deps.Presenter
	if presenter == nil {
		presenter = NewProductPresenter(nil)
	}
	logger := deps.Logger
	if logger == nil {
		logger = noopLogger
	}
	return &productAdminService{
		registry:  deps.Registry,
		catalogs:  deps.Catalogs,
		presenter: presenter,
		events:    deps.Events,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:     idGen,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger,
	}, nil
}

func (s *productAdminService) CreateProduct(ctx context.Context, cmd CreateProductCommand) (domain.Product, error) {
	product, err := s.buildProduct(cmd)
	if err != nil {
		return domain.Product{}, err
	}

	destination := s.registry.Classify(product.Category)
	if destination == s.registry.Generic().Domain {
		s.logger(ctx, adminEventGenericDestination, map[string]any{
			"category": product.Category,
		})
	}
	repo := s.catalogs.Catalog(destination)
	if repo == nil {
		return domain.Product{}, fmt.Errorf("product admin service: catalog %s has no store", destination)
	}

	product.ID = s.newID()
	product.Catalog = destination
	product.CreatedAt = s.clock()

	if err := repo.Insert(ctx, product); err != nil {
		if isRepositoryConflict(err) {
			return domain.Product{}, fmt.Errorf("%w: %s", ErrProductConflict, product.ID)
		}
		return domain.Product{}, err
	}

	if s.events != nil {
		event := ProductCreatedEvent{
			ProductID: product.ID,
			Catalog:   destination,
			Title:     product.Title,
			Category:  product.Category,
			ActorID:   strings.TrimSpace(cmd.ActorID),
			CreatedAt: product.CreatedAt,
		}
		if _, err := s.events.PublishProductCreated(ctx, event); err != nil {
			s.logger(ctx, adminEventPublishFailed, map[string]any{
				"productId": product.ID,
				"error":     err.Error(),
			})
		}
	}

	return s.presenter.Present(product), nil
}

func (s *productAdminService) buildProduct(cmd CreateProductCommand) (domain.Product, error) {
	title := strings.TrimSpace(cmd.Title)
	if title == "" {
		return domain.Product{}, fmt.Errorf("%w: title is required", ErrCatalogInvalidInput)
	}
	category := strings.TrimSpace(cmd.Category)
	if category == "" {
		return domain.Product{}, fmt.Errorf("%w: category is required", ErrCatalogInvalidInput)
	}
	if math.IsNaN(cmd.ListPrice) || math.IsInf(cmd.ListPrice, 0) || cmd.ListPrice < 0 {
		return domain.Product{}, fmt.Errorf("%w: list price must be a non-negative number", ErrCatalogInvalidInput)
	}

	images := make([]string, 0, len(cmd.Images))
	for _, raw := range cmd.Images {
		if v := strings.TrimSpace(raw); v != "" {
			images = append(images, v)
		}
	}
	if len(images) == 0 {
		return domain.Product{}, fmt.Errorf("%w: at least one image is required", ErrCatalogInvalidInput)
	}
	if len(images) > maxProductImages {
		return domain.Product{}, fmt.Errorf("%w: at most %d images are allowed", ErrCatalogInvalidInput, maxProductImages)
	}
	var slots [maxProductImages]string
	copy(slots[:], images)

	var attrs map[string]any
	for key, value := range cmd.Attributes {
		key = strings.TrimSpace(key)
		if key == "" || value == nil {
			continue
		}
		if str, ok := value.(string); ok {
			str = strings.TrimSpace(str)
			if str == "" {
				continue
			}
			value = str
		}
		if attrs == nil {
			attrs = make(map[string]any, len(cmd.Attributes))
		}
		attrs[key] = value
	}

	return domain.Product{
		Title:           title,
		ListPrice:       cmd.ListPrice,
		DiscountPercent: clampDiscount(cmd.DiscountPercent),
		Description:     strings.TrimSpace(s.sanitizer.Sanitize(cmd.Description)),
		Category:        category,
		CategoryRef:     strings.TrimSpace(cmd.CategoryRef),
		Subcategory:     strings.TrimSpace(cmd.Subcategory),
		Attributes:      attrs,
		Images: domain.ProductImages{
			Image1: slots[0],
			Image2: slots[1],
			Image3: slots[2],
		},
	}, nil
}

func clampDiscount(pct float64) float64 {
	switch {
	case math.IsNaN(pct), pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return pct
	}
}
