package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/Skotchmaster/storefront/internal/cache"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type ProductCache interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Set(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ProductIndex interface {
	Index(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, from, size int) (int64, []uuid.UUID, error)
}

// CatalogService owns categories and products. Cache and Index are
// optional; without them reads go straight to the database.
type CatalogService struct {
	Repo  *repo.GormRepo
	Cache ProductCache
	Index ProductIndex

	sf singleflight.Group
}

type productEvent struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name,omitempty"`
	Price     string    `json:"price,omitempty"`
	Stock     int       `json:"stock"`
}

func newProductEvent(p *models.Product) productEvent {
	return productEvent{ProductID: p.ID, Name: p.Name, Price: p.Price.String(), Stock: p.Stock}
}

// CategoryTree returns root categories with their children nested.
func (s *CatalogService) CategoryTree(ctx context.Context) ([]*models.Category, error) {
	all, err := s.Repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*models.Category, len(all))
	for i := range all {
		byID[all[i].ID] = &all[i]
	}

	roots := make([]*models.Category, 0)
	for i := range all {
		c := &all[i]
		if c.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		if parent, ok := byID[*c.ParentID]; ok {
			parent.Children = append(parent.Children, c)
		} else {
			roots = append(roots, c)
		}
	}
	return roots, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, req transport.CategoryRequest) (*models.Category, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	if req.ParentID != nil {
		if _, err := s.Repo.GetCategory(ctx, *req.ParentID); err != nil {
			return nil, notFound(err, "parent category")
		}
	}

	c := models.Category{Name: strings.TrimSpace(req.Name), Slug: req.Slug, ParentID: req.ParentID}
	if err := s.Repo.CreateCategory(ctx, &c); err != nil {
		return nil, conflict(err, "slug already used")
	}
	return &c, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, req transport.CategoryRequest) (*models.Category, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	c, err := s.Repo.GetCategory(ctx, id)
	if err != nil {
		return nil, notFound(err, "category")
	}

	if req.ParentID != nil {
		if err := s.checkParent(ctx, id, *req.ParentID); err != nil {
			return nil, err
		}
	}

	c.Name = strings.TrimSpace(req.Name)
	c.Slug = req.Slug
	c.ParentID = req.ParentID
	if err := s.Repo.SaveCategory(ctx, c); err != nil {
		return nil, conflict(err, "slug already used")
	}
	return c, nil
}

// checkParent refuses a parent that is the category itself or one of its
// descendants.
func (s *CatalogService) checkParent(ctx context.Context, id, parentID uuid.UUID) error {
	all, err := s.Repo.ListCategories(ctx)
	if err != nil {
		return err
	}
	parents := make(map[uuid.UUID]*uuid.UUID, len(all))
	for _, c := range all {
		parents[c.ID] = c.ParentID
	}
	if _, ok := parents[parentID]; !ok {
		return fmt.Errorf("parent category: %w", ErrNotFound)
	}

	for cur := &parentID; cur != nil; cur = parents[*cur] {
		if *cur == id {
			return fmt.Errorf("%w: category cannot be nested under itself", ErrValidation)
		}
	}
	return nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	children, products, err := s.Repo.CategoryUsage(ctx, id)
	if err != nil {
		return err
	}
	if children > 0 || products > 0 {
		return fmt.Errorf("%w: category still has %d subcategories and %d products", ErrConflict, children, products)
	}
	return notFound(s.Repo.DeleteCategory(ctx, id), "category")
}

// descendants returns id and every category below it.
func (s *CatalogService) descendants(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	all, err := s.Repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	children := make(map[uuid.UUID][]uuid.UUID)
	found := false
	for _, c := range all {
		if c.ID == id {
			found = true
		}
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c.ID)
		}
	}
	if !found {
		return nil, fmt.Errorf("category: %w", ErrNotFound)
	}

	out := []uuid.UUID{id}
	for i := 0; i < len(out); i++ {
		out = append(out, children[out[i]]...)
	}
	return out, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.get_product")

	if s.Cache != nil {
		p, err := s.Cache.Get(ctx, id)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			l.Warn("product_cache_get_error", "product_id", id, "error", err)
		}
	}

	v, err, _ := s.sf.Do(id.String(), func() (any, error) {
		p, err := s.Repo.GetProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		if s.Cache != nil {
			if err := s.Cache.Set(ctx, p); err != nil {
				l.Warn("product_cache_set_error", "product_id", id, "error", err)
			}
		}
		return p, nil
	})
	if err != nil {
		return nil, notFound(err, "product")
	}
	p := *v.(*models.Product)
	return &p, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, categoryID *uuid.UUID, sort string, offset, limit int) (int64, []models.Product, error) {
	f := repo.ProductFilter{Sort: sort}
	switch sort {
	case "", repo.SortNewest, repo.SortPriceAsc, repo.SortPriceDesc:
	default:
		return 0, nil, fmt.Errorf("%w: unknown sort %q", ErrValidation, sort)
	}

	if categoryID != nil {
		ids, err := s.descendants(ctx, *categoryID)
		if err != nil {
			return 0, nil, err
		}
		f.CategoryIDs = ids
	}
	return s.Repo.GetProducts(ctx, f, offset, limit)
}

// SearchProducts uses the search index when one is configured and falls
// back to a database LIKE query otherwise or when the index fails.
func (s *CatalogService) SearchProducts(ctx context.Context, query string, offset, limit int) (int64, []models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.search_products")

	query = strings.TrimSpace(query)
	if query == "" {
		return 0, nil, fmt.Errorf("%w: query is empty", ErrValidation)
	}

	if s.Index != nil {
		total, ids, err := s.Index.Search(ctx, query, offset, limit)
		if err == nil {
			found, err := s.Repo.GetProductsByIDs(ctx, ids)
			if err != nil {
				return 0, nil, err
			}
			items := make([]models.Product, 0, len(ids))
			for _, id := range ids {
				if p, ok := found[id]; ok {
					items = append(items, p)
				}
			}
			return total, items, nil
		}
		l.Warn("search_index_error", "error", err)
	}

	return s.Repo.SearchProductsLike(ctx, query, offset, limit)
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	if req.CategoryID != nil {
		if _, err := s.Repo.GetCategory(ctx, *req.CategoryID); err != nil {
			return nil, notFound(err, "category")
		}
	}

	p := models.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
		Images:      req.Images,
	}
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if err := tx.CreateProduct(ctx, &p); err != nil {
			return err
		}
		return tx.AddOutbox(ctx, models.TopicProductEvents, "product_created", p.ID.String(), newProductEvent(&p))
	})
	if err != nil {
		return nil, err
	}

	s.reindex(ctx, &p)
	return &p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, req transport.PatchProductRequest) (*models.Product, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	if req.CategoryID != nil {
		if _, err := s.Repo.GetCategory(ctx, *req.CategoryID); err != nil {
			return nil, notFound(err, "category")
		}
	}

	var p *models.Product
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		cur, err := tx.GetProduct(ctx, id)
		if err != nil {
			return err
		}
		req.Apply(cur)
		if err := tx.SaveProduct(ctx, cur); err != nil {
			return err
		}
		p = cur
		return tx.AddOutbox(ctx, models.TopicProductEvents, "product_updated", cur.ID.String(), newProductEvent(cur))
	})
	if err != nil {
		return nil, notFound(err, "product")
	}

	s.invalidate(ctx, id)
	s.reindex(ctx, p)
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "catalog.delete_product")

	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if err := tx.DeleteProduct(ctx, id); err != nil {
			return err
		}
		return tx.AddOutbox(ctx, models.TopicProductEvents, "product_deleted", id.String(), productEvent{ProductID: id})
	})
	if err != nil {
		return notFound(err, "product")
	}

	s.invalidate(ctx, id)
	if s.Index != nil {
		if err := s.Index.Delete(ctx, id); err != nil {
			l.Warn("search_delete_error", "product_id", id, "error", err)
		}
	}
	return nil
}

// InvalidateProducts drops cached copies, e.g. after checkout changed stock.
func (s *CatalogService) InvalidateProducts(ctx context.Context, ids ...uuid.UUID) {
	for _, id := range ids {
		s.invalidate(ctx, id)
	}
}

func (s *CatalogService) invalidate(ctx context.Context, id uuid.UUID) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Delete(ctx, id); err != nil {
		logging.FromContext(ctx).Warn("product_cache_delete_error", "product_id", id, "error", err)
	}
}

func (s *CatalogService) reindex(ctx context.Context, p *models.Product) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, p); err != nil {
		logging.FromContext(ctx).Warn("search_index_error", "product_id", p.ID, "error", err)
	}
}
