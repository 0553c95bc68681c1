package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
)

type ProductFilter struct {
	CategoryIDs []uuid.UUID
	Sort        string
}

func (r *GormRepo) CreateCategory(ctx context.Context, c *models.Category) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *GormRepo) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var c models.Category
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	var items []models.Category
	if err := r.DB.WithContext(ctx).Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) SaveCategory(ctx context.Context, c *models.Category) error {
	return r.DB.WithContext(ctx).Omit("created_at").Save(c).Error
}

// CategoryUsage counts the direct children and products of a category.
func (r *GormRepo) CategoryUsage(ctx context.Context, id uuid.UUID) (children, products int64, err error) {
	if err = r.DB.WithContext(ctx).Model(&models.Category{}).Where("parent_id = ?", id).Count(&children).Error; err != nil {
		return 0, 0, err
	}
	if err = r.DB.WithContext(ctx).Model(&models.Product{}).Where("category_id = ?", id).Count(&products).Error; err != nil {
		return 0, 0, err
	}
	return children, products, nil
}

func (r *GormRepo) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Category{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductsByIDs returns the found products keyed by id. Missing ids are
// simply absent from the map.
func (r *GormRepo) GetProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var products []models.Product
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func (r *GormRepo) GetProducts(ctx context.Context, f ProductFilter, offset, limit int) (int64, []models.Product, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{})
	if len(f.CategoryIDs) > 0 {
		q = q.Where("category_id IN ?", f.CategoryIDs)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	switch f.Sort {
	case SortPriceAsc:
		q = q.Order("price ASC").Order("id ASC")
	case SortPriceDesc:
		q = q.Order("price DESC").Order("id ASC")
	default:
		q = q.Order("created_at DESC").Order("id ASC")
	}

	var products []models.Product
	if err := q.Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return 0, nil, err
	}
	return total, products, nil
}

// SearchProductsLike is the database fallback for full text search.
func (r *GormRepo) SearchProductsLike(ctx context.Context, query string, offset, limit int) (int64, []models.Product, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	q := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var products []models.Product
	if err := q.Order("name ASC").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return 0, nil, err
	}
	return total, products, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *GormRepo) SaveProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Omit("created_at").Save(p).Error
}

// DeleteProduct removes the product together with cart and wishlist lines
// that still reference it. Orders and sessions keep their snapshots.
func (r *GormRepo) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	db := r.DB.WithContext(ctx)
	if err := db.Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	if err := db.Where("product_id = ?", id).Delete(&models.WishlistItem{}).Error; err != nil {
		return err
	}

	res := db.Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DecrementStock subtracts qty only when enough stock is left. It reports
// whether the row was updated.
func (r *GormRepo) DecrementStock(ctx context.Context, productID uuid.UUID, qty int) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
