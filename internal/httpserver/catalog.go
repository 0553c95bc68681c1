package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) CategoryTree(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.category_tree")

	tree, err := h.Svc.CategoryTree(ctx)
	if err != nil {
		return fail(l, "category_tree_error", err)
	}
	return respond(c, http.StatusOK, tree)
}

func (h *CatalogHTTP) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.create_category")

	var req transport.CategoryRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "create_category_error", badBody(err))
	}
	cat, err := h.Svc.CreateCategory(ctx, req)
	if err != nil {
		return fail(l, "create_category_error", err)
	}
	l.Info("category created", "category_id", cat.ID)
	return respond(c, http.StatusCreated, cat)
}

func (h *CatalogHTTP) UpdateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.update_category")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "update_category_error", err)
	}
	var req transport.CategoryRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "update_category_error", badBody(err))
	}
	cat, err := h.Svc.UpdateCategory(ctx, id, req)
	if err != nil {
		return fail(l, "update_category_error", err)
	}
	return respond(c, http.StatusOK, cat)
}

func (h *CatalogHTTP) DeleteCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.delete_category")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "delete_category_error", err)
	}
	if err := h.Svc.DeleteCategory(ctx, id); err != nil {
		return fail(l, "delete_category_error", err)
	}
	l.Info("category deleted", "category_id", id)
	return respond(c, http.StatusOK, nil)
}

func (h *CatalogHTTP) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.list_products")

	var category *uuid.UUID
	if v := c.QueryParam("category"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			fe := transport.FieldErrors{}
			fe.Add("category", "must be a uuid")
			return fail(l, "list_products_error", fe)
		}
		category = &id
	}

	p := pageOf(c)
	total, items, err := h.Svc.ListProducts(ctx, category, c.QueryParam("sort"), p.offset, p.limit)
	if err != nil {
		return fail(l, "list_products_error", err)
	}
	return respond(c, http.StatusOK, p.wrap(items, total))
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_product")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "get_product_error", err)
	}
	p, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return fail(l, "get_product_error", err)
	}
	return respond(c, http.StatusOK, p)
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.search_products")

	p := pageOf(c)
	total, items, err := h.Svc.SearchProducts(ctx, c.QueryParam("q"), p.offset, p.limit)
	if err != nil {
		return fail(l, "search_products_error", err)
	}
	return respond(c, http.StatusOK, p.wrap(items, total))
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.create_product")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "create_product_error", badBody(err))
	}
	p, err := h.Svc.CreateProduct(ctx, req)
	if err != nil {
		return fail(l, "create_product_error", err)
	}
	l.Info("product created", "product_id", p.ID)
	return respond(c, http.StatusCreated, p)
}

func (h *CatalogHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.update_product")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "update_product_error", err)
	}
	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "update_product_error", badBody(err))
	}
	p, err := h.Svc.UpdateProduct(ctx, id, req)
	if err != nil {
		return fail(l, "update_product_error", err)
	}
	return respond(c, http.StatusOK, p)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.delete_product")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "delete_product_error", err)
	}
	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		return fail(l, "delete_product_error", err)
	}
	l.Info("product deleted", "product_id", id)
	return respond(c, http.StatusOK, nil)
}
