package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-idempotent-catalogsync/internal/catalog"
)

// DefaultListLimit applies when a list request carries no limit.
const DefaultListLimit = 50

// CatalogReader is the read side of the entity store.
type CatalogReader interface {
	GetUser(ctx context.Context, userID string) (*catalog.User, error)
	ListUsers(ctx context.Context, limit int) ([]catalog.User, error)
	GetProduct(ctx context.Context, productID string) (*catalog.Product, error)
	ListProducts(ctx context.Context, limit int) ([]catalog.Product, error)
}

// RegisterCatalogRoutes registers the user and product read endpoints.
func RegisterCatalogRoutes(r gin.IRouter, store CatalogReader) {
	r.GET("/users", func(c *gin.Context) {
		limit, ok := parseLimit(c)
		if !ok {
			return
		}
		users, err := store.ListUsers(c.Request.Context(), limit)
		if err != nil {
			internalError(c, "list_users_failed", err)
			return
		}
		c.JSON(http.StatusOK, users)
	})

	r.GET("/users/:id", func(c *gin.Context) {
		u, err := store.GetUser(c.Request.Context(), c.Param("id"))
		if err != nil {
			internalError(c, "get_user_failed", err)
			return
		}
		if u == nil {
			notFound(c)
			return
		}
		c.JSON(http.StatusOK, u)
	})

	r.GET("/products", func(c *gin.Context) {
		limit, ok := parseLimit(c)
		if !ok {
			return
		}
		products, err := store.ListProducts(c.Request.Context(), limit)
		if err != nil {
			internalError(c, "list_products_failed", err)
			return
		}
		c.JSON(http.StatusOK, products)
	})

	r.GET("/products/:id", func(c *gin.Context) {
		p, err := store.GetProduct(c.Request.Context(), c.Param("id"))
		if err != nil {
			internalError(c, "get_product_failed", err)
			return
		}
		if p == nil {
			notFound(c)
			return
		}
		c.JSON(http.StatusOK, p)
	})
}

// parseLimit reads ?limit=N. Zero means unbounded; negative or non-numeric
// values are rejected with a 400.
func parseLimit(c *gin.Context) (int, bool) {
	raw, ok := c.GetQuery("limit")
	if !ok || raw == "" {
		return DefaultListLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_limit", "detail": "limit must be a non-negative integer"})
		return 0, false
	}
	return n, true
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
}

func internalError(c *gin.Context, code string, err error) {
	logger(c).Error("request failed", "error", err, "code", code)
	c.JSON(http.StatusInternalServerError, gin.H{"error": code, "detail": err.Error()})
}
