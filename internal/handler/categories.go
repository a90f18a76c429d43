// internal/handler/categories.go
package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"networth-tracker/internal/cache"
	"networth-tracker/internal/domain"
	"networth-tracker/internal/middleware"
	"networth-tracker/internal/storage"

	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	base
	store storage.CategoryStorage
}

func NewCategoryHandler(store storage.CategoryStorage, dash *cache.Dashboard, detailedErrors bool) *CategoryHandler {
	return &CategoryHandler{base: base{detailedErrors: detailedErrors, dash: dash}, store: store}
}

// buildTree turns stored categories into the name-keyed editor tree.
func buildTree(cats []domain.Category) domain.CategoryTree {
	tree := domain.NewCategoryTree()
	for _, cat := range cats {
		subs := make([]string, 0, len(cat.SubCategories))
		for _, sc := range cat.SubCategories {
			subs = append(subs, sc.Name)
		}
		tree[cat.Type.TreeKey()][cat.Name] = subs
	}
	return tree
}

// List GET /api/categories
func (h *CategoryHandler) List(c *gin.Context) {
	typ, ok := queryType(c, "type")
	if !ok {
		return
	}

	cats, err := h.store.ListCategories(c.Request.Context(), middleware.UserID(c), typ)
	if err != nil {
		h.internalError(c, err, "Failed to load categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": buildTree(cats), "categories": cats})
}

// Get GET /api/categories/:id
func (h *CategoryHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "category")
	if !ok {
		return
	}
	cat, err := h.store.GetCategory(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		h.storeError(c, err, "Category", "Failed to load category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": cat})
}

// Create POST /api/categories
func (h *CategoryHandler) Create(c *gin.Context) {
	var req CategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	typ, _ := domain.ParseCategoryType(req.Type)

	cat := &domain.Category{UserID: middleware.UserID(c), Type: typ, Name: req.Name}
	if err := h.store.CreateCategory(c.Request.Context(), cat); err != nil {
		h.storeError(c, err, "Category", "Failed to create category")
		return
	}
	h.invalidate(c)
	c.JSON(http.StatusCreated, gin.H{"category": cat})
}

// Update PUT /api/categories/:id
func (h *CategoryHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "category")
	if !ok {
		return
	}
	var req CategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	typ, _ := domain.ParseCategoryType(req.Type)

	cat := &domain.Category{ID: id, UserID: middleware.UserID(c), Type: typ, Name: req.Name}
	err := h.store.UpdateCategory(c.Request.Context(), cat)
	if errors.Is(err, domain.ErrInUse) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Cannot change type of category with transactions"})
		return
	}
	if err != nil {
		h.storeError(c, err, "Category", "Failed to update category")
		return
	}
	h.invalidate(c)
	c.JSON(http.StatusOK, gin.H{"category": cat})
}

// Delete DELETE /api/categories/:id
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "category")
	if !ok {
		return
	}
	err := h.store.DeleteCategory(c.Request.Context(), middleware.UserID(c), id)
	if errors.Is(err, domain.ErrInUse) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Cannot delete category with transactions"})
		return
	}
	if err != nil {
		h.storeError(c, err, "Category", "Failed to delete category")
		return
	}
	h.invalidate(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Bulk POST /api/categories/bulk replaces the caller's whole tree atomically.
func (h *CategoryHandler) Bulk(c *gin.Context) {
	var req BulkCategoriesRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if req.Categories == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "No categories provided"})
		return
	}

	userID := middleware.UserID(c)
	cats, err := h.store.ReplaceCategoryTree(c.Request.Context(), userID, req.Categories)
	if err != nil {
		h.internalError(c, err, "Failed to save categories")
		return
	}
	h.invalidate(c)

	slog.Info("category tree replaced", "user_id", userID, "categories", len(cats))
	c.JSON(http.StatusOK, gin.H{"success": true, "categories": cats})
}

// ListSub GET /api/subcategories
func (h *CategoryHandler) ListSub(c *gin.Context) {
	categoryID, ok := queryID(c, "categoryId")
	if !ok {
		return
	}
	subs, err := h.store.ListSubCategories(c.Request.Context(), middleware.UserID(c), categoryID)
	if err != nil {
		h.internalError(c, err, "Failed to load subcategories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"subcategories": subs})
}

// GetSub GET /api/subcategories/:id
func (h *CategoryHandler) GetSub(c *gin.Context) {
	id, ok := paramID(c, "subcategory")
	if !ok {
		return
	}
	sc, err := h.store.GetSubCategory(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		h.storeError(c, err, "Subcategory", "Failed to load subcategory")
		return
	}
	c.JSON(http.StatusOK, gin.H{"subcategory": sc})
}

// CreateSub POST /api/subcategories
func (h *CategoryHandler) CreateSub(c *gin.Context) {
	var req SubCategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	sc := &domain.SubCategory{UserID: middleware.UserID(c), CategoryID: *req.CategoryID, Name: req.Name}
	err := h.store.CreateSubCategory(c.Request.Context(), sc)
	if errors.Is(err, domain.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}
	if err != nil {
		h.storeError(c, err, "Subcategory", "Failed to create subcategory")
		return
	}
	h.invalidate(c)
	c.JSON(http.StatusCreated, gin.H{"subcategory": sc})
}

// UpdateSub PUT /api/subcategories/:id
func (h *CategoryHandler) UpdateSub(c *gin.Context) {
	id, ok := paramID(c, "subcategory")
	if !ok {
		return
	}
	var req RenameRequest
	if !bindJSON(c, &req) {
		return
	}

	sc := &domain.SubCategory{ID: id, UserID: middleware.UserID(c), Name: req.Name}
	if err := h.store.UpdateSubCategory(c.Request.Context(), sc); err != nil {
		h.storeError(c, err, "Subcategory", "Failed to update subcategory")
		return
	}
	h.invalidate(c)
	c.JSON(http.StatusOK, gin.H{"subcategory": sc})
}

// DeleteSub DELETE /api/subcategories/:id
func (h *CategoryHandler) DeleteSub(c *gin.Context) {
	id, ok := paramID(c, "subcategory")
	if !ok {
		return
	}
	err := h.store.DeleteSubCategory(c.Request.Context(), middleware.UserID(c), id)
	if errors.Is(err, domain.ErrInUse) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Cannot delete subcategory with transactions"})
		return
	}
	if err != nil {
		h.storeError(c, err, "Subcategory", "Failed to delete subcategory")
		return
	}
	h.invalidate(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// === DTO ===

type CategoryRequest struct {
	Type string `json:"type" validate:"required,categorytype"`
	Name string `json:"name" validate:"required,notblank,max=255"`
}

type BulkCategoriesRequest struct {
	Categories domain.CategoryTree `json:"categories"`
}

type SubCategoryRequest struct {
	CategoryID *int64 `json:"categoryId" validate:"required,gt=0"`
	Name       string `json:"name" validate:"required,notblank,max=255"`
}

type RenameRequest struct {
	Name string `json:"name" validate:"required,notblank,max=255"`
}
