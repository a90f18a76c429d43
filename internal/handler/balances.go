// internal/handler/balances.go
package handler

import (
	"net/http"

	"networth-tracker/internal/cache"
	"networth-tracker/internal/domain"
	"networth-tracker/internal/middleware"
	"networth-tracker/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// BalanceHandler serves assets and liabilities.
type BalanceHandler struct {
	base
	store storage.BalanceStorage
}

func NewBalanceHandler(store storage.BalanceStorage, dash *cache.Dashboard, detailedErrors bool) *BalanceHandler {
	return &BalanceHandler{base: base{detailedErrors: detailedErrors, dash: dash}, store: store}
}

// ListAssets GET /api/assets
func (h *BalanceHandler) ListAssets(c *gin.Context) {
	assets, err := h.store.ListAssets(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.internalError(c, err, "Failed to load assets")
		return
	}
	c.JSON(http.StatusOK, gin.H{"assets": assets})
}

// CreateAsset POST /api/assets
func (h *BalanceHandler) CreateAsset(c *gin.Context) {
	var req AssetRequest
	if !bindJSON(c, &req) {
		return
	}
	typ, _ := domain.ParseAssetType(req.Type)

	a := &domain.Asset{UserID: middleware.UserID(c), Name: req.Name, Type: typ, Value: *req.Value}
	if err := h.store.CreateAsset(c.Request.Context(), a); err != nil {
		h.storeError(c, err, "Asset", "Failed to create asset")
		return
	}
	h.invalidate(c)
	c.JSON(http.StatusCreated, gin.H{"asset": a})
}

// UpdateAsset PUT /api/assets/:id
func (h *BalanceHandler) UpdateAsset(c *gin.Context) {
	id, ok := paramID(c, "asset")
	if !ok {
		return
	}
	var req AssetRequest
	if !bindJSON(c, &req) {
		return
	}
	typ, _ := domain.ParseAssetType(req.Type)

	a := &domain.Asset{ID: id, UserID: middleware.UserID(c), Name: req.Name, Type: typ, Value: *req.Value}
	if err := h.store.UpdateAsset(c.Request.Context(), a); err != nil {
		h.storeError(c, err, "Asset", "Failed to update asset")
		return
	}
	h.invalidate(c)
	c.JSON(http.StatusOK, gin.H{"asset": a})
}

// DeleteAsset DELETE /api/assets/:id
func (h *BalanceHandler) DeleteAsset(c *gin.Context) {
	id, ok := paramID(c, "asset")
	if !ok {
		return
	}
	if err := h.store.DeleteAsset(c.Request.Context(), middleware.UserID(c), id); err != nil {
		h.storeError(c, err, "Asset", "Failed to delete asset")
		return
	}
	h.invalidate(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListLiabilities GET /api/liabilities
func (h *BalanceHandler) ListLiabilities(c *gin.Context) {
	liabilities, err := h.store.ListLiabilities(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.internalError(c, err, "Failed to load liabilities")
		return
	}
	c.JSON(http.StatusOK, gin.H{"liabilities": liabilities})
}

// CreateLiability POST /api/liabilities
func (h *BalanceHandler) CreateLiability(c *gin.Context) {
	var req LiabilityRequest
	if !bindJSON(c, &req) {
		return
	}
	typ, _ := domain.ParseLiabilityType(req.Type)

	l := &domain.Liability{UserID: middleware.UserID(c), Name: req.Name, Type: typ, Value: *req.Value}
	if err := h.store.CreateLiability(c.Request.Context(), l); err != nil {
		h.storeError(c, err, "Liability", "Failed to create liability")
		return
	}
	h.invalidate(c)
	c.JSON(http.StatusCreated, gin.H{"liability": l})
}

// UpdateLiability PUT /api/liabilities/:id
func (h *BalanceHandler) UpdateLiability(c *gin.Context) {
	id, ok := paramID(c, "liability")
	if !ok {
		return
	}
	var req LiabilityRequest
	if !bindJSON(c, &req) {
		return
	}
	typ, _ := domain.ParseLiabilityType(req.Type)

	l := &domain.Liability{ID: id, UserID: middleware.UserID(c), Name: req.Name, Type: typ, Value: *req.Value}
	if err := h.store.UpdateLiability(c.Request.Context(), l); err != nil {
		h.storeError(c, err, "Liability", "Failed to update liability")
		return
	}
	h.invalidate(c)
	c.JSON(http.StatusOK, gin.H{"liability": l})
}

// DeleteLiability DELETE /api/liabilities/:id
func (h *BalanceHandler) DeleteLiability(c *gin.Context) {
	id, ok := paramID(c, "liability")
	if !ok {
		return
	}
	if err := h.store.DeleteLiability(c.Request.Context(), middleware.UserID(c), id); err != nil {
		h.storeError(c, err, "Liability", "Failed to delete liability")
		return
	}
	h.invalidate(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// === DTO ===

type AssetRequest struct {
	Name  string           `json:"name" validate:"required,notblank,max=255"`
	Type  string           `json:"type" validate:"required,assettype"`
	Value *decimal.Decimal `json:"value" validate:"required,cents,dnonnegative"`
}

type LiabilityRequest struct {
	Name  string           `json:"name" validate:"required,notblank,max=255"`
	Type  string           `json:"type" validate:"required,liabilitytype"`
	Value *decimal.Decimal `json:"value" validate:"required,cents,dnonnegative"`
}
