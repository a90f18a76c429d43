// internal/handler/transactions.go
package handler

import (
	"net/http"
	"strconv"
	"strings"

	"networth-tracker/internal/cache"
	"networth-tracker/internal/domain"
	"networth-tracker/internal/middleware"
	"networth-tracker/internal/storage"
	val "networth-tracker/internal/validator"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type TransactionHandler struct {
	base
	store storage.TransactionStorage
}

func NewTransactionHandler(store storage.TransactionStorage, dash *cache.Dashboard, detailedErrors bool) *TransactionHandler {
	return &TransactionHandler{base: base{detailedErrors: detailedErrors, dash: dash}, store: store}
}

type pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

// queryInt reads an optional integer query parameter, falling back to def when absent.
func queryInt(c *gin.Context, name string, def, lo, hi int) (int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": name + " must be an integer of at least " + strconv.Itoa(lo)})
		return 0, false
	}
	if n > hi {
		n = hi
	}
	return n, true
}

func (h *TransactionHandler) filter(c *gin.Context) (storage.TransactionFilter, bool) {
	var f storage.TransactionFilter
	var ok bool

	if f.From, ok = queryDate(c, "startDate"); !ok {
		return f, false
	}
	if f.To, ok = queryDate(c, "endDate"); !ok {
		return f, false
	}
	if f.Type, ok = queryType(c, "type"); !ok {
		return f, false
	}
	if f.CategoryID, ok = queryID(c, "categoryId"); !ok {
		return f, false
	}
	if f.SubCategoryID, ok = queryID(c, "subcategoryId"); !ok {
		return f, false
	}
	if f.Limit, ok = queryInt(c, "limit", 0, 1, storage.MaxPageSize); !ok {
		return f, false
	}
	if f.Page, ok = queryInt(c, "page", 1, 1, storage.MaxPage); !ok {
		return f, false
	}
	if f.PageSize, ok = queryInt(c, "pageSize", storage.DefaultPageSize, 1, storage.MaxPageSize); !ok {
		return f, false
	}
	f.PaymentMode = strings.TrimSpace(c.Query("paymentMode"))
	f.Search = c.Query("search")
	return f, true
}

// List GET /api/transactions
func (h *TransactionHandler) List(c *gin.Context) {
	f, ok := h.filter(c)
	if !ok {
		return
	}

	txs, total, err := h.store.ListTransactions(c.Request.Context(), middleware.UserID(c), f)
	if err != nil {
		h.internalError(c, err, "Failed to fetch transactions")
		return
	}

	p := pagination{Page: f.Page, PageSize: f.PageSize, Total: total}
	if f.Limit > 0 {
		p.Page, p.PageSize = 1, f.Limit
	}
	p.TotalPages = (total + int64(p.PageSize) - 1) / int64(p.PageSize)

	c.JSON(http.StatusOK, gin.H{"success": true, "data": txs, "pagination": p})
}

// Get GET /api/transactions/:id
func (h *TransactionHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "transaction")
	if !ok {
		return
	}
	t, err := h.store.GetTransaction(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		h.storeError(c, err, "Transaction", "Failed to fetch transaction")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": t})
}

// Create POST /api/transactions
func (h *TransactionHandler) Create(c *gin.Context) {
	var req TransactionRequest
	if !bindJSON(c, &req) {
		return
	}

	t := req.toDomain(middleware.UserID(c))
	if err := h.store.CreateTransaction(c.Request.Context(), t); err != nil {
		h.storeError(c, err, "Transaction", "Failed to create transaction")
		return
	}
	h.invalidate(c)
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": t})
}

// Update PUT /api/transactions/:id
func (h *TransactionHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "transaction")
	if !ok {
		return
	}
	var req TransactionRequest
	if !bindJSON(c, &req) {
		return
	}

	t := req.toDomain(middleware.UserID(c))
	t.ID = id
	if err := h.store.UpdateTransaction(c.Request.Context(), t); err != nil {
		h.storeError(c, err, "Transaction", "Failed to update transaction")
		return
	}
	h.invalidate(c)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": t})
}

// Delete DELETE /api/transactions/:id
func (h *TransactionHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "transaction")
	if !ok {
		return
	}
	if err := h.store.DeleteTransaction(c.Request.Context(), middleware.UserID(c), id); err != nil {
		h.storeError(c, err, "Transaction", "Failed to delete transaction")
		return
	}
	h.invalidate(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// === DTO ===

type TransactionRequest struct {
	Date          string           `json:"date" validate:"required,isodate"`
	Type          string           `json:"type" validate:"required,categorytype"`
	CategoryID    *int64           `json:"categoryId" validate:"omitempty,gt=0"`
	SubCategoryID *int64           `json:"subcategoryId" validate:"omitempty,gt=0"`
	Amount        *decimal.Decimal `json:"amount" validate:"required,cents,dpositive"`
	PaymentMode   string           `json:"paymentMode" validate:"required,notblank,max=32"`
	Card          *string          `json:"card" validate:"omitempty,max=64"`
	Description   *string          `json:"description"`
	// Details is accepted as an older name for Description.
	Details *string `json:"details"`
}

func (r TransactionRequest) toDomain(userID int64) *domain.Transaction {
	date, _ := val.ParseDate(r.Date)
	typ, _ := domain.ParseCategoryType(r.Type)

	desc := trimmedOrNil(r.Description)
	if desc == nil {
		desc = trimmedOrNil(r.Details)
	}

	return &domain.Transaction{
		UserID:        userID,
		Date:          date,
		Type:          typ,
		CategoryID:    r.CategoryID,
		SubCategoryID: r.SubCategoryID,
		Amount:        *r.Amount,
		PaymentMode:   strings.ToLower(strings.TrimSpace(r.PaymentMode)),
		Card:          trimmedOrNil(r.Card),
		Description:   desc,
	}
}
