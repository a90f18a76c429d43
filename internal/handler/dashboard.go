// internal/handler/dashboard.go
package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"networth-tracker/internal/analytics"
	"networth-tracker/internal/cache"
	"networth-tracker/internal/domain"
	"networth-tracker/internal/middleware"
	"networth-tracker/internal/money"
	"networth-tracker/internal/storage"

	"github.com/gin-gonic/gin"
)

const recentTransactions = 10

type DashboardStore interface {
	storage.BalanceStorage
	RecentTransactions(ctx context.Context, userID int64, n int) ([]domain.Transaction, error)
	TransactionsBetween(ctx context.Context, userID int64, from, to time.Time, typ *domain.CategoryType) ([]domain.Transaction, error)
}

type DashboardHandler struct {
	base
	store     DashboardStore
	formatter *money.Formatter
	now       func() time.Time
}

func NewDashboardHandler(store DashboardStore, dash *cache.Dashboard, formatter *money.Formatter, detailedErrors bool) *DashboardHandler {
	return &DashboardHandler{
		base:      base{detailedErrors: detailedErrors, dash: dash},
		store:     store,
		formatter: formatter,
		now:       time.Now,
	}
}

type summaryResponse struct {
	analytics.Totals
	NetWorthFormatted  string               `json:"netWorthFormatted"`
	RecentTransactions []domain.Transaction `json:"recentTransactions"`
}

func (h *DashboardHandler) totals(ctx context.Context, userID int64) (analytics.Totals, error) {
	assets, err := h.store.ListAssets(ctx, userID)
	if err != nil {
		return analytics.Totals{}, err
	}
	liabilities, err := h.store.ListLiabilities(ctx, userID)
	if err != nil {
		return analytics.Totals{}, err
	}
	return analytics.Summarize(assets, liabilities), nil
}

// Summary GET /api/dashboard/summary
func (h *DashboardHandler) Summary(c *gin.Context) {
	userID := middleware.UserID(c)
	resp, err := cache.Remember(c.Request.Context(), h.dash, userID, "summary", nil,
		func(ctx context.Context) (summaryResponse, error) {
			totals, err := h.totals(ctx, userID)
			if err != nil {
				return summaryResponse{}, err
			}
			recent, err := h.store.RecentTransactions(ctx, userID, recentTransactions)
			if err != nil {
				return summaryResponse{}, err
			}
			return summaryResponse{
				Totals:             totals,
				NetWorthFormatted:  h.formatter.Format(totals.NetWorth),
				RecentTransactions: recent,
			}, nil
		})
	if err != nil {
		h.internalError(c, err, "Internal server error")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// NetWorthSeries GET /api/dashboard/net-worth-series
func (h *DashboardHandler) NetWorthSeries(c *gin.Context) {
	userID := middleware.UserID(c)
	now := h.now().UTC()
	month := analytics.MonthKey(now.Year(), now.Month())

	points, err := cache.Remember(c.Request.Context(), h.dash, userID, "series", []string{month},
		func(ctx context.Context) ([]analytics.NetWorthPoint, error) {
			totals, err := h.totals(ctx, userID)
			if err != nil {
				return nil, err
			}
			return analytics.NetWorthSeries(now, totals.NetWorth), nil
		})
	if err != nil {
		h.internalError(c, err, "Internal server error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"points": points})
}

// Monthly GET /api/dashboard/monthly?year=YYYY
func (h *DashboardHandler) Monthly(c *gin.Context) {
	year := h.now().UTC().Year()
	if raw := strings.TrimSpace(c.Query("year")); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1900 || y > 9999 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "year must be between 1900 and 9999"})
			return
		}
		year = y
	}

	userID := middleware.UserID(c)
	data, err := cache.Remember(c.Request.Context(), h.dash, userID, "monthly", []string{strconv.Itoa(year)},
		func(ctx context.Context) ([]analytics.MonthSummary, error) {
			from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
			txs, err := h.store.TransactionsBetween(ctx, userID, from, from.AddDate(1, 0, 0), nil)
			if err != nil {
				return nil, err
			}
			return analytics.MonthlyOverview(year, txs), nil
		})
	if err != nil {
		h.internalError(c, err, "Internal server error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"year": year, "data": data})
}

// TopCategories GET /api/dashboard/top-categories?limit=N&startDate=&endDate=
func (h *DashboardHandler) TopCategories(c *gin.Context) {
	limit := analytics.DefaultTopLimit
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		limit = analytics.ClampTopLimit(n)
	}
	start, ok := queryDate(c, "startDate")
	if !ok {
		return
	}
	end, ok := queryDate(c, "endDate")
	if !ok {
		return
	}

	from := time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
	params := []string{strconv.Itoa(limit), "", ""}
	if start != nil {
		from = *start
		params[1] = start.Format("20060102")
	}
	if end != nil {
		// endDate is inclusive.
		to = end.AddDate(0, 0, 1)
		params[2] = end.Format("20060102")
	}

	userID := middleware.UserID(c)
	expense := domain.TypeExpense
	cats, err := cache.Remember(c.Request.Context(), h.dash, userID, "top", params,
		func(ctx context.Context) ([]analytics.CategoryTotal, error) {
			txs, err := h.store.TransactionsBetween(ctx, userID, from, to, &expense)
			if err != nil {
				return nil, err
			}
			return analytics.TopCategories(txs, limit), nil
		})
	if err != nil {
		h.internalError(c, err, "Internal server error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats})
}
