package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"networth-tracker/internal/analytics"
	"networth-tracker/internal/auth"
	"networth-tracker/internal/catalog"
	"networth-tracker/internal/domain"
	"networth-tracker/internal/storage/gormstore"
	"networth-tracker/internal/storage/sqlite"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestEnv(t *testing.T) (*gin.Engine, *gormstore.Storage) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := sqlite.New(sqlite.MemoryPath, log)
	require.NoError(t, err)

	router := NewRouter(Deps{
		Store:          store,
		Tokens:         auth.NewTokenService("test-secret", time.Hour),
		Defaults:       catalog.Defaults,
		DetailedErrors: true,
		UploadDir:      t.TempDir(),
		MaxPhotoBytes:  1 << 10,
	})
	return router, store
}

// client keeps the session cookie between requests like a browser would.
type client struct {
	t      *testing.T
	h      http.Handler
	cookie *http.Cookie
}

func newClient(t *testing.T, h http.Handler) *client {
	return &client{t: t, h: h}
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}

	w := httptest.NewRecorder()
	c.h.ServeHTTP(w, req)

	for _, ck := range w.Result().Cookies() {
		if ck.Name != auth.CookieName {
			continue
		}
		if ck.MaxAge < 0 || ck.Value == "" {
			c.cookie = nil
		} else {
			c.cookie = ck
		}
	}
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (c *client) register(email, password string) int64 {
	c.t.Helper()
	w := c.do(http.MethodPost, "/api/auth/register", gin.H{"email": email, "password": password})
	require.Equal(c.t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[struct {
		User struct {
			ID int64 `json:"id"`
		} `json:"user"`
	}](c.t, w)
	return resp.User.ID
}

func (c *client) createCategory(typ, name string) domain.Category {
	c.t.Helper()
	w := c.do(http.MethodPost, "/api/categories", gin.H{"type": typ, "name": name})
	require.Equal(c.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[struct {
		Category domain.Category `json:"category"`
	}](c.t, w).Category
}

func (c *client) createTransaction(body gin.H) domain.Transaction {
	c.t.Helper()
	w := c.do(http.MethodPost, "/api/transactions", body)
	require.Equal(c.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[struct {
		Data domain.Transaction `json:"data"`
	}](c.t, w).Data
}

func categoryTree(t *testing.T, c *client) domain.CategoryTree {
	t.Helper()
	w := c.do(http.MethodGet, "/api/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	return decode[struct {
		Data domain.CategoryTree `json:"data"`
	}](t, w).Data
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	router, _ := newTestEnv(t)
	c := newClient(t, router)

	c.register("dup@example.com", "Secret123")

	w := c.do(http.MethodPost, "/api/auth/register", gin.H{"email": "DUP@example.com", "password": "another1"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"Email already registered"}`, w.Body.String())
}

func TestRegister_SeedsPrivateDefaults(t *testing.T) {
	router, _ := newTestEnv(t)
	c := newClient(t, router)
	c.register("seed@example.com", "Secret123")

	tree := categoryTree(t, c)
	want := catalog.Defaults()
	require.Len(t, tree, len(want))
	for typ, cats := range want {
		require.Len(t, tree[typ], len(cats), typ)
		for name, subs := range cats {
			assert.ElementsMatch(t, subs, tree[typ][name], "%s/%s", typ, name)
		}
	}
}

func TestRegister_MissingFields(t *testing.T) {
	router, _ := newTestEnv(t)
	c := newClient(t, router)

	w := c.do(http.MethodPost, "/api/auth/register", gin.H{"email": "x@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Missing required fields","fields":["password"]}`, w.Body.String())

	w = c.do(http.MethodPost, "/api/auth/register", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Missing required fields","fields":["email","password"]}`, w.Body.String())
}

func TestAuthFlow(t *testing.T) {
	router, _ := newTestEnv(t)
	c := newClient(t, router)
	id := c.register("flow@example.com", "Secret123")

	w := c.do(http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"user":{"id":%d,"email":"flow@example.com"}}`, id), w.Body.String())

	w = c.do(http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, c.cookie)

	w = c.do(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = c.do(http.MethodPost, "/api/auth/login", gin.H{"email": "flow@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Invalid credentials"}`, w.Body.String())

	w = c.do(http.MethodPost, "/api/auth/login", gin.H{"email": "nobody@example.com", "password": "Secret123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = c.do(http.MethodPost, "/api/auth/login", gin.H{"email": "flow@example.com", "password": "Secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, c.cookie)

	w = c.do(http.MethodPost, "/api/auth/change-password", gin.H{"currentPassword": "nope", "newPassword": "Changed123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.do(http.MethodPost, "/api/auth/change-password", gin.H{"currentPassword": "Secret123", "newPassword": "Changed123"})
	require.Equal(t, http.StatusOK, w.Code)

	w = c.do(http.MethodPost, "/api/auth/login", gin.H{"email": "flow@example.com", "password": "Changed123"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	router, _ := newTestEnv(t)
	c := newClient(t, router)

	for _, path := range []string{"/api/categories", "/api/transactions", "/api/assets", "/api/dashboard/summary", "/api/profile"} {
		w := c.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.JSONEq(t, `{"error":"Authentication required"}`, w.Body.String(), path)
	}

	w := c.do(http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAliceScenario(t *testing.T) {
	router, _ := newTestEnv(t)
	c := newClient(t, router)
	c.register("alice@example.com", "Secret123")
	c.do(http.MethodPost, "/api/auth/logout", nil)

	w := c.do(http.MethodPost, "/api/auth/login", gin.H{"email": "alice@example.com", "password": "Secret123"})
	require.Equal(t, http.StatusOK, w.Code)

	food := c.createCategory("EXPENSE", "Food")
	w = c.do(http.MethodPost, "/api/subcategories", gin.H{"categoryId": food.ID, "name": "Groceries"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	groceries := decode[struct {
		SubCategory domain.SubCategory `json:"subcategory"`
	}](t, w).SubCategory

	tx := c.createTransaction(gin.H{
		"date":          "2024-03-05",
		"type":          "EXPENSE",
		"categoryId":    food.ID,
		"subcategoryId": groceries.ID,
		"amount":        42.50,
		"paymentMode":   "cash",
	})
	require.NotNil(t, tx.Category)
	assert.Equal(t, "Food", tx.Category.Name)
	require.NotNil(t, tx.SubCategory)
	assert.Equal(t, "Groceries", tx.SubCategory.Name)

	w = c.do(http.MethodGet, "/api/dashboard/monthly?year=2024", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[struct {
		Year int                      `json:"year"`
		Data []analytics.MonthSummary `json:"data"`
	}](t, w)
	assert.Equal(t, 2024, resp.Year)
	require.Len(t, resp.Data, 12)
	assert.Equal(t, "2024-03", resp.Data[2].Month)
	assert.True(t, resp.Data[2].Expense.GreaterThanOrEqual(decimal.RequireFromString("42.50")))
}

func TestMonthly_TwelveOrderedMonths(t *testing.T) {
	router, _ := newTestEnv(t)
	c := newClient(t, router)
	c.register("monthly@example.com", "Secret123")

	c.createTransaction(gin.H{"date": "2023-01-10", "type": "income", "amount": "1000", "paymentMode": "bank"})
	c.createTransaction(gin.H{"date": "2023-01-12", "type": "EXPENSE", "amount": "250.75", "paymentMode": "upi"})
	c.createTransaction(gin.H{"date": "2023-12-31", "type": "EXPENSE", "amount": "10", "paymentMode": "cash"})
	c.createTransaction(gin.H{"date": "2024-01-01", "type": "EXPENSE", "amount": "999", "paymentMode": "cash"})

	w := c.do(http.MethodGet, "/api/dashboard/monthly?year=2023", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[struct {
		Data []analytics.MonthSummary `json:"data"`
	}](t, w)

	require.Len(t, resp.Data, 12)
	for i, m := range resp.Data {
		assert.Equal(t, fmt.Sprintf("2023-%02d", i+1), m.Month)
		assert.True(t, m.Savings.Equal(m.Income.Sub(m.Expense)), m.Month)
	}
	assert.Equal(t, "1000", resp.Data[0].Income.String())
	assert.Equal(t, "250.75", resp.Data[0].Expense.String())
	assert.Equal(t, "10", resp.Data[11].Expense.String())

	for _, q := range []string{"abc", "1800", "10000"} {
		w = c.do(http.MethodGet, "/api/dashboard/monthly?year="+q, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestTopCategories_SortedAndLimited(t *testing.T) {
	router, _ := newTestEnv(t)
	c := newClient(t, router)
	c.register("top@example.com", "Secret123")

	amounts := map[string]string{"Rent": "900", "Fuel": "120", "Books": "45.50", "Snacks": "300"}
	for name, amount := range amounts {
		cat := c.createCategory("EXPENSE", name)
		c.createTransaction(gin.H{"date": "2024-05-01", "type": "EXPENSE", "categoryId": cat.ID, "amount": amount, "paymentMode": "cash"})
	}
	old := c.createCategory("EXPENSE", "Old")
	c.createTransaction(gin.H{"date": "2023-01-01", "type": "EXPENSE", "categoryId": old.ID, "amount": "5000", "paymentMode": "cash"})

	w := c.do(http.MethodGet, "/api/dashboard/top-categories?limit=2&startDate=2024-01-01&endDate=2024-12-31", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[struct {
		Categories []analytics.CategoryTotal `json:"categories"`
	}](t, w)
	require.Len(t, resp.Categories, 2)
	assert.Equal(t, "Rent", resp.Categories[0].Name)
	assert.Equal(t, "Snacks", resp.Categories[1].Name)

	w = c.do(http.MethodGet, "/api/dashboard/top-categories?limit=500", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[struct {
		Categories []analytics.CategoryTotal `json:"categories"`
	}](t, w)
	require.Len(t, resp.Categories, 5)
	assert.Equal(t, "Old", resp.Categories[0].Name)
	for i := 1; i < len(resp.Categories); i++ {
		assert.True(t, resp.Categories[i-1].Total.GreaterThanOrEqual(resp.Categories[i].Total))
	}
}

func TestSummary_NetWorthIsOwnTotals(t *testing.T) {
	router, _ := newTestEnv(t)
	alice := newClient(t, router)
	alice.register("nw-a@example.com", "Secret123")
	bob := newClient(t, router)
	bob.register("nw-b@example.com", "Secret123")

	require.Equal(t, http.StatusCreated, alice.do(http.MethodPost, "/api/assets", gin.H{"name": "Savings", "type": "BANK", "value": "1000.50"}).Code)
	require.Equal(t, http.StatusCreated, alice.do(http.MethodPost, "/api/assets", gin.H{"name": "Gold", "type": "gold", "value": 250}).Code)
	require.Equal(t, http.StatusCreated, alice.do(http.MethodPost, "/api/liabilities", gin.H{"name": "Card", "type": "CREDIT_CARD", "value": "200.25"}).Code)
	require.Equal(t, http.StatusCreated, bob.do(http.MethodPost, "/api/assets", gin.H{"name": "Wallet", "type": "CASH", "value": "5"}).Code)

	w := alice.do(http.MethodGet, "/api/dashboard/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	sum := decode[summaryResponse](t, w)
	assert.Equal(t, "1250.5", sum.TotalAssets.String())
	assert.Equal(t, "200.25", sum.TotalLiabilities.String())
	assert.True(t, sum.NetWorth.Equal(sum.TotalAssets.Sub(sum.TotalLiabilities)))
	assert.Equal(t, "₹1,050.25", sum.NetWorthFormatted)

	w = bob.do(http.MethodGet, "/api/dashboard/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	sum = decode[summaryResponse](t, w)
	assert.Equal(t, "5", sum.NetWorth.String())

	w = alice.do(http.MethodGet, "/api/dashboard/net-worth-series", nil)
	require.Equal(t, http.StatusOK, w.Code)
	series := decode[struct {
		Points []analytics.NetWorthPoint `json:"points"`
	}](t, w)
	require.Len(t, series.Points, 12)
	for _, p := range series.Points {
		assert.Equal(t, "1050.25", p.NetWorth.String())
	}
}

func TestBalances_Validation(t *testing.T) {
	router, _ := newTestEnv(t)
	c := newClient(t, router)
	c.register("bal@example.com", "Secret123")

	w := c.do(http.MethodPost, "/api/assets", gin.H{"name": "X", "type": "HOUSE", "value": "1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.do(http.MethodPost, "/api/liabilities", gin.H{"name": "X", "type": "LOAN", "value": "-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.do(http.MethodPost, "/api/assets", gin.H{"name": "X", "type": "CASH"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Missing required fields","fields":["value"]}`, w.Body.String())
}

func TestDeleteCategoryInUse(t *testing.T) {
	router, _ := newTestEnv(t)
	c := newClient(t, router)
	c.register("inuse@example.com", "Secret123")

	cat := c.createCategory("EXPENSE", "Pets")
	w := c.do(http.MethodPost, "/api/subcategories", gin.H{"categoryId": cat.ID, "name": "Vet"})
	require.Equal(t, http.StatusCreated, w.Code)
	sub := decode[struct {
		SubCategory domain.SubCategory `json:"subcategory"`
	}](t, w).SubCategory
	c.createTransaction(gin.H{"date": "2024-02-02", "type": "EXPENSE", "categoryId": cat.ID, "subcategoryId": sub.ID, "amount": "80", "paymentMode": "cash"})

	w = c.do(http.MethodDelete, fmt.Sprintf("/api/categories/%d", cat.ID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Cannot delete category with transactions"}`, w.Body.String())

	w = c.do(http.MethodDelete, fmt.Sprintf("/api/subcategories/%d", sub.ID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.do(http.MethodGet, fmt.Sprintf("/api/categories/%d", cat.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	empty := c.createCategory("EXPENSE", "Unused")
	w = c.do(http.MethodDelete, fmt.Sprintf("/api/categories/%d", empty.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = c.do(http.MethodGet, fmt.Sprintf("/api/categories/%d", empty.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTransactions_ReferenceRules(t *testing.T) {
	router, _ := newTestEnv(t)
	c := newClient(t, router)
	c.register("refs@example.com", "Secret123")

	salary := c.createCategory("INCOME", "Job")
	food := c.createCategory("EXPENSE", "Meals")

	w := c.do(http.MethodPost, "/api/transactions", gin.H{"date": "2024-01-01", "type": "EXPENSE", "categoryId": salary.ID, "amount": "1", "paymentMode": "cash"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Category type does not match transaction type"}`, w.Body.String())

	w = c.do(http.MethodPost, "/api/transactions", gin.H{"date": "2024-01-01", "type": "EXPENSE", "categoryId": 999999, "amount": "1", "paymentMode": "cash"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.do(http.MethodPost, "/api/transactions", gin.H{"date": "01/02/2024", "type": "EXPENSE", "amount": "1", "paymentMode": "cash"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.do(http.MethodPost, "/api/transactions", gin.H{"type": "EXPENSE", "amount": "1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Missing required fields","fields":["date","paymentMode"]}`, w.Body.String())

	tx := c.createTransaction(gin.H{"date": "2024-01-01", "type": "expense", "categoryId": food.ID, "amount": "12.350", "paymentMode": "Credit", "card": "HDFC", "details": "lunch"})
	assert.Equal(t, domain.TypeExpense, tx.Type)
	assert.Equal(t, "12.35", tx.Amount.StringFixed(2))
	require.NotNil(t, tx.Card)
	assert.Equal(t, "HDFC", *tx.Card)
	require.NotNil(t, tx.Description)
	assert.Equal(t, "lunch", *tx.Description)

	w = c.do(http.MethodPut, fmt.Sprintf("/api/transactions/%d", tx.ID), gin.H{"date": "2024-01-02", "type": "EXPENSE", "categoryId": food.ID, "amount": "20", "paymentMode": "cash", "card": "HDFC"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[struct {
		Data domain.Transaction `json:"data"`
	}](t, w).Data
	assert.Nil(t, updated.Card, "card is only kept for credit payments")
	assert.Equal(t, "20", updated.Amount.String())
}

func TestTransactions_ListFiltersAndPaging(t *testing.T) {
	router, _ := newTestEnv(t)
	c := newClient(t, router)
	c.register("list@example.com", "Secret123")

	for i := 1; i <= 25; i++ {
		c.createTransaction(gin.H{
			"date":        fmt.Sprintf("2024-01-%02d", i),
			"type":        "EXPENSE",
			"amount":      "1",
			"paymentMode": "cash",
			"description": fmt.Sprintf("item %d", i),
		})
	}
	c.createTransaction(gin.H{"date": "2024-02-01", "type": "INCOME", "amount": "100", "paymentMode": "bank", "description": "Salary Feb"})

	type listResp struct {
		Data       []domain.Transaction `json:"data"`
		Pagination pagination           `json:"pagination"`
	}

	w := c.do(http.MethodGet, "/api/transactions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[listResp](t, w)
	assert.Len(t, resp.Data, 20)
	assert.Equal(t, pagination{Page: 1, PageSize: 20, Total: 26, TotalPages: 2}, resp.Pagination)
	assert.Equal(t, "2024-02-01", resp.Data[0].Date.Format("2006-01-02"), "newest first")

	w = c.do(http.MethodGet, "/api/transactions?page=2&pageSize=20", nil)
	resp = decode[listResp](t, w)
	assert.Len(t, resp.Data, 6)

	w = c.do(http.MethodGet, "/api/transactions?pageSize=1000", nil)
	resp = decode[listResp](t, w)
	assert.Equal(t, 100, resp.Pagination.PageSize)

	w = c.do(http.MethodGet, "/api/transactions?type=income", nil)
	resp = decode[listResp](t, w)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, domain.TypeIncome, resp.Data[0].Type)

	w = c.do(http.MethodGet, "/api/transactions?search=SALARY", nil)
	resp = decode[listResp](t, w)
	assert.Len(t, resp.Data, 1)

	w = c.do(http.MethodGet, "/api/transactions?startDate=2024-01-10&endDate=2024-01-12", nil)
	resp = decode[listResp](t, w)
	assert.Len(t, resp.Data, 3)

	w = c.do(http.MethodGet, "/api/transactions?limit=3", nil)
	resp = decode[listResp](t, w)
	assert.Len(t, resp.Data, 3)

	w = c.do(http.MethodGet, "/api/transactions?page=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOwnershipIsolation(t *testing.T) {
	router, _ := newTestEnv(t)
	alice := newClient(t, router)
	alice.register("iso-a@example.com", "Secret123")
	bob := newClient(t, router)
	bob.register("iso-b@example.com", "Secret123")

	cat := alice.createCategory("EXPENSE", "Private")
	w := alice.do(http.MethodPost, "/api/subcategories", gin.H{"categoryId": cat.ID, "name": "Secret"})
	require.Equal(t, http.StatusCreated, w.Code)
	sub := decode[struct {
		SubCategory domain.SubCategory `json:"subcategory"`
	}](t, w).SubCategory
	tx := alice.createTransaction(gin.H{"date": "2024-01-01", "type": "EXPENSE", "categoryId": cat.ID, "amount": "10", "paymentMode": "cash"})

	w = alice.do(http.MethodPost, "/api/assets", gin.H{"name": "House", "type": "OTHER", "value": "100"})
	require.Equal(t, http.StatusCreated, w.Code)
	asset := decode[struct {
		Asset domain.Asset `json:"asset"`
	}](t, w).Asset
	w = alice.do(http.MethodPost, "/api/liabilities", gin.H{"name": "Loan", "type": "LOAN", "value": "50"})
	require.Equal(t, http.StatusCreated, w.Code)
	liability := decode[struct {
		Liability domain.Liability `json:"liability"`
	}](t, w).Liability

	notFound := []struct {
		method, path string
		body         any
	}{
		{http.MethodGet, fmt.Sprintf("/api/categories/%d", cat.ID), nil},
		{http.MethodPut, fmt.Sprintf("/api/categories/%d", cat.ID), gin.H{"type": "EXPENSE", "name": "Hijacked"}},
		{http.MethodDelete, fmt.Sprintf("/api/categories/%d", cat.ID), nil},
		{http.MethodGet, fmt.Sprintf("/api/subcategories/%d", sub.ID), nil},
		{http.MethodPut, fmt.Sprintf("/api/subcategories/%d", sub.ID), gin.H{"name": "Hijacked"}},
		{http.MethodDelete, fmt.Sprintf("/api/subcategories/%d", sub.ID), nil},
		{http.MethodPost, "/api/subcategories", gin.H{"categoryId": cat.ID, "name": "Intruder"}},
		{http.MethodGet, fmt.Sprintf("/api/transactions/%d", tx.ID), nil},
		{http.MethodPut, fmt.Sprintf("/api/transactions/%d", tx.ID), gin.H{"date": "2024-01-01", "type": "EXPENSE", "amount": "1", "paymentMode": "cash"}},
		{http.MethodDelete, fmt.Sprintf("/api/transactions/%d", tx.ID), nil},
		{http.MethodPut, fmt.Sprintf("/api/assets/%d", asset.ID), gin.H{"name": "Mine", "type": "OTHER", "value": "1"}},
		{http.MethodDelete, fmt.Sprintf("/api/assets/%d", asset.ID), nil},
		{http.MethodPut, fmt.Sprintf("/api/liabilities/%d", liability.ID), gin.H{"name": "Mine", "type": "LOAN", "value": "1"}},
		{http.MethodDelete, fmt.Sprintf("/api/liabilities/%d", liability.ID), nil},
	}
	for _, tc := range notFound {
		w := bob.do(tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusNotFound, w.Code, "%s %s: %s", tc.method, tc.path, w.Body.String())
	}

	// Bob cannot point his own transaction at Alice's category.
	w = bob.do(http.MethodPost, "/api/transactions", gin.H{"date": "2024-01-01", "type": "EXPENSE", "categoryId": cat.ID, "amount": "1", "paymentMode": "cash"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = bob.do(http.MethodGet, "/api/transactions", nil)
	assert.Empty(t, decode[struct {
		Data []domain.Transaction `json:"data"`
	}](t, w).Data)
	w = bob.do(http.MethodGet, "/api/assets", nil)
	assert.Empty(t, decode[struct {
		Assets []domain.Asset `json:"assets"`
	}](t, w).Assets)
	w = bob.do(http.MethodGet, "/api/liabilities", nil)
	assert.Empty(t, decode[struct {
		Liabilities []domain.Liability `json:"liabilities"`
	}](t, w).Liabilities)
	_, hasPrivate := categoryTree(t, bob)["expense"]["Private"]
	assert.False(t, hasPrivate)

	// Alice still sees everything untouched.
	w = alice.do(http.MethodGet, fmt.Sprintf("/api/categories/%d", cat.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Private", decode[struct {
		Category domain.Category `json:"category"`
	}](t, w).Category.Name)
	w = alice.do(http.MethodGet, fmt.Sprintf("/api/transactions/%d", tx.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBulkSync_IdempotentAndRelinks(t *testing.T) {
	router, _ := newTestEnv(t)
	c := newClient(t, router)
	c.register("bulk@example.com", "Secret123")

	payload := domain.CategoryTree{
		"income":  {"Salary": {"Base", "Bonus"}},
		"expense": {"Food": {"Groceries", "Restaurants"}, "Rent": {}},
		"savings": {},
	}

	w := c.do(http.MethodPost, "/api/categories/bulk", gin.H{"categories": payload})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, payload, categoryTree(t, c))

	var food domain.Category
	w = c.do(http.MethodGet, "/api/categories?type=expense", nil)
	for _, cat := range decode[struct {
		Categories []domain.Category `json:"categories"`
	}](t, w).Categories {
		if cat.Name == "Food" {
			food = cat
		}
	}
	require.NotZero(t, food.ID)
	require.Len(t, food.SubCategories, 2)
	tx := c.createTransaction(gin.H{"date": "2024-04-04", "type": "EXPENSE", "categoryId": food.ID, "subcategoryId": food.SubCategories[0].ID, "amount": "9", "paymentMode": "cash"})

	w = c.do(http.MethodPost, "/api/categories/bulk", gin.H{"categories": payload})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, payload, categoryTree(t, c))

	w = c.do(http.MethodGet, fmt.Sprintf("/api/transactions/%d", tx.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	relinked := decode[struct {
		Data domain.Transaction `json:"data"`
	}](t, w).Data
	require.NotNil(t, relinked.Category)
	assert.Equal(t, "Food", relinked.Category.Name)
	require.NotNil(t, relinked.SubCategory)
	assert.Equal(t, "Groceries", relinked.SubCategory.Name)

	w = c.do(http.MethodPost, "/api/categories/bulk", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"No categories provided"}`, w.Body.String())
	w = c.do(http.MethodPost, "/api/categories/bulk", gin.H{"categories": nil})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBulkSync_RollsBackOnFailure(t *testing.T) {
	router, store := newTestEnv(t)
	c := newClient(t, router)
	c.register("atomic@example.com", "Secret123")
	before := categoryTree(t, c)

	var failSubs atomic.Bool
	err := store.DB().Callback().Create().Before("gorm:create").Register("test:fail_subcategories", func(db *gorm.DB) {
		if failSubs.Load() && db.Statement.Table == "sub_categories" {
			_ = db.AddError(errors.New("injected failure"))
		}
	})
	require.NoError(t, err)
	failSubs.Store(true)

	payload := domain.CategoryTree{"expense": {"Only": {"One"}}}
	w := c.do(http.MethodPost, "/api/categories/bulk", gin.H{"categories": payload})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to save categories", decode[map[string]any](t, w)["error"])

	assert.Equal(t, before, categoryTree(t, c), "prior tree must survive a failed sync")

	failSubs.Store(false)
	w = c.do(http.MethodPost, "/api/categories/bulk", gin.H{"categories": payload})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.CategoryTree{"income": {}, "expense": {"Only": {"One"}}, "savings": {}}, categoryTree(t, c))
}

func TestCategoryConflicts(t *testing.T) {
	router, _ := newTestEnv(t)
	c := newClient(t, router)
	c.register("conf@example.com", "Secret123")

	c.createCategory("EXPENSE", "Hobbies")
	w := c.do(http.MethodPost, "/api/categories", gin.H{"type": "EXPENSE", "name": "Hobbies"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = c.do(http.MethodPost, "/api/categories", gin.H{"type": "INCOME", "name": "Hobbies"})
	assert.Equal(t, http.StatusCreated, w.Code, "names are unique per type")

	w = c.do(http.MethodPost, "/api/categories", gin.H{"type": "LOANS", "name": "X"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfile(t *testing.T) {
	router, _ := newTestEnv(t)
	c := newClient(t, router)
	c.register("carol@example.com", "Secret123")

	w := c.do(http.MethodGet, "/api/profile", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	user := decode[struct {
		User domain.User `json:"user"`
	}](t, w).User
	require.NotNil(t, user.Name)
	assert.Equal(t, "carol", *user.Name)

	w = c.do(http.MethodPost, "/api/profile", gin.H{"name": "Carol D", "age": "34", "phone": "12345"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = c.do(http.MethodGet, "/api/profile", nil)
	user = decode[struct {
		User domain.User `json:"user"`
	}](t, w).User
	require.NotNil(t, user.Age)
	assert.Equal(t, 34, *user.Age)
	assert.Equal(t, "Carol D", *user.Name)

	w = c.do(http.MethodPost, "/api/profile", gin.H{"age": "old"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	big := "data:image/png;base64," + string(bytes.Repeat([]byte("A"), 4096))
	w = c.do(http.MethodPost, "/api/profile", gin.H{"photo": big})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = c.do(http.MethodPost, "/api/profile", gin.H{"password": "NewSecret1"})
	require.Equal(t, http.StatusOK, w.Code)
	c.do(http.MethodPost, "/api/auth/logout", nil)
	w = c.do(http.MethodPost, "/api/auth/login", gin.H{"email": "carol@example.com", "password": "NewSecret1"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealth(t *testing.T) {
	router, _ := newTestEnv(t)
	w := newClient(t, router).do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
