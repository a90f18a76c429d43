package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"networth-tracker/internal/domain"
	"networth-tracker/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

func (c *client) upload(path, field, filename string, content []byte) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(c.t, err)
	_, err = fw.Write(content)
	require.NoError(c.t, err)
	require.NoError(c.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	w := httptest.NewRecorder()
	c.h.ServeHTTP(w, req)
	return w
}

func listTransactions(t *testing.T, c *client, query string) ([]domain.Transaction, pagination) {
	t.Helper()
	w := c.do(http.MethodGet, "/api/transactions"+query, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[struct {
		Data       []domain.Transaction `json:"data"`
		Pagination pagination           `json:"pagination"`
	}](t, w)
	return resp.Data, resp.Pagination
}

func TestAmounts_RejectSubCentPrecision(t *testing.T) {
	router, _ := newTestEnv(t)
	c := newClient(t, router)
	c.register("cents@example.com", "Secret123")

	w := c.do(http.MethodPost, "/api/transactions", gin.H{"date": "2024-01-01", "type": "EXPENSE", "amount": "0.001", "paymentMode": "cash"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid input: amount must have at most 2 decimal places"}`, w.Body.String())

	w = c.do(http.MethodPost, "/api/transactions", gin.H{"date": "2024-01-01", "type": "EXPENSE", "amount": 12.345, "paymentMode": "cash"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	rows, _ := listTransactions(t, c, "")
	assert.Empty(t, rows)

	w = c.do(http.MethodPost, "/api/assets", gin.H{"name": "Wallet", "type": "CASH", "value": "10.005"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = c.do(http.MethodPost, "/api/liabilities", gin.H{"name": "Card", "type": "CREDIT_CARD", "value": "0.001"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	tx := c.createTransaction(gin.H{"date": "2024-01-01", "type": "EXPENSE", "amount": "0.01", "paymentMode": "cash"})
	assert.Equal(t, "0.01", tx.Amount.String())
	w = c.do(http.MethodPost, "/api/assets", gin.H{"name": "Wallet", "type": "CASH", "value": "10.50"})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestTransactions_HugePageIsClamped(t *testing.T) {
	router, _ := newTestEnv(t)
	c := newClient(t, router)
	c.register("pages@example.com", "Secret123")

	c.createTransaction(gin.H{"date": "2024-01-01", "type": "EXPENSE", "amount": "1", "paymentMode": "cash"})
	c.createTransaction(gin.H{"date": "2024-01-02", "type": "EXPENSE", "amount": "2", "paymentMode": "cash"})

	rows, p := listTransactions(t, c, "?page=922337203685477581")
	assert.Empty(t, rows, "a page far past the end has no rows")
	assert.Equal(t, storage.MaxPage, p.Page)
	assert.Equal(t, int64(2), p.Total)

	w := c.do(http.MethodGet, "/api/transactions?page=99999999999999999999", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransactions_SearchMatchesWildcardsLiterally(t *testing.T) {
	router, _ := newTestEnv(t)
	c := newClient(t, router)
	c.register("search@example.com", "Secret123")

	for _, desc := range []string{"100% cotton shirt", "plain bread", "snake_case book", `back\slash`} {
		c.createTransaction(gin.H{"date": "2024-01-01", "type": "EXPENSE", "amount": "1", "paymentMode": "cash", "description": desc})
	}

	tests := []struct {
		query string
		want  []string
	}{
		{query: "%25", want: []string{"100% cotton shirt"}},
		{query: "_", want: []string{"snake_case book"}},
		{query: "e_c", want: []string{"snake_case book"}},
		{query: "0%25+c", want: []string{"100% cotton shirt"}},
		{query: "%5C", want: []string{`back\slash`}},
		{query: "BREAD", want: []string{"plain bread"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rows, _ := listTransactions(t, c, "?search="+tt.query)
			var got []string
			for _, r := range rows {
				require.NotNil(t, r.Description)
				got = append(got, *r.Description)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBulkSync_MergesTypeKeysDifferingInCase(t *testing.T) {
	router, _ := newTestEnv(t)
	c := newClient(t, router)
	c.register("casing@example.com", "Secret123")

	payload := domain.CategoryTree{
		"expense": {"A": {"x"}, "Shared": {"one"}},
		"EXPENSE": {"B": {"y"}, "Shared": {"two", "one"}},
	}
	w := c.do(http.MethodPost, "/api/categories/bulk", gin.H{"categories": payload})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	want := domain.CategoryTree{
		"income":  {},
		"expense": {"A": {"x"}, "B": {"y"}, "Shared": {"one", "two"}},
		"savings": {},
	}
	assert.Equal(t, want, categoryTree(t, c))
}

func TestPasswords_LimitIsInBytes(t *testing.T) {
	router, _ := newTestEnv(t)
	c := newClient(t, router)

	// 40 characters, 80 bytes.
	w := c.do(http.MethodPost, "/api/auth/register", gin.H{"email": "utf8@example.com", "password": strings.Repeat("é", 40)})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid input: password must be at most 72 bytes"}`, w.Body.String())

	c.register("utf8@example.com", strings.Repeat("a", 72))

	w = c.do(http.MethodPost, "/api/auth/change-password", gin.H{"currentPassword": strings.Repeat("a", 72), "newPassword": strings.Repeat("ж", 37)})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.do(http.MethodPost, "/api/profile", gin.H{"password": strings.Repeat("ж", 37)})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfile_PhotoUpload(t *testing.T) {
	router, _ := newTestEnv(t)
	c := newClient(t, router)
	c.register("photo@example.com", "Secret123")

	w := c.upload("/api/profile/photo", "photo", "notes.png", []byte("just some text, not an image"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.upload("/api/profile/photo", "avatar", "me.png", pngHeader)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"No file uploaded"}`, w.Body.String())

	w = c.upload("/api/profile/photo", "photo", "me.bin", pngHeader)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	url := decode[struct {
		URL string `json:"url"`
	}](t, w).URL
	assert.True(t, strings.HasPrefix(url, "/uploads/"), url)
	assert.True(t, strings.HasSuffix(url, ".png"), url)

	w = c.do(http.MethodGet, "/api/profile", nil)
	user := decode[struct {
		User domain.User `json:"user"`
	}](t, w).User
	require.NotNil(t, user.Photo)
	assert.Equal(t, url, *user.Photo)

	w = c.do(http.MethodGet, url, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pngHeader, w.Body.Bytes())

	w = c.upload("/api/profile/photo", "photo", "big.png", append(append([]byte{}, pngHeader...), make([]byte, 2<<10)...))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
