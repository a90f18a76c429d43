// internal/handler/handler.go
package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"networth-tracker/internal/cache"
	"networth-tracker/internal/domain"
	"networth-tracker/internal/middleware"
	val "networth-tracker/internal/validator"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// base carries what every resource handler shares.
type base struct {
	detailedErrors bool
	dash           *cache.Dashboard
}

// invalidate drops the caller's cached dashboard after a write.
func (b base) invalidate(c *gin.Context) {
	if b.dash != nil {
		b.dash.Invalidate(c.Request.Context(), middleware.UserID(c))
	}
}

// internalError logs err and answers 500 with msg. Details are exposed outside production only.
func (b base) internalError(c *gin.Context, err error, msg string) {
	_ = c.Error(err)
	slog.Error(msg, "error", err, "user_id", middleware.UserID(c), "request_id", middleware.RequestID(c))
	body := gin.H{"error": msg}
	if b.detailedErrors {
		body["details"] = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, body)
}

// storeError maps storage sentinels onto statuses. what names the resource ("Category").
func (b base) storeError(c *gin.Context, err error, what, msg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": what + " not found"})
	case errors.Is(err, domain.ErrEmailTaken):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Email already registered"})
	case errors.Is(err, domain.ErrDuplicate):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": what + " already exists"})
	case errors.Is(err, domain.ErrInUse):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": what + " is used by transactions"})
	case errors.Is(err, domain.ErrTypeMismatch):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Category type does not match transaction type"})
	case errors.Is(err, domain.ErrInvalidReference):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid category or subcategory"})
	default:
		b.internalError(c, err, msg)
	}
}

// bindJSON decodes and validates the body into dst. An empty body counts as {}.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return false
	}
	if err := validateStruct(dst); err != nil {
		abortInvalid(c, err)
		return false
	}
	return true
}

type missingFieldsError struct {
	fields []string
}

func (e *missingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.fields, ", ")
}

func validateStruct(v any) error {
	err := val.Validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid input: %w", err)
	}

	var missing, errs []string
	for _, e := range verrs {
		if e.Tag() == "required" {
			missing = append(missing, e.Field())
			continue
		}
		errs = append(errs, fieldErrorToString(e))
	}
	if len(missing) > 0 {
		return &missingFieldsError{fields: missing}
	}
	return fmt.Errorf("invalid input: %s", strings.Join(errs, "; "))
}

func fieldErrorToString(e validator.FieldError) string {
	switch e.Tag() {
	case "notblank":
		return fmt.Sprintf("%s must not be blank", e.Field())
	case "isodate":
		return fmt.Sprintf("%s must be in YYYY-MM-DD format", e.Field())
	case "categorytype":
		return fmt.Sprintf("%s must be one of INCOME, EXPENSE, SAVINGS", e.Field())
	case "assettype":
		return fmt.Sprintf("%s must be one of BANK, CASH, INVESTMENT, GOLD, CRYPTO, OTHER", e.Field())
	case "liabilitytype":
		return fmt.Sprintf("%s must be one of LOAN, CREDIT_CARD, OTHER", e.Field())
	case "dpositive":
		return fmt.Sprintf("%s must be a positive number", e.Field())
	case "dnonnegative":
		return fmt.Sprintf("%s must not be negative", e.Field())
	case "cents":
		return fmt.Sprintf("%s must have at most 2 decimal places", e.Field())
	case "bcryptmax":
		return fmt.Sprintf("%s must be at most %d bytes", e.Field(), val.MaxPasswordBytes)
	case "email":
		return fmt.Sprintf("%s must be a valid email", e.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param())
	case "gt", "gte", "lte":
		return fmt.Sprintf("%s is out of range", e.Field())
	default:
		return fmt.Sprintf("%s is invalid", e.Field())
	}
}

func abortInvalid(c *gin.Context, err error) {
	var mf *missingFieldsError
	if errors.As(err, &mf) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Missing required fields", "fields": mf.fields})
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// paramID parses the :id path parameter.
func paramID(c *gin.Context, what string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid " + what + " id"})
		return 0, false
	}
	return id, true
}

// queryID parses an optional positive id query parameter.
func queryID(c *gin.Context, name string) (*int64, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": name + " must be a positive integer"})
		return nil, false
	}
	return &id, true
}

// queryDate parses an optional YYYY-MM-DD query parameter.
func queryDate(c *gin.Context, name string) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	t, err := val.ParseDate(raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": name + " must be in YYYY-MM-DD format"})
		return nil, false
	}
	return &t, true
}

// queryType parses an optional category type filter in any casing.
func queryType(c *gin.Context, name string) (*domain.CategoryType, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	t, ok := domain.ParseCategoryType(raw)
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": name + " must be one of INCOME, EXPENSE, SAVINGS"})
		return nil, false
	}
	return &t, true
}

// trimmedOrNil returns nil for absent or blank strings.
func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
