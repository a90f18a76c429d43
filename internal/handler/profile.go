// internal/handler/profile.go
package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"networth-tracker/internal/auth"
	"networth-tracker/internal/middleware"
	"networth-tracker/internal/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// multipartSlack covers form boundaries and headers around the photo part.
const multipartSlack = 1 << 20

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type ProfileHandler struct {
	base
	users         storage.UserStorage
	uploadDir     string
	maxPhotoBytes int64
}

// NewProfileHandler builds the profile endpoints. An empty uploadDir disables multipart uploads.
func NewProfileHandler(users storage.UserStorage, uploadDir string, maxPhotoBytes int64, detailedErrors bool) *ProfileHandler {
	return &ProfileHandler{
		base:          base{detailedErrors: detailedErrors},
		users:         users,
		uploadDir:     uploadDir,
		maxPhotoBytes: maxPhotoBytes,
	}
}

// Get GET /api/profile
func (h *ProfileHandler) Get(c *gin.Context) {
	user, err := h.users.UserByID(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.storeError(c, err, "User", "Internal server error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Update POST /api/profile applies only the fields present in the body.
func (h *ProfileHandler) Update(c *gin.Context) {
	var req ProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	age, err := req.age()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Photo != nil && h.photoTooLarge(*req.Photo) {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Photo exceeds maximum allowed size"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.UserByID(ctx, middleware.UserID(c))
	if err != nil {
		h.storeError(c, err, "User", "Internal server error")
		return
	}

	if req.Name != nil {
		user.Name = trimmedOrNil(req.Name)
	}
	if age.set {
		user.Age = age.value
	}
	if req.Gender != nil {
		user.Gender = trimmedOrNil(req.Gender)
	}
	if req.Phone != nil {
		user.Phone = trimmedOrNil(req.Phone)
	}
	if req.Photo != nil && *req.Photo != "" {
		user.Photo = req.Photo
	}
	if req.Password != nil && *req.Password != "" {
		if user.PasswordHash, err = auth.HashPassword(*req.Password); err != nil {
			h.internalError(c, err, "Internal server error")
			return
		}
	}

	if err := h.users.UpdateUser(ctx, user); err != nil {
		h.storeError(c, err, "User", "Internal server error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// photoTooLarge estimates the decoded size of a base64 data URL.
func (h *ProfileHandler) photoTooLarge(photo string) bool {
	b64 := photo
	if i := strings.IndexByte(photo, ','); i >= 0 {
		b64 = photo[i+1:]
	}
	estimated := (int64(len(b64))*3 + 3) / 4
	return estimated > h.maxPhotoBytes
}

// UploadPhoto POST /api/profile/photo takes a multipart "photo" field.
func (h *ProfileHandler) UploadPhoto(c *gin.Context) {
	if h.uploadDir == "" {
		c.AbortWithStatusJSON(http.StatusNotImplemented, gin.H{"error": "File upload unavailable"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxPhotoBytes+multipartSlack)
	fh, err := c.FormFile("photo")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Photo exceeds maximum allowed size"})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	if fh.Size > h.maxPhotoBytes {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Photo exceeds maximum allowed size"})
		return
	}

	ext, err := sniffImage(fh)
	if errors.Is(err, errNotImage) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Photo must be a JPEG, PNG, GIF or WebP image"})
		return
	}
	if err != nil {
		h.internalError(c, err, "Internal server error")
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		h.internalError(c, fmt.Errorf("create upload dir: %w", err), "Internal server error")
		return
	}
	name := uuid.NewString() + ext
	if err := c.SaveUploadedFile(fh, filepath.Join(h.uploadDir, name)); err != nil {
		h.internalError(c, fmt.Errorf("save upload: %w", err), "Internal server error")
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.UserByID(ctx, middleware.UserID(c))
	if err != nil {
		h.storeError(c, err, "User", "Internal server error")
		return
	}
	url := "/uploads/" + name
	user.Photo = &url
	if err := h.users.UpdateUser(ctx, user); err != nil {
		h.storeError(c, err, "User", "Internal server error")
		return
	}

	slog.Info("profile photo uploaded", "user_id", user.ID, "bytes", fh.Size)
	c.JSON(http.StatusOK, gin.H{"url": url})
}

var errNotImage = errors.New("upload is not a supported image")

// sniffImage detects the upload's type from its content and maps it to a file extension.
func sniffImage(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return "", fmt.Errorf("detect upload type: %w", err)
	}
	for mime, ext := range imageExtensions {
		if mtype.Is(mime) {
			return ext, nil
		}
	}
	return "", errNotImage
}

// === DTO ===

type ProfileRequest struct {
	Name     *string         `json:"name" validate:"omitempty,max=255"`
	Age      json.RawMessage `json:"age"`
	Gender   *string         `json:"gender" validate:"omitempty,max=32"`
	Phone    *string         `json:"phone" validate:"omitempty,max=32"`
	Photo    *string         `json:"photo"`
	Password *string         `json:"password" validate:"omitempty,min=6,bcryptmax"`
}

type optionalAge struct {
	set   bool
	value *int
}

// age accepts a number or a numeric string; null or "" leaves the stored age alone.
func (r ProfileRequest) age() (optionalAge, error) {
	raw := bytes.TrimSpace(r.Age)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return optionalAge{}, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		s = string(raw)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return optionalAge{}, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 150 {
		return optionalAge{}, errors.New("age must be a number between 0 and 150")
	}
	return optionalAge{set: true, value: &n}, nil
}
