package handlers

import (
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxImageSize = 5 << 20

var allowedImageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
}

// UploadImage handles POST /api/upload (admin). The response body is the
// public URL path of the stored file; product image fields treat it as an
// opaque string.
func UploadImage(uploadDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /upload"
		defer handlePanic(c, route)

		file, err := c.FormFile("image")
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "image file required")
			return
		}

		path, err := saveImage(c, file, uploadDir)
		if err != nil {
			log.Println("UploadImage save error:", err)
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		c.String(http.StatusCreated, path)
	}
}

func saveImage(c *gin.Context, file *multipart.FileHeader, uploadDir string) (string, error) {
	extension := strings.ToLower(filepath.Ext(file.Filename))
	if extension == "" {
		return "", fmt.Errorf("image file extension is required")
	}
	if _, ok := allowedImageExtensions[extension]; !ok {
		return "", fmt.Errorf("unsupported image type: %s", extension)
	}
	if file.Size > maxImageSize {
		return "", fmt.Errorf("image file too large (max 5MB)")
	}

	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return "", err
	}

	filename := primitive.NewObjectID().Hex() + extension
	if err := c.SaveUploadedFile(file, filepath.Join(uploadDir, filename)); err != nil {
		return "", err
	}

	return "/uploads/" + filename, nil
}
