package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pawanx64/File-Sharing-Backend/auth/middleware"
	"github.com/pawanx64/File-Sharing-Backend/models"
	"github.com/pawanx64/File-Sharing-Backend/services"
)

// multipartOverhead is the room left for multipart headers and boundaries on
// top of the file size limit.
const multipartOverhead = 1 << 20

type FileHandler struct {
	files *services.FileService
	log   *zap.SugaredLogger
}

func NewFileHandler(files *services.FileService, log *zap.SugaredLogger) *FileHandler {
	return &FileHandler{files: files, log: log.Named("handlers.file")}
}

type fileResponse struct {
	ID          uuid.UUID  `json:"id"`
	Filename    string     `json:"filename"`
	SecureURL   string     `json:"secure_url"`
	PublicID    string     `json:"public_id"`
	SizeInBytes int64      `json:"sizeInBytes"`
	ContentType string     `json:"contentType,omitempty"`
	User        *uuid.UUID `json:"user,omitempty"`
	UploadTime  time.Time  `json:"uploadTime"`
}

func toFileResponse(f models.File) fileResponse {
	return fileResponse{
		ID:          f.ID,
		Filename:    f.Filename,
		SecureURL:   f.SecureURL,
		PublicID:    f.PublicID,
		SizeInBytes: f.SizeInBytes,
		ContentType: f.ContentType,
		User:        f.UserID,
		UploadTime:  f.UploadTime.UTC(),
	}
}

func tooLarge(c *gin.Context, limit int64) {
	c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
		"error": fmt.Sprintf("File size exceeds %dMB limit.", limit/(1024*1024)),
		"code":  services.CodePayloadTooLarge,
	})
}

func (h *FileHandler) Upload(c *gin.Context) {
	limit := h.files.MaxUploadBytes()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)

	header, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			tooLarge(c, limit)
			return
		}
		badRequest(c, "We Need The File")
		return
	}
	if header.Size > limit {
		tooLarge(c, limit)
		return
	}

	body, err := header.Open()
	if err != nil {
		badRequest(c, "We Need The File")
		return
	}
	defer body.Close()

	in := services.UploadInput{
		Name: header.Filename,
		Size: header.Size,
		Body: body,
	}
	if userID, ok := middleware.CurrentUserID(c); ok {
		in.OwnerID = &userID
	}

	file, err := h.files.Upload(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":            file.ID,
		"filename":      file.Filename,
		"sizeInBytes":   file.SizeInBytes,
		"secure_url":    file.SecureURL,
		"shareableLink": h.files.ShareableLink(file.ID),
	})
}

// fileID parses the :id path parameter. A malformed id is reported the same
// way as an unknown one.
func fileID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		notFound(c, "File not found")
		return uuid.Nil, false
	}
	return id, true
}

func (h *FileHandler) DownloadInfo(c *gin.Context) {
	id, ok := fileID(c)
	if !ok {
		return
	}

	info, err := h.files.DownloadInfo(c.Request.Context(), id, services.DownloadMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"filename":      info.Filename,
		"sizeInBytes":   info.SizeInBytes,
		"secure_url":    info.SecureURL,
		"shareableLink": info.ShareableLink,
		"downloads":     info.Downloads,
	})
}

func (h *FileHandler) DownloadQR(c *gin.Context) {
	id, ok := fileID(c)
	if !ok {
		return
	}

	png, err := h.files.ShareQRCode(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (h *FileHandler) MyFiles(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "code": services.CodeUnauthorized})
		return
	}

	files, err := h.files.ListMine(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	resp := make([]fileResponse, 0, len(files))
	for _, f := range files {
		resp = append(resp, toFileResponse(f))
	}
	c.JSON(http.StatusOK, gin.H{"files": resp})
}

func (h *FileHandler) Delete(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "code": services.CodeUnauthorized})
		return
	}
	id, ok := fileID(c)
	if !ok {
		return
	}

	if err := h.files.Delete(c.Request.Context(), userID, id); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "File deleted successfully"})
}
