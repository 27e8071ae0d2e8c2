package handler

import (
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quetzal/dto"
	"quetzal/middleware"
	"quetzal/storage"
	"quetzal/utils"
)

// Multipart field names used by the upload form.
const (
	QuestionPaperField = "quePaperFile"
	AnswerKeyField     = "ansKeyFile"
)

type GatewayHandler struct {
	files  *storage.FileStore
	logger *zap.Logger
}

func NewGatewayHandler(files *storage.FileStore, logger *zap.Logger) *GatewayHandler {
	return &GatewayHandler{files: files, logger: logger}
}

// Upload stores up to one question paper and one answer key for a paper.
func (h *GatewayHandler) Upload(c *gin.Context) {
	paperID := strings.TrimSpace(c.PostForm("paperID"))
	if paperID == "" {
		utils.GatewayError(c, http.StatusBadRequest, "paperID is required", "")
		return
	}
	if err := storage.ValidName(paperID); err != nil {
		utils.GatewayError(c, http.StatusBadRequest, "Invalid paperID", err.Error())
		return
	}

	var que, ans *multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil {
		for _, field := range []string{QuestionPaperField, AnswerKeyField} {
			if len(form.File[field]) > 1 {
				utils.GatewayError(c, http.StatusBadRequest, "Only one file allowed per field", field)
				return
			}
		}
		que = firstFile(form, QuestionPaperField)
		ans = firstFile(form, AnswerKeyField)
	}
	if que == nil && ans == nil {
		utils.GatewayError(c, http.StatusBadRequest, "No files were uploaded", "")
		return
	}

	result := dto.UploadResult{
		PaperID:    paperID,
		UploadDate: time.Now().UTC(),
	}

	var err error
	if que != nil {
		result.QuePaperFile, err = h.files.Save(paperID, utils.QuestionPaperName, que)
	}
	if err == nil && ans != nil {
		result.AnsKeyFile, err = h.files.Save(paperID, utils.AnswerKeyName, ans)
	}
	if err != nil {
		middleware.TrackError("storage")
		h.logger.Error("upload failed", zap.String("paper_id", paperID), zap.Error(err))
		utils.GatewayError(c, http.StatusInternalServerError, "File upload failed", err.Error())
		return
	}

	for _, f := range []*dto.FileInfo{result.QuePaperFile, result.AnsKeyFile} {
		if f != nil {
			middleware.TrackGatewayFile("upload", f.Size)
		}
	}
	h.logger.Info("files uploaded",
		zap.String("paper_id", paperID),
		zap.Bool("question_paper", result.QuePaperFile != nil),
		zap.Bool("answer_key", result.AnsKeyFile != nil),
	)
	utils.GatewaySuccess(c, "Files uploaded successfully", result)
}

// Delete removes every stored file of a paper.
func (h *GatewayHandler) Delete(c *gin.Context) {
	var req dto.DeleteFilesRequest
	_ = c.ShouldBind(&req)
	paperID := strings.TrimSpace(req.PaperID)
	if paperID == "" {
		utils.GatewayError(c, http.StatusBadRequest, "paperID is required", "")
		return
	}

	path, err := h.files.DeleteAll(paperID)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrInvalidName):
		utils.GatewayError(c, http.StatusBadRequest, "Invalid paperID", err.Error())
		return
	case errors.Is(err, storage.ErrNotFound):
		utils.GatewayError(c, http.StatusNotFound, fmt.Sprintf("Paper folder with ID '%s' not found", paperID), "")
		return
	default:
		middleware.TrackError("storage")
		h.logger.Error("delete failed", zap.String("paper_id", paperID), zap.Error(err))
		utils.GatewayError(c, http.StatusInternalServerError, "Failed to delete paper folder", err.Error())
		return
	}

	middleware.TrackGatewayFile("delete", 0)
	h.logger.Info("paper folder deleted", zap.String("paper_id", paperID))
	c.JSON(http.StatusOK, &utils.GatewayResponse{
		Success:     true,
		Message:     fmt.Sprintf("Paper folder '%s' deleted successfully", paperID),
		DeletedPath: path,
	})
}

// Download sends a stored file as an attachment.
func (h *GatewayHandler) Download(c *gin.Context) {
	paperID := c.Param("paperId")
	filename := c.Param("filename")

	f, fi, err := h.files.Open(paperID, filename)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			h.logger.Error("download failed", zap.String("paper_id", paperID), zap.String("file", filename), zap.Error(err))
		}
		utils.NotFound(c, "File not found")
		return
	}
	defer f.Close()

	middleware.TrackGatewayFile("download", 0)
	contentType := storage.ContentType(f, filename)
	c.DataFromReader(http.StatusOK, fi.Size(), contentType, f, map[string]string{
		"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": filename}),
	})
}

func firstFile(form *multipart.Form, field string) *multipart.FileHeader {
	if files := form.File[field]; len(files) > 0 {
		return files[0]
	}
	return nil
}
