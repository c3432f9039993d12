package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bcmedia-dr/doctor-management-system/internal/domains/doctor/model"
	"github.com/bcmedia-dr/doctor-management-system/internal/domains/doctor/service"
	"github.com/bcmedia-dr/doctor-management-system/internal/shared/response"
)

const (
	uploadField = "file"

	// multipartOverhead covers boundaries and part headers on top of the file.
	multipartOverhead = 1 << 20
)

// Archiver keeps a copy of every imported workbook. storage.MinIOStorage
// satisfies it.
type Archiver interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

// ImportHandler serves POST /doctors/import.
type ImportHandler struct {
	importer    service.ImportServiceInterface
	archiver    Archiver
	tempDir     string
	maxFileSize int64
}

// NewImportHandler - archiver may be nil. An empty tempDir uses os.TempDir()
// and a non-positive maxFileSize falls back to service.DefaultMaxFileSize.
func NewImportHandler(importer service.ImportServiceInterface, archiver Archiver, tempDir string, maxFileSize int64) *ImportHandler {
	if maxFileSize <= 0 {
		maxFileSize = service.DefaultMaxFileSize
	}
	return &ImportHandler{
		importer:    importer,
		archiver:    archiver,
		tempDir:     tempDir,
		maxFileSize: maxFileSize,
	}
}

// Import saves the multipart upload to a temp file carrying the original
// extension, runs the importer over it and removes the file afterwards.
// Only successfully imported workbooks are archived.
func (h *ImportHandler) Import(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxFileSize+multipartOverhead)

	fh, err := c.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			size := c.Request.ContentLength
			if size <= h.maxFileSize {
				size = tooLarge.Limit
			}
			writeImportResult(c, model.Failed(service.FileTooLargeError(size, h.maxFileSize)))
			return
		}
		writeImportResult(c, model.Failed(model.NewImportError(
			model.ErrEmptyOrMissingFile, "no file was uploaded", err)))
		return
	}

	if fh.Size > h.maxFileSize {
		log.Warn().Str("upload", fh.Filename).Int64("size", fh.Size).Msg("import upload over size limit")
		writeImportResult(c, model.Failed(service.FileTooLargeError(fh.Size, h.maxFileSize)))
		return
	}

	ext := strings.ToLower(filepath.Ext(filepath.Base(fh.Filename)))

	tmp, err := os.CreateTemp(h.tempDir, "doctor-import-*"+ext)
	if err != nil {
		log.Error().Err(err).Msg("failed to create import temp file")
		response.InternalServerError(c, "Could not store the uploaded file")
		return
	}
	path := tmp.Name()
	tmp.Close()
	defer os.Remove(path)

	if err := c.SaveUploadedFile(fh, path); err != nil {
		log.Error().Err(err).Msg("failed to save uploaded import file")
		response.InternalServerError(c, "Could not store the uploaded file")
		return
	}

	result := h.importer.ImportFile(c.Request.Context(), path)
	log.Info().
		Str("upload", fh.Filename).
		Bool("success", result.Success).
		Int("inserted", result.InsertedCount).
		Int("errors", len(result.Errors)).
		Msg("doctor import request finished")

	if result.Success {
		h.archive(c.Request.Context(), path, ext, fh.Header.Get("Content-Type"))
	}

	writeImportResult(c, result)
}

// archive streams the upload to object storage. Failures are logged only.
func (h *ImportHandler) archive(ctx context.Context, path, ext, contentType string) {
	if h.archiver == nil {
		return
	}

	f, err := os.Open(path)
	if err != nil {
		log.Warn().Err(err).Msg("import archive skipped, upload unreadable")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		log.Warn().Err(err).Msg("import archive skipped, upload unreadable")
		return
	}
	if contentType == "" {
		contentType = xlsxContentType
	}

	key := archiveKey(time.Now().UTC(), ext)
	if _, err := h.archiver.Upload(ctx, key, f, info.Size(), contentType); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to archive import upload")
		return
	}
	log.Debug().Str("key", key).Msg("import upload archived")
}

func archiveKey(now time.Time, ext string) string {
	return fmt.Sprintf("imports/%s/%s%s", now.Format("2006/01/02"), uuid.NewString(), ext)
}

func writeImportResult(c *gin.Context, result *model.ImportResult) {
	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, result)
}
