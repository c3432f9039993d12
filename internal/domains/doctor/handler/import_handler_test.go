package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bcmedia-dr/doctor-management-system/internal/domains/doctor/model"
	"github.com/bcmedia-dr/doctor-management-system/internal/domains/doctor/service"
)

var archiveKeyPattern = regexp.MustCompile(`^imports/\d{4}/\d{2}/\d{2}/[0-9a-f-]{36}\.xlsm$`)

type MockImporter struct {
	mock.Mock
}

func (m *MockImporter) ImportFile(ctx context.Context, path string) *model.ImportResult {
	args := m.Called(ctx, path)
	return args.Get(0).(*model.ImportResult)
}

type MockArchiver struct {
	mock.Mock
}

func (m *MockArchiver) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	args := m.Called(ctx, key, r, size, contentType)
	return args.String(0), args.Error(1)
}

func setupImportRouter(h *ImportHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/doctors/import", h.Import)
	return r
}

func uploadRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "nothing attached"))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/doctors/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeResult(t *testing.T, w *httptest.ResponseRecorder) model.ImportResult {
	t.Helper()
	var res model.ImportResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func TestImportHandler_Success(t *testing.T) {
	dir := t.TempDir()
	importer := new(MockImporter)

	var seenPath string
	importer.On("ImportFile", mock.Anything, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) {
			seenPath = args.String(1)
			data, err := os.ReadFile(seenPath)
			require.NoError(t, err)
			assert.Equal(t, "workbook", string(data))
		}).
		Return(&model.ImportResult{Success: true, InsertedCount: 3, Errors: []string{"row 4: record 'X' already exists, skipped"}})

	w := httptest.NewRecorder()
	setupImportRouter(NewImportHandler(importer, nil, dir, 0)).
		ServeHTTP(w, uploadRequest(t, "file", "Leads.XLSX", []byte("workbook")))

	assert.Equal(t, http.StatusOK, w.Code)
	res := decodeResult(t, w)
	assert.True(t, res.Success)
	assert.Equal(t, 3, res.InsertedCount)
	assert.Len(t, res.Errors, 1)

	assert.Equal(t, dir, filepath.Dir(seenPath))
	assert.Equal(t, ".xlsx", filepath.Ext(seenPath))
	_, err := os.Stat(seenPath)
	assert.True(t, os.IsNotExist(err), "temp file must be removed")
}

func TestImportHandler_FileLevelFailure(t *testing.T) {
	importer := new(MockImporter)
	importer.On("ImportFile", mock.Anything, mock.Anything).
		Return(model.Failed(model.NewImportError(model.ErrUnsupportedFormat, "unsupported file type \".csv\"", nil)))

	w := httptest.NewRecorder()
	setupImportRouter(NewImportHandler(importer, nil, t.TempDir(), 0)).
		ServeHTTP(w, uploadRequest(t, "file", "leads.csv", []byte("a,b")))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	res := decodeResult(t, w)
	assert.False(t, res.Success)
	assert.Equal(t, []string{"unsupported file type \".csv\""}, res.Errors)
}

func TestImportHandler_MissingFile(t *testing.T) {
	importer := new(MockImporter)

	w := httptest.NewRecorder()
	setupImportRouter(NewImportHandler(importer, nil, t.TempDir(), 0)).
		ServeHTTP(w, uploadRequest(t, "", "", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	res := decodeResult(t, w)
	assert.False(t, res.Success)
	assert.Equal(t, 0, res.InsertedCount)
	importer.AssertNotCalled(t, "ImportFile", mock.Anything, mock.Anything)
}

func TestImportHandler_ArchivesUpload(t *testing.T) {
	importer := new(MockImporter)
	importer.On("ImportFile", mock.Anything, mock.Anything).Return(&model.ImportResult{Success: true, Errors: []string{}})

	archiver := new(MockArchiver)
	archiver.On("Upload", mock.Anything,
		mock.MatchedBy(func(key string) bool {
			return archiveKeyPattern.MatchString(key)
		}),
		mock.Anything,
		int64(len("macro workbook")),
		mock.AnythingOfType("string"),
	).Run(func(args mock.Arguments) {
		data, err := io.ReadAll(args.Get(2).(io.Reader))
		require.NoError(t, err)
		assert.Equal(t, "macro workbook", string(data))
	}).Return("http://minio/doctor-imports/key", nil)

	w := httptest.NewRecorder()
	setupImportRouter(NewImportHandler(importer, archiver, t.TempDir(), 0)).
		ServeHTTP(w, uploadRequest(t, "file", "leads.xlsm", []byte("macro workbook")))

	assert.Equal(t, http.StatusOK, w.Code)
	archiver.AssertExpectations(t)
}

func TestImportHandler_ArchiveFailureDoesNotFailImport(t *testing.T) {
	importer := new(MockImporter)
	importer.On("ImportFile", mock.Anything, mock.Anything).Return(&model.ImportResult{Success: true, InsertedCount: 1, Errors: []string{}})

	archiver := new(MockArchiver)
	archiver.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("bucket unreachable"))

	w := httptest.NewRecorder()
	setupImportRouter(NewImportHandler(importer, archiver, t.TempDir(), 0)).
		ServeHTTP(w, uploadRequest(t, "file", "leads.xlsx", []byte("workbook")))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decodeResult(t, w).InsertedCount)
	importer.AssertExpectations(t)
}

func TestImportHandler_RejectedUploadsAreNotArchived(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
		message  string
	}{
		{name: "unsupported format", filename: "doctors.csv", content: []byte("Doctor\nDr. A\n"), message: "unsupported file type"},
		{name: "corrupt workbook", filename: "doctors.xlsx", content: []byte("not a zip archive"), message: "could not be read"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			archiver := new(MockArchiver)
			importer := service.NewImportService(nil, nil, service.ImportOptions{})

			w := httptest.NewRecorder()
			setupImportRouter(NewImportHandler(importer, archiver, t.TempDir(), 0)).
				ServeHTTP(w, uploadRequest(t, "file", tt.filename, tt.content))

			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			res := decodeResult(t, w)
			require.Len(t, res.Errors, 1)
			assert.Contains(t, res.Errors[0], tt.message)
			archiver.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestImportHandler_OversizeUploadRejectedBeforeImport(t *testing.T) {
	dir := t.TempDir()
	importer := new(MockImporter)
	archiver := new(MockArchiver)

	w := httptest.NewRecorder()
	setupImportRouter(NewImportHandler(importer, archiver, dir, 100)).
		ServeHTTP(w, uploadRequest(t, "file", "huge.xlsx", bytes.Repeat([]byte("x"), 5000)))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	res := decodeResult(t, w)
	assert.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "larger than the 100 bytes limit")

	importer.AssertNotCalled(t, "ImportFile", mock.Anything, mock.Anything)
	archiver.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing may be written for an oversize upload")
}

func TestImportHandler_BodyOverLimitRejected(t *testing.T) {
	importer := new(MockImporter)

	w := httptest.NewRecorder()
	setupImportRouter(NewImportHandler(importer, nil, t.TempDir(), 1)).
		ServeHTTP(w, uploadRequest(t, "file", "huge.xlsx", bytes.Repeat([]byte("x"), 2<<20)))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.False(t, decodeResult(t, w).Success)
	importer.AssertNotCalled(t, "ImportFile", mock.Anything, mock.Anything)
}

func TestArchiveKey(t *testing.T) {
	now := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	key := archiveKey(now, ".xlsx")

	assert.Regexp(t, `^imports/2024/03/05/[0-9a-f-]{36}\.xlsx$`, key)
	assert.NotEqual(t, key, archiveKey(now, ".xlsx"))
}
