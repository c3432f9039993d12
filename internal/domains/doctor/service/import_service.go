package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/bcmedia-dr/doctor-management-system/internal/domains/doctor/model"
	"github.com/bcmedia-dr/doctor-management-system/internal/domains/doctor/repository"
	"github.com/bcmedia-dr/doctor-management-system/pkg/cache"
)

const (
	DefaultMaxFileSize = 10 * 1024 * 1024
	DefaultBatchSize   = 50
)

// AllowedExtensions are the workbook containers the importer opens.
var AllowedExtensions = []string{".xlsx", ".xlsm", ".xltx", ".xltm"}

type ImportOptions struct {
	MaxFileSize int64
	BatchSize   int
}

func (o ImportOptions) withDefaults() ImportOptions {
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = DefaultMaxFileSize
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	return o
}

type importService struct {
	store   repository.ImportStore
	cache   cache.Cache
	opts    ImportOptions
	columns []Column
}

// NewImportService builds the importer. cache may be nil.
func NewImportService(store repository.ImportStore, c cache.Cache, opts ImportOptions) ImportServiceInterface {
	return &importService{
		store:   store,
		cache:   c,
		opts:    opts.withDefaults(),
		columns: CanonicalColumns,
	}
}

// stagedRow is a parsed row waiting for its batch to be committed.
type stagedRow struct {
	row    int
	doctor *model.Doctor
}

// importRun is the state of a single ImportFile call.
type importRun struct {
	svc    *importService
	result *model.ImportResult
	staged []stagedRow

	seenNames  map[string]struct{}
	seenEmails map[string]struct{}
}

// ImportFile runs the whole import for the workbook at path.
func (s *importService) ImportFile(ctx context.Context, path string) *model.ImportResult {
	start := time.Now()

	size, ierr := s.checkFile(path)
	if ierr != nil {
		return s.reject(path, ierr)
	}

	log.Info().
		Str("file", filepath.Base(path)).
		Int64("file_size", size).
		Msg("starting doctor import")

	f, err := excelize.OpenFile(path)
	if err != nil {
		return s.reject(path, model.NewImportError(model.ErrCorruptFile,
			"the file could not be read as a spreadsheet, it may be damaged or not really an Excel workbook", err))
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return s.reject(path, model.NewImportError(model.ErrCorruptFile,
			fmt.Sprintf("the sheet %q could not be read", sheet), err))
	}

	if len(rows) < 2 {
		return s.reject(path, model.NewImportError(model.ErrNoData,
			"the sheet has no data rows, expected a header row followed by at least one record", nil))
	}

	columns, standard := ResolveColumns(rows[0], s.columns)
	if _, ok := columns[FieldName]; !ok {
		return s.reject(path, model.NewImportError(model.ErrMissingRequiredColumn,
			fmt.Sprintf("no %q column was found in the header row", columnLabel(s.columns, FieldName)), nil))
	}

	log.Info().
		Bool("standard_layout", standard).
		Int("resolved_columns", len(columns)).
		Int("rows", len(rows)-1).
		Msg("import header resolved")

	run := &importRun{
		svc:        s,
		result:     &model.ImportResult{Success: true, Errors: []string{}},
		seenNames:  make(map[string]struct{}),
		seenEmails: make(map[string]struct{}),
	}
	reader := newSheetReader(f, sheet)

	for i := 1; i < len(rows); i++ {
		run.processRow(ctx, reader, columns, i, rows[i])
	}
	run.flush(ctx)

	if run.result.InsertedCount > 0 && s.cache != nil {
		if err := s.cache.Delete(ctx, model.StatsCacheKey); err != nil {
			log.Warn().Err(err).Msg("failed to invalidate stats cache after import")
		}
	}

	log.Info().
		Int("inserted", run.result.InsertedCount).
		Int("errors", len(run.result.Errors)).
		Dur("took", time.Since(start)).
		Msg("doctor import finished")

	return run.result
}

func (s *importService) reject(path string, ierr *model.ImportError) *model.ImportResult {
	log.Warn().Str("file", filepath.Base(path)).Err(ierr).Msg("import rejected")
	return model.Failed(ierr)
}

// checkFile runs the pre-checks that need no parsing.
func (s *importService) checkFile(path string) (int64, *model.ImportError) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return 0, model.NewImportError(model.ErrEmptyOrMissingFile, "no file was uploaded or the file does not exist", nil)
	}
	if info.Size() == 0 {
		return 0, model.NewImportError(model.ErrEmptyOrMissingFile, "the uploaded file is empty", nil)
	}
	if info.Size() > s.opts.MaxFileSize {
		return 0, FileTooLargeError(info.Size(), s.opts.MaxFileSize)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".xls" {
		return 0, model.NewImportError(model.ErrUnsupportedFormat,
			"legacy .xls workbooks are not supported, open the file in Excel and save it as .xlsx first", nil)
	}
	if !isAllowedExtension(ext) {
		return 0, model.NewImportError(model.ErrUnsupportedFormat,
			fmt.Sprintf("unsupported file type %q, accepted formats are %s", ext, strings.Join(AllowedExtensions, ", ")), nil)
	}

	return info.Size(), nil
}

// FileTooLargeError reports a file of size bytes over limit.
func FileTooLargeError(size, limit int64) *model.ImportError {
	return model.NewImportError(model.ErrFileTooLarge,
		fmt.Sprintf("the file is %s, larger than the %s limit", formatSize(size), formatSize(limit)), nil)
}

func isAllowedExtension(ext string) bool {
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func formatSize(n int64) string {
	const mib = 1024 * 1024
	if n >= mib {
		return fmt.Sprintf("%.1f MiB", float64(n)/mib)
	}
	if n >= 1024 {
		return fmt.Sprintf("%.1f KiB", float64(n)/1024)
	}
	return fmt.Sprintf("%d bytes", n)
}

// processRow handles the 0-based data row i.
func (r *importRun) processRow(ctx context.Context, reader *sheetReader, columns ColumnMap, i int, raw []string) {
	if isBlankRow(raw) {
		return
	}
	rowNum := i + 1

	doctor, err := r.svc.extractRow(reader, columns, i, raw)
	if err != nil {
		r.addError("row %d: failed to read row: %v", rowNum, err)
		return
	}
	if doctor == nil {
		return
	}

	dup, err := r.isDuplicate(ctx, doctor)
	if err != nil {
		r.addError("row %d: failed to check record '%s': %v", rowNum, doctor.Name, err)
		return
	}
	if dup {
		r.addError("row %d: record '%s' already exists, skipped", rowNum, doctor.Name)
		return
	}

	r.remember(doctor)
	r.staged = append(r.staged, stagedRow{row: rowNum, doctor: doctor})
	if len(r.staged) >= r.svc.opts.BatchSize {
		r.flush(ctx)
	}
}

// extractRow returns nil when the row has no usable identity.
func (s *importService) extractRow(reader *sheetReader, columns ColumnMap, i int, raw []string) (*model.Doctor, error) {
	valueAt := func(f Field) (string, error) {
		col, ok := columns[f]
		if !ok {
			return "", nil
		}
		var v string
		if col < len(raw) {
			v = raw[col]
		}
		c, err := reader.cell(i, col, v)
		if err != nil {
			return "", err
		}
		return c.String(), nil
	}

	name, err := valueAt(FieldName)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, nil
	}

	d := &model.Doctor{}
	for _, col := range s.columns {
		if col.assign == nil {
			continue
		}
		v, err := valueAt(col.Field)
		if err != nil {
			return nil, err
		}
		col.assign(d, v)
	}
	d.ApplyDefaults()
	return d, nil
}

func isBlankRow(raw []string) bool {
	for _, v := range raw {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// isDuplicate checks rows staged earlier in this file first, then the store.
func (r *importRun) isDuplicate(ctx context.Context, d *model.Doctor) (bool, error) {
	email := strings.ToLower(model.Deref(d.Email))

	if _, ok := r.seenNames[d.Name]; ok {
		return true, nil
	}
	if email != "" {
		if _, ok := r.seenEmails[email]; ok {
			return true, nil
		}
	}

	existing, err := r.svc.store.FindDuplicate(ctx, d.Name, email)
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}

func (r *importRun) remember(d *model.Doctor) {
	r.seenNames[d.Name] = struct{}{}
	if email := strings.ToLower(model.Deref(d.Email)); email != "" {
		r.seenEmails[email] = struct{}{}
	}
}

func (r *importRun) addError(format string, args ...interface{}) {
	r.result.Errors = append(r.result.Errors, fmt.Sprintf(format, args...))
}

// flush commits the staged rows as one batch. When the batch fails it is
// rolled back and every row is retried in its own transaction.
func (r *importRun) flush(ctx context.Context) {
	if len(r.staged) == 0 {
		return
	}
	batch := r.staged
	r.staged = nil

	err := r.svc.commit(ctx, batch)
	if err == nil {
		r.result.InsertedCount += len(batch)
		return
	}

	log.Warn().
		Err(err).
		Int("first_row", batch[0].row).
		Int("batch_size", len(batch)).
		Msg("batch commit failed, retrying rows one by one")

	for i := range batch {
		if err := r.svc.commit(ctx, batch[i:i+1]); err != nil {
			r.addError("row %d: failed to save record '%s': %v", batch[i].row, batch[i].doctor.Name, err)
			continue
		}
		r.result.InsertedCount++
	}
}

// commit inserts rows in one unit of work. Every exit path that does not
// commit rolls back.
func (s *importService) commit(ctx context.Context, rows []stagedRow) error {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := uow.Rollback(ctx); rbErr != nil {
			log.Error().Err(rbErr).Msg("rollback failed")
		}
	}()

	for _, row := range rows {
		if err := uow.Insert(ctx, row.doctor); err != nil {
			return err
		}
	}
	if err := uow.Commit(ctx); err != nil {
		return err
	}
	committed = true
	return nil
}
