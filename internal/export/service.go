package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/rpattn/filterql/internal/domain"
	"github.com/rpattn/filterql/internal/repository"
)

// Format selects the output encoding of an export.
type Format string

const (
	FormatCSV  Format = "CSV"
	FormatXLSX Format = "XLSX"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

func FormatFromString(raw string) (Format, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "", "CSV":
		return FormatCSV, nil
	case "XLSX", "EXCEL":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, raw)
	}
}

func (f Format) MimeType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

func (f Format) Extension() string {
	if f == FormatXLSX {
		return "xlsx"
	}
	return "csv"
}

// Service streams filtered entity listings into tabular files.
type Service struct {
	entityRepo repository.EntityRepository
	fieldRepo  repository.FieldCatalogRepository

	pageSize int
	now      func() time.Time
}

type Option func(*Service)

func WithPageSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(entityRepo repository.EntityRepository, fieldRepo repository.FieldCatalogRepository, opts ...Option) *Service {
	service := &Service{
		entityRepo: entityRepo,
		fieldRepo:  fieldRepo,
		pageSize:   1000,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Request describes one export run.
type Request struct {
	OrganizationID uuid.UUID
	EntityType     string
	Filter         *domain.FilterDefinition
	Format         Format
	Columns        []string
	Sort           *domain.EntitySort
}

// Result reports what a finished export produced.
type Result struct {
	Rows     int
	FileName string
	MimeType string
}

// Run writes the filtered listing to out. Column order follows the
// request's Columns when given, otherwise the field catalog.
func (s *Service) Run(ctx context.Context, req Request, out io.Writer) (Result, error) {
	if req.OrganizationID == uuid.Nil {
		return Result{}, errors.New("organization ID is required")
	}
	entityType := strings.TrimSpace(req.EntityType)
	if entityType == "" {
		return Result{}, errors.New("entity type is required")
	}
	format := req.Format
	if format == "" {
		format = FormatCSV
	}

	fields, err := s.fieldRepo.Get(ctx, req.OrganizationID, entityType)
	if err != nil && !errors.Is(err, repository.ErrFieldCatalogNotFound) {
		return Result{}, fmt.Errorf("load field catalog: %w", err)
	}

	headers := req.Columns
	if len(headers) == 0 {
		headers = make([]string, 0, len(fields))
		for _, field := range fields {
			headers = append(headers, field.Name)
		}
	}
	if len(headers) == 0 {
		return Result{}, errors.New("no columns to export")
	}

	var writer rowWriter
	switch format {
	case FormatCSV:
		writer = newCSVRowWriter(out)
	case FormatXLSX:
		writer = newXLSXRowWriter(out)
	default:
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	if err := writer.WriteRow(headers); err != nil {
		return Result{}, fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(headers))
	rows := 0
	offset := 0
	for {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		entities, _, err := s.entityRepo.List(ctx, repository.ListQuery{
			OrganizationID: req.OrganizationID,
			EntityType:     entityType,
			Filter:         req.Filter,
			Fields:         fields,
			Sort:           req.Sort,
			Limit:          s.pageSize,
			Offset:         offset,
		})
		if err != nil {
			return Result{}, fmt.Errorf("list entities: %w", err)
		}
		if len(entities) == 0 {
			break
		}
		for _, entity := range entities {
			for i, column := range headers {
				value, _ := entity.FieldValue(column)
				row[i] = formatValue(value)
			}
			if err := writer.WriteRow(row); err != nil {
				return Result{}, fmt.Errorf("write entity row: %w", err)
			}
			rows++
		}
		if len(entities) < s.pageSize {
			break
		}
		offset += s.pageSize
	}

	if err := writer.Close(); err != nil {
		return Result{}, fmt.Errorf("finish export: %w", err)
	}

	return Result{
		Rows:     rows,
		FileName: fmt.Sprintf("%s-%s.%s", sanitizeFileName(entityType), s.now().UTC().Format("20060102-150405"), format.Extension()),
		MimeType: format.MimeType(),
	}, nil
}

type rowWriter interface {
	WriteRow(values []string) error
	Close() error
}

type csvRowWriter struct {
	writer *csv.Writer
}

func newCSVRowWriter(out io.Writer) *csvRowWriter {
	return &csvRowWriter{writer: csv.NewWriter(out)}
}

func (w *csvRowWriter) WriteRow(values []string) error {
	return w.writer.Write(values)
}

func (w *csvRowWriter) Close() error {
	w.writer.Flush()
	return w.writer.Error()
}

type xlsxRowWriter struct {
	out    io.Writer
	file   *excelize.File
	stream *excelize.StreamWriter
	next   int
}

func newXLSXRowWriter(out io.Writer) *xlsxRowWriter {
	return &xlsxRowWriter{out: out, file: excelize.NewFile(), next: 1}
}

func (w *xlsxRowWriter) WriteRow(values []string) error {
	if w.stream == nil {
		stream, err := w.file.NewStreamWriter("Sheet1")
		if err != nil {
			return fmt.Errorf("open stream writer: %w", err)
		}
		w.stream = stream
	}
	cells := make([]interface{}, len(values))
	for i, value := range values {
		cells[i] = value
	}
	cell, err := excelize.CoordinatesToCellName(1, w.next)
	if err != nil {
		return fmt.Errorf("resolve cell: %w", err)
	}
	if err := w.stream.SetRow(cell, cells); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	w.next++
	return nil
}

func (w *xlsxRowWriter) Close() error {
	defer func() { _ = w.file.Close() }()
	if w.stream != nil {
		if err := w.stream.Flush(); err != nil {
			return fmt.Errorf("flush sheet: %w", err)
		}
	}
	if err := w.file.Write(w.out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func formatValue(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case *time.Time:
		if v == nil {
			return ""
		}
		return v.UTC().Format(time.RFC3339)
	case bool:
		if v {
			return "true"
		}
		return "false"
	case json.Number:
		return v.String()
	case float32, float64, int, int32, int64, uint, uint32, uint64:
		return fmt.Sprintf("%v", v)
	case []byte:
		return string(v)
	case map[string]any, []any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func sanitizeFileName(name string) string {
	var builder strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			builder.WriteRune(r)
		case r == '-' || r == '_':
			builder.WriteRune(r)
		default:
			builder.WriteRune('-')
		}
	}
	result := strings.Trim(builder.String(), "-")
	if result == "" {
		return "export"
	}
	return result
}
