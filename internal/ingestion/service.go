package ingestion

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/rpattn/filterql/internal/domain"
	"github.com/rpattn/filterql/internal/repository"
	"github.com/rpattn/filterql/pkg/validator"
)

var (
	// ErrUnsupportedFormat is returned when an uploaded file is not supported.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

	timeLayouts = []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02",
		"2006-01-02 15:04:05",
		"2006/01/02",
		"01/02/2006",
		"02/01/2006",
	}
)

// Service ingests tabular data into the entity store, inferring a filter
// field catalog for entity types that do not have one yet.
type Service struct {
	entityRepo repository.EntityRepository
	fieldRepo  repository.FieldCatalogRepository
	validator  *validator.PropertiesValidator
}

func NewService(entityRepo repository.EntityRepository, fieldRepo repository.FieldCatalogRepository) *Service {
	return &Service{
		entityRepo: entityRepo,
		fieldRepo:  fieldRepo,
		validator:  validator.NewPropertiesValidator(),
	}
}

// Request describes the ingestion input.
type Request struct {
	OrganizationID uuid.UUID
	EntityType     string
	FileName       string
	HeaderRowIndex *int
	Data           io.Reader
}

// RowError reports a rejected row.
type RowError struct {
	RowNumber int    `json:"rowNumber"`
	Message   string `json:"message"`
}

// Summary returns ingestion level metrics.
type Summary struct {
	TotalRows      int        `json:"totalRows"`
	ValidRows      int        `json:"validRows"`
	InvalidRows    int        `json:"invalidRows"`
	CatalogCreated bool       `json:"catalogCreated"`
	Fields         []string   `json:"fields"`
	RowErrors      []RowError `json:"rowErrors,omitempty"`
}

type tableData struct {
	headers []string
	rows    [][]string
}

// Ingest reads the uploaded file and persists each valid row as an entity.
func (s *Service) Ingest(ctx context.Context, req Request) (Summary, error) {
	summary := Summary{Fields: []string{}, RowErrors: []RowError{}}

	if req.OrganizationID == uuid.Nil {
		return summary, errors.New("organization id is required")
	}
	entityType := strings.TrimSpace(req.EntityType)
	if entityType == "" {
		return summary, errors.New("entity type is required")
	}
	if req.Data == nil {
		return summary, errors.New("data reader is required")
	}

	payload, err := io.ReadAll(req.Data)
	if err != nil {
		return summary, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(payload) == 0 {
		return summary, errors.New("file is empty")
	}

	table, err := parseTable(req.FileName, payload, req.HeaderRowIndex)
	if err != nil {
		return summary, err
	}
	if len(table.headers) == 0 {
		return summary, errors.New("no header row detected")
	}

	fields, err := s.fieldRepo.Get(ctx, req.OrganizationID, entityType)
	if err != nil {
		if !errors.Is(err, repository.ErrFieldCatalogNotFound) {
			return summary, fmt.Errorf("load field catalog: %w", err)
		}
		fields = inferFields(table)
		if replaceErr := s.fieldRepo.Replace(ctx, req.OrganizationID, entityType, fields); replaceErr != nil {
			return summary, fmt.Errorf("store inferred field catalog: %w", replaceErr)
		}
		summary.CatalogCreated = true
	}
	for _, field := range fields {
		summary.Fields = append(summary.Fields, field.Name)
	}

	summary.TotalRows = len(table.rows)
	for idx, row := range table.rows {
		rowNumber := idx + 1
		properties, rowErr := buildProperties(table.headers, row, fields)
		if rowErr != nil {
			summary.InvalidRows++
			summary.RowErrors = append(summary.RowErrors, RowError{RowNumber: rowNumber, Message: rowErr.Error()})
			continue
		}
		result := s.validator.ValidateProperties(properties, fields)
		if !result.IsValid {
			summary.InvalidRows++
			summary.RowErrors = append(summary.RowErrors, RowError{RowNumber: rowNumber, Message: result.Errors[0].Message})
			continue
		}
		entity := domain.NewEntity(req.OrganizationID, entityType, properties)
		if _, err := s.entityRepo.Create(ctx, entity); err != nil {
			summary.InvalidRows++
			summary.RowErrors = append(summary.RowErrors, RowError{RowNumber: rowNumber, Message: fmt.Sprintf("create entity: %v", err)})
			continue
		}
		summary.ValidRows++
	}

	return summary, nil
}

func buildProperties(headers []string, row []string, fields []domain.FilterField) (map[string]any, error) {
	padded := padRow(row, len(headers))
	properties := make(map[string]any, len(headers))
	for idx, header := range headers {
		raw := strings.TrimSpace(padded[idx])
		if raw == "" {
			continue
		}
		// Store under the cataloged spelling so JSONB key lookups match.
		key := header
		fieldType := domain.FilterFieldTypeText
		if field, ok := domain.FindFilterField(fields, header); ok {
			key = field.Name
			fieldType = field.Type
		}
		value, err := coerceValue(fieldType, raw)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", header, err)
		}
		properties[key] = value
	}
	return properties, nil
}

func parseTable(fileName string, payload []byte, headerRowIndex *int) (tableData, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv", ".txt", "":
		return parseCSV(payload, headerRowIndex)
	case ".xlsx", ".xlsm":
		return parseExcel(payload, headerRowIndex)
	default:
		return tableData{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func parseCSV(payload []byte, headerRowIndex *int) (tableData, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return tableData{}, fmt.Errorf("failed to read csv: %w", err)
	}

	return normalizeTable(records, headerRowIndex)
}

func parseExcel(payload []byte, headerRowIndex *int) (tableData, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return tableData{}, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return tableData{}, errors.New("excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return tableData{}, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}

	return normalizeTable(rows, headerRowIndex)
}

func normalizeTable(records [][]string, headerRowIndex *int) (tableData, error) {
	if len(records) == 0 {
		return tableData{}, errors.New("no rows found in file")
	}

	var headerRow []string
	var dataRows [][]string

	if headerRowIndex != nil {
		if *headerRowIndex < 0 || *headerRowIndex >= len(records) {
			return tableData{}, fmt.Errorf("header row index %d out of range", *headerRowIndex)
		}
		if len(cleanRow(records[*headerRowIndex])) == 0 {
			return tableData{}, fmt.Errorf("selected header row %d is empty", *headerRowIndex+1)
		}
		headerRow = records[*headerRowIndex]
		dataRows = filterEmptyRows(records[*headerRowIndex+1:])
	} else {
		for idx, row := range records {
			if len(cleanRow(row)) == 0 {
				continue
			}
			headerRow = row
			dataRows = filterEmptyRows(records[idx+1:])
			break
		}
	}
	if headerRow == nil {
		return tableData{}, errors.New("no header row detected")
	}

	return tableData{headers: sanitizeHeaders(headerRow), rows: dataRows}, nil
}

func cleanRow(row []string) []string {
	var cleaned []string
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			cleaned = append(cleaned, cell)
		}
	}
	return cleaned
}

func sanitizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	seen := make(map[string]int)

	for idx, value := range raw {
		name := strings.TrimSpace(value)
		name = strings.ReplaceAll(name, " ", "_")
		name = strings.ReplaceAll(name, ".", "_")
		name = strings.ReplaceAll(name, "-", "_")
		name = strings.Trim(name, "_")
		if name == "" {
			name = fmt.Sprintf("column_%d", idx+1)
		}

		base := name
		count := seen[base]
		if count > 0 {
			name = fmt.Sprintf("%s_%d", base, count+1)
		}
		seen[base] = count + 1

		headers[idx] = name
	}

	return headers
}

func padRow(row []string, length int) []string {
	if len(row) >= length {
		return row[:length]
	}
	padded := make([]string, length)
	copy(padded, row)
	return padded
}

func filterEmptyRows(rows [][]string) [][]string {
	var filtered [][]string
	for _, row := range rows {
		if len(cleanRow(row)) > 0 {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

// inferFields profiles each column of the upload into a filter field.
func inferFields(table tableData) []domain.FilterField {
	fields := make([]domain.FilterField, 0, len(table.headers))
	for idx, header := range table.headers {
		fields = append(fields, domain.FilterField{
			Name:  header,
			Label: strings.ReplaceAll(header, "_", " "),
			Type:  profileColumn(idx, table.rows),
		})
	}
	return fields
}

func profileColumn(col int, rows [][]string) domain.FilterFieldType {
	isBool := true
	isNumber := true
	isDate := true
	hasValue := false

	for _, row := range rows {
		if col >= len(row) {
			continue
		}
		value := strings.TrimSpace(row[col])
		if value == "" {
			continue
		}
		hasValue = true

		if !looksLikeBool(value) {
			isBool = false
		}
		if !looksLikeNumber(value) {
			isNumber = false
		}
		if !looksLikeTimestamp(value) {
			isDate = false
		}
	}

	switch {
	case isBool && hasValue:
		return domain.FilterFieldTypeBoolean
	case isNumber && hasValue:
		return domain.FilterFieldTypeNumber
	case isDate && hasValue:
		return domain.FilterFieldTypeDate
	default:
		return domain.FilterFieldTypeText
	}
}

func looksLikeBool(value string) bool {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "yes" || value == "no" {
		return true
	}
	_, err := strconv.ParseBool(value)
	return err == nil
}

func looksLikeNumber(value string) bool {
	_, err := strconv.ParseFloat(value, 64)
	return err == nil
}

func looksLikeTimestamp(value string) bool {
	_, err := parseTimestamp(value)
	return err == nil
}

// coerceValue turns a raw cell into the JSON shape the field type expects.
// Dates are stored as RFC3339 strings so JSONB round-trips cleanly.
func coerceValue(fieldType domain.FilterFieldType, raw string) (any, error) {
	switch fieldType {
	case domain.FilterFieldTypeText, domain.FilterFieldTypeEnum:
		return raw, nil
	case domain.FilterFieldTypeNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("unable to coerce %q to number", raw)
		}
		return f, nil
	case domain.FilterFieldTypeBoolean:
		value := strings.ToLower(strings.TrimSpace(raw))
		switch value {
		case "yes", "y":
			return true, nil
		case "no", "n":
			return false, nil
		}
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("unable to coerce %q to boolean", raw)
		}
		return boolVal, nil
	case domain.FilterFieldTypeDate, domain.FilterFieldTypeDateTime:
		ts, err := parseTimestamp(raw)
		if err != nil {
			return nil, fmt.Errorf("unable to coerce %q to timestamp: %w", raw, err)
		}
		return ts.Format(time.RFC3339), nil
	default:
		return raw, nil
	}
}

func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format")
}
