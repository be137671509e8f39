package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/nimasrn/review-runner/internal/apperr"
	"github.com/nimasrn/review-runner/internal/model"
	"github.com/nimasrn/review-runner/internal/repository"
	"github.com/nimasrn/review-runner/internal/validate"
	"github.com/nimasrn/review-runner/pkg/logger"
	"github.com/xuri/excelize/v2"
)

const maxImportRows = 10_000

var ErrCustomerExists = errors.New("customer with this contact already exists")

type StatusInvalidator interface {
	Invalidate(ctx context.Context, businessID string)
}

type CustomerService struct {
	customers CustomerRepository
	status    StatusInvalidator
}

func NewCustomerService(customers CustomerRepository, status StatusInvalidator) *CustomerService {
	return &CustomerService{customers: customers, status: status}
}

func (s *CustomerService) Create(ctx context.Context, businessID string, req model.CustomerCreateRequest) (*model.Customer, error) {
	c, err := s.prepare(req)
	if err != nil {
		return nil, err
	}

	exists, err := s.customers.ExistsByContact(ctx, businessID, c.Email, c.Phone)
	if err != nil {
		logger.Error("failed to check customer contact", "business_id", businessID, "error", err)
		return nil, apperr.Internal(err, "failed to create customer")
	}
	if exists {
		return nil, apperr.Wrap(apperr.KindValidation, ErrCustomerExists, "CUSTOMER_EXISTS")
	}

	c.BusinessID = businessID
	created, err := s.customers.Create(ctx, c)
	if err != nil {
		logger.Error("failed to create customer", "business_id", businessID, "error", err)
		return nil, apperr.Internal(err, "failed to create customer")
	}
	s.invalidate(ctx, businessID)
	return created, nil
}

func (s *CustomerService) List(ctx context.Context, businessID string, f model.CustomerFilter) ([]*model.Customer, int64, error) {
	f.Page = f.Page.Normalize()
	f.Search = strings.TrimSpace(f.Search)
	items, total, err := s.customers.List(ctx, businessID, f)
	if err != nil {
		logger.Error("failed to list customers", "business_id", businessID, "error", err)
		return nil, 0, apperr.Internal(err, "failed to list customers")
	}
	return items, total, nil
}

// Import reads customers from a .csv or .xlsx file with a name, email, phone
// header row. Invalid rows are reported and duplicates skipped.
func (s *CustomerService) Import(ctx context.Context, businessID, filename string, data []byte) (*model.ImportResult, error) {
	rows, err := readRows(filename, data)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, apperr.Validation("file has no customer rows", nil)
	}
	if len(rows)-1 > maxImportRows {
		return nil, apperr.Validation(fmt.Sprintf("file has more than %d rows", maxImportRows), nil)
	}

	cols, err := headerColumns(rows[0])
	if err != nil {
		return nil, err
	}

	res := &model.ImportResult{Errors: []model.ImportRowError{}}
	seen := make(map[string]struct{})
	for i, row := range rows[1:] {
		rowNum := i + 2
		if isBlank(row) {
			continue
		}

		c, err := s.prepare(model.CustomerCreateRequest{
			Name:  cell(row, cols["name"]),
			Email: cell(row, cols["email"]),
			Phone: cell(row, cols["phone"]),
		})
		if err != nil {
			res.Errors = append(res.Errors, model.ImportRowError{Row: rowNum, Message: rowMessage(err)})
			continue
		}

		if dup(seen, c) {
			res.Skipped++
			continue
		}
		exists, err := s.customers.ExistsByContact(ctx, businessID, c.Email, c.Phone)
		if err != nil {
			logger.Error("failed to check customer contact", "business_id", businessID, "row", rowNum, "error", err)
			return nil, apperr.Internal(err, "failed to import customers")
		}
		if exists {
			res.Skipped++
			continue
		}

		c.BusinessID = businessID
		if _, err := s.customers.Create(ctx, c); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				res.Skipped++
				continue
			}
			logger.Error("failed to import customer", "business_id", businessID, "row", rowNum, "error", err)
			return nil, apperr.Internal(err, "failed to import customers")
		}
		res.Imported++
	}

	if res.Imported > 0 {
		s.invalidate(ctx, businessID)
	}
	logger.Info("customers imported", "business_id", businessID, "imported", res.Imported, "skipped", res.Skipped, "errors", len(res.Errors))
	return res, nil
}

func (s *CustomerService) prepare(req model.CustomerCreateRequest) (*model.Customer, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	c := &model.Customer{Name: req.Name, Email: req.Email}
	if req.Phone != "" {
		phone, ok := validate.NormalizeUKPhone(req.Phone)
		if !ok {
			return nil, apperr.Validation("invalid phone", []validate.FieldError{{Field: "phone", Rule: "ukphone"}})
		}
		c.Phone = phone
	}
	return c, nil
}

func (s *CustomerService) invalidate(ctx context.Context, businessID string) {
	if s.status != nil {
		s.status.Invalidate(ctx, businessID)
	}
}

func readRows(filename string, data []byte) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", "":
		r := csv.NewReader(bytes.NewReader(data))
		r.FieldsPerRecord = -1
		r.TrimLeadingSpace = true
		var rows [][]string
		for {
			rec, err := r.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, apperr.Validation("file is not valid CSV", []model.ImportRowError{{Row: len(rows) + 1, Message: err.Error()}})
			}
			rows = append(rows, rec)
		}
		return rows, nil
	case ".xlsx":
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, apperr.Validation("file is not a valid spreadsheet", nil)
		}
		defer f.Close()
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, apperr.Validation("spreadsheet has no sheets", nil)
		}
		rows, err := f.GetRows(sheets[0])
		if err != nil {
			return nil, apperr.Validation("spreadsheet could not be read", nil)
		}
		return rows, nil
	}
	return nil, apperr.Validation("unsupported file type, use .csv or .xlsx", nil)
}

func headerColumns(header []string) (map[string]int, error) {
	cols := map[string]int{"name": -1, "email": -1, "phone": -1}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, ok := cols[key]; ok && cols[key] < 0 {
			cols[key] = i
		}
	}
	if cols["name"] < 0 {
		return nil, apperr.Validation("header row must contain a name column", nil)
	}
	if cols["email"] < 0 && cols["phone"] < 0 {
		return nil, apperr.Validation("header row must contain an email or phone column", nil)
	}
	return cols, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func dup(seen map[string]struct{}, c *model.Customer) bool {
	var keys []string
	if c.Email != "" {
		keys = append(keys, "e:"+c.Email)
	}
	if c.Phone != "" {
		keys = append(keys, "p:"+c.Phone)
	}
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			return true
		}
	}
	for _, k := range keys {
		seen[k] = struct{}{}
	}
	return false
}

func rowMessage(err error) string {
	ae := apperr.As(err)
	if fes, ok := ae.Details.([]validate.FieldError); ok && len(fes) > 0 {
		parts := make([]string, 0, len(fes))
		for _, fe := range fes {
			parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Rule))
		}
		return "invalid " + strings.Join(parts, ", ")
	}
	return ae.Message
}
