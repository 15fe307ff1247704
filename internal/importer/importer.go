// Package importer loads customer lists from CSV exports of other CRM tools.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"studiosite/internal/domain"
)

// CustomerWriter is the slice of the customer side the importer needs.
type CustomerWriter interface {
	Create(ctx context.Context, c domain.Customer) (*domain.Customer, error)
}

// CSVImporter reads a customer CSV and creates the rows it finds. Rows whose
// email already exists are counted as skipped, not errors.
type CSVImporter struct {
	reader *csv.Reader
	repo   CustomerWriter
}

// Result summarizes a finished import run.
type Result struct {
	Imported int
	Skipped  int
}

// NewCSV creates a CSVImporter over r.
func NewCSV(r io.Reader, repo CustomerWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1
	return &CSVImporter{reader: csvr, repo: repo}
}

// Run parses the header row, then creates one customer per data row.
// A row without an email or a name is skipped.
func (i *CSVImporter) Run(ctx context.Context) (Result, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return Result{}, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["email"]; !ok {
		return Result{}, errors.New("missing email column")
	}

	var res Result
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("read row: %w", err)
		}

		c := parseRow(record, index)
		if c == nil {
			res.Skipped++
			continue
		}

		_, err = i.repo.Create(ctx, *c)
		if errors.Is(err, domain.ErrAlreadyExists) {
			res.Skipped++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("create customer %s: %w", c.Email, err)
		}
		res.Imported++
	}
	return res, nil
}

func headerIndex(headers []string) map[string]int {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return index
}

func parseRow(record []string, index map[string]int) *domain.Customer {
	field := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	email := strings.ToLower(field("email"))
	firstName := field("first_name")
	lastName := field("last_name")
	if email == "" || (firstName == "" && lastName == "") {
		return nil
	}

	status := strings.ToLower(field("status"))
	if !domain.ValidCustomerStatus(status) {
		status = domain.CustomerStatusProspect
	}

	return &domain.Customer{
		PublicID:    uuid.New().String(),
		FirstName:   firstName,
		LastName:    lastName,
		JobTitle:    field("job_title"),
		CompanyName: field("company_name"),
		Email:       email,
		Phone:       field("phone"),
		Website:     field("website"),
		Street:      field("street"),
		City:        field("city"),
		State:       field("state"),
		PostalCode:  field("postal_code"),
		Country:     field("country"),
		Notes:       field("notes"),
		Status:      status,
	}
}
