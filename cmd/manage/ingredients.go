package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pageza/foodgram/backend/internal/models"
)

// readIngredientsCSV parses name,measurement_unit rows after a header row.
func readIngredientsCSV(r io.Reader) ([]models.Ingredient, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if strings.TrimSpace(header[0]) != "name" || strings.TrimSpace(header[1]) != "measurement_unit" {
		return nil, fmt.Errorf("unexpected header %q, want name,measurement_unit", strings.Join(header, ","))
	}

	var rows []models.Ingredient
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		name, unit := strings.TrimSpace(record[0]), strings.TrimSpace(record[1])
		if name == "" || unit == "" {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("line %d: name and measurement_unit are required", line)
		}
		rows = append(rows, models.Ingredient{Name: name, MeasurementUnit: unit})
	}
}
