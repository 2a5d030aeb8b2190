package store

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Sheets is the Google Sheets backend. One spreadsheet holds all three
// worksheets; missing worksheets are created on EnsureHeader.
type Sheets struct {
	svc           *sheets.Service
	spreadsheetID string
}

func NewSheets(ctx context.Context, credentialsFile, spreadsheetID string) (*Sheets, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Sheets{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func (s *Sheets) Append(ctx context.Context, table Table, row []string) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{toAny(row)}}
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, string(table), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", table, err)
	}
	return nil
}

func (s *Sheets) FindRowByKey(ctx context.Context, table Table, col int, key string) (int, error) {
	values, err := s.ReadColumn(ctx, table, col)
	if err != nil {
		return 0, err
	}
	for i, v := range values {
		if v == key {
			return i + 2, nil
		}
	}
	return 0, ErrNotFound
}

func (s *Sheets) ReadRow(ctx context.Context, table Table, row int) ([]string, error) {
	rng := fmt.Sprintf("%s!%d:%d", table, row, row)
	vr, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read row %d of %s: %w", row, table, err)
	}
	if len(vr.Values) == 0 {
		return nil, ErrNotFound
	}
	return toStrings(vr.Values[0]), nil
}

func (s *Sheets) ReadColumn(ctx context.Context, table Table, col int) ([]string, error) {
	letter := colLetter(col)
	rng := fmt.Sprintf("%s!%s2:%s", table, letter, letter)
	vr, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read column %d of %s: %w", col, table, err)
	}
	out := make([]string, 0, len(vr.Values))
	for _, row := range vr.Values {
		if len(row) > 0 {
			out = append(out, fmt.Sprint(row[0]))
		} else {
			out = append(out, "")
		}
	}
	return out, nil
}

func (s *Sheets) UpdateCell(ctx context.Context, table Table, row, col int, value string) error {
	rng := fmt.Sprintf("%s!%s%d", table, colLetter(col), row)
	vr := &sheets.ValueRange{Values: [][]interface{}{{value}}}
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update cell %s: %w", rng, err)
	}
	return nil
}

func (s *Sheets) ReadAllRecords(ctx context.Context, table Table) ([]Record, error) {
	vr, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, string(table)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	if len(vr.Values) < 2 {
		return nil, nil
	}
	header := toStrings(vr.Values[0])
	out := make([]Record, 0, len(vr.Values)-1)
	for _, row := range vr.Values[1:] {
		out = append(out, zipRecord(header, toStrings(row)))
	}
	return out, nil
}

func (s *Sheets) EnsureHeader(ctx context.Context, table Table, columns []string) error {
	if err := s.ensureWorksheet(ctx, table); err != nil {
		return err
	}

	rng := fmt.Sprintf("%s!1:1", table)
	vr, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header of %s: %w", table, err)
	}
	var existing []string
	if len(vr.Values) > 0 {
		existing = toStrings(vr.Values[0])
	}
	if headerMatches(existing, columns) {
		return nil
	}

	target := fmt.Sprintf("%s!A1:%s1", table, colLetter(len(columns)))
	update := &sheets.ValueRange{Values: [][]interface{}{toAny(columns)}}
	_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, target, update).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header of %s: %w", table, err)
	}
	return nil
}

func (s *Sheets) ensureWorksheet(ctx context.Context, table Table) error {
	doc, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range doc.Sheets {
		if sh.Properties != nil && sh.Properties.Title == string(table) {
			return nil
		}
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: string(table)},
			},
		}},
	}
	if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add worksheet %s: %w", table, err)
	}
	return nil
}

// colLetter converts a 1-based column index to its A1 letter form.
func colLetter(col int) string {
	var out []byte
	for col > 0 {
		col--
		out = append([]byte{byte('A' + col%26)}, out...)
		col /= 26
	}
	return string(out)
}

func toAny(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}

func toStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		if v != nil {
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}
