package fileio

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	excelize "github.com/xuri/excelize/v2"

	"merchant-recon/internal/reconcile/model"
)

var reportColumns = []string{
	"match_type", "confidence_score",
	"left_id", "left_name", "left_address", "left_city", "left_state", "left_zip", "left_lat", "left_lon",
	"right_id", "right_name", "right_address", "right_city", "right_state", "right_zip", "right_lat", "right_lon",
	"distance_miles", "name_similarity", "address_similarity",
	"city_match", "state_match", "zip_match",
	"match_reasons", "geographic_warning",
}

var correctedColumns = []string{
	"left_corrected_city", "left_corrected_state",
	"right_corrected_city", "right_corrected_state",
}

// ReportHeader lists the report columns; corrected locality columns are
// present only for geocoded reports.
func ReportHeader(geocoded bool) []string {
	h := append([]string(nil), reportColumns...)
	if geocoded {
		h = append(h, correctedColumns...)
	}
	return h
}

// ReportFileName is coordinate_priority_comparison_<YYYYMMDD_HHMMSS>[_with_geocoding]<ext> in dir.
func ReportFileName(dir string, ts time.Time, geocoded bool, ext string) string {
	name := "coordinate_priority_comparison_" + ts.Format("20060102_150405")
	if geocoded {
		name += "_with_geocoding"
	}
	return filepath.Join(dir, name+ext)
}

// reportValues renders one row as typed cells in ReportHeader order. Empty
// strings stand for fields that do not apply (the other side of a unique
// row, missing coordinates).
func reportValues(row model.ReportRow, geocoded bool) []any {
	isMatch := row.Kind == model.KindMatch
	conf := any(0.0)
	if isMatch {
		conf = row.Confidence
	}
	v := []any{row.MatchType, conf}
	v = append(v, recordValues(row.Left)...)
	v = append(v, recordValues(row.Right)...)
	if isMatch {
		v = append(v, row.DistanceMiles, row.NameSimilarity, row.AddressSimilarity)
	} else {
		v = append(v, "", "", "")
	}
	v = append(v, row.CityMatch, row.StateMatch, row.ZipMatch, row.Reasons, row.GeographicWarning)
	if geocoded {
		v = append(v, localityValues(row.LeftCorrected)...)
		v = append(v, localityValues(row.RightCorrected)...)
	}
	return v
}

func recordValues(r *model.MerchantRecord) []any {
	if r == nil {
		return []any{"", "", "", "", "", "", "", ""}
	}
	var lat, lon any = "", ""
	if r.HasCoords {
		lat, lon = r.Latitude, r.Longitude
	}
	return []any{r.SourceRowID, r.Name, r.Address1, r.City, r.State, r.Zip, lat, lon}
}

func localityValues(l *model.Locality) []any {
	if l == nil {
		return []any{"", ""}
	}
	return []any{l.City, l.Region}
}

func formatCell(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// WriteReportCSV writes the report as CSV with a header line.
func WriteReportCSV(w io.Writer, rep *model.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ReportHeader(rep.Geocoded)); err != nil {
		return err
	}
	line := make([]string, 0, len(reportColumns)+len(correctedColumns))
	for _, row := range rep.Rows {
		line = line[:0]
		for _, v := range reportValues(row, rep.Geocoded) {
			line = append(line, formatCell(v))
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

const (
	reportSheet  = "Report"
	summarySheet = "Summary"
)

// WriteReportXLSX writes the rows to a "Report" sheet and the run summary
// to a "Summary" sheet.
func WriteReportXLSX(w io.Writer, rep *model.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), reportSheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(reportSheet)
	if err != nil {
		return err
	}
	header := ReportHeader(rep.Geocoded)
	hv := make([]any, len(header))
	for i, h := range header {
		hv[i] = h
	}
	if err := sw.SetRow("A1", hv, excelize.RowOpts{StyleID: bold}); err != nil {
		return err
	}
	for i, row := range rep.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, reportValues(row, rep.Geocoded)); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}

	if err := writeSummarySheet(f, rep, bold); err != nil {
		return err
	}
	return f.Write(w)
}

func writeSummarySheet(f *excelize.File, rep *model.Report, bold int) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	s := rep.Summary
	lines := [][2]any{
		{"run_id", rep.RunID},
		{"left_records", s.LeftRecords},
		{"right_records", s.RightRecords},
		{"left_with_coordinates", s.LeftWithCoords},
		{"right_with_coordinates", s.RightWithCoords},
		{"primary_candidates", s.PrimaryCandidates},
		{"proximity_candidates", s.ProximityCandidates},
		{"high_confidence", s.High},
		{"medium_confidence", s.Medium},
		{"low_confidence", s.Low},
		{"potential", s.Potential},
		{"left_unique", s.LeftUnique},
		{"right_unique", s.RightUnique},
		{"elapsed_seconds", s.Elapsed.Seconds()},
	}
	for i, l := range lines {
		for col, v := range l {
			cell, err := excelize.CoordinatesToCellName(col+1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(summarySheet, cell, v); err != nil {
				return err
			}
		}
	}
	return f.SetColStyle(summarySheet, "A", bold)
}

// WriteTableCSV writes a table with extra columns appended after its own.
// Extra columns the table already has are not repeated.
func WriteTableCSV(w io.Writer, t *Table, extra ...string) error {
	header := append([]string(nil), t.Headers...)
	for _, e := range extra {
		if !slices.Contains(header, e) {
			header = append(header, e)
		}
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	line := make([]string, len(header))
	for _, row := range t.Rows {
		for i, h := range header {
			line[i] = row[h]
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
