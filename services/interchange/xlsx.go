package interchange

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/kumbukumbu/core"
	"github.com/trezcool/kumbukumbu/core/school"
)

// Sheet names
const (
	SheetStudents    = "Students"
	SheetInstructors = "Instructors"
	SheetCourses     = "Courses"
)

var (
	studentColumns    = []string{"student_id", "name", "age", "email", "registered_courses"}
	instructorColumns = []string{"instructor_id", "name", "age", "email", "assigned_courses"}
	courseColumns     = []string{"course_id", "course_name", "instructor_id", "enrolled_students"}
)

// listColumns hold comma separated ids
var listColumns = map[string]bool{"registered_courses": true, "assigned_courses": true, "enrolled_students": true}

// ExportXLSX writes a workbook with one sheet per kind; the first row of each sheet names the columns.
func ExportXLSX(w io.Writer, reg *school.Registry) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetStudents); err != nil {
		return errors.Wrap(err, "naming sheet")
	}
	for _, sheet := range []string{SheetInstructors, SheetCourses} {
		if _, err := f.NewSheet(sheet); err != nil {
			return errors.Wrapf(err, "adding sheet %s", sheet)
		}
	}

	doc := reg.ToDocument()
	if err := writeSheet(f, SheetStudents, studentColumns, doc.Students); err != nil {
		return err
	}
	if err := writeSheet(f, SheetInstructors, instructorColumns, doc.Instructors); err != nil {
		return err
	}
	if err := writeSheet(f, SheetCourses, courseColumns, doc.Courses); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "writing workbook")
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, columns []string, records []map[string]interface{}) error {
	header := make([]interface{}, 0, len(columns))
	for _, col := range columns {
		header = append(header, col)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.Wrapf(err, "writing %s header", sheet)
	}

	for idx, m := range records {
		row := make([]interface{}, 0, len(columns))
		for _, col := range columns {
			switch v := m[col].(type) {
			case []string:
				row = append(row, strings.Join(v, ", "))
			case nil:
				row = append(row, "")
			default:
				row = append(row, v)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, idx+2)
		if err != nil {
			return errors.Wrap(err, "locating row")
		}
		if err = f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.Wrapf(err, "writing %s row %d", sheet, idx+2)
		}
	}
	return nil
}

// ImportXLSX reads a workbook written by ExportXLSX. Missing sheets are read as empty.
func ImportXLSX(r io.Reader) (*school.Registry, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, core.NewValidationError(errors.Wrap(err, "invalid workbook"))
	}
	defer func() { _ = f.Close() }()

	var doc school.Document
	if doc.Students, err = readSheet(f, SheetStudents, studentColumns); err != nil {
		return nil, err
	}
	if doc.Instructors, err = readSheet(f, SheetInstructors, instructorColumns); err != nil {
		return nil, err
	}
	if doc.Courses, err = readSheet(f, SheetCourses, courseColumns); err != nil {
		return nil, err
	}
	return school.RegistryFromDocument(doc)
}

func readSheet(f *excelize.File, sheet string, columns []string) ([]map[string]interface{}, error) {
	records := make([]map[string]interface{}, 0)
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return records, nil
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "reading sheet %s", sheet)
	}

	for i, row := range rows {
		if i == 0 {
			continue // skip header row
		}
		if isBlank(row) {
			continue
		}
		m := make(map[string]interface{}, len(columns))
		for c, col := range columns {
			var val string
			if c < len(row) {
				val = strings.TrimSpace(row[c])
			}
			switch {
			case listColumns[col]:
				m[col] = splitIDs(val)
			case col == "instructor_id" && val == "":
				m[col] = nil
			default:
				m[col] = val
			}
		}
		records = append(records, m)
	}
	return records, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func splitIDs(s string) []string {
	ids := make([]string, 0)
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
