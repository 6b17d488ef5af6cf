package interchange

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/kumbukumbu/core/school"
)

var csvHeader = []string{"ID", "Name", "Age", "Email", "Additional Info", "Type"}

// Row types
const (
	csvStudent    = "Student"
	csvInstructor = "Instructor"
	csvCourse     = "Course"
)

// ExportCSV writes one row per entity of the given kinds (all kinds when none is given),
// students first, then instructors, then courses.
func ExportCSV(w io.Writer, reg *school.Registry, kinds ...string) error {
	want := func(kind string) bool {
		if len(kinds) == 0 {
			return true
		}
		for _, k := range kinds {
			if k == kind {
				return true
			}
		}
		return false
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return errors.Wrap(err, "writing csv header")
	}
	if want(school.KindStudent) {
		for _, s := range reg.Students() {
			row := []string{s.StudentID(), s.Name(), strconv.Itoa(s.Age()), s.Email(), coursesInfo(reg.RegisteredCourseIDs(s.StudentID())), csvStudent}
			if err := cw.Write(row); err != nil {
				return errors.Wrapf(err, "writing student %s", s.StudentID())
			}
		}
	}
	if want(school.KindInstructor) {
		for _, i := range reg.Instructors() {
			row := []string{i.InstructorID(), i.Name(), strconv.Itoa(i.Age()), i.Email(), coursesInfo(reg.AssignedCourseIDs(i.InstructorID())), csvInstructor}
			if err := cw.Write(row); err != nil {
				return errors.Wrapf(err, "writing instructor %s", i.InstructorID())
			}
		}
	}
	if want(school.KindCourse) {
		for _, c := range reg.Courses() {
			info := "Instructor: None"
			if i := reg.CourseInstructor(c.CourseID()); i != nil {
				info = "Instructor: " + i.Name()
			}
			if err := cw.Write([]string{c.CourseID(), c.CourseName(), "-", "-", info, csvCourse}); err != nil {
				return errors.Wrapf(err, "writing course %s", c.CourseID())
			}
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "writing csv")
}

func coursesInfo(ids []string) string {
	if len(ids) == 0 {
		return "Courses: None"
	}
	return "Courses: " + strings.Join(ids, ", ")
}
