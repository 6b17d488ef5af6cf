package interchange

import (
	"encoding/gob"
	"io"

	"github.com/pkg/errors"

	"github.com/trezcool/kumbukumbu/core"
	"github.com/trezcool/kumbukumbu/core/school"
)

const snapshotVersion = 1

type (
	person struct {
		ID    string
		Name  string
		Age   int
		Email string
	}

	course struct {
		ID           string
		Name         string
		InstructorID string
	}

	snapshot struct {
		Version     int
		Students    []person
		Instructors []person
		Courses     []course
		Enrollments []school.Enrollment
	}
)

// SaveSnapshot writes reg in a binary form read back by LoadSnapshot.
func SaveSnapshot(w io.Writer, reg *school.Registry) error {
	snap := snapshot{Version: snapshotVersion, Enrollments: reg.Enrollments()}
	for _, s := range reg.Students() {
		snap.Students = append(snap.Students, person{ID: s.StudentID(), Name: s.Name(), Age: s.Age(), Email: s.Email()})
	}
	for _, i := range reg.Instructors() {
		snap.Instructors = append(snap.Instructors, person{ID: i.InstructorID(), Name: i.Name(), Age: i.Age(), Email: i.Email()})
	}
	for _, c := range reg.Courses() {
		snap.Courses = append(snap.Courses, course{ID: c.CourseID(), Name: c.CourseName(), InstructorID: c.InstructorID()})
	}

	if err := gob.NewEncoder(w).Encode(snap); err != nil {
		return errors.Wrap(err, "encoding snapshot")
	}
	return nil
}

// LoadSnapshot validates every record again while rebuilding the Registry.
func LoadSnapshot(r io.Reader) (*school.Registry, error) {
	var snap snapshot
	if err := gob.NewDecoder(r).Decode(&snap); err != nil {
		return nil, core.NewValidationError(errors.Wrap(err, "invalid snapshot"))
	}
	if snap.Version != snapshotVersion {
		return nil, core.NewValidationError(errors.Errorf("unsupported snapshot version %d", snap.Version))
	}

	reg := school.NewRegistry()
	for _, p := range snap.Instructors {
		i, err := school.NewInstructor(p.Name, p.Age, p.Email, p.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "instructor %s", p.ID)
		}
		if err = reg.InsertInstructor(i); err != nil {
			return nil, err
		}
	}
	for _, p := range snap.Students {
		s, err := school.NewStudent(p.Name, p.Age, p.Email, p.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "student %s", p.ID)
		}
		if err = reg.InsertStudent(s); err != nil {
			return nil, err
		}
	}
	for _, c := range snap.Courses {
		crs, err := school.NewCourseRef(c.ID, c.Name, c.InstructorID)
		if err != nil {
			return nil, errors.Wrapf(err, "course %s", c.ID)
		}
		if err = reg.InsertCourse(crs); err != nil {
			return nil, err
		}
	}
	for _, e := range snap.Enrollments {
		if _, err := reg.Enroll(e.CourseID, e.StudentID); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
