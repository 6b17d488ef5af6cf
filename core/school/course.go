package school

import (
	"github.com/trezcool/kumbukumbu/core"
)

// Course references its instructor by id; the Registry resolves it to the current Instructor.
type Course struct {
	id           string
	name         string
	instructorID string
}

type courseFields struct {
	CourseID         string   `json:"course_id" mapstructure:"course_id" validate:"notblank"`
	CourseName       string   `json:"course_name" mapstructure:"course_name" validate:"notblank"`
	InstructorID     string   `json:"-" mapstructure:"instructor_id"`
	EnrolledStudents []string `json:"-" mapstructure:"enrolled_students"`
}

// NewCourse accepts a nil instructor.
func NewCourse(courseID, courseName string, instructor *Instructor) (*Course, error) {
	if err := core.ValidateStruct(courseFields{CourseID: courseID, CourseName: courseName}); err != nil {
		return nil, err
	}
	c := &Course{id: courseID, name: courseName}
	if instructor != nil {
		c.instructorID = instructor.id
	}
	return c, nil
}

// NewCourseRef is NewCourse with the instructor given by id, for gateways rebuilding stored courses.
func NewCourseRef(courseID, courseName, instructorID string) (*Course, error) {
	if err := core.ValidateStruct(courseFields{CourseID: courseID, CourseName: courseName}); err != nil {
		return nil, err
	}
	return &Course{id: courseID, name: courseName, instructorID: instructorID}, nil
}

func (c *Course) CourseID() string   { return c.id }
func (c *Course) CourseName() string { return c.name }

// InstructorID is empty when the course has no instructor.
func (c *Course) InstructorID() string { return c.instructorID }

func (c *Course) HasInstructor() bool { return c.instructorID != "" }

func (c *Course) ToMap(assoc Associations) map[string]interface{} {
	var instructorID interface{}
	if c.instructorID != "" {
		instructorID = c.instructorID
	}
	return map[string]interface{}{
		"course_id":         c.id,
		"course_name":       c.name,
		"instructor_id":     instructorID,
		"enrolled_students": enrolledStudentIDs(assoc, c.id),
	}
}

// CourseFromMap builds a Course from m, resolving its instructor and enrolled students through the lookups.
// A null or missing instructor_id yields a course without instructor;
// an id absent from a lookup is a *core.ResolutionError.
func CourseFromMap(
	m map[string]interface{},
	instructors map[string]*Instructor,
	students map[string]*Student,
) (*Course, []*Student, error) {
	var cf courseFields
	if err := decodeMap(m, &cf, "course_id", "course_name"); err != nil {
		return nil, nil, err
	}
	var instructor *Instructor
	if cf.InstructorID != "" {
		var ok bool
		if instructor, ok = instructors[cf.InstructorID]; !ok {
			return nil, nil, core.NewResolutionError(KindInstructor, cf.InstructorID, "course "+cf.CourseID)
		}
	}
	c, err := NewCourse(cf.CourseID, cf.CourseName, instructor)
	if err != nil {
		return nil, nil, err
	}

	enrolled := make([]*Student, 0, len(cf.EnrolledStudents))
	seen := make(map[string]bool, len(cf.EnrolledStudents))
	for _, id := range cf.EnrolledStudents {
		s, ok := students[id]
		if !ok {
			return nil, nil, core.NewResolutionError(KindStudent, id, "course "+c.id)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		enrolled = append(enrolled, s)
	}
	return c, enrolled, nil
}

func (c *Course) Clone() *Course {
	cp := *c
	return &cp
}
