package school

import (
	"fmt"

	"github.com/trezcool/kumbukumbu/core"
)

type Student struct {
	Person
	id string
}

type studentFields struct {
	Name              string   `json:"name" mapstructure:"name" validate:"notblank,personname"`
	Age               int      `json:"age" mapstructure:"age" validate:"nonneg"`
	Email             string   `json:"email" mapstructure:"email" validate:"emailaddr"`
	StudentID         string   `json:"student_id" mapstructure:"student_id" validate:"notblank"`
	RegisteredCourses []string `json:"-" mapstructure:"registered_courses"`
}

func NewStudent(name string, age int, email, studentID string) (*Student, error) {
	sf := studentFields{Name: name, Age: age, Email: email, StudentID: studentID}
	if err := core.ValidateStruct(sf); err != nil {
		return nil, err
	}
	return &Student{Person: Person{name: name, age: age, email: email}, id: studentID}, nil
}

func (s *Student) StudentID() string { return s.id }

func (s *Student) Introduce() string {
	return fmt.Sprintf("%s My student ID is %s.", s.Person.Introduce(), s.id)
}

// ToMap adds the student id and the ids of its registered courses, as resolved by assoc, to the Person fields.
func (s *Student) ToMap(assoc Associations) map[string]interface{} {
	m := s.Person.ToMap()
	m["student_id"] = s.id
	m["registered_courses"] = registeredCourseIDs(assoc, s.id)
	return m
}

// StudentFromMap builds a Student from m and resolves its registered_courses through courses.
// The returned courses keep the order of m.
func StudentFromMap(m map[string]interface{}, courses map[string]*Course) (*Student, []*Course, error) {
	var sf studentFields
	if err := decodeMap(m, &sf, append(personKeys, "student_id")...); err != nil {
		return nil, nil, err
	}
	s, err := NewStudent(sf.Name, sf.Age, sf.Email, sf.StudentID)
	if err != nil {
		return nil, nil, err
	}
	regs, err := resolveCourses(courses, sf.RegisteredCourses, "student "+s.id)
	if err != nil {
		return nil, nil, err
	}
	return s, regs, nil
}

func resolveCourses(courses map[string]*Course, ids []string, ref string) ([]*Course, error) {
	resolved := make([]*Course, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		c, ok := courses[id]
		if !ok {
			return nil, core.NewResolutionError(KindCourse, id, ref)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		resolved = append(resolved, c)
	}
	return resolved, nil
}

// Clone returns a copy that does not alias s.
func (s *Student) Clone() *Student {
	cp := *s
	return &cp
}
