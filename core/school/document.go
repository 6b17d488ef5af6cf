package school

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/kumbukumbu/core"
)

// Document is the flat, identifier-linked form of a whole Registry.
type Document struct {
	Students    []map[string]interface{} `json:"students"`
	Instructors []map[string]interface{} `json:"instructors"`
	Courses     []map[string]interface{} `json:"courses"`
}

func (reg *Registry) ToDocument() Document {
	doc := Document{
		Students:    make([]map[string]interface{}, 0, len(reg.studentIDs)),
		Instructors: make([]map[string]interface{}, 0, len(reg.instructorIDs)),
		Courses:     make([]map[string]interface{}, 0, len(reg.courseIDs)),
	}
	for _, s := range reg.Students() {
		doc.Students = append(doc.Students, s.ToMap(reg))
	}
	for _, i := range reg.Instructors() {
		doc.Instructors = append(doc.Instructors, i.ToMap(reg))
	}
	for _, c := range reg.Courses() {
		doc.Courses = append(doc.Courses, c.ToMap(reg))
	}
	return doc
}

// RegistryFromDocument rebuilds a Registry from doc.
// People are materialized first, then courses (resolving instructor and enrolled students),
// then the people's own course lists are applied on the same relations.
// An instructor listing a course owned by another instructor is a *core.ValidationError.
func RegistryFromDocument(doc Document) (*Registry, error) {
	reg := NewRegistry()

	for idx, m := range doc.Instructors {
		i, _, err := InstructorFromMap(without(m, "assigned_courses"), nil)
		if err != nil {
			return nil, errors.Wrapf(err, "instructors[%d]", idx)
		}
		if err = reg.InsertInstructor(i); err != nil {
			return nil, errors.Wrapf(err, "instructors[%d]", idx)
		}
	}
	for idx, m := range doc.Students {
		s, _, err := StudentFromMap(without(m, "registered_courses"), nil)
		if err != nil {
			return nil, errors.Wrapf(err, "students[%d]", idx)
		}
		if err = reg.InsertStudent(s); err != nil {
			return nil, errors.Wrapf(err, "students[%d]", idx)
		}
	}
	for idx, m := range doc.Courses {
		c, enrolled, err := CourseFromMap(m, reg.instructors, reg.students)
		if err != nil {
			return nil, errors.Wrapf(err, "courses[%d]", idx)
		}
		if err = reg.InsertCourse(c); err != nil {
			return nil, errors.Wrapf(err, "courses[%d]", idx)
		}
		for _, s := range enrolled {
			if _, err = reg.Enroll(c.id, s.id); err != nil {
				return nil, errors.Wrapf(err, "courses[%d]", idx)
			}
		}
	}

	for idx, m := range doc.Students {
		s, registered, err := StudentFromMap(m, reg.courses)
		if err != nil {
			return nil, errors.Wrapf(err, "students[%d]", idx)
		}
		for _, c := range registered {
			if _, err = reg.RegisterCourse(s.id, c.id); err != nil {
				return nil, errors.Wrapf(err, "students[%d]", idx)
			}
		}
	}
	for idx, m := range doc.Instructors {
		i, assigned, err := InstructorFromMap(m, reg.courses)
		if err != nil {
			return nil, errors.Wrapf(err, "instructors[%d]", idx)
		}
		for _, c := range assigned {
			if c.instructorID != "" && c.instructorID != i.id {
				msg := fmt.Sprintf("course %s is owned by instructor %s", c.id, c.instructorID)
				return nil, core.NewValidationError(
					errors.Errorf("instructors[%d]: %s", idx, msg),
					core.FieldError{Field: "assigned_courses", Error: msg},
				)
			}
			if _, err = reg.AssignCourse(i.id, c.id); err != nil {
				return nil, errors.Wrapf(err, "instructors[%d]", idx)
			}
		}
	}
	return reg, nil
}

func without(m map[string]interface{}, key string) map[string]interface{} {
	cp := make(map[string]interface{}, len(m))
	for k, v := range m {
		if k != key {
			cp[k] = v
		}
	}
	return cp
}
