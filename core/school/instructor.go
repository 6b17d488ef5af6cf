package school

import (
	"fmt"

	"github.com/trezcool/kumbukumbu/core"
)

type Instructor struct {
	Person
	id string
}

type instructorFields struct {
	Name            string   `json:"name" mapstructure:"name" validate:"notblank,personname"`
	Age             int      `json:"age" mapstructure:"age" validate:"nonneg"`
	Email           string   `json:"email" mapstructure:"email" validate:"emailaddr"`
	InstructorID    string   `json:"instructor_id" mapstructure:"instructor_id" validate:"notblank"`
	AssignedCourses []string `json:"-" mapstructure:"assigned_courses"`
}

func NewInstructor(name string, age int, email, instructorID string) (*Instructor, error) {
	inf := instructorFields{Name: name, Age: age, Email: email, InstructorID: instructorID}
	if err := core.ValidateStruct(inf); err != nil {
		return nil, err
	}
	return &Instructor{Person: Person{name: name, age: age, email: email}, id: instructorID}, nil
}

func (i *Instructor) InstructorID() string { return i.id }

func (i *Instructor) Introduce() string {
	return fmt.Sprintf("%s My instructor ID is %s.", i.Person.Introduce(), i.id)
}

func (i *Instructor) ToMap(assoc Associations) map[string]interface{} {
	m := i.Person.ToMap()
	m["instructor_id"] = i.id
	m["assigned_courses"] = assignedCourseIDs(assoc, i.id)
	return m
}

// InstructorFromMap builds an Instructor from m and resolves its assigned_courses through courses.
func InstructorFromMap(m map[string]interface{}, courses map[string]*Course) (*Instructor, []*Course, error) {
	var inf instructorFields
	if err := decodeMap(m, &inf, append(personKeys, "instructor_id")...); err != nil {
		return nil, nil, err
	}
	i, err := NewInstructor(inf.Name, inf.Age, inf.Email, inf.InstructorID)
	if err != nil {
		return nil, nil, err
	}
	assigned, err := resolveCourses(courses, inf.AssignedCourses, "instructor "+i.id)
	if err != nil {
		return nil, nil, err
	}
	return i, assigned, nil
}

func (i *Instructor) Clone() *Instructor {
	cp := *i
	return &cp
}
