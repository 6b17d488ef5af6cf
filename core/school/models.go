package school

import (
	"github.com/trezcool/kumbukumbu/core"
)

// NewStudentInput contains information needed to create a new Student.
type NewStudentInput struct {
	Name      string `json:"name"`
	Age       int    `json:"age"`
	Email     string `json:"email"`
	StudentID string `json:"student_id"`
}

func (in *NewStudentInput) Validate() (*Student, error) {
	in.Name = core.CleanString(in.Name)
	in.Email = core.CleanString(in.Email, true /* lower */)
	in.StudentID = core.CleanString(in.StudentID)
	return NewStudent(in.Name, in.Age, in.Email, in.StudentID)
}

// NewInstructorInput contains information needed to create a new Instructor.
type NewInstructorInput struct {
	Name         string `json:"name"`
	Age          int    `json:"age"`
	Email        string `json:"email"`
	InstructorID string `json:"instructor_id"`
}

func (in *NewInstructorInput) Validate() (*Instructor, error) {
	in.Name = core.CleanString(in.Name)
	in.Email = core.CleanString(in.Email, true /* lower */)
	in.InstructorID = core.CleanString(in.InstructorID)
	return NewInstructor(in.Name, in.Age, in.Email, in.InstructorID)
}

// NewCourseInput contains information needed to create a new Course; InstructorID is optional.
type NewCourseInput struct {
	CourseID     string `json:"course_id"`
	CourseName   string `json:"course_name"`
	InstructorID string `json:"instructor_id"`
}

func (in *NewCourseInput) Clean() {
	in.CourseID = core.CleanString(in.CourseID)
	in.CourseName = core.CleanString(in.CourseName)
	in.InstructorID = core.CleanString(in.InstructorID)
}

// UpdatePerson defines what information may be provided to modify an existing Student or Instructor.
// Nil fields keep their current value; identifiers cannot be changed.
type UpdatePerson struct {
	Name  *string `json:"name"`
	Age   *int    `json:"age"`
	Email *string `json:"email"`
}

func (up UpdatePerson) IsEmpty() bool {
	return up.Name == nil && up.Age == nil && up.Email == nil
}

// apply returns the validated fields of orig patched with up; orig is left untouched.
func (up UpdatePerson) apply(orig Person) (Person, error) {
	p := orig
	if up.Name != nil {
		p.name = core.CleanString(*up.Name)
	}
	if up.Age != nil {
		p.age = *up.Age
	}
	if err := core.ValidateStruct(personFields{Name: p.name, Age: p.age, Email: p.email}); err != nil {
		return orig, err
	}
	if up.Email != nil {
		if err := p.SetEmail(core.CleanString(*up.Email, true /* lower */)); err != nil {
			return orig, err
		}
	}
	return p, nil
}

// UpdateCourse defines what information may be provided to modify an existing Course.
// A non-nil empty InstructorID removes the instructor.
type UpdateCourse struct {
	CourseName   *string `json:"course_name"`
	InstructorID *string `json:"instructor_id"`
}

func (uc UpdateCourse) IsEmpty() bool {
	return uc.CourseName == nil && uc.InstructorID == nil
}
