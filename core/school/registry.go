package school

import (
	"fmt"
	"strings"

	"github.com/trezcool/kumbukumbu/core"
)

// Status reports the outcome of an association mutator.
type Status int

const (
	StatusAdded Status = iota + 1
	StatusAlreadyPresent
)

func (st Status) String() string {
	switch st {
	case StatusAdded:
		return "added"
	case StatusAlreadyPresent:
		return "already present"
	}
	return "unknown"
}

type Outcome struct {
	Status  Status
	Message string
}

func enrolledOutcome(added bool, s *Student) Outcome {
	if added {
		return Outcome{StatusAdded, fmt.Sprintf("Student %s has been enrolled", s.name)}
	}
	return Outcome{StatusAlreadyPresent, fmt.Sprintf("Student %s is already enrolled", s.name)}
}

func registeredOutcome(added bool, c *Course) Outcome {
	if added {
		return Outcome{StatusAdded, fmt.Sprintf("Course %s has been registered.", c.name)}
	}
	return Outcome{StatusAlreadyPresent, fmt.Sprintf("Course %s is already registered.", c.name)}
}

func assignedOutcome(added bool, c *Course) Outcome {
	if added {
		return Outcome{StatusAdded, fmt.Sprintf("Course %s has been assigned", c.name)}
	}
	return Outcome{StatusAlreadyPresent, fmt.Sprintf("Course %s is already assigned", c.name)}
}

// Associations exposes the derived association views by business id.
type Associations interface {
	RegisteredCourseIDs(studentID string) []string
	AssignedCourseIDs(instructorID string) []string
	EnrolledStudentIDs(courseID string) []string
}

// Enrollment is one (course, student) pair of the enrollment relation.
type Enrollment struct {
	CourseID  string `json:"course_id" db:"course_id"`
	StudentID string `json:"student_id" db:"student_id"`
}

// Registry stores every entity once, indexed by business id, in insertion order.
// The enrollment relation is stored once as Enrollment pairs and course ownership lives on the Course only;
// every other view is derived on demand.
// A Registry is not safe for concurrent use.
type Registry struct {
	students      map[string]*Student
	studentIDs    []string
	instructors   map[string]*Instructor
	instructorIDs []string
	courses       map[string]*Course
	courseIDs     []string
	enrollments   []Enrollment
}

var _ Associations = (*Registry)(nil) // interface compliance check

func NewRegistry() *Registry {
	return &Registry{
		students:    make(map[string]*Student),
		instructors: make(map[string]*Instructor),
		courses:     make(map[string]*Course),
	}
}

// Students

func (reg *Registry) InsertStudent(s *Student) error {
	if _, ok := reg.students[s.id]; ok {
		return core.NewUniquenessError(KindStudent, "student_id", s.id)
	}
	for _, other := range reg.students {
		if strings.EqualFold(other.email, s.email) {
			return core.NewUniquenessError(KindStudent, "email", s.email)
		}
	}
	reg.students[s.id] = s
	reg.studentIDs = append(reg.studentIDs, s.id)
	return nil
}

func (reg *Registry) Student(id string) (*Student, error) {
	if s, ok := reg.students[id]; ok {
		return s, nil
	}
	return nil, core.NewNotFoundError(KindStudent, id)
}

func (reg *Registry) Students() []*Student {
	students := make([]*Student, 0, len(reg.studentIDs))
	for _, id := range reg.studentIDs {
		students = append(students, reg.students[id])
	}
	return students
}

// ReplaceStudent swaps the stored student having s's id for s.
func (reg *Registry) ReplaceStudent(s *Student) error {
	if _, ok := reg.students[s.id]; !ok {
		return core.NewNotFoundError(KindStudent, s.id)
	}
	for id, other := range reg.students {
		if id != s.id && strings.EqualFold(other.email, s.email) {
			return core.NewUniquenessError(KindStudent, "email", s.email)
		}
	}
	reg.students[s.id] = s
	return nil
}

// RemoveStudent also drops the student's enrollments.
func (reg *Registry) RemoveStudent(id string) error {
	if _, ok := reg.students[id]; !ok {
		return core.NewNotFoundError(KindStudent, id)
	}
	delete(reg.students, id)
	reg.studentIDs = removeID(reg.studentIDs, id)
	reg.dropEnrollments(func(e Enrollment) bool { return e.StudentID == id })
	return nil
}

// Instructors

func (reg *Registry) InsertInstructor(i *Instructor) error {
	if _, ok := reg.instructors[i.id]; ok {
		return core.NewUniquenessError(KindInstructor, "instructor_id", i.id)
	}
	for _, other := range reg.instructors {
		if strings.EqualFold(other.email, i.email) {
			return core.NewUniquenessError(KindInstructor, "email", i.email)
		}
	}
	reg.instructors[i.id] = i
	reg.instructorIDs = append(reg.instructorIDs, i.id)
	return nil
}

func (reg *Registry) Instructor(id string) (*Instructor, error) {
	if i, ok := reg.instructors[id]; ok {
		return i, nil
	}
	return nil, core.NewNotFoundError(KindInstructor, id)
}

func (reg *Registry) Instructors() []*Instructor {
	instructors := make([]*Instructor, 0, len(reg.instructorIDs))
	for _, id := range reg.instructorIDs {
		instructors = append(instructors, reg.instructors[id])
	}
	return instructors
}

func (reg *Registry) ReplaceInstructor(i *Instructor) error {
	if _, ok := reg.instructors[i.id]; !ok {
		return core.NewNotFoundError(KindInstructor, i.id)
	}
	for id, other := range reg.instructors {
		if id != i.id && strings.EqualFold(other.email, i.email) {
			return core.NewUniquenessError(KindInstructor, "email", i.email)
		}
	}
	reg.instructors[i.id] = i
	return nil
}

// RemoveInstructor leaves the instructor's courses without instructor.
func (reg *Registry) RemoveInstructor(id string) error {
	if _, ok := reg.instructors[id]; !ok {
		return core.NewNotFoundError(KindInstructor, id)
	}
	delete(reg.instructors, id)
	reg.instructorIDs = removeID(reg.instructorIDs, id)
	for _, c := range reg.courses {
		if c.instructorID == id {
			c.instructorID = ""
		}
	}
	return nil
}

// Courses

// InsertCourse fails with a *core.NotFoundError if the course's instructor is not in the registry.
func (reg *Registry) InsertCourse(c *Course) error {
	if _, ok := reg.courses[c.id]; ok {
		return core.NewUniquenessError(KindCourse, "course_id", c.id)
	}
	if c.instructorID != "" {
		if _, ok := reg.instructors[c.instructorID]; !ok {
			return core.NewNotFoundError(KindInstructor, c.instructorID)
		}
	}
	reg.courses[c.id] = c
	reg.courseIDs = append(reg.courseIDs, c.id)
	return nil
}

func (reg *Registry) Course(id string) (*Course, error) {
	if c, ok := reg.courses[id]; ok {
		return c, nil
	}
	return nil, core.NewNotFoundError(KindCourse, id)
}

func (reg *Registry) Courses() []*Course {
	courses := make([]*Course, 0, len(reg.courseIDs))
	for _, id := range reg.courseIDs {
		courses = append(courses, reg.courses[id])
	}
	return courses
}

func (reg *Registry) ReplaceCourse(c *Course) error {
	if _, ok := reg.courses[c.id]; !ok {
		return core.NewNotFoundError(KindCourse, c.id)
	}
	if c.instructorID != "" {
		if _, ok := reg.instructors[c.instructorID]; !ok {
			return core.NewNotFoundError(KindInstructor, c.instructorID)
		}
	}
	reg.courses[c.id] = c
	return nil
}

// RemoveCourse also drops the course's enrollments.
func (reg *Registry) RemoveCourse(id string) error {
	if _, ok := reg.courses[id]; !ok {
		return core.NewNotFoundError(KindCourse, id)
	}
	delete(reg.courses, id)
	reg.courseIDs = removeID(reg.courseIDs, id)
	reg.dropEnrollments(func(e Enrollment) bool { return e.CourseID == id })
	return nil
}

// Associations

// Enroll adds the student to the course. Enrolling twice is a no-op reported as StatusAlreadyPresent.
func (reg *Registry) Enroll(courseID, studentID string) (Outcome, error) {
	s, _, added, err := reg.enroll(courseID, studentID)
	if err != nil {
		return Outcome{}, err
	}
	return enrolledOutcome(added, s), nil
}

// RegisterCourse is the student side of Enroll: both update the same relation.
func (reg *Registry) RegisterCourse(studentID, courseID string) (Outcome, error) {
	_, c, added, err := reg.enroll(courseID, studentID)
	if err != nil {
		return Outcome{}, err
	}
	return registeredOutcome(added, c), nil
}

func (reg *Registry) enroll(courseID, studentID string) (*Student, *Course, bool, error) {
	c, err := reg.Course(courseID)
	if err != nil {
		return nil, nil, false, err
	}
	s, err := reg.Student(studentID)
	if err != nil {
		return nil, nil, false, err
	}
	if reg.IsEnrolled(courseID, studentID) {
		return s, c, false, nil
	}
	reg.enrollments = append(reg.enrollments, Enrollment{CourseID: courseID, StudentID: studentID})
	return s, c, true, nil
}

// Unenroll removes the pair; it reports whether the pair existed.
func (reg *Registry) Unenroll(courseID, studentID string) bool {
	n := len(reg.enrollments)
	reg.dropEnrollments(func(e Enrollment) bool { return e.CourseID == courseID && e.StudentID == studentID })
	return len(reg.enrollments) != n
}

func (reg *Registry) IsEnrolled(courseID, studentID string) bool {
	for _, e := range reg.enrollments {
		if e.CourseID == courseID && e.StudentID == studentID {
			return true
		}
	}
	return false
}

// AssignCourse makes the instructor own the course, replacing any previous instructor.
func (reg *Registry) AssignCourse(instructorID, courseID string) (Outcome, error) {
	i, err := reg.Instructor(instructorID)
	if err != nil {
		return Outcome{}, err
	}
	c, err := reg.Course(courseID)
	if err != nil {
		return Outcome{}, err
	}
	if c.instructorID == i.id {
		return assignedOutcome(false, c), nil
	}
	c.instructorID = i.id
	return assignedOutcome(true, c), nil
}

func (reg *Registry) Enrollments() []Enrollment {
	return append([]Enrollment(nil), reg.enrollments...)
}

func (reg *Registry) EnrolledStudents(courseID string) []*Student {
	students := make([]*Student, 0)
	for _, id := range reg.EnrolledStudentIDs(courseID) {
		students = append(students, reg.students[id])
	}
	return students
}

func (reg *Registry) RegisteredCourses(studentID string) []*Course {
	courses := make([]*Course, 0)
	for _, id := range reg.RegisteredCourseIDs(studentID) {
		courses = append(courses, reg.courses[id])
	}
	return courses
}

// AssignedCourses lists the instructor's courses in course insertion order.
func (reg *Registry) AssignedCourses(instructorID string) []*Course {
	courses := make([]*Course, 0)
	for _, id := range reg.AssignedCourseIDs(instructorID) {
		courses = append(courses, reg.courses[id])
	}
	return courses
}

// CourseInstructor returns nil when the course is unknown or has no instructor.
func (reg *Registry) CourseInstructor(courseID string) *Instructor {
	if c, ok := reg.courses[courseID]; ok && c.instructorID != "" {
		return reg.instructors[c.instructorID]
	}
	return nil
}

func (reg *Registry) EnrolledStudentIDs(courseID string) []string {
	ids := make([]string, 0)
	for _, e := range reg.enrollments {
		if e.CourseID == courseID {
			ids = append(ids, e.StudentID)
		}
	}
	return ids
}

func (reg *Registry) RegisteredCourseIDs(studentID string) []string {
	ids := make([]string, 0)
	for _, e := range reg.enrollments {
		if e.StudentID == studentID {
			ids = append(ids, e.CourseID)
		}
	}
	return ids
}

func (reg *Registry) AssignedCourseIDs(instructorID string) []string {
	ids := make([]string, 0)
	for _, id := range reg.courseIDs {
		if reg.courses[id].instructorID == instructorID {
			ids = append(ids, id)
		}
	}
	return ids
}

func (reg *Registry) dropEnrollments(drop func(Enrollment) bool) {
	kept := reg.enrollments[:0]
	for _, e := range reg.enrollments {
		if !drop(e) {
			kept = append(kept, e)
		}
	}
	reg.enrollments = kept
}

// Search

// SearchStudents does a case-insensitive substring match of q on the student's name or id.
func (reg *Registry) SearchStudents(q string) []*Student {
	found := make([]*Student, 0)
	for _, s := range reg.Students() {
		if Matches(q, s.name, s.id) {
			found = append(found, s)
		}
	}
	return found
}

func (reg *Registry) SearchInstructors(q string) []*Instructor {
	found := make([]*Instructor, 0)
	for _, i := range reg.Instructors() {
		if Matches(q, i.name, i.id) {
			found = append(found, i)
		}
	}
	return found
}

func (reg *Registry) SearchCourses(q string) []*Course {
	found := make([]*Course, 0)
	for _, c := range reg.Courses() {
		if Matches(q, c.name, c.id) {
			found = append(found, c)
		}
	}
	return found
}

// Matches reports whether q is a case-insensitive substring of one of fields; an empty q matches everything.
func Matches(q string, fields ...string) bool {
	q = strings.ToLower(core.CleanString(q))
	if q == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func removeID(ids []string, id string) []string {
	for idx, v := range ids {
		if v == id {
			return append(ids[:idx], ids[idx+1:]...)
		}
	}
	return ids
}

func registeredCourseIDs(assoc Associations, studentID string) []string {
	if assoc == nil {
		return []string{}
	}
	return assoc.RegisteredCourseIDs(studentID)
}

func assignedCourseIDs(assoc Associations, instructorID string) []string {
	if assoc == nil {
		return []string{}
	}
	return assoc.AssignedCourseIDs(instructorID)
}

func enrolledStudentIDs(assoc Associations, courseID string) []string {
	if assoc == nil {
		return []string{}
	}
	return assoc.EnrolledStudentIDs(courseID)
}
