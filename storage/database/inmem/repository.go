package inmemdb

import (
	"context"

	"github.com/trezcool/kumbukumbu/core"
	"github.com/trezcool/kumbukumbu/core/school"
)

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) CreateSchema(context.Context) error {
	return nil
}

// Students

func (repo *schoolRepository) InsertStudent(_ context.Context, s *school.Student) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	return repo.db.reg.InsertStudent(s.Clone())
}

func (repo *schoolRepository) GetStudent(_ context.Context, id string) (*school.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	s, err := repo.db.reg.Student(id)
	if err != nil {
		return nil, err
	}
	return s.Clone(), nil
}

func (repo *schoolRepository) QueryStudents(_ context.Context, filter *school.QueryFilter, ordering []core.DBOrdering) ([]*school.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	students := make([]*school.Student, 0)
	for _, s := range repo.db.reg.Students() {
		if filter.Match(s.Name(), s.StudentID()) {
			students = append(students, s.Clone())
		}
	}
	school.SortStudents(students, ordering)
	return students, nil
}

func (repo *schoolRepository) UpdateStudent(_ context.Context, s *school.Student) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	return repo.db.reg.ReplaceStudent(s.Clone())
}

func (repo *schoolRepository) DeleteStudent(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	return repo.db.reg.RemoveStudent(id)
}

// Instructors

func (repo *schoolRepository) InsertInstructor(_ context.Context, i *school.Instructor) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	return repo.db.reg.InsertInstructor(i.Clone())
}

func (repo *schoolRepository) GetInstructor(_ context.Context, id string) (*school.Instructor, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	i, err := repo.db.reg.Instructor(id)
	if err != nil {
		return nil, err
	}
	return i.Clone(), nil
}

func (repo *schoolRepository) QueryInstructors(_ context.Context, filter *school.QueryFilter, ordering []core.DBOrdering) ([]*school.Instructor, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	instructors := make([]*school.Instructor, 0)
	for _, i := range repo.db.reg.Instructors() {
		if filter.Match(i.Name(), i.InstructorID()) {
			instructors = append(instructors, i.Clone())
		}
	}
	school.SortInstructors(instructors, ordering)
	return instructors, nil
}

func (repo *schoolRepository) UpdateInstructor(_ context.Context, i *school.Instructor) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	return repo.db.reg.ReplaceInstructor(i.Clone())
}

func (repo *schoolRepository) DeleteInstructor(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	return repo.db.reg.RemoveInstructor(id)
}

// Courses

func (repo *schoolRepository) InsertCourse(_ context.Context, c *school.Course) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	return repo.db.reg.InsertCourse(c.Clone())
}

func (repo *schoolRepository) GetCourse(_ context.Context, id string) (*school.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	c, err := repo.db.reg.Course(id)
	if err != nil {
		return nil, err
	}
	return c.Clone(), nil
}

func (repo *schoolRepository) QueryCourses(_ context.Context, filter *school.QueryFilter, ordering []core.DBOrdering) ([]*school.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := make([]*school.Course, 0)
	for _, c := range repo.db.reg.Courses() {
		if filter.Match(c.CourseName(), c.CourseID()) {
			courses = append(courses, c.Clone())
		}
	}
	school.SortCourses(courses, ordering)
	return courses, nil
}

func (repo *schoolRepository) UpdateCourse(_ context.Context, c *school.Course) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	return repo.db.reg.ReplaceCourse(c.Clone())
}

func (repo *schoolRepository) DeleteCourse(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	return repo.db.reg.RemoveCourse(id)
}

// Enrollments

func (repo *schoolRepository) Enroll(_ context.Context, courseID, studentID string) (bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	out, err := repo.db.reg.Enroll(courseID, studentID)
	if err != nil {
		return false, err
	}
	return out.Status == school.StatusAdded, nil
}

func (repo *schoolRepository) QueryEnrollments(context.Context) ([]school.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.db.reg.Enrollments(), nil
}

func (repo *schoolRepository) EnrolledStudentIDs(_ context.Context, courseID string) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.db.reg.EnrolledStudentIDs(courseID), nil
}

func (repo *schoolRepository) RegisteredCourseIDs(_ context.Context, studentID string) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.db.reg.RegisteredCourseIDs(studentID), nil
}

func (repo *schoolRepository) AssignedCourseIDs(_ context.Context, instructorID string) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.db.reg.AssignedCourseIDs(instructorID), nil
}
