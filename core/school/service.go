package school

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/kumbukumbu/core"
)

type (
	// Repository is the persistence gateway. Records are keyed by their business id.
	// Inserts fail with a *core.UniquenessError on a duplicate id or email;
	// gets, updates and deletes of an unknown id fail with a *core.NotFoundError.
	Repository interface {
		// CreateSchema is idempotent.
		CreateSchema(ctx context.Context) error

		InsertStudent(ctx context.Context, s *Student) error
		GetStudent(ctx context.Context, id string) (*Student, error)
		QueryStudents(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]*Student, error)
		UpdateStudent(ctx context.Context, s *Student) error
		DeleteStudent(ctx context.Context, id string) error

		InsertInstructor(ctx context.Context, i *Instructor) error
		GetInstructor(ctx context.Context, id string) (*Instructor, error)
		QueryInstructors(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]*Instructor, error)
		UpdateInstructor(ctx context.Context, i *Instructor) error
		DeleteInstructor(ctx context.Context, id string) error

		InsertCourse(ctx context.Context, c *Course) error
		GetCourse(ctx context.Context, id string) (*Course, error)
		QueryCourses(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]*Course, error)
		UpdateCourse(ctx context.Context, c *Course) error
		DeleteCourse(ctx context.Context, id string) error

		// Enroll reports whether the pair was added; an existing pair is left as is.
		Enroll(ctx context.Context, courseID, studentID string) (bool, error)
		QueryEnrollments(ctx context.Context) ([]Enrollment, error)
		EnrolledStudentIDs(ctx context.Context, courseID string) ([]string, error)
		RegisteredCourseIDs(ctx context.Context, studentID string) ([]string, error)
		AssignedCourseIDs(ctx context.Context, instructorID string) ([]string, error)
	}

	// Transactional is implemented by repositories able to run fn against a single transaction,
	// committed when fn returns nil and rolled back otherwise.
	Transactional interface {
		WithinTx(ctx context.Context, fn func(repo Repository) error) error
	}

	Service struct {
		repo Repository
	}

	// LoadStats counts the records written by Service.Load.
	LoadStats struct {
		Created     int
		Updated     int
		Enrollments int
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CreateSchema(ctx context.Context) error {
	return svc.repo.CreateSchema(ctx)
}

// Students

// CreateStudent validates in before any persistence call.
func (svc *Service) CreateStudent(ctx context.Context, in NewStudentInput) (*Student, error) {
	s, err := in.Validate()
	if err != nil {
		return nil, err
	}
	if err = svc.repo.InsertStudent(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (svc *Service) GetStudent(ctx context.Context, id string) (*Student, error) {
	return svc.repo.GetStudent(ctx, core.CleanString(id))
}

func (svc *Service) QueryStudents(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]*Student, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryStudents(ctx, filter, ordering)
}

// UpdateStudent applies up; when validation fails nothing is persisted.
func (svc *Service) UpdateStudent(ctx context.Context, id string, up UpdatePerson) (*Student, error) {
	orig, err := svc.GetStudent(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := up.apply(orig.Person)
	if err != nil {
		return nil, err
	}
	s := &Student{Person: p, id: orig.id}
	if err = svc.repo.UpdateStudent(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (svc *Service) DeleteStudent(ctx context.Context, id string) error {
	return svc.repo.DeleteStudent(ctx, core.CleanString(id))
}

// Instructors

func (svc *Service) CreateInstructor(ctx context.Context, in NewInstructorInput) (*Instructor, error) {
	i, err := in.Validate()
	if err != nil {
		return nil, err
	}
	if err = svc.repo.InsertInstructor(ctx, i); err != nil {
		return nil, err
	}
	return i, nil
}

func (svc *Service) GetInstructor(ctx context.Context, id string) (*Instructor, error) {
	return svc.repo.GetInstructor(ctx, core.CleanString(id))
}

func (svc *Service) QueryInstructors(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]*Instructor, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryInstructors(ctx, filter, ordering)
}

func (svc *Service) UpdateInstructor(ctx context.Context, id string, up UpdatePerson) (*Instructor, error) {
	orig, err := svc.GetInstructor(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := up.apply(orig.Person)
	if err != nil {
		return nil, err
	}
	i := &Instructor{Person: p, id: orig.id}
	if err = svc.repo.UpdateInstructor(ctx, i); err != nil {
		return nil, err
	}
	return i, nil
}

func (svc *Service) DeleteInstructor(ctx context.Context, id string) error {
	return svc.repo.DeleteInstructor(ctx, core.CleanString(id))
}

// Courses

func (svc *Service) CreateCourse(ctx context.Context, in NewCourseInput) (*Course, error) {
	in.Clean()
	var instructor *Instructor
	if in.InstructorID != "" {
		var err error
		if instructor, err = svc.repo.GetInstructor(ctx, in.InstructorID); err != nil {
			return nil, err
		}
	}
	c, err := NewCourse(in.CourseID, in.CourseName, instructor)
	if err != nil {
		return nil, err
	}
	if err = svc.repo.InsertCourse(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (svc *Service) GetCourse(ctx context.Context, id string) (*Course, error) {
	return svc.repo.GetCourse(ctx, core.CleanString(id))
}

func (svc *Service) QueryCourses(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]*Course, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryCourses(ctx, filter, ordering)
}

func (svc *Service) UpdateCourse(ctx context.Context, id string, uc UpdateCourse) (*Course, error) {
	orig, err := svc.GetCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	name, instructorID := orig.name, orig.instructorID
	if uc.CourseName != nil {
		name = core.CleanString(*uc.CourseName)
	}
	if uc.InstructorID != nil {
		instructorID = core.CleanString(*uc.InstructorID)
	}
	var instructor *Instructor
	if instructorID != "" {
		if instructor, err = svc.repo.GetInstructor(ctx, instructorID); err != nil {
			return nil, err
		}
	}
	c, err := NewCourse(orig.id, name, instructor)
	if err != nil {
		return nil, err
	}
	if err = svc.repo.UpdateCourse(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (svc *Service) DeleteCourse(ctx context.Context, id string) error {
	return svc.repo.DeleteCourse(ctx, core.CleanString(id))
}

// Associations

// Enroll adds the student to the course; enrolling twice reports StatusAlreadyPresent.
func (svc *Service) Enroll(ctx context.Context, courseID, studentID string) (Outcome, error) {
	c, s, err := svc.pair(ctx, courseID, studentID)
	if err != nil {
		return Outcome{}, err
	}
	added, err := svc.repo.Enroll(ctx, c.id, s.id)
	if err != nil {
		return Outcome{}, err
	}
	return enrolledOutcome(added, s), nil
}

// RegisterCourse is Enroll seen from the student.
func (svc *Service) RegisterCourse(ctx context.Context, studentID, courseID string) (Outcome, error) {
	c, s, err := svc.pair(ctx, courseID, studentID)
	if err != nil {
		return Outcome{}, err
	}
	added, err := svc.repo.Enroll(ctx, c.id, s.id)
	if err != nil {
		return Outcome{}, err
	}
	return registeredOutcome(added, c), nil
}

func (svc *Service) pair(ctx context.Context, courseID, studentID string) (*Course, *Student, error) {
	c, err := svc.GetCourse(ctx, courseID)
	if err != nil {
		return nil, nil, err
	}
	s, err := svc.GetStudent(ctx, studentID)
	if err != nil {
		return nil, nil, err
	}
	return c, s, nil
}

// AssignCourse makes the instructor own the course; assigning twice reports StatusAlreadyPresent.
func (svc *Service) AssignCourse(ctx context.Context, instructorID, courseID string) (Outcome, error) {
	i, err := svc.GetInstructor(ctx, instructorID)
	if err != nil {
		return Outcome{}, err
	}
	c, err := svc.GetCourse(ctx, courseID)
	if err != nil {
		return Outcome{}, err
	}
	if c.instructorID == i.id {
		return assignedOutcome(false, c), nil
	}
	c.instructorID = i.id
	if err = svc.repo.UpdateCourse(ctx, c); err != nil {
		return Outcome{}, err
	}
	return assignedOutcome(true, c), nil
}

func (svc *Service) EnrolledStudents(ctx context.Context, courseID string) ([]*Student, error) {
	if _, err := svc.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}
	ids, err := svc.repo.EnrolledStudentIDs(ctx, core.CleanString(courseID))
	if err != nil {
		return nil, err
	}
	students := make([]*Student, 0, len(ids))
	for _, id := range ids {
		s, err := svc.repo.GetStudent(ctx, id)
		if err != nil {
			return nil, errors.Wrap(err, "getting enrolled student")
		}
		students = append(students, s)
	}
	return students, nil
}

func (svc *Service) RegisteredCourses(ctx context.Context, studentID string) ([]*Course, error) {
	if _, err := svc.GetStudent(ctx, studentID); err != nil {
		return nil, err
	}
	ids, err := svc.repo.RegisteredCourseIDs(ctx, core.CleanString(studentID))
	if err != nil {
		return nil, err
	}
	return svc.coursesByID(ctx, ids)
}

func (svc *Service) AssignedCourses(ctx context.Context, instructorID string) ([]*Course, error) {
	if _, err := svc.GetInstructor(ctx, instructorID); err != nil {
		return nil, err
	}
	ids, err := svc.repo.AssignedCourseIDs(ctx, core.CleanString(instructorID))
	if err != nil {
		return nil, err
	}
	return svc.coursesByID(ctx, ids)
}

func (svc *Service) coursesByID(ctx context.Context, ids []string) ([]*Course, error) {
	courses := make([]*Course, 0, len(ids))
	for _, id := range ids {
		c, err := svc.repo.GetCourse(ctx, id)
		if err != nil {
			return nil, errors.Wrap(err, "getting course")
		}
		courses = append(courses, c)
	}
	return courses, nil
}

// Associations reads the association views of the whole store in one pass.
func (svc *Service) Associations(ctx context.Context) (Associations, error) {
	enrollments, err := svc.repo.QueryEnrollments(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	courses, err := svc.repo.QueryCourses(ctx, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}

	idx := associationIndex{
		enrolled:   make(map[string][]string),
		registered: make(map[string][]string),
		assigned:   make(map[string][]string),
	}
	for _, e := range enrollments {
		idx.enrolled[e.CourseID] = append(idx.enrolled[e.CourseID], e.StudentID)
		idx.registered[e.StudentID] = append(idx.registered[e.StudentID], e.CourseID)
	}
	for _, c := range courses {
		if c.HasInstructor() {
			idx.assigned[c.instructorID] = append(idx.assigned[c.instructorID], c.id)
		}
	}
	return idx, nil
}

type associationIndex struct {
	enrolled   map[string][]string // by course
	registered map[string][]string // by student
	assigned   map[string][]string // by instructor
}

func (idx associationIndex) EnrolledStudentIDs(courseID string) []string {
	return append([]string{}, idx.enrolled[courseID]...)
}

func (idx associationIndex) RegisteredCourseIDs(studentID string) []string {
	return append([]string{}, idx.registered[studentID]...)
}

func (idx associationIndex) AssignedCourseIDs(instructorID string) []string {
	return append([]string{}, idx.assigned[instructorID]...)
}

// Bulk

// Snapshot reads the whole store into a Registry.
func (svc *Service) Snapshot(ctx context.Context) (*Registry, error) {
	reg := NewRegistry()

	instructors, err := svc.repo.QueryInstructors(ctx, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying instructors")
	}
	for _, i := range instructors {
		if err = reg.InsertInstructor(i); err != nil {
			return nil, err
		}
	}

	students, err := svc.repo.QueryStudents(ctx, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	for _, s := range students {
		if err = reg.InsertStudent(s); err != nil {
			return nil, err
		}
	}

	courses, err := svc.repo.QueryCourses(ctx, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	for _, c := range courses {
		if err = reg.InsertCourse(c); err != nil {
			return nil, err
		}
	}

	enrollments, err := svc.repo.QueryEnrollments(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	for _, e := range enrollments {
		if _, err = reg.Enroll(e.CourseID, e.StudentID); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Load writes every record of reg to the store: instructors, students, courses then enrollments.
// With upsert, records whose id already exists are updated instead of failing with a *core.UniquenessError.
// On a Transactional repository the load is all or nothing.
func (svc *Service) Load(ctx context.Context, reg *Registry, upsert bool) (LoadStats, error) {
	tx, ok := svc.repo.(Transactional)
	if !ok {
		return load(ctx, svc.repo, reg, upsert)
	}
	var stats LoadStats
	err := tx.WithinTx(ctx, func(repo Repository) error {
		var err error
		stats, err = load(ctx, repo, reg, upsert)
		return err
	})
	if err != nil {
		return LoadStats{}, err
	}
	return stats, nil
}

func load(ctx context.Context, repo Repository, reg *Registry, upsert bool) (LoadStats, error) {
	var stats LoadStats

	for _, i := range reg.Instructors() {
		created, err := save(upsert,
			func() error { return repo.InsertInstructor(ctx, i) },
			func() error { return repo.UpdateInstructor(ctx, i) },
			func() error { _, err := repo.GetInstructor(ctx, i.id); return err },
		)
		if err != nil {
			return stats, errors.Wrapf(err, "loading instructor %s", i.id)
		}
		stats.count(created)
	}
	for _, s := range reg.Students() {
		created, err := save(upsert,
			func() error { return repo.InsertStudent(ctx, s) },
			func() error { return repo.UpdateStudent(ctx, s) },
			func() error { _, err := repo.GetStudent(ctx, s.id); return err },
		)
		if err != nil {
			return stats, errors.Wrapf(err, "loading student %s", s.id)
		}
		stats.count(created)
	}
	for _, c := range reg.Courses() {
		created, err := save(upsert,
			func() error { return repo.InsertCourse(ctx, c) },
			func() error { return repo.UpdateCourse(ctx, c) },
			func() error { _, err := repo.GetCourse(ctx, c.id); return err },
		)
		if err != nil {
			return stats, errors.Wrapf(err, "loading course %s", c.id)
		}
		stats.count(created)
	}
	for _, e := range reg.Enrollments() {
		added, err := repo.Enroll(ctx, e.CourseID, e.StudentID)
		if err != nil {
			return stats, errors.Wrapf(err, "loading enrollment %s/%s", e.CourseID, e.StudentID)
		}
		if added {
			stats.Enrollments++
		}
	}
	return stats, nil
}

func save(upsert bool, insert, update, exists func() error) (bool, error) {
	if upsert {
		err := exists()
		switch {
		case err == nil:
			return false, update()
		case !core.IsNotFound(err):
			return false, err
		}
	}
	return true, insert()
}

func (stats *LoadStats) count(created bool) {
	if created {
		stats.Created++
	} else {
		stats.Updated++
	}
}
