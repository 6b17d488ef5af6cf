package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/kumbukumbu/core"
	"github.com/trezcool/kumbukumbu/core/school"
	"github.com/trezcool/kumbukumbu/storage/database"
)

// personTable describes the table holding one kind of person.
type personTable struct {
	kind  string
	table string
	idCol string
}

var (
	studentTable    = personTable{kind: school.KindStudent, table: "students", idCol: "student_id"}
	instructorTable = personTable{kind: school.KindInstructor, table: "instructors", idCol: "instructor_id"}
)

func (t personTable) columns() map[string]string {
	return map[string]string{"id": t.idCol, "name": "name", "age": "age", "email": "email"}
}

var courseColumns = map[string]string{"id": "course_id", "name": "course_name"}

type (
	personRow struct {
		ID    string `db:"id"`
		Name  string `db:"name"`
		Age   int    `db:"age"`
		Email string `db:"email"`
	}

	courseRow struct {
		ID           string      `db:"course_id"`
		Name         string      `db:"course_name"`
		InstructorID null.String `db:"instructor_id"`
	}
)

func (row personRow) student() (*school.Student, error) {
	return school.NewStudent(row.Name, row.Age, row.Email, row.ID)
}

func (row personRow) instructor() (*school.Instructor, error) {
	return school.NewInstructor(row.Name, row.Age, row.Email, row.ID)
}

func (row courseRow) course() (*school.Course, error) {
	return school.NewCourseRef(row.ID, row.Name, row.InstructorID.String)
}

type schoolRepository struct {
	db   *sqlx.DB
	exec core.DBExecutor
}

var (
	_ school.Repository    = (*schoolRepository)(nil) // interface compliance check
	_ school.Transactional = (*schoolRepository)(nil)
	_ core.DBTransactor    = (*sqlx.Tx)(nil)
)

func NewSchoolRepository(db *sqlx.DB) school.Repository {
	return &schoolRepository{db: db, exec: db}
}

// WithinTx runs fn with a repository bound to a new transaction.
func (repo *schoolRepository) WithinTx(ctx context.Context, fn func(repo school.Repository) error) error {
	if _, ok := repo.exec.(core.DBTransactor); ok {
		return fn(repo) // already in one
	}
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting transaction")
	}
	if err = fn(&schoolRepository{db: repo.db, exec: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrapf(err, "rolling back: %v", rbErr)
		}
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

// trapNoRowsErr maps the "no rows" err to a *core.NotFoundError
func trapNoRowsErr(err error, kind, id string) error {
	if err == sql.ErrNoRows {
		return core.NewNotFoundError(kind, id)
	}
	return errors.Wrapf(err, "getting %s", kind)
}

func isUniqueViolation(err error) bool {
	switch e := errors.Cause(err).(type) {
	case sqlite3.Error:
		return e.ExtendedCode == sqlite3.ErrConstraintUnique || e.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	case *pq.Error:
		return e.Code == "23505" // unique_violation
	case *mysql.MySQLError:
		return e.Number == 1062 // ER_DUP_ENTRY
	}
	return false
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// searchClause matches filter.Search as a case-insensitive substring of any of cols.
func searchClause(filter *school.QueryFilter, cols ...string) (string, []interface{}) {
	if filter == nil || filter.Search == "" {
		return "", nil
	}
	pattern := "%" + likeEscaper.Replace(strings.ToLower(filter.Search)) + "%"
	conds := make([]string, 0, len(cols))
	args := make([]interface{}, 0, len(cols))
	for _, col := range cols {
		conds = append(conds, fmt.Sprintf("LOWER(%s) LIKE ? ESCAPE '!'", col))
		args = append(args, pattern)
	}
	return " WHERE " + strings.Join(conds, " OR "), args
}

// orderClause falls back to insertion order for ties and when no ordering is given.
func orderClause(ordering []core.DBOrdering, columns map[string]string) string {
	orderList := make([]string, 0, len(ordering)+2)
	for _, ord := range ordering {
		if col, ok := columns[ord.Field]; ok {
			orderList = append(orderList, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
		}
	}
	orderList = append(orderList, "created_at ASC", columns["id"]+" ASC")
	return " ORDER BY " + strings.Join(orderList, ", ")
}

func (repo *schoolRepository) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var n int
	if err := repo.exec.GetContext(ctx, &n, repo.exec.Rebind(query), args...); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (repo *schoolRepository) CreateSchema(context.Context) error {
	return database.Migrate(repo.db)
}

// People

func (repo *schoolRepository) checkEmailUniqueness(ctx context.Context, t personTable, id, email string) error {
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE LOWER(email) = LOWER(?) AND %s <> ?", t.table, t.idCol)
	taken, err := repo.exists(ctx, q, email, id)
	if err != nil {
		return errors.Wrapf(err, "checking %s email uniqueness", t.kind)
	}
	if taken {
		return core.NewUniquenessError(t.kind, "email", email)
	}
	return nil
}

func (repo *schoolRepository) personExists(ctx context.Context, t personTable, id string) (bool, error) {
	found, err := repo.exists(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ?", t.table, t.idCol), id)
	if err != nil {
		return false, errors.Wrapf(err, "checking %s", t.kind)
	}
	return found, nil
}

func (repo *schoolRepository) insertPerson(ctx context.Context, t personTable, id string, p school.Person) error {
	found, err := repo.personExists(ctx, t, id)
	if err != nil {
		return err
	}
	if found {
		return core.NewUniquenessError(t.kind, t.idCol, id)
	}
	if err = repo.checkEmailUniqueness(ctx, t, id, p.Email()); err != nil {
		return err
	}

	q := fmt.Sprintf(
		"INSERT INTO %s (pk, %s, name, age, email, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		t.table, t.idCol)
	now := time.Now().UTC()
	if _, err = repo.exec.ExecContext(ctx, repo.exec.Rebind(q), uuid.New().String(), id, p.Name(), p.Age(), p.Email(), now, now); err != nil {
		if isUniqueViolation(err) {
			return core.NewUniquenessError(t.kind, t.idCol, id)
		}
		return errors.Wrapf(err, "inserting %s", t.kind)
	}
	return nil
}

func (repo *schoolRepository) getPerson(ctx context.Context, t personTable, id string) (personRow, error) {
	var row personRow
	q := fmt.Sprintf("SELECT %s AS id, name, age, email FROM %s WHERE %s = ?", t.idCol, t.table, t.idCol)
	if err := repo.exec.GetContext(ctx, &row, repo.exec.Rebind(q), id); err != nil {
		return personRow{}, trapNoRowsErr(err, t.kind, id)
	}
	return row, nil
}

func (repo *schoolRepository) queryPeople(ctx context.Context, t personTable, filter *school.QueryFilter, ordering []core.DBOrdering) ([]personRow, error) {
	where, args := searchClause(filter, "name", t.idCol)
	q := fmt.Sprintf("SELECT %s AS id, name, age, email FROM %s", t.idCol, t.table) + where + orderClause(ordering, t.columns())

	rows := make([]personRow, 0)
	if err := repo.exec.SelectContext(ctx, &rows, repo.exec.Rebind(q), args...); err != nil {
		return nil, errors.Wrapf(err, "querying %ss", t.kind)
	}
	return rows, nil
}

func (repo *schoolRepository) updatePerson(ctx context.Context, t personTable, id string, p school.Person) error {
	found, err := repo.personExists(ctx, t, id)
	if err != nil {
		return err
	}
	if !found {
		return core.NewNotFoundError(t.kind, id)
	}
	if err = repo.checkEmailUniqueness(ctx, t, id, p.Email()); err != nil {
		return err
	}

	q := fmt.Sprintf("UPDATE %s SET name = ?, age = ?, email = ?, updated_at = ? WHERE %s = ?", t.table, t.idCol)
	if _, err = repo.exec.ExecContext(ctx, repo.exec.Rebind(q), p.Name(), p.Age(), p.Email(), time.Now().UTC(), id); err != nil {
		if isUniqueViolation(err) {
			return core.NewUniquenessError(t.kind, "email", p.Email())
		}
		return errors.Wrapf(err, "updating %s", t.kind)
	}
	return nil
}

func (repo *schoolRepository) deletePerson(ctx context.Context, t personTable, id string) error {
	q := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", t.table, t.idCol)
	res, err := repo.exec.ExecContext(ctx, repo.exec.Rebind(q), id)
	if err != nil {
		return errors.Wrapf(err, "deleting %s", t.kind)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.NewNotFoundError(t.kind, id)
	}
	return nil
}

// Students

func (repo *schoolRepository) InsertStudent(ctx context.Context, s *school.Student) error {
	return repo.insertPerson(ctx, studentTable, s.StudentID(), s.Person)
}

func (repo *schoolRepository) GetStudent(ctx context.Context, id string) (*school.Student, error) {
	row, err := repo.getPerson(ctx, studentTable, id)
	if err != nil {
		return nil, err
	}
	return row.student()
}

func (repo *schoolRepository) QueryStudents(ctx context.Context, filter *school.QueryFilter, ordering []core.DBOrdering) ([]*school.Student, error) {
	rows, err := repo.queryPeople(ctx, studentTable, filter, ordering)
	if err != nil {
		return nil, err
	}
	students := make([]*school.Student, 0, len(rows))
	for _, row := range rows {
		s, err := row.student()
		if err != nil {
			return nil, errors.Wrapf(err, "reading student %s", row.ID)
		}
		students = append(students, s)
	}
	return students, nil
}

func (repo *schoolRepository) UpdateStudent(ctx context.Context, s *school.Student) error {
	return repo.updatePerson(ctx, studentTable, s.StudentID(), s.Person)
}

// DeleteStudent also drops the student's enrollments (ON DELETE CASCADE).
func (repo *schoolRepository) DeleteStudent(ctx context.Context, id string) error {
	return repo.deletePerson(ctx, studentTable, id)
}

// Instructors

func (repo *schoolRepository) InsertInstructor(ctx context.Context, i *school.Instructor) error {
	return repo.insertPerson(ctx, instructorTable, i.InstructorID(), i.Person)
}

func (repo *schoolRepository) GetInstructor(ctx context.Context, id string) (*school.Instructor, error) {
	row, err := repo.getPerson(ctx, instructorTable, id)
	if err != nil {
		return nil, err
	}
	return row.instructor()
}

func (repo *schoolRepository) QueryInstructors(ctx context.Context, filter *school.QueryFilter, ordering []core.DBOrdering) ([]*school.Instructor, error) {
	rows, err := repo.queryPeople(ctx, instructorTable, filter, ordering)
	if err != nil {
		return nil, err
	}
	instructors := make([]*school.Instructor, 0, len(rows))
	for _, row := range rows {
		i, err := row.instructor()
		if err != nil {
			return nil, errors.Wrapf(err, "reading instructor %s", row.ID)
		}
		instructors = append(instructors, i)
	}
	return instructors, nil
}

func (repo *schoolRepository) UpdateInstructor(ctx context.Context, i *school.Instructor) error {
	return repo.updatePerson(ctx, instructorTable, i.InstructorID(), i.Person)
}

// DeleteInstructor leaves the instructor's courses without instructor (ON DELETE SET NULL).
func (repo *schoolRepository) DeleteInstructor(ctx context.Context, id string) error {
	return repo.deletePerson(ctx, instructorTable, id)
}

// Courses

func (repo *schoolRepository) courseExists(ctx context.Context, id string) (bool, error) {
	found, err := repo.exists(ctx, "SELECT COUNT(*) FROM courses WHERE course_id = ?", id)
	if err != nil {
		return false, errors.Wrap(err, "checking course")
	}
	return found, nil
}

func (repo *schoolRepository) checkCourseInstructor(ctx context.Context, c *school.Course) error {
	if !c.HasInstructor() {
		return nil
	}
	found, err := repo.personExists(ctx, instructorTable, c.InstructorID())
	if err != nil {
		return err
	}
	if !found {
		return core.NewNotFoundError(school.KindInstructor, c.InstructorID())
	}
	return nil
}

func (repo *schoolRepository) InsertCourse(ctx context.Context, c *school.Course) error {
	found, err := repo.courseExists(ctx, c.CourseID())
	if err != nil {
		return err
	}
	if found {
		return core.NewUniquenessError(school.KindCourse, "course_id", c.CourseID())
	}
	if err = repo.checkCourseInstructor(ctx, c); err != nil {
		return err
	}

	q := "INSERT INTO courses (pk, course_id, course_name, instructor_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)"
	now := time.Now().UTC()
	instructorID := null.NewString(c.InstructorID(), c.HasInstructor())
	if _, err = repo.exec.ExecContext(ctx, repo.exec.Rebind(q), uuid.New().String(), c.CourseID(), c.CourseName(), instructorID, now, now); err != nil {
		if isUniqueViolation(err) {
			return core.NewUniquenessError(school.KindCourse, "course_id", c.CourseID())
		}
		return errors.Wrap(err, "inserting course")
	}
	return nil
}

func (repo *schoolRepository) GetCourse(ctx context.Context, id string) (*school.Course, error) {
	var row courseRow
	q := "SELECT course_id, course_name, instructor_id FROM courses WHERE course_id = ?"
	if err := repo.exec.GetContext(ctx, &row, repo.exec.Rebind(q), id); err != nil {
		return nil, trapNoRowsErr(err, school.KindCourse, id)
	}
	return row.course()
}

func (repo *schoolRepository) QueryCourses(ctx context.Context, filter *school.QueryFilter, ordering []core.DBOrdering) ([]*school.Course, error) {
	where, args := searchClause(filter, "course_name", "course_id")
	q := "SELECT course_id, course_name, instructor_id FROM courses" + where + orderClause(ordering, courseColumns)

	rows := make([]courseRow, 0)
	if err := repo.exec.SelectContext(ctx, &rows, repo.exec.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]*school.Course, 0, len(rows))
	for _, row := range rows {
		c, err := row.course()
		if err != nil {
			return nil, errors.Wrapf(err, "reading course %s", row.ID)
		}
		courses = append(courses, c)
	}
	return courses, nil
}

func (repo *schoolRepository) UpdateCourse(ctx context.Context, c *school.Course) error {
	found, err := repo.courseExists(ctx, c.CourseID())
	if err != nil {
		return err
	}
	if !found {
		return core.NewNotFoundError(school.KindCourse, c.CourseID())
	}
	if err = repo.checkCourseInstructor(ctx, c); err != nil {
		return err
	}

	q := "UPDATE courses SET course_name = ?, instructor_id = ?, updated_at = ? WHERE course_id = ?"
	instructorID := null.NewString(c.InstructorID(), c.HasInstructor())
	if _, err = repo.exec.ExecContext(ctx, repo.exec.Rebind(q), c.CourseName(), instructorID, time.Now().UTC(), c.CourseID()); err != nil {
		return errors.Wrap(err, "updating course")
	}
	return nil
}

func (repo *schoolRepository) DeleteCourse(ctx context.Context, id string) error {
	res, err := repo.exec.ExecContext(ctx, repo.exec.Rebind("DELETE FROM courses WHERE course_id = ?"), id)
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.NewNotFoundError(school.KindCourse, id)
	}
	return nil
}

// Enrollments

func (repo *schoolRepository) Enroll(ctx context.Context, courseID, studentID string) (bool, error) {
	found, err := repo.courseExists(ctx, courseID)
	if err != nil {
		return false, err
	}
	if !found {
		return false, core.NewNotFoundError(school.KindCourse, courseID)
	}
	if found, err = repo.personExists(ctx, studentTable, studentID); err != nil {
		return false, err
	}
	if !found {
		return false, core.NewNotFoundError(school.KindStudent, studentID)
	}

	enrolled, err := repo.exists(ctx, "SELECT COUNT(*) FROM enrollments WHERE course_id = ? AND student_id = ?", courseID, studentID)
	if err != nil {
		return false, errors.Wrap(err, "checking enrollment")
	}
	if enrolled {
		return false, nil
	}

	q := "INSERT INTO enrollments (course_id, student_id, enrolled_at) VALUES (?, ?, ?)"
	if _, err = repo.exec.ExecContext(ctx, repo.exec.Rebind(q), courseID, studentID, time.Now().UTC()); err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "inserting enrollment")
	}
	return true, nil
}

func (repo *schoolRepository) QueryEnrollments(ctx context.Context) ([]school.Enrollment, error) {
	enrollments := make([]school.Enrollment, 0)
	q := "SELECT course_id, student_id FROM enrollments ORDER BY enrolled_at, course_id, student_id"
	if err := repo.exec.SelectContext(ctx, &enrollments, q); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	return enrollments, nil
}

func (repo *schoolRepository) selectIDs(ctx context.Context, query string, arg string) ([]string, error) {
	ids := make([]string, 0)
	if err := repo.exec.SelectContext(ctx, &ids, repo.exec.Rebind(query), arg); err != nil {
		return nil, err
	}
	return ids, nil
}

func (repo *schoolRepository) EnrolledStudentIDs(ctx context.Context, courseID string) ([]string, error) {
	ids, err := repo.selectIDs(ctx, "SELECT student_id FROM enrollments WHERE course_id = ? ORDER BY enrolled_at, student_id", courseID)
	return ids, errors.Wrap(err, "querying enrolled students")
}

func (repo *schoolRepository) RegisteredCourseIDs(ctx context.Context, studentID string) ([]string, error) {
	ids, err := repo.selectIDs(ctx, "SELECT course_id FROM enrollments WHERE student_id = ? ORDER BY enrolled_at, course_id", studentID)
	return ids, errors.Wrap(err, "querying registered courses")
}

func (repo *schoolRepository) AssignedCourseIDs(ctx context.Context, instructorID string) ([]string, error) {
	ids, err := repo.selectIDs(ctx, "SELECT course_id FROM courses WHERE instructor_id = ? ORDER BY created_at, course_id", instructorID)
	return ids, errors.Wrap(err, "querying assigned courses")
}
