package testutil

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/trezcool/kumbukumbu/core/school"
	"github.com/trezcool/kumbukumbu/storage/database"
)

// PrepareDB opens a migrated in-memory sqlite database, closed when the test ends.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	// every connection to :memory: gets its own database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

func CreateStudent(t *testing.T, svc *school.Service, name string, age int, email, id string) *school.Student {
	t.Helper()
	s, err := svc.CreateStudent(context.Background(), school.NewStudentInput{Name: name, Age: age, Email: email, StudentID: id})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return s
}

func CreateInstructor(t *testing.T, svc *school.Service, name string, age int, email, id string) *school.Instructor {
	t.Helper()
	i, err := svc.CreateInstructor(context.Background(), school.NewInstructorInput{Name: name, Age: age, Email: email, InstructorID: id})
	if err != nil {
		t.Fatalf("CreateInstructor() failed: %v", err)
	}
	return i
}

func CreateCourse(t *testing.T, svc *school.Service, id, name, instructorID string) *school.Course {
	t.Helper()
	c, err := svc.CreateCourse(context.Background(), school.NewCourseInput{CourseID: id, CourseName: name, InstructorID: instructorID})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return c
}

func Enroll(t *testing.T, svc *school.Service, courseID, studentID string) {
	t.Helper()
	if _, err := svc.Enroll(context.Background(), courseID, studentID); err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}
}

// Seed fills svc with the sample school used across tests:
// instructor I1 (Ada) owns C1, C2 has no instructor, S1 (Alan) takes C1 and C2, S2 (Kate) takes C1.
func Seed(t *testing.T, svc *school.Service) {
	t.Helper()
	CreateInstructor(t, svc, "Ada Lovelace", 36, "ada@example.com", "I1")
	CreateStudent(t, svc, "Alan Turing", 34, "alan@example.com", "S1")
	CreateStudent(t, svc, "Kate Johnson", 20, "kate@example.com", "S2")
	CreateCourse(t, svc, "C1", "Algorithms", "I1")
	CreateCourse(t, svc, "C2", "Programming", "")
	Enroll(t, svc, "C1", "S1")
	Enroll(t, svc, "C2", "S1")
	Enroll(t, svc, "C1", "S2")
}
