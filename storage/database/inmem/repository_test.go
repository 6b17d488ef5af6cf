package inmemdb

import (
	"testing"

	"github.com/trezcool/kumbukumbu/core/school"
	testutil "github.com/trezcool/kumbukumbu/tests"
)

func TestSchoolRepository(t *testing.T) {
	testutil.RepositoryContract(t, func(*testing.T) school.Repository {
		return NewSchoolRepository(Open())
	})
}

func TestSchoolRepository_CopiesRecords(t *testing.T) {
	db := Open()
	svc := school.NewService(NewSchoolRepository(db))
	s := testutil.CreateStudent(t, svc, "Alan Turing", 34, "alan@example.com", "S1")

	if err := s.SetEmail("turing@example.com"); err != nil {
		t.Fatalf("SetEmail() failed: %v", err)
	}
	got, err := db.reg.Student("S1")
	if err != nil {
		t.Fatalf("Student() failed: %v", err)
	}
	if got.Email() != "alan@example.com" {
		t.Errorf("stored email = %q, want %q", got.Email(), "alan@example.com")
	}
}
