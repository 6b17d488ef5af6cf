package school

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kumbukumbu/core"
)

type fixtures struct {
	reg  *Registry
	ada  *Instructor
	alan *Student
	kate *Student
	algo *Course
	prog *Course
}

func newFixtures(t *testing.T) fixtures {
	t.Helper()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("newFixtures() failed: %v", err)
		}
	}

	f := fixtures{reg: NewRegistry()}
	var err error
	f.ada, err = NewInstructor("Ada Lovelace", 36, "ada@example.com", "I1")
	must(err)
	f.alan, err = NewStudent("Alan Turing", 34, "alan@example.com", "S1")
	must(err)
	f.kate, err = NewStudent("Katherine Johnson", 30, "kate@example.com", "S2")
	must(err)
	f.algo, err = NewCourse("C1", "Algorithms", f.ada)
	must(err)
	f.prog, err = NewCourse("C2", "Programming", nil)
	must(err)

	must(f.reg.InsertInstructor(f.ada))
	must(f.reg.InsertStudent(f.alan))
	must(f.reg.InsertStudent(f.kate))
	must(f.reg.InsertCourse(f.algo))
	must(f.reg.InsertCourse(f.prog))
	return f
}

func TestRegistry_Insert(t *testing.T) {
	f := newFixtures(t)

	dupID, _ := NewStudent("Other Alan", 20, "other@example.com", "S1")
	err := f.reg.InsertStudent(dupID)
	if uErr, ok := err.(*core.UniquenessError); !ok || uErr.Field != "student_id" {
		t.Errorf("InsertStudent() error = %v, want student_id UniquenessError", err)
	}

	dupEmail, _ := NewStudent("Other Alan", 20, "ALAN@example.com", "S9")
	err = f.reg.InsertStudent(dupEmail)
	if uErr, ok := err.(*core.UniquenessError); !ok || uErr.Field != "email" {
		t.Errorf("InsertStudent() error = %v, want email UniquenessError", err)
	}

	ghost, _ := NewInstructor("Ghost", 50, "ghost@example.com", "I9")
	orphan, _ := NewCourse("C9", "Haunting", ghost)
	assert.True(t, core.IsNotFound(f.reg.InsertCourse(orphan)))

	assert.Len(t, f.reg.Students(), 2)
}

func TestRegistry_Enroll(t *testing.T) {
	f := newFixtures(t)

	out, err := f.reg.Enroll("C1", "S1")
	require.NoError(t, err)
	assert.Equal(t, Outcome{StatusAdded, "Student Alan Turing has been enrolled"}, out)

	out, err = f.reg.Enroll("C1", "S1")
	require.NoError(t, err)
	assert.Equal(t, Outcome{StatusAlreadyPresent, "Student Alan Turing is already enrolled"}, out)

	// same relation seen from the student
	out, err = f.reg.RegisterCourse("S1", "C1")
	require.NoError(t, err)
	assert.Equal(t, Outcome{StatusAlreadyPresent, "Course Algorithms is already registered."}, out)

	out, err = f.reg.RegisterCourse("S1", "C2")
	require.NoError(t, err)
	assert.Equal(t, Outcome{StatusAdded, "Course Programming has been registered."}, out)

	assert.Equal(t, []*Student{f.alan}, f.reg.EnrolledStudents("C1"))
	assert.Equal(t, []*Course{f.algo, f.prog}, f.reg.RegisteredCourses("S1"))
	assert.Empty(t, f.reg.RegisteredCourses("S2"))

	_, err = f.reg.Enroll("C1", "S404")
	assert.True(t, core.IsNotFound(err))
	_, err = f.reg.Enroll("C404", "S1")
	assert.True(t, core.IsNotFound(err))
}

func TestRegistry_AssignCourse(t *testing.T) {
	f := newFixtures(t)

	out, err := f.reg.AssignCourse("I1", "C1")
	require.NoError(t, err)
	assert.Equal(t, Outcome{StatusAlreadyPresent, "Course Algorithms is already assigned"}, out)

	out, err = f.reg.AssignCourse("I1", "C2")
	require.NoError(t, err)
	assert.Equal(t, Outcome{StatusAdded, "Course Programming has been assigned"}, out)

	assert.Equal(t, []*Course{f.algo, f.prog}, f.reg.AssignedCourses("I1"))
	assert.Equal(t, f.ada, f.reg.CourseInstructor("C2"))
}

func TestRegistry_Remove(t *testing.T) {
	f := newFixtures(t)
	_, _ = f.reg.Enroll("C1", "S1")
	_, _ = f.reg.Enroll("C1", "S2")
	_, _ = f.reg.Enroll("C2", "S1")

	require.NoError(t, f.reg.RemoveStudent("S1"))
	assert.Equal(t, []string{"S2"}, f.reg.EnrolledStudentIDs("C1"))
	assert.Empty(t, f.reg.EnrolledStudentIDs("C2"))

	require.NoError(t, f.reg.RemoveInstructor("I1"))
	assert.Nil(t, f.reg.CourseInstructor("C1"))
	assert.False(t, f.algo.HasInstructor())

	require.NoError(t, f.reg.RemoveCourse("C1"))
	assert.Empty(t, f.reg.Enrollments())

	assert.True(t, core.IsNotFound(f.reg.RemoveStudent("S1")))
	assert.True(t, core.IsNotFound(f.reg.RemoveCourse("C1")))
}

func TestRegistry_Replace(t *testing.T) {
	f := newFixtures(t)

	updated, _ := NewStudent("Alan M Turing", 35, "alan@example.com", "S1")
	require.NoError(t, f.reg.ReplaceStudent(updated))
	s, err := f.reg.Student("S1")
	require.NoError(t, err)
	assert.Equal(t, "Alan M Turing", s.Name())

	taken, _ := NewStudent("Alan Turing", 34, "kate@example.com", "S1")
	assert.True(t, core.IsUniqueness(f.reg.ReplaceStudent(taken)))

	unknown, _ := NewStudent("Nobody", 1, "no@example.com", "S404")
	assert.True(t, core.IsNotFound(f.reg.ReplaceStudent(unknown)))
}

func TestRegistry_Search(t *testing.T) {
	f := newFixtures(t)

	tests := []struct {
		name string
		q    string
		want []*Student
	}{
		{name: "empty matches all", q: "", want: []*Student{f.alan, f.kate}},
		{name: "name substring", q: "turing", want: []*Student{f.alan}},
		{name: "id substring", q: "s2", want: []*Student{f.kate}},
		{name: "no match", q: "zzz", want: []*Student{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.reg.SearchStudents(tt.q))
		})
	}
	assert.Equal(t, []*Course{f.algo}, f.reg.SearchCourses("algo"))
	assert.Equal(t, []*Instructor{f.ada}, f.reg.SearchInstructors("I1"))
}
