package school_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kumbukumbu/core"
	"github.com/trezcool/kumbukumbu/core/school"
	"github.com/trezcool/kumbukumbu/storage/database/inmem"
	"github.com/trezcool/kumbukumbu/tests"
)

func newService(t *testing.T) *school.Service {
	t.Helper()
	svc := school.NewService(inmemdb.NewSchoolRepository(inmemdb.Open()))
	if err := svc.CreateSchema(context.Background()); err != nil {
		t.Fatalf("CreateSchema() failed: %v", err)
	}
	return svc
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestService_CreateStudent(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	tests := []struct {
		name     string
		in       school.NewStudentInput
		wantErr  bool
		checkErr func(error) bool
	}{
		{name: "valid", in: school.NewStudentInput{Name: " Alan Turing ", Age: 34, Email: " ALAN@example.com", StudentID: "S1"}},
		{name: "duplicate id", in: school.NewStudentInput{Name: "Alan", Age: 34, Email: "other@example.com", StudentID: "S1"}, wantErr: true, checkErr: core.IsUniqueness},
		{name: "duplicate email", in: school.NewStudentInput{Name: "Alan", Age: 34, Email: "alan@example.com", StudentID: "S2"}, wantErr: true, checkErr: core.IsUniqueness},
		{name: "invalid name", in: school.NewStudentInput{Name: "R2D2", Age: 3, Email: "r2@example.com", StudentID: "S3"}, wantErr: true, checkErr: core.IsValidation},
		{name: "blank id", in: school.NewStudentInput{Name: "Alan", Age: 3, Email: "a3@example.com", StudentID: " "}, wantErr: true, checkErr: core.IsValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := svc.CreateStudent(ctx, tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateStudent() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				assert.True(t, tt.checkErr(err), "unexpected error kind: %v", err)
				return
			}
			assert.Equal(t, "Alan Turing", s.Name())
			assert.Equal(t, "alan@example.com", s.Email())
		})
	}

	all, err := svc.QueryStudents(ctx, nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestService_UpdateInstructor(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.CreateInstructor(ctx, school.NewInstructorInput{Name: "Ada Lovelace", Age: 36, Email: "ada@example.com", InstructorID: "I1"})
	require.NoError(t, err)

	_, err = svc.UpdateInstructor(ctx, "I1", school.UpdatePerson{Email: strPtr("not-an-email")})
	require.Error(t, err)
	assert.Equal(t, "Invalid email format", err.Error())

	ada, err := svc.GetInstructor(ctx, "I1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", ada.Email(), "failed update must keep the original email")

	ada, err = svc.UpdateInstructor(ctx, "I1", school.UpdatePerson{Name: strPtr("Augusta Ada King"), Age: intPtr(37)})
	require.NoError(t, err)
	assert.Equal(t, "Augusta Ada King", ada.Name())
	assert.Equal(t, 37, ada.Age())
	assert.Equal(t, "ada@example.com", ada.Email())

	_, err = svc.UpdateInstructor(ctx, "I404", school.UpdatePerson{Age: intPtr(1)})
	assert.True(t, core.IsNotFound(err))
}

func TestService_Associations(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.CreateInstructor(ctx, school.NewInstructorInput{Name: "Ada Lovelace", Age: 36, Email: "ada@example.com", InstructorID: "I1"})
	require.NoError(t, err)
	_, err = svc.CreateStudent(ctx, school.NewStudentInput{Name: "Alan Turing", Age: 34, Email: "alan@example.com", StudentID: "S1"})
	require.NoError(t, err)
	_, err = svc.CreateCourse(ctx, school.NewCourseInput{CourseID: "C1", CourseName: "Algorithms"})
	require.NoError(t, err)

	_, err = svc.CreateCourse(ctx, school.NewCourseInput{CourseID: "C2", CourseName: "Logic", InstructorID: "I404"})
	assert.True(t, core.IsNotFound(err))

	out, err := svc.Enroll(ctx, "C1", "S1")
	require.NoError(t, err)
	assert.Equal(t, school.StatusAdded, out.Status)

	out, err = svc.RegisterCourse(ctx, "S1", "C1")
	require.NoError(t, err)
	assert.Equal(t, school.StatusAlreadyPresent, out.Status)
	assert.Equal(t, "Course Algorithms is already registered.", out.Message)

	students, err := svc.EnrolledStudents(ctx, "C1")
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "S1", students[0].StudentID())

	out, err = svc.AssignCourse(ctx, "I1", "C1")
	require.NoError(t, err)
	assert.Equal(t, school.StatusAdded, out.Status)
	out, err = svc.AssignCourse(ctx, "I1", "C1")
	require.NoError(t, err)
	assert.Equal(t, school.StatusAlreadyPresent, out.Status)

	courses, err := svc.AssignedCourses(ctx, "I1")
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "C1", courses[0].CourseID())

	c, err := svc.UpdateCourse(ctx, "C1", school.UpdateCourse{InstructorID: strPtr("")})
	require.NoError(t, err)
	assert.False(t, c.HasInstructor())

	require.NoError(t, svc.DeleteStudent(ctx, "S1"))
	students, err = svc.EnrolledStudents(ctx, "C1")
	require.NoError(t, err)
	assert.Empty(t, students)
	assert.True(t, core.IsNotFound(svc.DeleteStudent(ctx, "S1")))
}

func TestService_AssociationIndex(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	testutil.Seed(t, svc)

	assoc, err := svc.Associations(ctx)
	require.NoError(t, err)
	reg, err := svc.Snapshot(ctx)
	require.NoError(t, err)

	for _, id := range []string{"S1", "S2", "S404"} {
		assert.Equal(t, reg.RegisteredCourseIDs(id), assoc.RegisteredCourseIDs(id), id)
	}
	for _, id := range []string{"C1", "C2"} {
		assert.Equal(t, reg.EnrolledStudentIDs(id), assoc.EnrolledStudentIDs(id), id)
	}
	assert.Equal(t, []string{"C1"}, assoc.AssignedCourseIDs("I1"))
	assert.Equal(t, []string{}, assoc.AssignedCourseIDs("I404"))
	assert.Equal(t, []string{"S1", "S2"}, assoc.EnrolledStudentIDs("C1"))
}

func TestService_QueryOrdering(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	for _, in := range []school.NewStudentInput{
		{Name: "Zed", Age: 20, Email: "zed@example.com", StudentID: "S1"},
		{Name: "Amy", Age: 22, Email: "amy@example.com", StudentID: "S2"},
		{Name: "Bob", Age: 20, Email: "bob@example.com", StudentID: "S3"},
	} {
		_, err := svc.CreateStudent(ctx, in)
		require.NoError(t, err)
	}

	ids := func(students []*school.Student) []string {
		out := make([]string, 0, len(students))
		for _, s := range students {
			out = append(out, s.StudentID())
		}
		return out
	}

	students, err := svc.QueryStudents(ctx, nil, core.ParseOrdering("age,-name", school.PersonOrderFields...))
	require.NoError(t, err)
	assert.Equal(t, []string{"S1", "S3", "S2"}, ids(students))

	students, err = svc.QueryStudents(ctx, &school.QueryFilter{Search: " B "}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"S3"}, ids(students))
}

func TestService_SnapshotAndLoad(t *testing.T) {
	ctx := context.Background()
	src := newService(t)

	_, err := src.CreateInstructor(ctx, school.NewInstructorInput{Name: "Ada Lovelace", Age: 36, Email: "ada@example.com", InstructorID: "I1"})
	require.NoError(t, err)
	_, err = src.CreateStudent(ctx, school.NewStudentInput{Name: "Alan Turing", Age: 34, Email: "alan@example.com", StudentID: "S1"})
	require.NoError(t, err)
	_, err = src.CreateCourse(ctx, school.NewCourseInput{CourseID: "C1", CourseName: "Algorithms", InstructorID: "I1"})
	require.NoError(t, err)
	_, err = src.Enroll(ctx, "C1", "S1")
	require.NoError(t, err)

	reg, err := src.Snapshot(ctx)
	require.NoError(t, err)

	dst := newService(t)
	stats, err := dst.Load(ctx, reg, false)
	require.NoError(t, err)
	assert.Equal(t, school.LoadStats{Created: 3, Enrollments: 1}, stats)

	_, err = dst.Load(ctx, reg, false)
	assert.True(t, core.IsUniqueness(err))

	stats, err = dst.Load(ctx, reg, true)
	require.NoError(t, err)
	assert.Equal(t, school.LoadStats{Updated: 3}, stats)

	got, err := dst.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, reg.ToDocument(), got.ToDocument())
}
