package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kumbukumbu/core"
	"github.com/trezcool/kumbukumbu/core/school"
)

// RepositoryContract checks the behaviour every school.Repository must share.
// newRepo must return an empty repository.
func RepositoryContract(t *testing.T, newRepo func(t *testing.T) school.Repository) {
	newSvc := func(t *testing.T) *school.Service {
		svc := school.NewService(newRepo(t))
		require.NoError(t, svc.CreateSchema(context.Background()))
		return svc
	}

	t.Run("CreateSchema is idempotent", func(t *testing.T) {
		svc := newSvc(t)
		assert.NoError(t, svc.CreateSchema(context.Background()))
	})

	t.Run("students", func(t *testing.T) {
		ctx := context.Background()
		svc := newSvc(t)
		CreateStudent(t, svc, "Alan Turing", 34, "alan@example.com", "S1")

		got, err := svc.GetStudent(ctx, "S1")
		require.NoError(t, err)
		assert.Equal(t, "Alan Turing", got.Name())
		assert.Equal(t, 34, got.Age())
		assert.Equal(t, "alan@example.com", got.Email())

		_, err = svc.CreateStudent(ctx, school.NewStudentInput{Name: "Alan", Age: 1, Email: "x@example.com", StudentID: "S1"})
		assert.True(t, core.IsUniqueness(err), "duplicate id: %v", err)
		_, err = svc.CreateStudent(ctx, school.NewStudentInput{Name: "Alan", Age: 1, Email: "ALAN@example.com", StudentID: "S9"})
		assert.True(t, core.IsUniqueness(err), "duplicate email: %v", err)

		_, err = svc.GetStudent(ctx, "S404")
		assert.True(t, core.IsNotFound(err), "unknown id: %v", err)

		CreateStudent(t, svc, "Kate Johnson", 20, "kate@example.com", "S2")
		_, err = svc.UpdateStudent(ctx, "S2", school.UpdatePerson{Email: strPtr("alan@example.com")})
		assert.True(t, core.IsUniqueness(err), "update to a taken email: %v", err)

		_, err = svc.UpdateStudent(ctx, "S2", school.UpdatePerson{Name: strPtr("Kate Bell"), Age: intPtr(21)})
		require.NoError(t, err)
		got, err = svc.GetStudent(ctx, "S2")
		require.NoError(t, err)
		assert.Equal(t, "Kate Bell", got.Name())
		assert.Equal(t, 21, got.Age())

		require.NoError(t, svc.DeleteStudent(ctx, "S2"))
		assert.True(t, core.IsNotFound(svc.DeleteStudent(ctx, "S2")))
	})

	t.Run("query", func(t *testing.T) {
		ctx := context.Background()
		svc := newSvc(t)
		CreateStudent(t, svc, "Zed Shaw", 20, "zed@example.com", "S1")
		CreateStudent(t, svc, "Amy Pond", 22, "amy@example.com", "S2")
		CreateStudent(t, svc, "Bob Ross", 20, "bob@example.com", "S3")

		students, err := svc.QueryStudents(ctx, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"S1", "S2", "S3"}, studentIDs(students), "insertion order")

		students, err = svc.QueryStudents(ctx, nil, core.ParseOrdering("age,-name", school.PersonOrderFields...))
		require.NoError(t, err)
		assert.Equal(t, []string{"S1", "S3", "S2"}, studentIDs(students))

		students, err = svc.QueryStudents(ctx, &school.QueryFilter{Search: "ROSS"}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"S3"}, studentIDs(students))

		students, err = svc.QueryStudents(ctx, &school.QueryFilter{Search: "%"}, nil)
		require.NoError(t, err)
		assert.Empty(t, students, "wildcards are matched literally")
	})

	t.Run("courses and associations", func(t *testing.T) {
		ctx := context.Background()
		svc := newSvc(t)
		Seed(t, svc)

		_, err := svc.CreateCourse(ctx, school.NewCourseInput{CourseID: "C1", CourseName: "Again"})
		assert.True(t, core.IsUniqueness(err), "duplicate course: %v", err)
		_, err = svc.CreateCourse(ctx, school.NewCourseInput{CourseID: "C3", CourseName: "Logic", InstructorID: "I404"})
		assert.True(t, core.IsNotFound(err), "unknown instructor: %v", err)

		c, err := svc.GetCourse(ctx, "C2")
		require.NoError(t, err)
		assert.False(t, c.HasInstructor())

		out, err := svc.Enroll(ctx, "C1", "S1")
		require.NoError(t, err)
		assert.Equal(t, school.StatusAlreadyPresent, out.Status)
		_, err = svc.Enroll(ctx, "C404", "S1")
		assert.True(t, core.IsNotFound(err))

		students, err := svc.EnrolledStudents(ctx, "C1")
		require.NoError(t, err)
		assert.Equal(t, []string{"S1", "S2"}, studentIDs(students))

		courses, err := svc.RegisteredCourses(ctx, "S1")
		require.NoError(t, err)
		assert.Equal(t, []string{"C1", "C2"}, courseIDs(courses))

		out, err = svc.AssignCourse(ctx, "I1", "C2")
		require.NoError(t, err)
		assert.Equal(t, school.StatusAdded, out.Status)
		courses, err = svc.AssignedCourses(ctx, "I1")
		require.NoError(t, err)
		assert.Equal(t, []string{"C1", "C2"}, courseIDs(courses))

		enrollments, err := snapshotEnrollments(ctx, svc)
		require.NoError(t, err)
		assert.Len(t, enrollments, 3)

		// deleting a student drops its enrollments
		require.NoError(t, svc.DeleteStudent(ctx, "S1"))
		students, err = svc.EnrolledStudents(ctx, "C1")
		require.NoError(t, err)
		assert.Equal(t, []string{"S2"}, studentIDs(students))

		// deleting an instructor leaves its courses without instructor
		require.NoError(t, svc.DeleteInstructor(ctx, "I1"))
		c, err = svc.GetCourse(ctx, "C1")
		require.NoError(t, err)
		assert.False(t, c.HasInstructor())

		// deleting a course drops its enrollments
		require.NoError(t, svc.DeleteCourse(ctx, "C1"))
		courses, err = svc.RegisteredCourses(ctx, "S2")
		require.NoError(t, err)
		assert.Empty(t, courses)
		assert.True(t, core.IsNotFound(svc.DeleteCourse(ctx, "C1")))
	})

	t.Run("snapshot round trip", func(t *testing.T) {
		ctx := context.Background()
		src := newSvc(t)
		Seed(t, src)

		reg, err := src.Snapshot(ctx)
		require.NoError(t, err)

		dst := newSvc(t)
		stats, err := dst.Load(ctx, reg, false)
		require.NoError(t, err)
		assert.Equal(t, school.LoadStats{Created: 5, Enrollments: 3}, stats)

		got, err := dst.Snapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, reg.ToDocument(), got.ToDocument())
	})
}

func snapshotEnrollments(ctx context.Context, svc *school.Service) ([]school.Enrollment, error) {
	reg, err := svc.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return reg.Enrollments(), nil
}

func studentIDs(students []*school.Student) []string {
	ids := make([]string, 0, len(students))
	for _, s := range students {
		ids = append(ids, s.StudentID())
	}
	return ids
}

func courseIDs(courses []*school.Course) []string {
	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.CourseID())
	}
	return ids
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
