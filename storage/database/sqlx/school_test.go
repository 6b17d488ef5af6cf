package sqlxrepos

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kumbukumbu/core"
	"github.com/trezcool/kumbukumbu/core/school"
	testutil "github.com/trezcool/kumbukumbu/tests"
)

func TestSchoolRepository(t *testing.T) {
	testutil.RepositoryContract(t, func(t *testing.T) school.Repository {
		return NewSchoolRepository(testutil.PrepareDB(t))
	})
}

func TestSchoolRepository_UniqueViolationFallback(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	repo := NewSchoolRepository(db)

	s, err := school.NewStudent("Alan Turing", 34, "alan@example.com", "S1")
	require.NoError(t, err)
	require.NoError(t, repo.InsertStudent(ctx, s))

	// bypass the pre-checks to hit the driver constraint
	_, err = db.ExecContext(ctx,
		"INSERT INTO students (pk, student_id, name, age, email, created_at, updated_at) VALUES ('x', 'S1', 'Alan', 1, 'a@b.co', 0, 0)")
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err))
	assert.False(t, isUniqueViolation(core.NewNotFoundError(school.KindStudent, "S1")))
}

func TestSchoolRepository_LoadRollsBack(t *testing.T) {
	ctx := context.Background()
	svc := school.NewService(NewSchoolRepository(testutil.PrepareDB(t)))
	testutil.CreateStudent(t, svc, "Alan Turing", 34, "alan@example.com", "S1")

	reg := school.NewRegistry()
	i, err := school.NewInstructor("Ada Lovelace", 36, "ada@example.com", "I1")
	require.NoError(t, err)
	require.NoError(t, reg.InsertInstructor(i))
	s, err := school.NewStudent("Alan Turing", 34, "alan@example.com", "S1")
	require.NoError(t, err)
	require.NoError(t, reg.InsertStudent(s))

	stats, err := svc.Load(ctx, reg, false)
	assert.True(t, core.IsUniqueness(err), "conflicting student: %v", err)
	assert.Equal(t, school.LoadStats{}, stats)

	_, err = svc.GetInstructor(ctx, "I1")
	assert.True(t, core.IsNotFound(err), "instructor should be rolled back: %v", err)

	stats, err = svc.Load(ctx, reg, true)
	require.NoError(t, err)
	assert.Equal(t, school.LoadStats{Created: 1, Updated: 1}, stats)
}

func TestSearchClause(t *testing.T) {
	tests := []struct {
		name      string
		filter    *school.QueryFilter
		wantWhere string
		wantArgs  []interface{}
	}{
		{name: "nil filter"},
		{name: "empty search", filter: &school.QueryFilter{}},
		{
			name:      "escaped",
			filter:    &school.QueryFilter{Search: "50%_A"},
			wantWhere: " WHERE LOWER(name) LIKE ? ESCAPE '!' OR LOWER(student_id) LIKE ? ESCAPE '!'",
			wantArgs:  []interface{}{"%50!%!_a%", "%50!%!_a%"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := searchClause(tt.filter, "name", "student_id")
			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestOrderClause(t *testing.T) {
	got := orderClause(core.ParseOrdering("-name,age", "name", "age"), studentTable.columns())
	assert.Equal(t, " ORDER BY name DESC, age ASC, created_at ASC, student_id ASC", got)

	got = orderClause(nil, courseColumns)
	assert.Equal(t, " ORDER BY created_at ASC, course_id ASC", got)
}
