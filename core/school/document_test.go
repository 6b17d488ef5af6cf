package school

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kumbukumbu/core"
)

func TestCourse_RoundTrip(t *testing.T) {
	reg := NewRegistry()
	ada, err := NewInstructor("Ada Lovelace", 36, "ada@example.com", "I1")
	require.NoError(t, err)
	course, err := NewCourse("C1", "Algorithms", ada)
	require.NoError(t, err)
	alan, err := NewStudent("Alan Turing", 34, "alan@example.com", "S1")
	require.NoError(t, err)
	require.NoError(t, reg.InsertInstructor(ada))
	require.NoError(t, reg.InsertStudent(alan))
	require.NoError(t, reg.InsertCourse(course))

	_, err = reg.Enroll("C1", "S1")
	require.NoError(t, err)
	assert.Equal(t, []*Student{alan}, reg.EnrolledStudents("C1"))

	m := course.ToMap(reg)
	assert.Equal(t, map[string]interface{}{
		"course_id":         "C1",
		"course_name":       "Algorithms",
		"instructor_id":     "I1",
		"enrolled_students": []string{"S1"},
	}, m)

	got, enrolled, err := CourseFromMap(m, map[string]*Instructor{"I1": ada}, map[string]*Student{"S1": alan})
	require.NoError(t, err)
	assert.Equal(t, "C1", got.CourseID())
	assert.Equal(t, "Algorithms", got.CourseName())
	assert.Equal(t, "I1", got.InstructorID())
	require.Len(t, enrolled, 1)
	assert.Equal(t, "S1", enrolled[0].StudentID())
}

func TestCourseFromMap_Resolution(t *testing.T) {
	ada, _ := NewInstructor("Ada Lovelace", 36, "ada@example.com", "I1")
	alan, _ := NewStudent("Alan Turing", 34, "alan@example.com", "S1")
	instructors := map[string]*Instructor{"I1": ada}
	students := map[string]*Student{"S1": alan}

	tests := []struct {
		name     string
		m        map[string]interface{}
		wantKind string
	}{
		{
			name:     "unknown instructor",
			m:        map[string]interface{}{"course_id": "C1", "course_name": "Algorithms", "instructor_id": "I9", "enrolled_students": []interface{}{}},
			wantKind: KindInstructor,
		},
		{
			name:     "unknown student",
			m:        map[string]interface{}{"course_id": "C1", "course_name": "Algorithms", "instructor_id": "I1", "enrolled_students": []interface{}{"S1", "S9"}},
			wantKind: KindStudent,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, err := CourseFromMap(tt.m, instructors, students)
			assert.Nil(t, c)
			rErr, ok := err.(*core.ResolutionError)
			if !ok {
				t.Fatalf("CourseFromMap() error = %v, want *core.ResolutionError", err)
			}
			assert.Equal(t, tt.wantKind, rErr.Kind)
		})
	}

	t.Run("null instructor", func(t *testing.T) {
		c, enrolled, err := CourseFromMap(map[string]interface{}{"course_id": "C2", "course_name": "Logic", "instructor_id": nil}, instructors, students)
		require.NoError(t, err)
		assert.False(t, c.HasInstructor())
		assert.Empty(t, enrolled)
	})
}

func TestStudentFromMap(t *testing.T) {
	algo, _ := NewCourse("C1", "Algorithms", nil)
	m := map[string]interface{}{
		"name": "Alan Turing", "age": 34, "email": "alan@example.com",
		"student_id": "S1", "registered_courses": []interface{}{"C1", "C1"},
	}

	s, courses, err := StudentFromMap(m, map[string]*Course{"C1": algo})
	require.NoError(t, err)
	assert.Equal(t, "S1", s.StudentID())
	assert.Equal(t, []*Course{algo}, courses)

	_, _, err = StudentFromMap(m, nil)
	assert.True(t, core.IsResolution(err))
}

func TestRegistry_DocumentRoundTrip(t *testing.T) {
	f := newFixtures(t)
	_, _ = f.reg.Enroll("C1", "S1")
	_, _ = f.reg.Enroll("C2", "S1")
	_, _ = f.reg.Enroll("C1", "S2")

	// through JSON, like the interchange files
	data, err := json.Marshal(f.reg.ToDocument())
	require.NoError(t, err)
	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))

	reg, err := RegistryFromDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, f.reg.ToDocument(), reg.ToDocument())
	assert.Equal(t, []string{"S1", "S2"}, reg.EnrolledStudentIDs("C1"))
	assert.Equal(t, []string{"C1"}, reg.AssignedCourseIDs("I1"))
}

func TestRegistryFromDocument(t *testing.T) {
	person := func(name, email, idKey, id string, coursesKey string, courses ...interface{}) map[string]interface{} {
		return map[string]interface{}{"name": name, "age": 30, "email": email, idKey: id, coursesKey: courses}
	}
	course := func(id, instructorID string, students ...interface{}) map[string]interface{} {
		var instr interface{}
		if instructorID != "" {
			instr = instructorID
		}
		return map[string]interface{}{"course_id": id, "course_name": "Course " + id, "instructor_id": instr, "enrolled_students": students}
	}

	t.Run("people side only", func(t *testing.T) {
		doc := Document{
			Students:    []map[string]interface{}{person("Alan", "a@x.io", "student_id", "S1", "registered_courses", "C1")},
			Instructors: []map[string]interface{}{person("Ada", "ada@x.io", "instructor_id", "I1", "assigned_courses", "C1")},
			Courses:     []map[string]interface{}{course("C1", "")},
		}
		reg, err := RegistryFromDocument(doc)
		require.NoError(t, err)
		assert.Equal(t, []string{"S1"}, reg.EnrolledStudentIDs("C1"))
		assert.Equal(t, "I1", reg.CourseInstructor("C1").InstructorID())
	})

	t.Run("conflicting owner", func(t *testing.T) {
		doc := Document{
			Instructors: []map[string]interface{}{
				person("Ada", "ada@x.io", "instructor_id", "I1", "assigned_courses"),
				person("Grace", "grace@x.io", "instructor_id", "I2", "assigned_courses", "C1"),
			},
			Courses: []map[string]interface{}{course("C1", "I1")},
		}
		_, err := RegistryFromDocument(doc)
		assert.True(t, core.IsValidation(err))
	})

	t.Run("dangling course", func(t *testing.T) {
		doc := Document{
			Students: []map[string]interface{}{person("Alan", "a@x.io", "student_id", "S1", "registered_courses", "C404")},
		}
		_, err := RegistryFromDocument(doc)
		assert.True(t, core.IsResolution(err))
	})

	t.Run("duplicate student", func(t *testing.T) {
		doc := Document{
			Students: []map[string]interface{}{
				person("Alan", "a@x.io", "student_id", "S1", "registered_courses"),
				person("Alan", "b@x.io", "student_id", "S1", "registered_courses"),
			},
		}
		_, err := RegistryFromDocument(doc)
		assert.True(t, core.IsUniqueness(err))
	})
}
