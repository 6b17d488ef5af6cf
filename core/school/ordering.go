package school

import (
	"sort"
	"strings"

	"github.com/trezcool/kumbukumbu/core"
)

// Fields accepted by the ordering of query results.
var (
	PersonOrderFields = []string{"id", "name", "age", "email"}
	CourseOrderFields = []string{"id", "name"}
)

// QueryFilter restricts query results; Search is a case-insensitive substring of the name or id.
type QueryFilter struct {
	Search string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

func (qf *QueryFilter) Match(name, id string) bool {
	return qf == nil || Matches(qf.Search, name, id)
}

func SortStudents(students []*Student, ordering []core.DBOrdering) {
	sort.SliceStable(students, func(i, j int) bool {
		a, b := students[i], students[j]
		return lessBy(ordering, func(field string) int { return comparePeople(a.Person, a.id, b.Person, b.id, field) })
	})
}

func SortInstructors(instructors []*Instructor, ordering []core.DBOrdering) {
	sort.SliceStable(instructors, func(i, j int) bool {
		a, b := instructors[i], instructors[j]
		return lessBy(ordering, func(field string) int { return comparePeople(a.Person, a.id, b.Person, b.id, field) })
	})
}

func SortCourses(courses []*Course, ordering []core.DBOrdering) {
	sort.SliceStable(courses, func(i, j int) bool {
		a, b := courses[i], courses[j]
		return lessBy(ordering, func(field string) int {
			switch field {
			case "id":
				return strings.Compare(a.id, b.id)
			case "name":
				return strings.Compare(a.name, b.name)
			}
			return 0
		})
	})
}

func lessBy(ordering []core.DBOrdering, cmp func(field string) int) bool {
	for _, ord := range ordering {
		c := cmp(ord.Field)
		if c == 0 {
			continue
		}
		if ord.Ascending {
			return c < 0
		}
		return c > 0
	}
	return false
}

func comparePeople(a Person, aID string, b Person, bID string, field string) int {
	switch field {
	case "id":
		return strings.Compare(aID, bID)
	case "name":
		return strings.Compare(a.name, b.name)
	case "email":
		return strings.Compare(a.email, b.email)
	case "age":
		switch {
		case a.age < b.age:
			return -1
		case a.age > b.age:
			return 1
		}
	}
	return 0
}
