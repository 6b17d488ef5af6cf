package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/kumbukumbu/core"
	"github.com/trezcool/kumbukumbu/core/school"
)

const (
	maxSuggestions = 3
	minSimilarity  = 0.6
)

// suggest prints the known ids closest to the one that was not found.
func (cli *commandLine) suggest(err error) {
	nfErr, ok := errors.Cause(err).(*core.NotFoundError)
	if !ok {
		return
	}
	ids, qErr := cli.knownIDs(context.Background(), nfErr.Kind)
	if qErr != nil {
		return
	}
	if matches := closeMatches(nfErr.ID, ids); len(matches) > 0 {
		fmt.Fprintf(cli.out, "Did you mean %s?\n", strings.Join(matches, ", "))
	}
}

func (cli *commandLine) knownIDs(ctx context.Context, kind string) ([]string, error) {
	var ids []string
	switch kind {
	case school.KindStudent:
		students, err := cli.svc.QueryStudents(ctx, nil, nil)
		if err != nil {
			return nil, err
		}
		for _, s := range students {
			ids = append(ids, s.StudentID())
		}
	case school.KindInstructor:
		instructors, err := cli.svc.QueryInstructors(ctx, nil, nil)
		if err != nil {
			return nil, err
		}
		for _, i := range instructors {
			ids = append(ids, i.InstructorID())
		}
	case school.KindCourse:
		courses, err := cli.svc.QueryCourses(ctx, nil, nil)
		if err != nil {
			return nil, err
		}
		for _, c := range courses {
			ids = append(ids, c.CourseID())
		}
	}
	return ids, nil
}

// closeMatches returns the candidates most similar to word, best first.
func closeMatches(word string, candidates []string) []string {
	type scored struct {
		id    string
		ratio float64
	}
	a := strings.Split(strings.ToLower(word), "")

	var matches []scored
	for _, c := range candidates {
		ratio := difflib.NewMatcher(a, strings.Split(strings.ToLower(c), "")).Ratio()
		if ratio >= minSimilarity {
			matches = append(matches, scored{id: c, ratio: ratio})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].ratio > matches[j].ratio })

	out := make([]string, 0, maxSuggestions)
	for idx := 0; idx < len(matches) && idx < maxSuggestions; idx++ {
		out = append(out, matches[idx].id)
	}
	return out
}
