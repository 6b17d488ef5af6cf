package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/kumbukumbu/core"
	"github.com/trezcool/kumbukumbu/core/school"
)

func (cli *commandLine) addPerson(cmd string, args []string) error {
	fs := cli.flagSet(cmd)
	id := fs.String("id", "", "The business identifier.")
	name := fs.String("name", "", "The full name (letters and spaces only).")
	age := fs.Int("age", 0, "The age.")
	email := fs.String("email", "", "The email address.")
	if err := parse(fs, args); err != nil {
		return err
	}

	ctx := context.Background()
	if cmd == "add-student" {
		s, err := cli.svc.CreateStudent(ctx, school.NewStudentInput{Name: *name, Age: *age, Email: *email, StudentID: *id})
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "Student %s added. %s\n", s.StudentID(), s.Introduce())
		return nil
	}
	i, err := cli.svc.CreateInstructor(ctx, school.NewInstructorInput{Name: *name, Age: *age, Email: *email, InstructorID: *id})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Instructor %s added. %s\n", i.InstructorID(), i.Introduce())
	return nil
}

func (cli *commandLine) addCourse(args []string) error {
	fs := cli.flagSet("add-course")
	id := fs.String("id", "", "The course identifier.")
	name := fs.String("name", "", "The course name.")
	instructor := fs.String("instructor", "", "The id of the instructor teaching the course (optional).")
	if err := parse(fs, args); err != nil {
		return err
	}

	c, err := cli.svc.CreateCourse(context.Background(), school.NewCourseInput{CourseID: *id, CourseName: *name, InstructorID: *instructor})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Course %s (%s) added.\n", c.CourseID(), c.CourseName())
	return nil
}

func (cli *commandLine) enroll(cmd string, args []string) error {
	fs := cli.flagSet(cmd)
	course := fs.String("course", "", "The course id.")
	student := fs.String("student", "", "The student id.")
	if err := parse(fs, args); err != nil {
		return err
	}

	var out school.Outcome
	var err error
	if cmd == "register" {
		out, err = cli.svc.RegisterCourse(context.Background(), *student, *course)
	} else {
		out, err = cli.svc.Enroll(context.Background(), *course, *student)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, out.Message)
	return nil
}

func (cli *commandLine) assign(args []string) error {
	fs := cli.flagSet("assign")
	instructor := fs.String("instructor", "", "The instructor id.")
	course := fs.String("course", "", "The course id.")
	if err := parse(fs, args); err != nil {
		return err
	}

	out, err := cli.svc.AssignCourse(context.Background(), *instructor, *course)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, out.Message)
	return nil
}

func (cli *commandLine) list(cmd string, args []string) error {
	fs := cli.flagSet(cmd)
	kindFlag := fs.String("kind", "", "student, instructor or course.")
	ordering := fs.String("ordering", "", "Comma separated fields (id, name, age, email), \"-field\" for descending.")
	query := fs.String("q", "", "Text searched in the names and ids.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if cmd == "search" && core.CleanString(*query) == "" {
		fs.Usage()
		return errHelp
	}
	kind, err := parseKind(*kindFlag)
	if err != nil {
		return err
	}

	ctx := context.Background()
	filter := &school.QueryFilter{Search: *query}
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	switch kind {
	case school.KindStudent:
		students, err := cli.svc.QueryStudents(ctx, filter, core.ParseOrdering(*ordering, school.PersonOrderFields...))
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "ID\tNAME\tAGE\tEMAIL")
		for _, s := range students {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", s.StudentID(), s.Name(), s.Age(), s.Email())
		}
	case school.KindInstructor:
		instructors, err := cli.svc.QueryInstructors(ctx, filter, core.ParseOrdering(*ordering, school.PersonOrderFields...))
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "ID\tNAME\tAGE\tEMAIL")
		for _, i := range instructors {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", i.InstructorID(), i.Name(), i.Age(), i.Email())
		}
	case school.KindCourse:
		courses, err := cli.svc.QueryCourses(ctx, filter, core.ParseOrdering(*ordering, school.CourseOrderFields...))
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "ID\tNAME\tINSTRUCTOR")
		for _, c := range courses {
			fmt.Fprintf(w, "%s\t%s\t%s\n", c.CourseID(), c.CourseName(), orNone(c.InstructorID()))
		}
	}
	return w.Flush()
}

func (cli *commandLine) show(args []string) error {
	fs := cli.flagSet("show")
	kindFlag := fs.String("kind", "", "student, instructor or course.")
	id := fs.String("id", "", "The record id.")
	if err := parse(fs, args); err != nil {
		return err
	}
	kind, err := parseKind(*kindFlag)
	if err != nil {
		return err
	}
	lines, err := cli.describe(context.Background(), kind, *id)
	if err != nil {
		return err
	}
	fmt.Fprint(cli.out, strings.Join(lines, ""))
	return nil
}

// describe renders a record and its associations, one field per line.
func (cli *commandLine) describe(ctx context.Context, kind, id string) ([]string, error) {
	var lines []string
	add := func(format string, args ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, args...)+"\n")
	}

	switch kind {
	case school.KindStudent:
		s, err := cli.svc.GetStudent(ctx, id)
		if err != nil {
			return nil, err
		}
		courses, err := cli.svc.RegisteredCourses(ctx, id)
		if err != nil {
			return nil, err
		}
		add("%s", s.Introduce())
		add("email: %s", s.Email())
		add("courses: %s", orNone(courseNames(courses)))
	case school.KindInstructor:
		i, err := cli.svc.GetInstructor(ctx, id)
		if err != nil {
			return nil, err
		}
		courses, err := cli.svc.AssignedCourses(ctx, id)
		if err != nil {
			return nil, err
		}
		add("%s", i.Introduce())
		add("email: %s", i.Email())
		add("courses: %s", orNone(courseNames(courses)))
	case school.KindCourse:
		c, err := cli.svc.GetCourse(ctx, id)
		if err != nil {
			return nil, err
		}
		instructor := ""
		if c.HasInstructor() {
			i, err := cli.svc.GetInstructor(ctx, c.InstructorID())
			if err != nil {
				return nil, err
			}
			instructor = fmt.Sprintf("%s (%s)", i.Name(), i.InstructorID())
		}
		students, err := cli.svc.EnrolledStudents(ctx, id)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(students))
		for _, s := range students {
			names = append(names, fmt.Sprintf("%s (%s)", s.Name(), s.StudentID()))
		}
		add("%s: %s", c.CourseID(), c.CourseName())
		add("instructor: %s", orNone(instructor))
		add("students: %s", orNone(strings.Join(names, ", ")))
	}
	return lines, nil
}

func (cli *commandLine) update(args []string) error {
	fs := cli.flagSet("update")
	kindFlag := fs.String("kind", "", "student, instructor or course.")
	id := fs.String("id", "", "The record id.")
	name := fs.String("name", "", "The new name.")
	age := fs.Int("age", 0, "The new age.")
	email := fs.String("email", "", "The new email.")
	instructor := fs.String("instructor", "", "The new instructor id of a course, empty to remove it.")
	if err := parse(fs, args); err != nil {
		return err
	}
	kind, err := parseKind(*kindFlag)
	if err != nil {
		return err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	ctx := context.Background()
	before, err := cli.describe(ctx, kind, *id)
	if err != nil {
		return err
	}

	switch kind {
	case school.KindStudent, school.KindInstructor:
		var up school.UpdatePerson
		if set["name"] {
			up.Name = name
		}
		if set["age"] {
			up.Age = age
		}
		if set["email"] {
			up.Email = email
		}
		if up.IsEmpty() {
			fs.Usage()
			return errHelp
		}
		if kind == school.KindStudent {
			_, err = cli.svc.UpdateStudent(ctx, *id, up)
		} else {
			_, err = cli.svc.UpdateInstructor(ctx, *id, up)
		}
	case school.KindCourse:
		var uc school.UpdateCourse
		if set["name"] {
			uc.CourseName = name
		}
		if set["instructor"] {
			uc.InstructorID = instructor
		}
		if uc.IsEmpty() {
			fs.Usage()
			return errHelp
		}
		_, err = cli.svc.UpdateCourse(ctx, *id, uc)
	}
	if err != nil {
		return err
	}

	after, err := cli.describe(ctx, kind, *id)
	if err != nil {
		return err
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        before,
		B:        after,
		FromFile: "before",
		ToFile:   "after",
		Context:  1,
	})
	if err != nil {
		return err
	}
	fmt.Fprint(cli.out, diff)
	return nil
}

func (cli *commandLine) delete(args []string) error {
	fs := cli.flagSet("delete")
	kindFlag := fs.String("kind", "", "student, instructor or course.")
	id := fs.String("id", "", "The record id.")
	yes := fs.Bool("yes", false, "Do not ask for confirmation.")
	if err := parse(fs, args); err != nil {
		return err
	}
	kind, err := parseKind(*kindFlag)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if _, err = cli.describe(ctx, kind, *id); err != nil {
		return err
	}
	if !*yes {
		if err = cli.confirm(fmt.Sprintf("Delete %s %s?", kind, *id)); err != nil {
			return err
		}
	}

	switch kind {
	case school.KindStudent:
		err = cli.svc.DeleteStudent(ctx, *id)
	case school.KindInstructor:
		err = cli.svc.DeleteInstructor(ctx, *id)
	case school.KindCourse:
		err = cli.svc.DeleteCourse(ctx, *id)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Deleted %s %s.\n", kind, core.CleanString(*id))
	return nil
}

func courseNames(courses []*school.Course) string {
	names := make([]string, 0, len(courses))
	for _, c := range courses {
		names = append(names, fmt.Sprintf("%s (%s)", c.CourseName(), c.CourseID()))
	}
	return strings.Join(names, ", ")
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}
