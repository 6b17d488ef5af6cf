package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/trezcool/kumbukumbu/core/school"
	"github.com/trezcool/kumbukumbu/services/interchange"
)

// Export formats
const (
	formatJSON = "json"
	formatCSV  = "csv"
	formatXLSX = "xlsx"
)

// create opens path for writing; "" and "-" mean the CLI output.
func (cli *commandLine) create(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cli.out, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func (cli *commandLine) export(args []string) error {
	fs := cli.flagSet("export")
	format := fs.String("format", formatJSON, "json, csv or xlsx.")
	output := fs.String("o", "", "The output file, the standard output by default (json and csv only).")
	kinds := fs.String("kind", "", "Comma separated kinds to export (csv only), all by default.")
	if err := parse(fs, args); err != nil {
		return err
	}

	ctx := context.Background()
	reg, err := cli.svc.Snapshot(ctx)
	if err != nil {
		return err
	}

	var csvKinds []string
	if *kinds != "" {
		for _, k := range strings.Split(*kinds, ",") {
			kind, err := parseKind(k)
			if err != nil {
				return err
			}
			csvKinds = append(csvKinds, kind)
		}
	}
	if *format == formatXLSX && (*output == "" || *output == "-") {
		return errors.New("xlsx export needs an output file (-o)")
	}

	w, closeFn, err := cli.create(*output)
	if err != nil {
		return err
	}
	switch *format {
	case formatJSON:
		err = interchange.ExportJSON(w, reg)
	case formatCSV:
		err = interchange.ExportCSV(w, reg, csvKinds...)
	case formatXLSX:
		err = interchange.ExportXLSX(w, reg)
	default:
		err = errors.Errorf("unknown format %q", *format)
	}
	if cErr := closeFn(); err == nil {
		err = cErr
	}
	return err
}

func (cli *commandLine) save(args []string) error {
	fs := cli.flagSet("save")
	output := fs.String("o", "", "The snapshot file.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *output == "" {
		fs.Usage()
		return errHelp
	}

	reg, err := cli.svc.Snapshot(context.Background())
	if err != nil {
		return err
	}
	w, closeFn, err := cli.create(*output)
	if err != nil {
		return err
	}
	err = interchange.SaveSnapshot(w, reg)
	if cErr := closeFn(); err == nil {
		err = cErr
	}
	if err == nil {
		fmt.Fprintf(cli.out, "Saved %d students, %d instructors and %d courses.\n", len(reg.Students()), len(reg.Instructors()), len(reg.Courses()))
	}
	return err
}

// importFile reads documents (import) or snapshots (load) into the store.
func (cli *commandLine) importFile(cmd string, args []string) error {
	fs := cli.flagSet(cmd)
	input := fs.String("i", "", "The input file.")
	upsert := fs.Bool("upsert", false, "Update the records that already exist instead of failing.")
	format := fs.String("format", "", "json or xlsx (import only), guessed from the file extension by default.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *input == "" {
		fs.Usage()
		return errHelp
	}

	f, err := os.Open(*input)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	var reg *school.Registry
	if cmd == "load" {
		reg, err = interchange.LoadSnapshot(f)
	} else {
		if *format == "" {
			*format = strings.TrimPrefix(strings.ToLower(filepath.Ext(*input)), ".")
		}
		switch *format {
		case formatJSON:
			reg, err = interchange.ImportJSON(f)
		case formatXLSX:
			reg, err = interchange.ImportXLSX(f)
		default:
			err = errors.Errorf("unknown format %q", *format)
		}
	}
	if err != nil {
		return err
	}

	stats, err := cli.svc.Load(context.Background(), reg, *upsert)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Created %d, updated %d records; added %d enrollments.\n", stats.Created, stats.Updated, stats.Enrollments)
	return nil
}

// view prints every table of the store.
func (cli *commandLine) view() error {
	reg, err := cli.svc.Snapshot(context.Background())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STUDENTS")
	fmt.Fprintln(w, "ID\tNAME\tAGE\tEMAIL\tCOURSES")
	for _, s := range reg.Students() {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", s.StudentID(), s.Name(), s.Age(), s.Email(), orNone(strings.Join(reg.RegisteredCourseIDs(s.StudentID()), ", ")))
	}
	fmt.Fprintln(w, "\nINSTRUCTORS")
	fmt.Fprintln(w, "ID\tNAME\tAGE\tEMAIL\tCOURSES")
	for _, i := range reg.Instructors() {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", i.InstructorID(), i.Name(), i.Age(), i.Email(), orNone(strings.Join(reg.AssignedCourseIDs(i.InstructorID()), ", ")))
	}
	fmt.Fprintln(w, "\nCOURSES")
	fmt.Fprintln(w, "ID\tNAME\tINSTRUCTOR\tSTUDENTS")
	for _, c := range reg.Courses() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.CourseID(), c.CourseName(), orNone(c.InstructorID()), orNone(strings.Join(reg.EnrolledStudentIDs(c.CourseID()), ", ")))
	}
	return w.Flush()
}
