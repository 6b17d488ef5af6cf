package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/trezcool/kumbukumbu/core"
	"github.com/trezcool/kumbukumbu/core/school"
	"github.com/trezcool/kumbukumbu/storage/database"
)

var (
	isTerminalFunc = term.IsTerminal        // mockable
	migrateFunc    = database.RunMigrations // mockable

	errHelp    = errors.New("help provided")
	errAborted = errors.New("aborted")
	errNoSQL   = errors.New("migrations need a SQL database engine")
)

type commandLine struct {
	svc *school.Service
	db  *sqlx.DB // nil unless the engine is SQL
	in  io.Reader
	out io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                                     - run a goose command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  add-student -id ID -name NAME -age AGE -email EMAIL         - add a student")
	fmt.Fprintln(cli.out, "  add-instructor -id ID -name NAME -age AGE -email EMAIL      - add an instructor")
	fmt.Fprintln(cli.out, "  add-course -id ID -name NAME [-instructor ID]               - add a course")
	fmt.Fprintln(cli.out, "  enroll -course ID -student ID                              - enroll a student in a course")
	fmt.Fprintln(cli.out, "  register -student ID -course ID                            - register a course for a student")
	fmt.Fprintln(cli.out, "  assign -instructor ID -course ID                           - assign a course to an instructor")
	fmt.Fprintln(cli.out, "  list -kind KIND [-ordering FIELDS]                         - list the records of a kind")
	fmt.Fprintln(cli.out, "  search -kind KIND -q TEXT                                  - search records by name or id")
	fmt.Fprintln(cli.out, "  show -kind KIND -id ID                                     - show a record and its courses or students")
	fmt.Fprintln(cli.out, "  update -kind KIND -id ID [-name] [-age] [-email] [-instructor] - edit a record")
	fmt.Fprintln(cli.out, "  delete -kind KIND -id ID [-yes]                            - delete a record")
	fmt.Fprintln(cli.out, "  export -format json|csv|xlsx [-o FILE] [-kind KIND]        - export every record")
	fmt.Fprintln(cli.out, "  import -i FILE [-format json|xlsx] [-upsert]               - import records")
	fmt.Fprintln(cli.out, "  save -o FILE                                               - save a binary snapshot")
	fmt.Fprintln(cli.out, "  load -i FILE [-upsert]                                     - load a binary snapshot")
	fmt.Fprintln(cli.out, "  view                                                       - print the whole database")
	fmt.Fprintln(cli.out, "KIND is one of student, instructor, course.")
}

func (cli *commandLine) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return errHelp
		}
		return err
	}
	return nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	var err error
	switch cmd, rest := args[1], args[2:]; cmd {
	case "migrate":
		err = cli.migrate(rest)
	case "add-student", "add-instructor":
		err = cli.addPerson(cmd, rest)
	case "add-course":
		err = cli.addCourse(rest)
	case "enroll", "register":
		err = cli.enroll(cmd, rest)
	case "assign":
		err = cli.assign(rest)
	case "list", "search":
		err = cli.list(cmd, rest)
	case "show":
		err = cli.show(rest)
	case "update":
		err = cli.update(rest)
	case "delete":
		err = cli.delete(rest)
	case "export":
		err = cli.export(rest)
	case "import", "load":
		err = cli.importFile(cmd, rest)
	case "save":
		err = cli.save(rest)
	case "view":
		err = cli.view()
	default:
		cli.printUsage()
		return errHelp
	}

	if core.IsNotFound(err) {
		cli.suggest(err)
	}
	return err
}

func parseKind(s string) (string, error) {
	return school.ParseKind(s)
}

// confirm asks the user on a terminal; elsewhere the answer is yes.
func (cli *commandLine) confirm(question string) error {
	if !isTerminalFunc(int(os.Stdin.Fd())) {
		return nil
	}
	fmt.Fprintf(cli.out, "%s [y/N]: ", question)
	answer, err := bufio.NewReader(cli.in).ReadString('\n')
	if err != nil && err != io.EOF {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	}
	return errAborted
}
