package main

import (
	"context"
)

func (cli *commandLine) migrate(args []string) error {
	if len(args) == 0 {
		cli.printUsage()
		return errHelp
	}
	if cli.db == nil {
		return errNoSQL
	}
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return migrateFunc(context.Background(), cli.db, args[0], arguments...)
}
