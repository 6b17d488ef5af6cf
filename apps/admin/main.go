package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/user"

	"github.com/rollbar/rollbar-go"

	"github.com/trezcool/kumbukumbu/core"
	"github.com/trezcool/kumbukumbu/core/school"
	logsvc "github.com/trezcool/kumbukumbu/services/logger"
	"github.com/trezcool/kumbukumbu/storage"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up storage
	store, err := storage.Open(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}

	// start CLI
	cli := commandLine{
		svc: school.NewService(store.Repo),
		db:  store.DB,
		in:  os.Stdin,
		out: os.Stdout,
	}
	err = cli.run(os.Args)
	if cErr := store.Close(); cErr != nil {
		logger.Error("closing storage", cErr)
	}
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("%s: %v", os.Args[1], err), err, currentActor())
		}
		rollbar.Wait()
		os.Exit(1)
	}
	rollbar.Wait()
}

// currentActor is the OS user running the command.
func currentActor() school.Actor {
	usr, err := user.Current()
	if err != nil {
		return school.Actor{}
	}
	return school.Actor{ID: usr.Uid, Name: usr.Username}
}
