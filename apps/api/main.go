package main

import (
	"context"
	"expvar"
	"flag"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/rollbar/rollbar-go"

	dig_container "github.com/trezcool/kumbukumbu/apps/api/di/dig"
	echoapi "github.com/trezcool/kumbukumbu/apps/api/echo"
	"github.com/trezcool/kumbukumbu/core"
	"github.com/trezcool/kumbukumbu/core/school"
	logsvc "github.com/trezcool/kumbukumbu/services/logger"
	"github.com/trezcool/kumbukumbu/storage"
)

func main() {
	useDig := flag.Bool("dig", false, "Build the dependencies with the dig container.")
	flag.Parse()

	if *useDig {
		startWithDig()
	} else {
		startManual()
	}
	rollbar.Wait()
}

func startManual() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up storage
	store, err := storage.Open(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}
	defer func() {
		if err = store.Close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:    conf,
			Logger:  logger,
			Service: school.NewService(store.Repo),
		},
	)
	run(conf, logger, server)
}

func startWithDig() {
	c := dig_container.New(nil)

	err := c.Invoke(func(conf *core.Config, logger core.Logger, dbLoggerParam dig_container.DBLoggerParam, store *storage.Store, server echoapi.Server) {
		defer func() {
			if err := store.Close(); err != nil {
				dbLoggerParam.Logger.Error("Failed to close", err)
			}
		}()
		run(conf, logger, server)
	})
	if err != nil {
		log.Fatal(err)
	}
}

// run serves until the server fails or is asked to shut down.
func run(conf *core.Config, logger core.Logger, server echoapi.Server) {
	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q, storage %q", conf.Build, conf.Database.Engine))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("storage").Set(conf.Database.Engine)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shut down and shed load
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
