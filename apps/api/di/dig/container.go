package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/kumbukumbu/apps/api/echo"
	"github.com/trezcool/kumbukumbu/core"
	"github.com/trezcool/kumbukumbu/core/school"
	logsvc "github.com/trezcool/kumbukumbu/services/logger"
	"github.com/trezcool/kumbukumbu/storage"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newStore(conf *core.Config, loggerParam DBLoggerParam) (*storage.Store, school.Repository, error) {
	store, err := storage.Open(context.Background(), conf)
	if err != nil {
		loggerParam.Logger.Error(fmt.Sprintf("setting up storage: %v", err), err)
		return nil, nil, err
	}
	return store, store.Repo, nil
}

func newServerDeps(conf *core.Config, logger core.Logger, svc *school.Service) echoapi.ServerDeps {
	return echoapi.ServerDeps{Conf: conf, Logger: logger, Service: svc}
}

// New returns a new dependency injection dig.Container; newConfig defaults to core.NewConfig.
func New(newConfig func() *core.Config) *dig.Container {
	if newConfig == nil {
		newConfig = core.NewConfig
	}
	c := dig.New()

	must(c.Provide(newConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStore))
	must(c.Provide(school.NewService))
	must(c.Provide(newServerDeps))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
