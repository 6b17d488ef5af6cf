package storage

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/kumbukumbu/core"
	"github.com/trezcool/kumbukumbu/core/school"
	"github.com/trezcool/kumbukumbu/storage/database"
	inmemdb "github.com/trezcool/kumbukumbu/storage/database/inmem"
	redisrepos "github.com/trezcool/kumbukumbu/storage/database/redis"
	sqlxrepos "github.com/trezcool/kumbukumbu/storage/database/sqlx"
)

// Store is the persistence gateway selected by the configured engine.
type Store struct {
	Repo school.Repository
	DB   *sqlx.DB // nil unless the engine is SQL

	close func() error
}

// Open connects to the configured engine and ensures its schema exists.
func Open(ctx context.Context, conf *core.Config) (*Store, error) {
	var store *Store

	switch engine := conf.Database.Engine; {
	case conf.Database.IsSQL():
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, errors.Wrap(err, "creating database")
		}
		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}
		store = &Store{Repo: sqlxrepos.NewSchoolRepository(db), DB: db, close: db.Close}

	case engine == core.EngineRedis:
		client, err := redisrepos.Open(ctx, conf)
		if err != nil {
			return nil, err
		}
		repo, err := redisrepos.NewSchoolRepository(client, conf.Redis.Prefix)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		store = &Store{Repo: repo, close: client.Close}

	case engine == core.EngineMemory:
		store = &Store{Repo: inmemdb.NewSchoolRepository(inmemdb.Open())}

	default:
		return nil, errors.Errorf("unsupported database engine %q", engine)
	}

	if err := store.Repo.CreateSchema(ctx); err != nil {
		_ = store.Close()
		return nil, errors.Wrap(err, "creating schema")
	}
	return store, nil
}

func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}
