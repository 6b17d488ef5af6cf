package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"net/url"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/trezcool/kumbukumbu/core"
)

//go:embed migrations
var migrations embed.FS

// dsn builds the data source name of dbName for the configured engine.
func dsn(dbName string, admin bool, conf *core.Config) (string, error) {
	dbConf := conf.Database
	usr, pwd := dbConf.User, dbConf.Password
	if admin && dbConf.AdminUser != "" {
		usr, pwd = dbConf.AdminUser, dbConf.AdminPassword
	}

	switch dbConf.Engine {
	case core.EngineSQLite:
		return fmt.Sprintf("file:%s?_foreign_keys=on", dbName), nil

	case core.EnginePostgres:
		sslMode := "require"
		if dbConf.DisableTLS {
			sslMode = "disable"
		}
		q := make(url.Values)
		q.Set("sslmode", sslMode)
		q.Set("timezone", "utc")

		u := url.URL{
			Scheme:   dbConf.Engine,
			User:     url.UserPassword(usr, pwd),
			Host:     dbConf.Address(),
			Path:     dbName,
			RawQuery: q.Encode(),
		}
		return u.String(), nil

	case core.EngineMySQL:
		mc := mysql.NewConfig()
		mc.User = usr
		mc.Passwd = pwd
		mc.Net = "tcp"
		mc.Addr = dbConf.Address()
		mc.DBName = dbName
		mc.ParseTime = true
		mc.Loc = time.UTC
		if !dbConf.DisableTLS {
			mc.TLSConfig = "true"
		}
		return mc.FormatDSN(), nil
	}
	return "", errors.Errorf("unsupported database engine %q", dbConf.Engine)
}

func open(dbName string, admin bool, conf *core.Config) (*sqlx.DB, error) {
	src, err := dsn(dbName, admin, conf)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Open(conf.Database.Engine, src)
	if err != nil {
		return nil, err
	}
	if conf.Database.Engine == core.EngineSQLite {
		// sqlite allows a single writer
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// Open opens the configured SQL database and waits for it to answer.
func Open(conf *core.Config) (*sqlx.DB, error) {
	db, err := open(conf.Database.Name, false, conf)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err = ping(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sql.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

func exists(db *sqlx.DB, query string, args ...interface{}) (bool, error) {
	var found bool
	err := db.QueryRow(db.Rebind(query), args...).Scan(&found)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return found, err
}

func createPostgresAppUser(db *sqlx.DB, conf *core.Config) error {
	if conf.Database.User == "" {
		return nil
	}
	found, err := exists(db, "SELECT true FROM pg_roles WHERE rolname = ?", conf.Database.User)
	if err != nil {
		return errors.Wrap(err, "checking app user")
	}
	if !found {
		q := fmt.Sprintf("CREATE USER %s CREATEDB ENCRYPTED PASSWORD '%s'", conf.Database.User, conf.Database.Password)
		if _, err = db.Exec(q); err != nil {
			return errors.Wrap(err, "creating app user")
		}
	}
	return nil
}

func createPostgresDB(db *sqlx.DB, conf *core.Config) error {
	found, err := exists(db, "SELECT true FROM pg_database WHERE datname = ?", conf.Database.Name)
	if err != nil {
		return errors.Wrap(err, "checking DB")
	}
	if !found {
		if _, err = db.Exec(fmt.Sprintf("CREATE DATABASE %s", conf.Database.Name)); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	return nil
}

// CreateIfNotExist creates the configured database (and, for postgres, the app user).
// sqlite creates its file on first open.
func CreateIfNotExist(conf *core.Config) error {
	switch conf.Database.Engine {
	case core.EngineSQLite:
		return nil

	case core.EnginePostgres:
		// connect as admin
		db, err := open("postgres", true, conf)
		if err != nil {
			return errors.Wrap(err, "opening database")
		}
		defer func() { _ = db.Close() }()
		if err = ping(db.DB); err != nil {
			return errors.Wrap(err, "pinging database")
		}
		if err = createPostgresAppUser(db, conf); err != nil {
			return errors.Wrap(err, "creating app user")
		}

		// create DB as app user
		appDB, err := open("postgres", false, conf)
		if err != nil {
			return errors.Wrap(err, "opening database")
		}
		defer func() { _ = appDB.Close() }()
		return createPostgresDB(appDB, conf)

	case core.EngineMySQL:
		db, err := open("", true, conf)
		if err != nil {
			return errors.Wrap(err, "opening database")
		}
		defer func() { _ = db.Close() }()
		if err = ping(db.DB); err != nil {
			return errors.Wrap(err, "pinging database")
		}
		if _, err = db.Exec(fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", conf.Database.Name)); err != nil {
			return errors.Wrap(err, "creating database")
		}
		return nil
	}
	return errors.Errorf("unsupported database engine %q", conf.Database.Engine)
}

func dialect(db *sqlx.DB) (string, error) {
	switch name := db.DriverName(); name {
	case core.EngineSQLite, core.EnginePostgres, core.EngineMySQL:
		return name, nil
	default:
		return "", errors.Errorf("no migrations for driver %q", name)
	}
}

// RunMigrations runs the goose command (up, down, status, version, redo, reset...) against db.
func RunMigrations(ctx context.Context, db *sqlx.DB, command string, args ...string) error {
	d, err := dialect(db)
	if err != nil {
		return err
	}
	goose.SetBaseFS(migrations)
	if err = goose.SetDialect(d); err != nil {
		return errors.Wrap(err, "setting migrations dialect")
	}
	if err = goose.RunContext(ctx, command, db.DB, "migrations/"+d, args...); err != nil {
		return errors.Wrapf(err, "running migrations %s", command)
	}
	return nil
}

// Migrate brings the schema up to date.
func Migrate(db *sqlx.DB) error {
	if err := RunMigrations(context.Background(), db, "up"); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}
