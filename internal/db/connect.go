package db

import (
	"fmt"
	"net/url"
	"os"

	"github.com/go-sql-driver/mysql"
	"github.com/neume/monitor/internal/config"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteDSN builds a go-sqlite3 DSN for path. Every commit is fsynced
// (synchronous=FULL) and writers wait on a busy lock instead of failing.
func SQLiteDSN(path string) string {
	q := url.Values{}
	q.Set("_journal_mode", "WAL")
	q.Set("_synchronous", "FULL")
	q.Set("_busy_timeout", "5000")
	return "file:" + path + "?" + q.Encode()
}

// MySQLDSN builds a MySQL-compatible DSN for the configured database. An
// empty database selects none, used for CREATE/DROP DATABASE.
func MySQLDSN(sc config.StoreConfig, database string) string {
	mc := mysql.NewConfig()
	mc.User = sc.User
	mc.Passwd = sc.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", sc.Host, sc.Port)
	mc.DBName = database
	mc.ParseTime = true
	return mc.FormatDSN()
}

// Connect opens a GORM connection to the configured record store.
func Connect(sc config.StoreConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	var target string
	switch sc.Driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(SQLiteDSN(sc.Path))
		target = sc.Path
	case config.DriverMySQL:
		dialector = gormmysql.Open(MySQLDSN(sc, sc.Database))
		target = fmt.Sprintf("%s:%d/%s", sc.Host, sc.Port, sc.Database)
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", sc.Driver)
	}

	db, err := gorm.Open(dialector, gormConfig())
	if err != nil {
		return nil, fmt.Errorf("db: connect to %s: %w", target, err)
	}
	return db, nil
}

// ConnectAdmin opens a GORM connection to the MySQL server without selecting
// a specific database, used for CREATE DATABASE operations.
func ConnectAdmin(sc config.StoreConfig) (*gorm.DB, error) {
	db, err := gorm.Open(gormmysql.Open(MySQLDSN(sc, "")), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("db: admin connect to %s:%d: %w", sc.Host, sc.Port, err)
	}
	return db, nil
}

// Close releases the connection pool behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("db: close: %w", err)
	}
	return sqlDB.Close()
}

// Ping verifies the store is reachable.
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("db: ping: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("db: ping: %w", err)
	}
	return nil
}

// DropDatabase drops the named database if it exists.
func DropDatabase(adminDB *gorm.DB, name string) error {
	sql := fmt.Sprintf("DROP DATABASE IF EXISTS `%s`", name)
	if err := adminDB.Exec(sql).Error; err != nil {
		return fmt.Errorf("db: drop database %s: %w", name, err)
	}
	return nil
}

// CreateDatabase creates the named database if it doesn't already exist.
func CreateDatabase(adminDB *gorm.DB, name string) error {
	sql := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", name)
	if err := adminDB.Exec(sql).Error; err != nil {
		return fmt.Errorf("db: create database %s: %w", name, err)
	}
	return nil
}

// RemoveSQLiteFiles deletes a sqlite database file and its WAL sidecars.
// Missing files are not an error.
func RemoveSQLiteFiles(path string) error {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("db: remove %s: %w", p, err)
		}
	}
	return nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		// Samples and events may reference sessions that were never created
		// or already deleted; the relation is kept on the models only.
		DisableForeignKeyConstraintWhenMigrating: true,
	}
}
