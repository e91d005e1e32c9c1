package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// DatabaseSettings describes how to reach the relational store.
type DatabaseSettings struct {
	Driver string
	DSN    string
}

// LoadDatabaseSettings builds the DSN from the environment. Postgres deployments
// (Supabase) pass a full DATABASE_URL; MySQL keeps the DB_* variables.
func LoadDatabaseSettings() (DatabaseSettings, error) {
	driver := strings.ToLower(strings.TrimSpace(os.Getenv("DB_DRIVER")))
	if driver == "" {
		driver = DriverMySQL
	}

	switch driver {
	case DriverPostgres:
		dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
		if dsn == "" {
			return DatabaseSettings{}, &MissingSettingsError{Keys: []string{"DATABASE_URL"}}
		}
		return DatabaseSettings{Driver: driver, DSN: dsn}, nil
	case DriverMySQL:
		var missing []string
		values := map[string]string{}
		for _, key := range []string{"DB_HOST", "DB_PORT", "DB_DATABASE", "DB_USERNAME"} {
			v := strings.TrimSpace(os.Getenv(key))
			if v == "" {
				missing = append(missing, key)
			}
			values[key] = v
		}
		if len(missing) > 0 {
			return DatabaseSettings{}, &MissingSettingsError{Keys: missing}
		}
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			values["DB_USERNAME"],
			os.Getenv("DB_PASSWORD"),
			values["DB_HOST"],
			values["DB_PORT"],
			values["DB_DATABASE"],
		)
		return DatabaseSettings{Driver: driver, DSN: dsn}, nil
	default:
		return DatabaseSettings{}, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

// OpenDB connects with the gorm logger wired to LogWriter.
func OpenDB(settings DatabaseSettings) (*gorm.DB, error) {
	environment := strings.ToLower(os.Getenv("ENVIRONMENT"))
	debugSQL := strings.ToLower(os.Getenv("DEBUG_SQL"))

	// In production, suppress SQL logs unless explicitly re-enabled via DEBUG_SQL=true.
	logLevel := logger.Info
	if environment == "production" && debugSQL != "true" {
		logLevel = logger.Warn
	}

	cfg := &gorm.Config{
		Logger: logger.New(
			log.New(LogWriter, "\r\n", log.LstdFlags),
			logger.Config{LogLevel: logLevel},
		),
	}

	var dialector gorm.Dialector
	switch settings.Driver {
	case DriverPostgres:
		dialector = postgres.Open(settings.DSN)
	case DriverMySQL, "":
		dialector = mysql.Open(settings.DSN)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", settings.Driver)
	}

	return gorm.Open(dialector, cfg)
}

// InitDB connects the package-level DB or exits the process.
func InitDB() {
	settings, err := LoadDatabaseSettings()
	if err != nil {
		log.Fatal("Database is not configured: ", err)
	}

	DB, err = OpenDB(settings)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	log.Printf("Database connected successfully (%s)", settings.Driver)
}

// DialectName returns the gorm dialect of db, or "" for nil.
func DialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return ""
	}
	return db.Dialector.Name()
}

// MissingSettingsError lists required environment keys that were empty.
type MissingSettingsError struct {
	Keys []string
}

func (e *MissingSettingsError) Error() string {
	if e == nil {
		return ""
	}
	return "missing required settings: " + strings.Join(e.Keys, ", ")
}

// IsMissingSettings reports whether err is a MissingSettingsError.
func IsMissingSettings(err error) bool {
	var target *MissingSettingsError
	return errors.As(err, &target)
}
