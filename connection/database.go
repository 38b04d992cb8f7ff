package connection

import (
	"fmt"

	"dunzo/services"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite":
		if dsn == "" {
			dsn = "dunzo.db"
		}
		return sqlite.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
}

// DBConnection opens the configured database and migrates the schema.
func DBConnection(cfg Config) (*gorm.DB, error) {
	d, err := dialector(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(d, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.DBDriver, err)
	}
	if cfg.DBDriver == "sqlite" {
		// sqlite allows one writer at a time.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := services.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return db, nil
}
