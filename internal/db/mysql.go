package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"forumhub/internal/model"
)

// NewMySQL returns a connected GORM DB instance. Driver errors are translated so
// duplicate-key violations surface as gorm.ErrDuplicatedKey.
func NewMySQL(dsn string, log *zap.Logger) (*gorm.DB, error) {
	db, err := Open(mysql.Open(dsn), log)
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("mysql pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// Open opens dialector with the settings every environment shares. configure
// may adjust the config before the connection is opened.
func Open(dialector gorm.Dialector, log *zap.Logger, configure ...func(*gorm.Config)) (*gorm.DB, error) {
	cfg := &gorm.Config{
		TranslateError: true,
		Logger:         NewGormLogger(log),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
	for _, fn := range configure {
		fn(cfg)
	}
	return gorm.Open(dialector, cfg)
}

// Migrate creates or updates every table. When reset is true the tables are dropped
// first, children before parents.
func Migrate(db *gorm.DB, reset bool, log *zap.Logger) error {
	models := model.All()

	if reset {
		log.Warn("RESET_DB set, dropping all tables")
		for i := len(models) - 1; i >= 0; i-- {
			if err := db.Migrator().DropTable(models[i]); err != nil {
				log.Warn("drop table failed", zap.Error(err))
			}
		}
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
