package postgres

import (
	"critical-approve/internal/config"
	"critical-approve/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open – connects to postgres and migrates the approval tables
func Open(cfg config.Postgres) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.ActionType{},
		&models.ApprovalRequest{},
		&models.Approver{},
		&models.StatusTransition{},
		&models.ApprovalReminder{},
		&models.User{},
	)
}
