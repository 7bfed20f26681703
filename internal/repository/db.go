package repository

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ventanaops/ventana/internal/config"
	"github.com/ventanaops/ventana/internal/domain"
	"github.com/ventanaops/ventana/internal/logger"
)

// InitDB opens the database described by cfg, applies schema repairs for
// databases created by earlier versions, and runs auto-migration.
func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "postgres":
		dialector = postgres.New(postgres.Config{
			DSN:                  cfg.DSN(),
			PreferSimpleProtocol: true,
		})
	case "sqlite", "":
		dialector = sqlite.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if cfg.Driver == "sqlite" || cfg.Driver == "" {
		// WAL keeps readers from blocking the upsert path.
		db.Exec("PRAGMA journal_mode=WAL")
		db.Exec("PRAGMA foreign_keys=ON")
		db.Exec("PRAGMA busy_timeout=5000")
	}

	if cfg.AutoMigrate {
		if err := EnsureSchema(db); err != nil {
			return nil, fmt.Errorf("schema repair failed: %w", err)
		}
		if err := db.AutoMigrate(
			&domain.Carrier{},
			&domain.Client{},
			&domain.Service{},
			&domain.ScheduledTask{},
			&domain.ServiceTaskLink{},
			&domain.PendingService{},
			&domain.Incident{},
			&domain.Camera{},
			&domain.CameraAccess{},
			&domain.Conversation{},
		); err != nil {
			return nil, fmt.Errorf("auto-migration failed: %w", err)
		}
	}

	logger.Info("database initialized (driver=%s)", cfg.Driver)

	return db, nil
}

// EnsureSchema patches databases created by earlier versions so that
// auto-migration can apply today's constraints. Missing columns are added
// and duplicate (carrier_id, internal_id) task rows are collapsed before
// the unique index over that pair is created.
func EnsureSchema(db *gorm.DB) error {
	m := db.Migrator()

	if m.HasTable(&domain.Service{}) {
		for _, col := range []string{"client_id", "carrier_name", "carrier_code", "carrier_id", "tracking_path", "trackings", "cameras"} {
			if !m.HasColumn(&domain.Service{}, col) {
				if err := m.AddColumn(&domain.Service{}, col); err != nil {
					return fmt.Errorf("add services.%s: %w", col, err)
				}
				logger.Info("added missing column services.%s", col)
			}
		}
	}

	if m.HasTable(&domain.ScheduledTask{}) {
		for _, col := range []string{"carrier_id", "internal_id"} {
			if !m.HasColumn(&domain.ScheduledTask{}, col) {
				if err := m.AddColumn(&domain.ScheduledTask{}, col); err != nil {
					return fmt.Errorf("add scheduled_tasks.%s: %w", col, err)
				}
			}
		}
		if !m.HasIndex(&domain.ScheduledTask{}, "uix_carrier_internal") {
			if err := collapseDuplicateTasks(db); err != nil {
				return err
			}
		}
	}

	return nil
}

type duplicateTaskGroup struct {
	CarrierID  uint
	InternalID string
	KeepID     uint
}

// collapseDuplicateTasks merges scheduled tasks sharing the same
// (carrier_id, internal_id) pair onto the lowest task id, re-homing service
// links and pending rows, so the unique index can be created.
func collapseDuplicateTasks(db *gorm.DB) error {
	var groups []duplicateTaskGroup
	err := db.Raw(`
		SELECT carrier_id, internal_id, MIN(id) AS keep_id
		FROM scheduled_tasks
		WHERE carrier_id IS NOT NULL AND internal_id IS NOT NULL AND internal_id <> ''
		GROUP BY carrier_id, internal_id
		HAVING COUNT(*) > 1`).Scan(&groups).Error
	if err != nil {
		return fmt.Errorf("scan duplicate tasks: %w", err)
	}
	if len(groups) == 0 {
		return nil
	}

	m := db.Migrator()
	removed := 0
	for _, g := range groups {
		var dupIDs []uint
		err := db.Model(&domain.ScheduledTask{}).
			Where("carrier_id = ? AND internal_id = ? AND id <> ?", g.CarrierID, g.InternalID, g.KeepID).
			Pluck("id", &dupIDs).Error
		if err != nil {
			return fmt.Errorf("list duplicate tasks: %w", err)
		}
		if len(dupIDs) == 0 {
			continue
		}
		if m.HasTable(&domain.ServiceTaskLink{}) {
			// Links that would collide with ones already on the kept task
			// are dropped; the rest follow the kept id.
			var keptServiceIDs []uint
			if err := db.Model(&domain.ServiceTaskLink{}).
				Where("task_id = ?", g.KeepID).
				Pluck("service_id", &keptServiceIDs).Error; err != nil {
				return err
			}
			if len(keptServiceIDs) > 0 {
				if err := db.Where("task_id IN ? AND service_id IN ?", dupIDs, keptServiceIDs).
					Delete(&domain.ServiceTaskLink{}).Error; err != nil {
					return err
				}
			}
			if err := db.Model(&domain.ServiceTaskLink{}).
				Where("task_id IN ?", dupIDs).
				Update("task_id", g.KeepID).Error; err != nil {
				return err
			}
		}
		if m.HasTable(&domain.PendingService{}) {
			if err := db.Model(&domain.PendingService{}).
				Where("task_id IN ?", dupIDs).
				Update("task_id", g.KeepID).Error; err != nil {
				return err
			}
		}
		if err := db.Where("id IN ?", dupIDs).Delete(&domain.ScheduledTask{}).Error; err != nil {
			return err
		}
		removed += len(dupIDs)
	}

	logger.With(logger.Fields{logger.FieldCount: removed}).
		Info(nil, "collapsed duplicate scheduled tasks")
	return nil
}
