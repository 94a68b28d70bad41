package store

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Config holds database connection configuration.
type Config struct {
	Driver   string // "sqlite" or "mysql"
	Path     string // sqlite file path
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// Record is the persisted keyed blob. Idempotent upserts keyed by Key
// make replayed writes safe.
type Record struct {
	Key       string    `gorm:"column:record_key;type:varchar(191);primaryKey"`
	Value     []byte    `gorm:"column:record_value;type:blob;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for Record.
func (Record) TableName() string {
	return "championship_records"
}

type gormKV struct {
	db *gorm.DB
}

// NewGorm opens the configured database, runs migrations, and returns a
// durable Store.
func NewGorm(cfg Config) (Store, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var db *gorm.DB
	var err error
	switch cfg.Driver {
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)
		db, err = gorm.Open(mysql.Open(dsn), gormConfig)
	case "sqlite", "":
		path := cfg.Path
		if path == "" {
			path = "championship.db"
		}
		db, err = gorm.Open(sqlite.Open(path), gormConfig)
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if cfg.Driver == "mysql" {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	} else {
		// SQLite serializes writers; a single connection avoids lock
		// contention errors under the concurrent match runners.
		sqlDB.SetMaxOpenConns(1)
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("failed to migrate store schema: %w", err)
	}

	log.Println("[STORE] Database connected and migrations completed")
	return codec{&gormKV{db: db}}, nil
}

func (g *gormKV) put(key string, value []byte) error {
	record := Record{Key: key, Value: value}
	return g.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "record_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"record_value", "updated_at"}),
	}).Create(&record).Error
}

func (g *gormKV) get(key string) ([]byte, error) {
	var record Record
	if err := g.db.Where("record_key = ?", key).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, err
	}
	return record.Value, nil
}

func (g *gormKV) list(prefix string) ([][]byte, error) {
	var records []Record
	if err := g.db.Where("record_key LIKE ?", prefix+"%").Order("record_key ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([][]byte, 0, len(records))
	for _, record := range records {
		out = append(out, record.Value)
	}
	return out, nil
}

func (g *gormKV) clear() error {
	return g.db.Where("1 = 1").Delete(&Record{}).Error
}
