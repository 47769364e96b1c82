package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// Transient is one row of the shared cache table: an opaque value with an
// absolute expiry, the usual CMS transient shape.
type Transient struct {
	Key       string `gorm:"primaryKey"`
	Value     []byte
	ExpiresAt time.Time `gorm:"index"`
}

// Postgres stores cache entries in a transient table so the shared tier
// survives restarts and is visible to every worker.
type Postgres struct {
	db *gorm.DB

	done      chan struct{}
	closeOnce sync.Once
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.New(
			log.Default(),
			logger.Config{
				SlowThreshold:             10 * time.Second,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
		NamingStrategy: schema.NamingStrategy{
			TablePrefix: "plants_",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := db.AutoMigrate(&Transient{}); err != nil {
		return nil, fmt.Errorf("auto migration failed: %w", err)
	}

	p := &Postgres{db: db, done: make(chan struct{})}
	go p.purgeLoop()
	return p, nil
}

// DB exposes the underlying gorm handle so callers can attach plugins.
func (p *Postgres) DB() *gorm.DB {
	return p.db
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var t Transient
	err := p.db.WithContext(ctx).
		Where("key = ? AND expires_at > ?", key, time.Now()).
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("transient get: %w", err)
	}
	return t.Value, nil
}

func (p *Postgres) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	t := Transient{
		Key:       key,
		Value:     value,
		ExpiresAt: time.Now().Add(ttl),
	}
	err := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at"}),
	}).Create(&t).Error
	if err != nil {
		return fmt.Errorf("transient set: %w", err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	if err := p.db.WithContext(ctx).Delete(&Transient{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("transient delete: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.closeOnce.Do(func() {
		close(p.done)
	})
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// purgeLoop deletes expired transients once a minute.
func (p *Postgres) purgeLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case now := <-ticker.C:
			if err := p.db.Delete(&Transient{}, "expires_at <= ?", now).Error; err != nil {
				log.Printf("Failed to purge expired transients: %v", err)
			}
		}
	}
}
