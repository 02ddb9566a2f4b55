package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"darkwave/pkg/domain"
)

const migrateLockID int64 = 51170417

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db        *gorm.DB
	projects  *gormTable[domain.Project, ProjectModel]
	blogPosts *gormTable[domain.BlogPost, BlogPostModel]
	messages  *gormTable[domain.ContactMessage, MessageModel]
}

// NewGormStore opens the DB and runs auto-migrations. Every network step is
// bounded by ctx.
func NewGormStore(ctx context.Context, dsn string) (*GormStore, error) {
	db, err := OpenGorm(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := withMigrationLock(ctx, db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&ProjectModel{}, &BlogPostModel{}, &MessageModel{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}); err != nil {
		closeGorm(db)
		return nil, err
	}
	return newGormStore(db), nil
}

// OpenGorm connects to the DB and pings it within ctx. It does not touch
// the schema.
func OpenGorm(ctx context.Context, dsn string) (*gorm.DB, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog, DisableAutomaticPing: true})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

func closeGorm(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func newGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db: db,
		projects: &gormTable[domain.Project, ProjectModel]{
			db: db, name: domain.KindProjects.Collection,
			toModel: projectToModel, fromModel: projectFromModel,
		},
		blogPosts: &gormTable[domain.BlogPost, BlogPostModel]{
			db: db, name: domain.KindBlogPosts.Collection,
			toModel: blogPostToModel, fromModel: blogPostFromModel,
		},
		messages: &gormTable[domain.ContactMessage, MessageModel]{
			db: db, name: domain.KindMessages.Collection,
			toModel: messageToModel, fromModel: messageFromModel,
		},
	}
}

func withMigrationLock(ctx context.Context, db *gorm.DB, fn func(*gorm.DB) error) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(context.WithoutCancel(ctx), conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db.WithContext(ctx))
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

func (s *GormStore) Projects() Table[domain.Project]        { return s.projects }
func (s *GormStore) BlogPosts() Table[domain.BlogPost]      { return s.blogPosts }
func (s *GormStore) Messages() Table[domain.ContactMessage] { return s.messages }

// Ping checks that the database answers.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// gormTable maps one entity type onto its GORM model.
type gormTable[T domain.Entity, M any] struct {
	db        *gorm.DB
	name      string
	toModel   func(T) M
	fromModel func(M) T
}

func (t *gormTable[T, M]) List(ctx context.Context) ([]T, error) {
	var models []M
	if err := t.db.WithContext(ctx).Order("date DESC").Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", t.name, err)
	}
	res := make([]T, 0, len(models))
	for _, m := range models {
		res = append(res, t.fromModel(m))
	}
	return res, nil
}

func (t *gormTable[T, M]) Get(ctx context.Context, id string) (T, bool, error) {
	var zero T
	var model M
	if err := t.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return zero, false, nil
		}
		return zero, false, fmt.Errorf("get %s: %w", t.name, err)
	}
	return t.fromModel(model), true, nil
}

func (t *gormTable[T, M]) Insert(ctx context.Context, v T) (T, error) {
	model := t.toModel(v)
	if err := t.db.WithContext(ctx).Create(&model).Error; err != nil {
		var zero T
		return zero, fmt.Errorf("insert %s: %w", t.name, err)
	}
	return t.fromModel(model), nil
}

func (t *gormTable[T, M]) Update(ctx context.Context, id string, patch domain.Patch[T]) (T, bool, error) {
	var (
		out   T
		found bool
	)
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current M
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&current, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		found = true
		merged := patch.Apply(t.fromModel(current))
		updated := t.toModel(merged)
		if err := tx.Model(&current).Select("*").Omit("id", "created_at").Updates(&updated).Error; err != nil {
			return err
		}
		out = merged
		return nil
	})
	if err != nil {
		var zero T
		return zero, false, fmt.Errorf("update %s: %w", t.name, err)
	}
	return out, found, nil
}

func (t *gormTable[T, M]) Delete(ctx context.Context, id string) (bool, error) {
	res := t.db.WithContext(ctx).Delete(new(M), "id = ?", id)
	if res.Error != nil {
		return false, fmt.Errorf("delete %s: %w", t.name, res.Error)
	}
	return res.RowsAffected > 0, nil
}
