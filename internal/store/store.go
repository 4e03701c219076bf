// Package store is the relational cache of the file-derived records.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gomysql "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tony-c3a/tony-mission-control/internal/config"
	"github.com/tony-c3a/tony-mission-control/internal/model"
)

const batchSize = 200

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store { return &Store{db: db} }

// Open connects to the configured backend and migrates the schema.
func Open(cfg config.DatabaseConfig) (*Store, error) {
	var (
		db  *gorm.DB
		err error
	)
	gcfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}
	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite":
		db, err = openSQLite(cfg, gcfg)
	case "mysql":
		db, err = openMySQL(cfg, gcfg)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	s := New(db)
	if err := s.Migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// openSQLite opens the file in WAL mode so readers don't block on the writer,
// and bounds lock waits with busy_timeout.
func openSQLite(cfg config.DatabaseConfig, gcfg *gorm.Config) (*gorm.DB, error) {
	if dir := filepath.Dir(cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d", cfg.Path, cfg.BusyTimeoutMS)
	db, err := gorm.Open(sqlite.Open(dsn), gcfg)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
	}
	return db, nil
}

func openMySQL(cfg config.DatabaseConfig, gcfg *gorm.Config) (*gorm.DB, error) {
	mc := gomysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mc.DBName = cfg.Name
	mc.ParseTime = true

	connector, err := gomysql.NewConnector(mc)
	if err != nil {
		return nil, fmt.Errorf("create connector: %w", err)
	}
	sqlDB := sql.OpenDB(connector)
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return gorm.Open(mysql.New(mysql.Config{Conn: sqlDB}), gcfg)
}

func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// upsert inserts rows, overwriting every column of an existing row with the
// same primary key.
func upsert[T any](ctx context.Context, db *gorm.DB, key string, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: key}}, UpdateAll: true}).
		CreateInBatches(rows, batchSize).Error
}

func (s *Store) UpsertTimeEntries(ctx context.Context, entries []model.TimeEntry) error {
	if err := upsert(ctx, s.db, "id", entries); err != nil {
		return fmt.Errorf("upsert time entries: %w", err)
	}
	return nil
}

func (s *Store) UpsertIdeas(ctx context.Context, ideas []model.Idea) error {
	if err := upsert(ctx, s.db, "id", ideas); err != nil {
		return fmt.Errorf("upsert ideas: %w", err)
	}
	return nil
}

func (s *Store) UpsertWorkouts(ctx context.Context, days []model.WorkoutDay) error {
	if err := upsert(ctx, s.db, "id", days); err != nil {
		return fmt.Errorf("upsert workouts: %w", err)
	}
	return nil
}

func (s *Store) UpsertWhoopDays(ctx context.Context, days []model.WhoopDay) error {
	if err := upsert(ctx, s.db, "date", days); err != nil {
		return fmt.Errorf("upsert whoop days: %w", err)
	}
	return nil
}

// ReplaceTimeDay swaps the rows of one day file for entries in one
// transaction, so entries removed from the file leave the table too.
func (s *Store) ReplaceTimeDay(ctx context.Context, date string, entries []model.TimeEntry) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("date = ?", date).Delete(&model.TimeEntry{}).Error; err != nil {
			return err
		}
		return upsert(ctx, tx, "id", entries)
	})
	if err != nil {
		return fmt.Errorf("replace time entries %s: %w", date, err)
	}
	return nil
}

// ReplaceTodos clears the todos table and inserts todos in one transaction.
func (s *Store) ReplaceTodos(ctx context.Context, todos []model.Todo) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.Todo{}).Error; err != nil {
			return err
		}
		if len(todos) == 0 {
			return nil
		}
		return tx.CreateInBatches(todos, batchSize).Error
	})
	if err != nil {
		return fmt.Errorf("replace todos: %w", err)
	}
	return nil
}

// TimeFilter narrows a time entry query. Zero fields don't filter.
type TimeFilter struct {
	From     string // inclusive day key
	To       string // inclusive day key
	Category string
}

// TimeEntries returns matching entries ordered by start.
func (s *Store) TimeEntries(ctx context.Context, f TimeFilter) ([]model.TimeEntry, error) {
	q := s.db.WithContext(ctx).Model(&model.TimeEntry{})
	if f.From != "" {
		q = q.Where("date >= ?", f.From)
	}
	if f.To != "" {
		q = q.Where("date <= ?", f.To)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	var entries []model.TimeEntry
	if err := q.Order("start").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("query time entries: %w", err)
	}
	return entries, nil
}

func (s *Store) Ideas(ctx context.Context) ([]model.Idea, error) {
	var ideas []model.Idea
	if err := s.db.WithContext(ctx).Order("timestamp DESC").Find(&ideas).Error; err != nil {
		return nil, fmt.Errorf("query ideas: %w", err)
	}
	return ideas, nil
}

func (s *Store) Todos(ctx context.Context) ([]model.Todo, error) {
	var todos []model.Todo
	if err := s.db.WithContext(ctx).Order("source, title").Find(&todos).Error; err != nil {
		return nil, fmt.Errorf("query todos: %w", err)
	}
	return todos, nil
}

func (s *Store) Workouts(ctx context.Context) ([]model.WorkoutDay, error) {
	var days []model.WorkoutDay
	if err := s.db.WithContext(ctx).Order("date").Find(&days).Error; err != nil {
		return nil, fmt.Errorf("query workouts: %w", err)
	}
	return days, nil
}

func (s *Store) WhoopDays(ctx context.Context) ([]model.WhoopDay, error) {
	var days []model.WhoopDay
	if err := s.db.WithContext(ctx).Order("date").Find(&days).Error; err != nil {
		return nil, fmt.Errorf("query whoop days: %w", err)
	}
	return days, nil
}

// Counts returns the row count of every table, keyed by table name.
func (s *Store) Counts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, m := range model.All() {
		table := m.(interface{ TableName() string }).TableName()
		var n int64
		if err := s.db.WithContext(ctx).Model(m).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}
