package store

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/spigell/smart-hr/internal/domain"
	"github.com/spigell/smart-hr/internal/errors"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"

	defaultDSN = "smart-hr.db"
	// sqliteParams enables foreign keys, WAL and a busy timeout on every pooled connection.
	sqliteParams = "_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"
)

type Config struct {
	Driver       string `mapstructure:"driver"`
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max-open-conns"`
	LogSQL       bool   `mapstructure:"log-sql"`
}

// Store is the persistence layer for jobs and applications. Every read that
// takes an owner id is tenant scoped.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

// Open connects to the configured database.
func Open(cfg Config, logger *zap.Logger) (*gorm.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	dsn := strings.TrimSpace(cfg.DSN)

	var dialector gorm.Dialector
	switch driver {
	case "", DriverSQLite:
		driver = DriverSQLite
		if dsn == "" {
			dsn = defaultDSN
		}
		dialector = sqlite.Open(withSQLiteParams(dsn))
	case DriverMySQL:
		if dsn == "" {
			return nil, errors.New("database.dsn is required for the mysql driver")
		}
		dialector = mysql.Open(dsn)
	default:
		return nil, errors.Newf("unsupported database driver: %s", cfg.Driver)
	}

	gormLog := gormlogger.Discard
	if cfg.LogSQL {
		gormLog = gormlogger.New(zap.NewStdLog(logger.Named("sql")), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Info,
			IgnoreRecordNotFoundError: true,
		})
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", driver)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.Wrap(err, "access connection pool")
		}
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	logger.Info("database opened", zap.String("driver", driver))

	return db, nil
}

func withSQLiteParams(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn
	}
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	return dsn + "?" + sqliteParams
}

func New(db *gorm.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Migrate creates or updates the jobs and applications tables.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&domain.Job{}, &domain.Application{}); err != nil {
		return errors.Wrap(err, "migrate schema")
	}
	s.logger.Info("schema migrated")
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ownedJobIDs is a subquery selecting the ids of jobs owned by ownerID.
func (s *Store) ownedJobIDs(ctx context.Context, ownerID string) *gorm.DB {
	return s.db.WithContext(ctx).Model(&domain.Job{}).Select("id").Where("owner_id = ?", ownerID)
}

func notFoundOr(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.NewNotFoundError(format, args...)
	}
	return errors.Wrapf(err, format, args...)
}
