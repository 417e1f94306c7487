package data

import (
	"context"
	"fmt"

	"clinicflow/subscription-service/internal/biz"
	"clinicflow/subscription-service/internal/conf"
	"clinicflow/subscription-service/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(
	NewData,
	NewDB,
	NewRedis,
	NewRedsync,
	NewSubscriptionRepo,
	NewSubscriptionHistoryRepo,
	NewPatientCounter,
	wire.Bind(new(biz.Transaction), new(*Data)),
)

// Data .
type Data struct {
	db  *gorm.DB
	rdb *redis.Client
}

type contextTxKey struct{}

// Exec runs fn in a transaction; repositories called with the derived
// context join it through DB.
func (d *Data) Exec(ctx context.Context, fn func(ctx context.Context) error) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ctx = context.WithValue(ctx, contextTxKey{}, tx)
		return fn(ctx)
	})
}

// DB returns the transaction bound to ctx, or the base handle.
func (d *Data) DB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(contextTxKey{}).(*gorm.DB); ok {
		return tx
	}
	return d.db.WithContext(ctx)
}

// NewData .
func NewData(c *conf.Bootstrap, logger log.Logger, db *gorm.DB, rdb *redis.Client) (*Data, func(), error) {
	helper := log.NewHelper(logger)
	if c != nil && c.Data != nil && c.Data.Database.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, nil, err
		}
		helper.Info("database schema migrated")
	}
	cleanup := func() {
		helper.Info("closing the data resources")
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		if rdb != nil {
			_ = rdb.Close()
		}
	}
	return &Data{db: db, rdb: rdb}, cleanup, nil
}

// Migrate creates or updates the tables this service owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.AccountSubscription{}, &model.SubscriptionHistory{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// NewDB .
func NewDB(c *conf.Bootstrap) (*gorm.DB, error) {
	if c == nil || c.Data == nil || c.Data.Database.Source == "" {
		return nil, fmt.Errorf("database source is required")
	}
	dbConf := c.Data.Database

	db, err := gorm.Open(mysql.Open(dbConf.Source), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if dbConf.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(dbConf.MaxIdleConns)
	}
	if dbConf.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(dbConf.MaxOpenConns)
	}
	if lifetime, _ := conf.ParseDuration(dbConf.ConnMaxLifetime); lifetime > 0 {
		sqlDB.SetConnMaxLifetime(lifetime)
	}
	return db, nil
}

// NewRedis .
func NewRedis(c *conf.Bootstrap) *redis.Client {
	opts := &redis.Options{Addr: "localhost:6379"}
	if c != nil && c.Data != nil {
		redisConf := c.Data.Redis
		if redisConf.Addr != "" {
			opts.Addr = redisConf.Addr
		}
		opts.Password = redisConf.Password
		opts.DB = int(redisConf.Db)
		opts.PoolSize = int(redisConf.PoolSize)
		opts.DialTimeout, _ = conf.ParseDuration(redisConf.DialTimeout)
		opts.ReadTimeout, _ = conf.ParseDuration(redisConf.ReadTimeout)
		opts.WriteTimeout, _ = conf.ParseDuration(redisConf.WriteTimeout)
	}
	return redis.NewClient(opts)
}

// NewRedsync creates the redsync instance used for per-account locks
func NewRedsync(rdb *redis.Client) *redsync.Redsync {
	pool := goredis.NewPool(rdb)
	return redsync.New(pool)
}
