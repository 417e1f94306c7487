//go:build wireinject
// +build wireinject

package main

import (
	"clinicflow/subscription-service/internal/biz"
	"clinicflow/subscription-service/internal/conf"
	"clinicflow/subscription-service/internal/data"

	"github.com/google/wire"
)

// wireApp init the cron application.
func wireApp(*conf.Bootstrap) (*CronApp, func(), error) {
	panic(wire.Build(
		newLogger,
		data.ProviderSet,
		biz.ProviderSet,
		wire.Struct(new(CronApp), "*"),
	))
}
