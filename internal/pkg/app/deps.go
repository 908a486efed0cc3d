package app

import (
	"github.com/ciricc/bridgetx-store/internal/pkg/di"
	"github.com/samber/do"
)

func ProvideCommonDeps(i *do.Injector) {
	do.Provide(i, di.NewConfig)
	do.Provide(i, di.NewLogger)
	do.Provide(i, di.NewShutdowner)
}

func ProvideStorageDeps(i *do.Injector) {
	do.Provide(i, di.NewCodec)
	do.Provide(i, di.NewRedisClient)
	do.Provide(i, di.NewLevelDB)
	do.Provide(i, di.NewInMemoryStore)
	do.Provide(i, di.NewKeyValueStore)
}

func ProvideTxStoreDeps(i *do.Injector) {
	do.Provide(i, di.NewGuard)
	do.Provide(i, di.NewKafkaSyncProducer)
	do.Provide(i, di.NewEventPublisher)
	do.Provide(i, di.NewTxStore)
	do.Provide(i, di.NewAccountIndex)
}

func ProvideTransportDeps(i *do.Injector) {
	do.Provide(i, di.NewHTTPHandlers)
	do.Provide(i, di.NewHTTPServer)
	do.Provide(i, di.NewHealthHandlers)
	do.Provide(i, di.NewGRPCServer)
}
