// Package logger provides a singleton Zap logger with context-based scoping.
//
// Inicialización (una vez en main.go):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
//	defer logger.Sync()
//
// En controllers/services (con contexto):
//
//	log := logger.From(ctx)
//	log.Info("session issued", logger.UserID(uid), logger.Platform(p))
package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	once     sync.Once
	instance *zap.Logger
)

// Init inicializa el logger singleton. Es idempotente: solo la primera
// llamada tiene efecto.
func Init(cfg Config) {
	once.Do(func() {
		instance = build(cfg)
	})
}

// L retorna el logger singleton.
// Si Init() no fue llamado, crea uno por defecto (dev, info).
func L() *zap.Logger {
	if instance == nil {
		Init(Config{Env: "dev", Level: "info"})
	}
	return instance
}

// Named retorna un logger con un nombre de componente.
func Named(name string) *zap.Logger {
	return L().Named(name)
}

// With retorna un logger con campos adicionales persistentes.
func With(fields ...zap.Field) *zap.Logger {
	return L().With(fields...)
}

// S retorna el SugaredLogger del singleton, para logs printf-style.
func S() *zap.SugaredLogger {
	return L().Sugar()
}

// Sync flushea cualquier buffer pendiente. Llamar con defer en main.go.
func Sync() error {
	if instance != nil {
		return instance.Sync()
	}
	return nil
}
