// Package migrations содержит схему БД и применяет её через goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var files embed.FS

// ErrMigrate возвращается при ошибке применения миграций
var ErrMigrate = errors.New("migrations: failed to apply migrations")

// Logger интерфейс логгера для вывода goose
type Logger interface {
	Info(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Up применяет все непримененные миграции
func Up(ctx context.Context, db *sql.DB, log Logger) error {
	goose.SetBaseFS(files)
	defer goose.SetBaseFS(nil)

	if log != nil {
		goose.SetLogger(gooseLogger{log: log})
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("%w: set dialect: %v", ErrMigrate, err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("%w: %v", ErrMigrate, err)
	}

	return nil
}

// gooseLogger перенаправляет вывод goose в логгер сервиса.
// Fatalf не завершает процесс: ошибка вернется из Up.
type gooseLogger struct {
	log Logger
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.log.Error(format, v...)
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.log.Info(format, v...)
}
