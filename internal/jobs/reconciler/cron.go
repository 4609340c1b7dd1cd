package reconciler

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// NewCron создает планировщик: паника задачи не роняет процесс, пересекающиеся проходы пропускаются
func NewCron(logger Logger) *cron.Cron {
	l := cronLogger{log: logger}
	return cron.New(
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)
}

// cronLogger адаптер Logger к cron.Logger
type cronLogger struct {
	log Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	// cron пишет в Info каждый запуск, оставляем только пропуски
	if msg == "skip" {
		l.log.Warn("Cron: %s%s", msg, formatKV(keysAndValues))
	}
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("Cron: %s: %v%s", msg, err, formatKV(keysAndValues))
}

func formatKV(kv []interface{}) string {
	if len(kv) == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
	}
	return b.String()
}
