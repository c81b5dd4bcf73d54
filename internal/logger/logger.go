package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var Log *logrus.Logger

// Init инициализирует структурированный логгер.
// В production пишем JSON, в development читаемый текст.
func Init(level string, development bool) {
	Log = logrus.New()
	Log.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	if development {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		return
	}
	Log.SetFormatter(&logrus.JSONFormatter{})
}

// L возвращает глобальный логгер; до Init (например, в тестах) отдаёт немой логгер.
func L() *logrus.Logger {
	if Log != nil {
		return Log
	}
	silent := logrus.New()
	silent.SetOutput(io.Discard)
	return silent
}
