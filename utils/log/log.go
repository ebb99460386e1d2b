package log

import (
	"os"

	"github.com/sirupsen/logrus"
)

var logger = logrus.New()

func init() {
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if lvl, err := logrus.ParseLevel(os.Getenv("OTTER_LOG_LEVEL")); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
}

func Info(args ...interface{})                 { logger.Info(args...) }
func Infof(format string, args ...interface{}) { logger.Infof(format, args...) }

func Warn(args ...interface{})                 { logger.Warn(args...) }
func Warnf(format string, args ...interface{}) { logger.Warnf(format, args...) }

func Error(args ...interface{})                 { logger.Error(args...) }
func Errorf(format string, args ...interface{}) { logger.Errorf(format, args...) }

func Debugf(format string, args ...interface{}) { logger.Debugf(format, args...) }

func Fatal(args ...interface{})                 { logger.Fatal(args...) }
func Fatalf(format string, args ...interface{}) { logger.Fatalf(format, args...) }
