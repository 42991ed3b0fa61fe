package logger

import (
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

type Logger struct {
	*logrus.Entry
}

// New builds the process logger: pretty console output in development,
// JSON elsewhere. Level comes from LOG_LEVEL.
func New(env string) *Logger {
	base := logrus.New()

	if env == "" || env == "development" {
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339Nano,
		})
	} else {
		base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	}

	base.SetOutput(os.Stdout)

	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		base.SetLevel(logrus.DebugLevel)
	case "warn":
		base.SetLevel(logrus.WarnLevel)
	case "error":
		base.SetLevel(logrus.ErrorLevel)
	default:
		base.SetLevel(logrus.InfoLevel)
	}

	return &Logger{Entry: logrus.NewEntry(base)}
}

// WithRequest attaches request metadata and returns an entry.
func (l *Logger) WithRequest(r *http.Request) *logrus.Entry {
	return l.WithFields(logrus.Fields{
		"req_id": r.Header.Get("X-Request-ID"),
		"method": r.Method,
		"path":   r.URL.Path,
	})
}

// WithVideo tags an entry with the correlation id of one pipeline run.
func (l *Logger) WithVideo(videoID string) *logrus.Entry {
	return l.WithField("video_id", videoID)
}
