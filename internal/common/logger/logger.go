package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

type level int

const (
	levelDebug level = iota
	levelInfo
	levelError
)

func parseLevel(s string) level {
	switch strings.ToLower(s) {
	case "debug":
		return levelDebug
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

type Logger struct {
	service   string
	min       level
	requestID string
}

func New(service string) *Logger { return &Logger{service: service, min: levelInfo} }

// NewWithLevel filters out entries below min ("debug" | "info" | "error").
func NewWithLevel(service, min string) *Logger {
	return &Logger{service: service, min: parseLevel(min)}
}

// WithRequestID returns a copy that stamps every entry with the request id.
func (l *Logger) WithRequestID(id string) *Logger {
	cp := *l
	cp.requestID = id
	return &cp
}

func (l *Logger) log(lv level, name, action string, fields map[string]any, err error) {
	if lv < l.min {
		return
	}
	entry := map[string]any{
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		"level":      name,
		"service":    l.service,
		"action":     action,
		"message":    action,
		"hostname":   hostname(),
		"request_id": l.requestID,
	}
	for k, v := range fields {
		entry[k] = v
	}
	if err != nil {
		entry["error"] = map[string]any{"msg": err.Error(), "stack": fmt.Sprintf("%T", err)}
	}
	_ = json.NewEncoder(os.Stdout).Encode(entry)
}

func (l *Logger) Info(action string, fields map[string]any)  { l.log(levelInfo, "INFO", action, fields, nil) }
func (l *Logger) Debug(action string, fields map[string]any) { l.log(levelDebug, "DEBUG", action, fields, nil) }
func (l *Logger) Error(action string, err error, fields map[string]any) {
	l.log(levelError, "ERROR", action, fields, err)
}

func hostname() string { h, _ := os.Hostname(); return h }
