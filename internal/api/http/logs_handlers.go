package http

import (
	"errors"
	"net/http"
	"sort"

	"github.com/GriffinCanCode/ecoswipe/internal/api/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const maxLogEntries = 200

var errEmptyMessage = errors.New("empty log message")

// PopupLogEntry is one log line written by the extension popup
type PopupLogEntry struct {
	Level   string         `json:"level"`
	Message string         `json:"message"`
	PopupID string         `json:"popup_id,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// LogBatch is a batch of popup log lines
type LogBatch struct {
	Entries []PopupLogEntry `json:"entries"`
}

var popupLevels = map[string]zapcore.Level{
	"debug":   zapcore.DebugLevel,
	"verbose": zapcore.DebugLevel,
	"info":    zapcore.InfoLevel,
	"warn":    zapcore.WarnLevel,
	"warning": zapcore.WarnLevel,
	"error":   zapcore.ErrorLevel,
}

// StreamLogs forwards popup log batches into the bridge log
func (h *Handlers) StreamLogs(c *gin.Context) {
	var batch LogBatch
	if err := c.ShouldBindJSON(&batch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid log request format"})
		return
	}
	if len(batch.Entries) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No log entries provided"})
		return
	}
	if len(batch.Entries) > maxLogEntries {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Too many log entries"})
		return
	}

	logger := h.log.Named("popup")
	if reqID := middleware.GetRequestID(c); reqID != "" {
		logger = logger.With(zap.String("request_id", reqID))
	}
	written := 0
	for _, entry := range batch.Entries {
		if err := writeEntry(logger, entry); err != nil {
			continue
		}
		written++
	}

	c.JSON(http.StatusOK, gin.H{
		"received": len(batch.Entries),
		"written":  written,
	})
}

func writeEntry(logger *zap.Logger, entry PopupLogEntry) error {
	if entry.Message == "" {
		return errEmptyMessage
	}

	level, ok := popupLevels[entry.Level]
	if !ok {
		level = zapcore.InfoLevel
	}

	keys := make([]string, 0, len(entry.Context))
	for k := range entry.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]zap.Field, 0, len(keys)+1)
	if entry.PopupID != "" {
		fields = append(fields, zap.String("popup_id", entry.PopupID))
	}
	for _, k := range keys {
		fields = append(fields, zap.Any(k, entry.Context[k]))
	}

	if ce := logger.Check(level, entry.Message); ce != nil {
		ce.Write(fields...)
	}
	return nil
}
