package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every event to a charm logger at debug level.
// Failures are logged at warn.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks creates hooks that log to logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{logger: logger}
}

func (h *LogHooks) done(msg string, err error, kv ...any) {
	if err != nil {
		h.logger.Warn(msg, append(kv, "error", err)...)
		return
	}
	h.logger.Debug(msg, kv...)
}

func (h *LogHooks) OnGenerateStart(_ context.Context, model string) {
	h.logger.Debug("generation started", "model", model)
}

func (h *LogHooks) OnGenerateComplete(_ context.Context, model string, d time.Duration, err error) {
	h.done("generation finished", err, "model", model, "duration", d)
}

func (h *LogHooks) OnLoadStart(_ context.Context, engine string) {
	h.logger.Debug("engine load started", "engine", engine)
}

func (h *LogHooks) OnLoadComplete(_ context.Context, engine string, d time.Duration, err error) {
	h.done("engine load finished", err, "engine", engine, "duration", d)
}

func (h *LogHooks) OnRenderStart(_ context.Context, engine, id string) {
	h.logger.Debug("render started", "engine", engine, "id", id)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, engine, id string, d time.Duration, err error) {
	h.done("render finished", err, "engine", engine, "id", id, "duration", d)
}

func (h *LogHooks) OnRenderDiscarded(_ context.Context, engine, id string) {
	h.logger.Debug("stale render discarded", "engine", engine, "id", id)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "size", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("http response", "method", method, "host", host, "path", path, "status", status, "duration", d)
}

func (h *LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Warn("http error", "method", method, "host", host, "path", path, "error", err)
}

var _ AllHooks = (*LogHooks)(nil)
