package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks reports pipeline and cache events to a logger at debug level.
type LogHooks struct {
	Logger *log.Logger
}

func (h LogHooks) OnGenerateStart(_ context.Context, font string, chars int) {
	h.Logger.Debug("generate start", "font", font, "chars", chars)
}

func (h LogHooks) OnGenerateComplete(_ context.Context, font string, pages int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("generate failed", "font", font, "duration", d, "err", err)
		return
	}
	h.Logger.Debug("generate complete", "font", font, "pages", pages, "duration", d)
}

func (h LogHooks) OnPreviewStart(_ context.Context, format string) {
	h.Logger.Debug("preview start", "format", format)
}

func (h LogHooks) OnPreviewComplete(_ context.Context, format string, d time.Duration, err error) {
	h.Logger.Debug("preview complete", "format", format, "duration", d, "err", err)
}

func (h LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}

var (
	_ PipelineHooks = LogHooks{}
	_ CacheHooks    = LogHooks{}
)
