package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/scribe/pkg/cache"
	"github.com/matzehuels/scribe/pkg/config"
	"github.com/matzehuels/scribe/pkg/errors"
	"github.com/matzehuels/scribe/pkg/observability"
	"github.com/matzehuels/scribe/pkg/preview"
)

// Sheet returns the part of the bed covered by the paper.
func Sheet(cfg config.Config) preview.Frame {
	p := cfg.Page
	return preview.Frame{
		MinX: p.XOffset,
		MinY: 0,
		MaxX: p.XOffset + p.Width,
		MaxY: p.BedHeight - p.YOffset,
	}
}

// Preview renders page (starting at 1) of a generated program as svg or png.
// Renderings of cached programs are cached as well.
func (r *Runner) Preview(ctx context.Context, res *Result, cfg config.Config, format string, page int) ([]byte, error) {
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}
	if format == FormatGCode {
		return res.Program.Bytes(), nil
	}

	var key string
	if res.Key != "" {
		key = r.Keyer.PreviewKey(res.Key, fmt.Sprintf("%s:%d", format, page))
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "preview")
			return data, nil
		}
		observability.Cache().OnCacheMiss(ctx, "preview")
	}

	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnPreviewStart(ctx, format)
	data, err := renderPreview(res, cfg, format, page)
	hooks.OnPreviewComplete(ctx, format, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	if key != "" {
		if err := r.Cache.Set(ctx, key, data, cache.PreviewTTL); err != nil {
			r.Logger.Warn("cache write failed", "key", key, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "preview", len(data))
		}
	}
	return data, nil
}

func renderPreview(res *Result, cfg config.Config, format string, page int) ([]byte, error) {
	if res == nil || res.Program == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no program to preview")
	}
	pages := preview.Trace(res.Program.Lines, cfg.Machine())
	opts := []preview.Option{preview.WithPage(page)}
	if format == FormatPNG {
		return preview.PNG(pages, Sheet(cfg), opts...)
	}
	return preview.SVG(pages, Sheet(cfg), opts...)
}
