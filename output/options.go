package output

import (
	"log/slog"

	"github.com/muesli/termenv"

	"github.com/ansel1/prettyspec/config"
	"github.com/ansel1/prettyspec/output/format"
)

// Option configures a Reporter.
type Option func(*Reporter)

// WithConfig sets the palette, limits and color settings.
func WithConfig(cfg config.Config) Option {
	return func(r *Reporter) {
		r.cfg = cfg
	}
}

// WithColorProfile forces a color profile instead of detecting one from the
// output writer.
func WithColorProfile(p termenv.Profile) Option {
	return func(r *Reporter) {
		r.profile = &p
	}
}

// WithLiveOutput controls whether the header, progress line and stop
// separator are written. Disable it when another view (the TUI) shows live
// progress; the final report is always written.
func WithLiveOutput(live bool) Option {
	return func(r *Reporter) {
		r.live = live
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reporter) {
		r.logger = l
	}
}

// WithWorkDir sets the directory relative example locations resolve against.
func WithWorkDir(dir string) Option {
	return func(r *Reporter) {
		r.workDir = dir
	}
}

// palette merges configured colors over the defaults.
func palette(p config.Palette) format.Palette {
	out := format.DefaultPalette()
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&out.Header, p.Header)
	set(&out.Success, p.Success)
	set(&out.Failure, p.Failure)
	set(&out.Pending, p.Pending)
	set(&out.Muted, p.Muted)
	set(&out.Border, p.Border)
	set(&out.ProgressEmpty, p.ProgressEmpty)
	set(&out.TableHeaderFg, p.TableHeaderFg)
	set(&out.TableHeaderBg, p.TableHeaderBg)
	return out
}

func limits(cfg config.Config) format.Limits {
	return format.Limits{
		SlowestCount:     cfg.SlowestCount,
		DescriptionWidth: cfg.DescriptionWidth,
		LocationWidth:    cfg.LocationWidth,
		MessageLines:     cfg.MessageLines,
		ShowBacktrace:    cfg.ShowBacktrace,
	}
}
