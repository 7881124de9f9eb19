package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file picked up from the working directory when
// no explicit path is given.
const DefaultFile = ".prettyspec.yaml"

// Input formats.
const (
	FormatNative = "native" // NDJSON lifecycle notifications
	FormatGoTest = "gotest" // go test -json
)

// UI modes.
const (
	UIAuto   = "auto"   // tui on a terminal, inline otherwise
	UIInline = "inline" // single rewritten progress line
	UITUI    = "tui"    // bubbletea live view
)

// Palette holds hex colors. Empty fields keep the default color.
type Palette struct {
	Header        string `yaml:"header"`
	Success       string `yaml:"success"`
	Failure       string `yaml:"failure"`
	Pending       string `yaml:"pending"`
	Muted         string `yaml:"muted"`
	Border        string `yaml:"border"`
	ProgressEmpty string `yaml:"progress_empty"`
	TableHeaderFg string `yaml:"table_header_fg"`
	TableHeaderBg string `yaml:"table_header_bg"`
}

// Config is the reporter configuration.
type Config struct {
	Format           string  `yaml:"format"`
	UI               string  `yaml:"ui"`
	NoColor          bool    `yaml:"no_color"`
	ProgressWidth    int     `yaml:"progress_width"`
	SlowestCount     int     `yaml:"slowest_count"`
	MessageLines     int     `yaml:"message_lines"`
	BacktraceLines   int     `yaml:"backtrace_lines"`
	DescriptionWidth int     `yaml:"description_width"`
	LocationWidth    int     `yaml:"location_width"`
	ShowBacktrace    bool    `yaml:"show_backtrace"`
	Palette          Palette `yaml:"palette"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Format:           FormatNative,
		UI:               UIInline,
		ProgressWidth:    50,
		SlowestCount:     3,
		MessageLines:     10,
		BacktraceLines:   5,
		DescriptionWidth: 50,
		LocationWidth:    30,
	}
}

// Load reads a YAML config file on top of the defaults.
//
// If path is empty, DefaultFile is read when it exists and the defaults are
// returned otherwise.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrapf(err, "reading config %s", path)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

// Validate checks modes and limits.
func (c Config) Validate() error {
	switch c.Format {
	case FormatNative, FormatGoTest:
	default:
		return errors.Errorf("invalid format %q (expected %s|%s)", c.Format, FormatNative, FormatGoTest)
	}

	switch c.UI {
	case UIAuto, UIInline, UITUI:
	default:
		return errors.Errorf("invalid ui mode %q (expected %s|%s|%s)", c.UI, UIAuto, UIInline, UITUI)
	}

	limits := []struct {
		name  string
		value int
	}{
		{"progress_width", c.ProgressWidth},
		{"slowest_count", c.SlowestCount},
		{"message_lines", c.MessageLines},
		{"backtrace_lines", c.BacktraceLines},
		{"description_width", c.DescriptionWidth},
		{"location_width", c.LocationWidth},
	}
	for _, l := range limits {
		if l.value <= 0 {
			return errors.Errorf("%s must be > 0, got %d", l.name, l.value)
		}
	}
	return nil
}
