package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/WangYihang/index-crawler/pkg/domain/entity"
	"github.com/WangYihang/index-crawler/pkg/infrastructure/urlservice"
	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Config holds all application configuration
type Config struct {
	// Crawling
	URL         string  `short:"u" long:"url" description:"Root URL of the file index" default:"https://myrient.erista.me/files/"`
	NumWorkers  int     `short:"n" long:"workers" description:"Number of concurrent workers" default:"5"`
	Delay       float64 `short:"d" long:"delay" description:"Delay before each request in seconds, per worker" default:"0.5"`
	Extensions  string  `short:"e" long:"extensions" description:"Comma separated target file extensions" default:"zip"`
	IdleTimeout float64 `long:"idle-timeout" description:"Seconds a worker waits on an empty queue before re-checking for completion" default:"5"`

	// HTTP
	UserAgent   string  `long:"user-agent" description:"HTTP User-Agent header"`
	Timeout     float64 `long:"timeout" description:"HTTP request timeout in seconds" default:"30"`
	MaxBodySize int64   `long:"max-body-size" description:"Maximum index page size in bytes" default:"16777216"`

	// Dedup
	Visited   string  `long:"visited" description:"Visited set backend" choice:"exact" choice:"bloom" default:"exact"`
	BloomSize uint    `long:"bloom-size" description:"Bloom filter size (number of expected directories)" default:"1000000"`
	BloomFP   float64 `long:"bloom-fp" description:"Bloom filter false positive rate" default:"0.001"`

	// Output
	OutputFile   string `short:"o" long:"output" description:"Output file for target URLs, - for stdout" default:"myrient_zip_links.txt"`
	LogFile      string `long:"log-file" description:"Log file, empty to disable" default:"crawler.log"`
	FetchLogFile string `long:"fetch-log" description:"JSON lines log of every fetch, empty to disable"`
	MetricsAddr  string `long:"metrics-addr" description:"Serve prometheus metrics on this address, empty to disable"`
	Verbose      bool   `short:"v" long:"verbose" description:"Enable debug logging"`

	// UI
	ShowDashboard bool `long:"dashboard" description:"Show interactive TUI dashboard"`
	ShowProgress  bool `long:"progress" description:"Show a progress bar on stderr"`

	// Modes
	Probe      bool   `long:"probe" description:"Only check that the root URL is reachable, then exit"`
	ConfigFile string `short:"c" long:"config" description:"YAML file with option values; command line flags take precedence"`
	Version    bool   `short:"V" long:"version" description:"Print version and exit"`

	// Derived after validation
	RootURL             string
	Root                entity.RootScope
	TargetExtensions    []string
	DelayDuration       time.Duration
	TimeoutDuration     time.Duration
	IdleTimeoutDuration time.Duration
}

// ConfigError reports an invalid configuration value
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ParseFlags parses command line flags
func ParseFlags() (*Config, error) {
	cfg, err := Parse(os.Args[1:])
	if err != nil {
		if flags.WroteHelp(err) {
			// Help text travels in the error
			fmt.Fprintln(os.Stdout, err)
			os.Exit(0)
		}
		return nil, err
	}
	return cfg, nil
}

// Parse parses args, overlays the optional YAML config file and validates
// the result
func Parse(args []string) (*Config, error) {
	cfg := &Config{UserAgent: defaultUserAgent}

	parser := flags.NewParser(cfg, flags.HelpFlag|flags.PassDoubleDash)
	parser.Usage = "[OPTIONS]"

	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}

	if cfg.Version {
		return cfg, nil
	}

	if cfg.ConfigFile != "" {
		if err := cfg.loadFile(parser, cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fileConfig mirrors the long flag names; nil fields were absent from the file
type fileConfig struct {
	URL           *string  `yaml:"url"`
	NumWorkers    *int     `yaml:"workers"`
	Delay         *float64 `yaml:"delay"`
	Extensions    *string  `yaml:"extensions"`
	IdleTimeout   *float64 `yaml:"idle-timeout"`
	UserAgent     *string  `yaml:"user-agent"`
	Timeout       *float64 `yaml:"timeout"`
	MaxBodySize   *int64   `yaml:"max-body-size"`
	Visited       *string  `yaml:"visited"`
	BloomSize     *uint    `yaml:"bloom-size"`
	BloomFP       *float64 `yaml:"bloom-fp"`
	OutputFile    *string  `yaml:"output"`
	LogFile       *string  `yaml:"log-file"`
	FetchLogFile  *string  `yaml:"fetch-log"`
	MetricsAddr   *string  `yaml:"metrics-addr"`
	Verbose       *bool    `yaml:"verbose"`
	ShowDashboard *bool    `yaml:"dashboard"`
	ShowProgress  *bool    `yaml:"progress"`
}

func (c *Config) loadFile(parser *flags.Parser, path string) error {
	fh, err := os.Open(path)
	if err != nil {
		return &ConfigError{Field: "config", Reason: err.Error()}
	}
	defer fh.Close()

	var fc fileConfig
	dec := yaml.NewDecoder(fh)
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return &ConfigError{Field: "config", Reason: fmt.Sprintf("decode %s: %v", path, err)}
	}

	overlay(parser, "url", fc.URL, &c.URL)
	overlay(parser, "workers", fc.NumWorkers, &c.NumWorkers)
	overlay(parser, "delay", fc.Delay, &c.Delay)
	overlay(parser, "extensions", fc.Extensions, &c.Extensions)
	overlay(parser, "idle-timeout", fc.IdleTimeout, &c.IdleTimeout)
	overlay(parser, "user-agent", fc.UserAgent, &c.UserAgent)
	overlay(parser, "timeout", fc.Timeout, &c.Timeout)
	overlay(parser, "max-body-size", fc.MaxBodySize, &c.MaxBodySize)
	overlay(parser, "visited", fc.Visited, &c.Visited)
	overlay(parser, "bloom-size", fc.BloomSize, &c.BloomSize)
	overlay(parser, "bloom-fp", fc.BloomFP, &c.BloomFP)
	overlay(parser, "output", fc.OutputFile, &c.OutputFile)
	overlay(parser, "log-file", fc.LogFile, &c.LogFile)
	overlay(parser, "fetch-log", fc.FetchLogFile, &c.FetchLogFile)
	overlay(parser, "metrics-addr", fc.MetricsAddr, &c.MetricsAddr)
	overlay(parser, "verbose", fc.Verbose, &c.Verbose)
	overlay(parser, "dashboard", fc.ShowDashboard, &c.ShowDashboard)
	overlay(parser, "progress", fc.ShowProgress, &c.ShowProgress)
	return nil
}

// overlay copies value into dst unless the flag was given on the command line
func overlay[T any](parser *flags.Parser, longName string, value *T, dst *T) {
	if value == nil {
		return
	}
	if opt := parser.FindOptionByLongName(longName); opt != nil && opt.IsSet() && !opt.IsSetDefault() {
		return
	}
	*dst = *value
}

// Validate validates the configuration and fills the derived fields
func (c *Config) Validate() error {
	if c.NumWorkers < 1 {
		return &ConfigError{Field: "workers", Reason: fmt.Sprintf("must be >= 1, got %d", c.NumWorkers)}
	}

	if c.Delay < 0 {
		return &ConfigError{Field: "delay", Reason: fmt.Sprintf("must be >= 0, got %g", c.Delay)}
	}

	if c.Timeout <= 0 {
		return &ConfigError{Field: "timeout", Reason: fmt.Sprintf("must be > 0, got %g", c.Timeout)}
	}

	if c.IdleTimeout <= 0 {
		return &ConfigError{Field: "idle-timeout", Reason: fmt.Sprintf("must be > 0, got %g", c.IdleTimeout)}
	}

	if c.MaxBodySize <= 0 {
		return &ConfigError{Field: "max-body-size", Reason: fmt.Sprintf("must be > 0, got %d", c.MaxBodySize)}
	}

	switch c.Visited {
	case "exact":
	case "bloom":
		if c.BloomSize == 0 {
			return &ConfigError{Field: "bloom-size", Reason: "must be > 0"}
		}
		if c.BloomFP <= 0 || c.BloomFP >= 1 {
			return &ConfigError{Field: "bloom-fp", Reason: fmt.Sprintf("must be between 0 and 1, got %g", c.BloomFP)}
		}
	default:
		return &ConfigError{Field: "visited", Reason: fmt.Sprintf("must be exact or bloom, got %q", c.Visited)}
	}

	if c.OutputFile == "" {
		return &ConfigError{Field: "output", Reason: "must not be empty"}
	}

	extensions := urlservice.ParseExtensions(c.Extensions)
	if len(extensions) == 0 {
		return &ConfigError{Field: "extensions", Reason: fmt.Sprintf("no extension in %q", c.Extensions)}
	}

	root, err := urlservice.NewRootScope(c.URL)
	if err != nil {
		return &ConfigError{Field: "url", Reason: err.Error()}
	}

	c.Root = root
	c.RootURL = root.URL()
	c.TargetExtensions = extensions
	c.DelayDuration = seconds(c.Delay)
	c.TimeoutDuration = seconds(c.Timeout)
	c.IdleTimeoutDuration = seconds(c.IdleTimeout)
	return nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
