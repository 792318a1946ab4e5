package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, "https://myrient.erista.me/files/", cfg.RootURL)
	assert.Equal(t, 5, cfg.NumWorkers)
	assert.Equal(t, 500*time.Millisecond, cfg.DelayDuration)
	assert.Equal(t, 30*time.Second, cfg.TimeoutDuration)
	assert.Equal(t, 5*time.Second, cfg.IdleTimeoutDuration)
	assert.Equal(t, []string{"zip"}, cfg.TargetExtensions)
	assert.Equal(t, "myrient_zip_links.txt", cfg.OutputFile)
	assert.Equal(t, "crawler.log", cfg.LogFile)
	assert.Equal(t, "exact", cfg.Visited)
	assert.Equal(t, defaultUserAgent, cfg.UserAgent)
	assert.False(t, cfg.Verbose)
}

func TestParse_Flags(t *testing.T) {
	cfg, err := Parse([]string{
		"-u", "HTTP://Example.COM/pub",
		"-n", "8",
		"-d", "0",
		"-e", ".ZIP, 7z,,",
		"-o", "-",
		"-v",
		"--visited", "bloom",
	})
	require.NoError(t, err)

	assert.Equal(t, "http://example.com/pub/", cfg.RootURL)
	assert.Equal(t, []string{"pub"}, cfg.Root.Segments)
	assert.Equal(t, 8, cfg.NumWorkers)
	assert.Zero(t, cfg.DelayDuration)
	assert.Equal(t, []string{"zip", "7z"}, cfg.TargetExtensions)
	assert.Equal(t, "-", cfg.OutputFile)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "bloom", cfg.Visited)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		field string
	}{
		{"zero workers", []string{"--workers=0"}, "workers"},
		{"negative delay", []string{"--delay=-1"}, "delay"},
		{"zero timeout", []string{"--timeout=0"}, "timeout"},
		{"zero idle timeout", []string{"--idle-timeout=0"}, "idle-timeout"},
		{"zero body size", []string{"--max-body-size=0"}, "max-body-size"},
		{"no extensions", []string{"--extensions= , "}, "extensions"},
		{"ftp url", []string{"--url=ftp://example.com/files/"}, "url"},
		{"relative url", []string{"--url=/files/"}, "url"},
		{"bloom fp", []string{"--visited=bloom", "--bloom-fp=1"}, "bloom-fp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.args)
			require.Error(t, err)

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestParse_UnknownChoice(t *testing.T) {
	_, err := Parse([]string{"--visited=redis"})
	assert.Error(t, err)
}

func TestParse_Version(t *testing.T) {
	cfg, err := Parse([]string{"-V", "--workers=0"})
	require.NoError(t, err)
	assert.True(t, cfg.Version)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crawler.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParse_ConfigFile(t *testing.T) {
	path := writeConfig(t, `
url: http://mirror.example/roms/
workers: 12
delay: 0.25
extensions: zip,7z
verbose: true
fetch-log: fetch.jsonl
`)

	cfg, err := Parse([]string{"-c", path})
	require.NoError(t, err)

	assert.Equal(t, "http://mirror.example/roms/", cfg.RootURL)
	assert.Equal(t, 12, cfg.NumWorkers)
	assert.Equal(t, 250*time.Millisecond, cfg.DelayDuration)
	assert.Equal(t, []string{"zip", "7z"}, cfg.TargetExtensions)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "fetch.jsonl", cfg.FetchLogFile)
	assert.Equal(t, "myrient_zip_links.txt", cfg.OutputFile)
}

func TestParse_CommandLineOverridesConfigFile(t *testing.T) {
	path := writeConfig(t, `
workers: 12
output: from-file.txt
`)

	cfg, err := Parse([]string{"--config", path, "--workers", "3"})
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.NumWorkers)
	assert.Equal(t, "from-file.txt", cfg.OutputFile)
}

func TestParse_ConfigFileErrors(t *testing.T) {
	var cfgErr *ConfigError

	_, err := Parse([]string{"-c", filepath.Join(t.TempDir(), "missing.yaml")})
	require.ErrorAs(t, err, &cfgErr)

	_, err = Parse([]string{"-c", writeConfig(t, "threads: 4\n")})
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "config", cfgErr.Field)

	_, err = Parse([]string{"-c", writeConfig(t, "workers: 0\n")})
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "workers", cfgErr.Field)
}

func TestParse_EmptyConfigFile(t *testing.T) {
	cfg, err := Parse([]string{"-c", writeConfig(t, "")})
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.NumWorkers)
}
