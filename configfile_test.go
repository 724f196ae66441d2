package cliframe

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestLoadConfigsINI(t *testing.T) {
	s := newTestSettings(t)
	s.AddString([]string{"foo"}, "foo help", "")
	s.AddInteger([]string{"n"}, "n help", 0)

	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "app.conf"), `
[config]
foo = from config
n = 42

[extra]
key = value
`)
	s.SetConfigFiles([]string{path})

	if err := s.LoadConfigs(); err != nil {
		t.Fatalf("LoadConfigs: %v", err)
	}
	if got := s.String("foo"); got != "from config" {
		t.Errorf("foo = %q", got)
	}
	if got := s.Int("n"); got != 42 {
		t.Errorf("n = %d", got)
	}
	if got := s.ExtraConfig()["extra"]["key"]; got != "value" {
		t.Errorf("extra section not preserved: %v", s.ExtraConfig())
	}
}

func TestLoadConfigsUnknownVariable(t *testing.T) {
	s := newTestSettings(t)

	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "app.conf"), `
[config]
no-such-setting = 1
`)
	s.SetConfigFiles([]string{path})

	err := s.LoadConfigs()
	var unknown *UnknownConfigVariableError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownConfigVariableError, got %v", err)
	}
	if unknown.Path != path || unknown.Name != "no-such-setting" {
		t.Fatalf("error does not name file and key: %v", err)
	}
	if !strings.Contains(err.Error(), path) || !strings.Contains(err.Error(), "no-such-setting") {
		t.Fatalf("message does not name file and key: %v", err)
	}
}

func TestLaterConfigFileWins(t *testing.T) {
	s := newTestSettings(t)
	s.AddString([]string{"k"}, "k help", "")

	dir := t.TempDir()
	first := writeFile(t, filepath.Join(dir, "first.conf"), "[config]\nk = first\n")
	second := writeFile(t, filepath.Join(dir, "second.conf"), "[config]\nk = second\n")
	s.SetConfigFiles([]string{first, second})

	if err := s.LoadConfigs(); err != nil {
		t.Fatalf("LoadConfigs: %v", err)
	}
	if got := s.String("k"); got != "second" {
		t.Fatalf("k = %q, want second (last file wins)", got)
	}
}

func TestMissingDefaultConfigSkipped(t *testing.T) {
	s := newTestSettings(t)
	s.SetConfigFiles([]string{"/does/not/exist.conf"})

	if err := s.LoadConfigs(); err != nil {
		t.Fatalf("missing default config should be skipped, got %v", err)
	}
}

func TestMissingRequiredConfigFatal(t *testing.T) {
	s := newTestSettings(t)
	s.SetConfigFiles(nil)
	if _, err := s.ParseArgs([]string{"--config", "/does/not/exist.conf"}, true); err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}

	err := s.LoadConfigs()
	var missing *MissingConfigFileError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingConfigFileError, got %v", err)
	}
	if missing.Path != "/does/not/exist.conf" {
		t.Fatalf("error names wrong path: %v", err)
	}
}

func TestLoadConfigsYAML(t *testing.T) {
	s := newTestSettings(t)
	s.AddString([]string{"name"}, "", "")
	s.AddInteger([]string{"count"}, "", 0)
	s.AddBoolean([]string{"fast"}, "", false)
	s.AddStringList([]string{"items"}, "", nil)
	s.AddByteSize([]string{"max"}, "", 0)

	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "app.yaml"), `
config:
  name: yaml name
  count: 7
  fast: true
  items:
    - one
    - two
  max: 10ki
side:
  token: abc
`)
	s.SetConfigFiles([]string{path})

	if err := s.LoadConfigs(); err != nil {
		t.Fatalf("LoadConfigs: %v", err)
	}
	if got := s.String("name"); got != "yaml name" {
		t.Errorf("name = %q", got)
	}
	if got := s.Int("count"); got != 7 {
		t.Errorf("count = %d", got)
	}
	if !s.Bool("fast") {
		t.Errorf("fast = false")
	}
	assertStrings(t, s.Strings("items"), []string{"one", "two"})
	if got := s.Size("max"); got != 10*1024 {
		t.Errorf("max = %d", got)
	}
	if got := s.ExtraConfig()["side"]["token"]; got != "abc" {
		t.Errorf("side section not preserved: %v", s.ExtraConfig())
	}
}

func TestYAMLMalformed(t *testing.T) {
	s := newTestSettings(t)
	dir := t.TempDir()

	t.Run("not a mapping", func(t *testing.T) {
		path := writeFile(t, filepath.Join(dir, "list.yaml"), "- a\n- b\n")
		s.SetConfigFiles([]string{path})
		var malformed *MalformedConfigError
		if err := s.LoadConfigs(); !errors.As(err, &malformed) {
			t.Fatalf("expected MalformedConfigError, got %v", err)
		}
	})

	t.Run("missing config key", func(t *testing.T) {
		path := writeFile(t, filepath.Join(dir, "nocfg.yaml"), "other:\n  k: v\n")
		s.SetConfigFiles([]string{path})
		var malformed *MalformedConfigError
		if err := s.LoadConfigs(); !errors.As(err, &malformed) {
			t.Fatalf("expected MalformedConfigError, got %v", err)
		}
	})

	t.Run("unknown variable", func(t *testing.T) {
		path := writeFile(t, filepath.Join(dir, "unknown.yaml"), "config:\n  nope: 1\n")
		s.SetConfigFiles([]string{path})
		var unknown *UnknownConfigVariableError
		if err := s.LoadConfigs(); !errors.As(err, &unknown) {
			t.Fatalf("expected UnknownConfigVariableError, got %v", err)
		}
	})
}

func TestConfigThenCommandLinePrecedence(t *testing.T) {
	s := newTestSettings(t)
	s.AddString([]string{"who"}, "", "default")
	s.AddBoolean([]string{"flag"}, "", false)

	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "app.conf"), `
[config]
who = config
flag = yes
`)
	s.SetConfigFiles([]string{path})

	args := []string{"--who=cli", "--no-flag"}
	if _, err := s.ParseArgs(args, true); err != nil {
		t.Fatalf("configs-only pass: %v", err)
	}
	if err := s.LoadConfigs(); err != nil {
		t.Fatalf("LoadConfigs: %v", err)
	}
	if got := s.String("who"); got != "config" {
		t.Fatalf("after LoadConfigs who = %q, want config", got)
	}
	if !s.Bool("flag") {
		t.Fatalf("after LoadConfigs flag = false, want true")
	}

	if _, err := s.ParseArgs(args, false); err != nil {
		t.Fatalf("full pass: %v", err)
	}
	if got := s.String("who"); got != "cli" {
		t.Fatalf("who = %q, want cli (command line wins)", got)
	}
	if s.Bool("flag") {
		t.Fatalf("--no-flag did not override config file value")
	}
}

func TestDefaultConfigFiles(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_CONFIG_DIRS", "")

	confDir := filepath.Join(home, ".config", "appname")
	if err := os.MkdirAll(confDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	b := writeFile(t, filepath.Join(confDir, "b.yaml"), "config:\n")
	a := writeFile(t, filepath.Join(confDir, "a.conf"), "[config]\n")
	writeFile(t, filepath.Join(confDir, "ignored.txt"), "")

	s := newTestSettings(t)
	configs := s.ConfigFiles()

	want := []string{
		"/etc/appname.conf",
		"/etc/appname.yaml",
		filepath.Join(home, ".appname.conf"),
		filepath.Join(home, ".appname.yaml"),
		a,
		b,
	}
	for _, path := range want {
		if !containsString(configs, path) {
			t.Errorf("default config list missing %s: %v", path, configs)
		}
	}

	// a.conf sorts before b.yaml byte-wise.
	ai, bi := indexOf(configs, a), indexOf(configs, b)
	if ai > bi {
		t.Errorf("directory scan not sorted: %v", configs)
	}

	// The XDG pass must not repeat the hardcoded ~/.config entries.
	seen := map[string]int{}
	for _, path := range configs {
		seen[path]++
		if seen[path] > 1 {
			t.Errorf("duplicate config file %s: %v", path, configs)
		}
	}
}

func indexOf(list []string, want string) int {
	for i, s := range list {
		if s == want {
			return i
		}
	}
	return -1
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := newTestSettings(t)
	s.AddString([]string{"name"}, "", "")
	s.AddStringList([]string{"items"}, "", nil)
	s.AddByteSize([]string{"max"}, "", 0)
	s.SetString("name", "roundtrip")
	s.SetStrings("items", []string{"a,b", "c"})
	s.SetSize("max", 123000)
	s.setExtra("side", "token", "abc")

	var buf bytes.Buffer
	if err := s.DumpConfig(&buf); err != nil {
		t.Fatalf("DumpConfig: %v", err)
	}

	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "dump.conf"), buf.String())

	reloaded := newTestSettings(t)
	reloaded.AddString([]string{"name"}, "", "")
	reloaded.AddStringList([]string{"items"}, "", nil)
	reloaded.AddByteSize([]string{"max"}, "", 0)
	reloaded.SetConfigFiles([]string{path})

	if err := reloaded.LoadConfigs(); err != nil {
		t.Fatalf("LoadConfigs: %v", err)
	}
	if got := reloaded.String("name"); got != "roundtrip" {
		t.Errorf("name = %q", got)
	}
	assertStrings(t, reloaded.Strings("items"), []string{"a,b", "c"})
	if got := reloaded.Size("max"); got != 123000 {
		t.Errorf("max = %d", got)
	}
	if got := reloaded.ExtraConfig()["side"]["token"]; got != "abc" {
		t.Errorf("side section lost in round trip: %v", reloaded.ExtraConfig())
	}
}
