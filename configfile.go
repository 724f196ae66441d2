package cliframe

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// ConfigFiles returns the ordered list of config files to read. Until
// the list is set explicitly it is the default list computed from the
// program name. The files may or may not exist.
func (s *Settings) ConfigFiles() []string {
	if !s.haveConfigFiles {
		s.configFiles = s.DefaultConfigFiles()
		s.haveConfigFiles = true
	}
	return s.configFiles
}

// SetConfigFiles replaces the config file list.
func (s *Settings) SetConfigFiles(files []string) {
	s.configFiles = files
	s.haveConfigFiles = true
}

// addRequiredConfig appends a --config file to the list and marks it as
// required: unlike default config files, it must be readable. Paths
// already added are not repeated, so giving --config in both parse
// passes keeps the list stable.
func (s *Settings) addRequiredConfig(path string) {
	for _, p := range s.requiredConfigs {
		if p == path {
			return
		}
	}
	s.configFiles = append(s.ConfigFiles(), path)
	s.haveConfigFiles = true
	s.requiredConfigs = append(s.requiredConfigs, path)
}

func (s *Settings) isRequiredConfig(path string) bool {
	for _, p := range s.requiredConfigs {
		if p == path {
			return true
		}
	}
	return false
}

// DefaultConfigFiles computes the config file list from the program
// name: system files first, then per-user files, then files found via
// the XDG base directory variables. Later entries override earlier ones
// when loaded, so the list runs from lowest to highest precedence.
func (s *Settings) DefaultConfigFiles() []string {
	var configs []string

	configs = append(configs,
		"/etc/"+s.Progname+".conf",
		"/etc/"+s.Progname+".yaml")
	configs = append(configs, listConfs("/etc/"+s.Progname)...)

	if home, err := os.UserHomeDir(); err == nil {
		configs = append(configs,
			filepath.Join(home, "."+s.Progname+".conf"),
			filepath.Join(home, "."+s.Progname+".yaml"))
		configs = append(configs, listConfs(filepath.Join(home, ".config", s.Progname))...)
	}

	// The hardcoded locations above are always searched, so config
	// files are not ignored on systems where the XDG variables point
	// somewhere unusual.
	dirs := xdgConfigDirs()
	for i := len(dirs) - 1; i >= 0; i-- {
		for _, path := range listConfs(filepath.Join(dirs[i], s.Progname)) {
			if !containsString(configs, path) {
				configs = append(configs, path)
			}
		}
	}
	return configs
}

// xdgConfigDirs returns the XDG config directories, highest precedence
// first, per the freedesktop base directory spec.
func xdgConfigDirs() []string {
	var dirs []string
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		dirs = append(dirs, home)
	} else if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config"))
	}
	extra := os.Getenv("XDG_CONFIG_DIRS")
	if extra == "" {
		extra = "/etc/xdg"
	}
	for _, dir := range strings.Split(extra, ":") {
		if dir != "" {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// listConfs returns the *.conf and *.yaml files inside dirname, sorted
// byte-wise by name for deterministic ordering. A missing or unreadable
// directory yields no files.
func listConfs(dirname string) []string {
	entries, err := os.ReadDir(dirname)
	if err != nil {
		return nil
	}
	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".conf") || strings.HasSuffix(name, ".yaml") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	paths := make([]string, 0, len(names))
	for _, name := range names {
		paths = append(paths, filepath.Join(dirname, name))
	}
	return paths
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

// LoadConfigs reads every config file in ConfigFiles, in order, so that
// later files override earlier ones for the same key. Files named
// *.yaml are parsed as YAML, everything else as INI. Default config
// files that cannot be read are skipped silently; files added with
// --config must be readable.
func (s *Settings) LoadConfigs() error {
	s.extraData = make(map[string]map[string]string)

	for _, path := range s.ConfigFiles() {
		data, err := os.ReadFile(path)
		if err != nil {
			if s.isRequiredConfig(path) {
				return &MissingConfigFileError{Path: path, Err: err}
			}
			continue
		}
		if strings.HasSuffix(path, ".yaml") {
			err = s.readYAML(path, data)
		} else {
			err = s.readINI(path, data)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// setFromRaw sets a setting from a raw config file string.
func (s *Settings) setFromRaw(path, name, raw string) error {
	set, ok := s.byName[name]
	if !ok {
		return &UnknownConfigVariableError{Path: path, Name: name}
	}
	if err := set.ParseValue(raw); err != nil {
		return fmt.Errorf("%s: setting %s: %w", path, name, err)
	}
	return nil
}

func (s *Settings) setExtra(section, key, value string) {
	if _, ok := s.extraData[section]; !ok {
		s.extraData[section] = make(map[string]string)
	}
	s.extraData[section][key] = value
}

// readINI applies a [config] section to the declared settings and keeps
// every other section as extra config data.
func (s *Settings) readINI(path string, data []byte) error {
	file, err := ini.Load(data)
	if err != nil {
		return fmt.Errorf("parse configuration file %s: %w", path, err)
	}
	for _, key := range file.Section("config").Keys() {
		if err := s.setFromRaw(path, key.Name(), key.Value()); err != nil {
			return err
		}
	}
	for _, section := range file.Sections() {
		name := section.Name()
		if name == "config" || name == ini.DefaultSection {
			continue
		}
		for _, key := range section.Keys() {
			s.setExtra(name, key.Name(), key.Value())
		}
	}
	return nil
}

// readYAML applies a YAML config file: the top level must be a mapping
// with a "config" key holding setting overrides in their native types.
// Any other top-level key is kept as an extra config section.
func (s *Settings) readYAML(path string, data []byte) error {
	var root any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("parse configuration file %s: %w", path, err)
	}
	doc, ok := root.(map[string]any)
	if !ok {
		return &MalformedConfigError{Path: path, Reason: "does not specify a key/value mapping"}
	}
	raw, ok := doc["config"]
	if !ok {
		return &MalformedConfigError{Path: path, Reason: `does not have a "config" key`}
	}
	if raw != nil {
		overrides, ok := raw.(map[string]any)
		if !ok {
			return &MalformedConfigError{Path: path, Reason: `"config" key is not a mapping`}
		}
		for name, value := range overrides {
			set, ok := s.byName[name]
			if !ok {
				return &UnknownConfigVariableError{Path: path, Name: name}
			}
			if err := set.assign(value); err != nil {
				return fmt.Errorf("%s: setting %s: %w", path, name, err)
			}
		}
	}

	for name, value := range doc {
		if name == "config" {
			continue
		}
		section, ok := value.(map[string]any)
		if !ok {
			return &MalformedConfigError{
				Path:   path,
				Reason: fmt.Sprintf("section %q is not a key/value mapping", name),
			}
		}
		for key, v := range section {
			text, err := configText(v)
			if err != nil {
				return fmt.Errorf("%s: section %s, key %s: %w", path, name, key, err)
			}
			s.setExtra(name, key, text)
		}
	}
	return nil
}

// configText renders an extra config value as text. Scalars use their
// plain string form; anything structured is kept as inline YAML.
func configText(v any) (string, error) {
	switch v.(type) {
	case nil, string, bool, int, int64, uint64, float64:
		return scalarString(v)
	default:
		out, err := yaml.Marshal(v)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(out)), nil
	}
}

// ExtraConfig returns the config file data outside the recognised
// config section, keyed by section then key. The store does not
// interpret it; applications assign their own meaning.
func (s *Settings) ExtraConfig() map[string]map[string]string {
	return s.extraData
}

// ConfigSnapshot projects all declared settings, plus any preserved
// extra sections, into an INI document that round-trips through
// LoadConfigs.
func (s *Settings) ConfigSnapshot() *ini.File {
	file := ini.Empty()
	section, _ := file.NewSection("config")
	for _, name := range s.canonical {
		_, _ = section.NewKey(name, s.byName[name].Format())
	}

	extras := make([]string, 0, len(s.extraData))
	for name := range s.extraData {
		extras = append(extras, name)
	}
	sort.Strings(extras)
	for _, name := range extras {
		section, _ := file.NewSection(name)
		keys := make([]string, 0, len(s.extraData[name]))
		for key := range s.extraData[name] {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			_, _ = section.NewKey(key, s.extraData[name][key])
		}
	}
	return file
}

// DumpConfig writes the current configuration in config file form.
func (s *Settings) DumpConfig(w io.Writer) error {
	_, err := s.ConfigSnapshot().WriteTo(w)
	return err
}
