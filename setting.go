package cliframe

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Setting is a named, typed configuration value that is exposed both as a
// command line option and as a configuration file key. The first name in
// Names is the canonical one; any further names are aliases.
type Setting interface {
	// Names returns all names for the setting, canonical name first.
	Names() []string
	// Name returns the canonical name.
	Name() string
	// Help returns the help text shown in --help output.
	Help() string
	// Metavar returns the value placeholder shown in --help output.
	Metavar() string
	// Group returns the option group the setting belongs to, if any.
	Group() string
	// Hidden reports whether the setting is omitted from --help output.
	Hidden() bool
	// HasValue reports whether the current value differs from the
	// type's empty sentinel (empty string, empty list). Types without
	// an empty sentinel always have a value.
	HasValue() bool
	// ParseValue sets the value from a raw string coming from an
	// external source, a config file entry or a command line token.
	// It applies the same decoding and validation as programmatic
	// assignment.
	ParseValue(raw string) error
	// Format returns the canonical string encoding of the current
	// value, suitable for writing back to a config file.
	Format() string

	// assign sets the value from a natively typed config value, as
	// produced by the YAML decoder.
	assign(v any) error
}

type settingBase struct {
	names   []string
	help    string
	metavar string
	group   string
	hidden  bool
}

func (s *settingBase) Names() []string { return s.names }
func (s *settingBase) Name() string    { return s.names[0] }
func (s *settingBase) Help() string    { return s.help }
func (s *settingBase) Metavar() string { return s.metavar }
func (s *settingBase) Group() string   { return s.group }
func (s *settingBase) Hidden() bool    { return s.hidden }

// SettingOpt customises a setting at registration time.
type SettingOpt func(*settingBase)

// Metavar sets the value placeholder shown in --help output. The default
// is the canonical name in upper case (SIZE for byte size settings).
func Metavar(metavar string) SettingOpt {
	return func(b *settingBase) { b.metavar = metavar }
}

// Group assigns the setting to a named option group.
func Group(group string) SettingOpt {
	return func(b *settingBase) { b.group = group }
}

// Hidden omits the setting from --help output. Hidden settings still
// parse normally and appear in --help-all.
func Hidden() SettingOpt {
	return func(b *settingBase) { b.hidden = true }
}

func newBase(names []string, help, metavar string, opts []SettingOpt) settingBase {
	if len(names) == 0 {
		panic("cliframe: setting must have at least one name")
	}
	b := settingBase{names: names, help: help, metavar: metavar}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// StringSetting holds a free-form string value.
type StringSetting struct {
	settingBase
	value string
}

func (s *StringSetting) Value() string { return s.value }

func (s *StringSetting) HasValue() bool { return s.value != "" }

func (s *StringSetting) ParseValue(raw string) error {
	s.value = raw
	return nil
}

func (s *StringSetting) Format() string { return s.value }

func (s *StringSetting) assign(v any) error {
	raw, err := scalarString(v)
	if err != nil {
		return err
	}
	s.value = raw
	return nil
}

// StringListSetting holds a list of strings. On the command line the
// option accumulates: the first occurrence replaces whatever value the
// setting had before parsing, further occurrences append. In config files
// the value is a single comma-separated string; quoting a field keeps
// commas inside it from splitting.
type StringListSetting struct {
	settingBase
	values []string

	// replaceNext is armed at the start of a full command line parse so
	// that the first option occurrence discards the pre-parse value.
	replaceNext bool
}

func (s *StringListSetting) Value() []string { return s.values }

func (s *StringListSetting) HasValue() bool { return len(s.values) != 0 }

func (s *StringListSetting) ParseValue(raw string) error {
	s.values = splitQuotedList(raw)
	return nil
}

func (s *StringListSetting) Format() string {
	quoted := make([]string, 0, len(s.values))
	for _, v := range s.values {
		if strings.Contains(v, ",") {
			v = `"` + v + `"`
		}
		quoted = append(quoted, v)
	}
	return strings.Join(quoted, ", ")
}

func (s *StringListSetting) assign(v any) error {
	switch t := v.(type) {
	case nil:
		s.values = nil
		return nil
	case []any:
		values := make([]string, 0, len(t))
		for _, item := range t {
			raw, err := scalarString(item)
			if err != nil {
				return err
			}
			values = append(values, raw)
		}
		s.values = values
		return nil
	default:
		raw, err := scalarString(v)
		if err != nil {
			return err
		}
		s.values = []string{raw}
		return nil
	}
}

// splitQuotedList splits a comma-separated config value into fields.
// Double quotes toggle whether commas split; the quotes themselves are
// dropped. A trailing empty field is discarded, fields are trimmed.
func splitQuotedList(raw string) []string {
	var values []string
	var value strings.Builder
	inQuote := false
	for _, c := range raw {
		switch {
		case c == '"':
			inQuote = !inQuote
		case c == ',' && !inQuote:
			values = append(values, value.String())
			value.Reset()
		default:
			value.WriteRune(c)
		}
	}
	if value.Len() > 0 {
		values = append(values, value.String())
	}
	for i, v := range values {
		values[i] = strings.TrimSpace(v)
	}
	return values
}

// ChoiceSetting holds a string restricted to an enumerated set of
// acceptable values. The default is the first choice.
type ChoiceSetting struct {
	settingBase
	choices []string
	value   string
}

func (s *ChoiceSetting) Value() string { return s.value }

func (s *ChoiceSetting) Choices() []string { return append([]string(nil), s.choices...) }

func (s *ChoiceSetting) HasValue() bool { return s.value != "" }

func (s *ChoiceSetting) ParseValue(raw string) error {
	for _, c := range s.choices {
		if raw == c {
			s.value = raw
			return nil
		}
	}
	return fmt.Errorf("invalid value %q for --%s (choose from %s)",
		raw, s.Name(), strings.Join(s.choices, ", "))
}

func (s *ChoiceSetting) Format() string { return s.value }

func (s *ChoiceSetting) assign(v any) error {
	raw, err := scalarString(v)
	if err != nil {
		return err
	}
	return s.ParseValue(raw)
}

// BooleanSetting holds a boolean value. The tokens yes, on, 1 and true
// decode to true regardless of case; every other string decodes to false.
type BooleanSetting struct {
	settingBase
	value bool
}

var trueTokens = []string{"yes", "on", "1", "true"}

func isTrueToken(raw string) bool {
	raw = strings.ToLower(raw)
	for _, t := range trueTokens {
		if raw == t {
			return true
		}
	}
	return false
}

func (s *BooleanSetting) Value() bool { return s.value }

func (s *BooleanSetting) HasValue() bool { return true }

func (s *BooleanSetting) ParseValue(raw string) error {
	s.value = isTrueToken(raw)
	return nil
}

func (s *BooleanSetting) Format() string {
	if s.value {
		return "yes"
	}
	return "no"
}

func (s *BooleanSetting) assign(v any) error {
	switch t := v.(type) {
	case bool:
		s.value = t
	case string:
		s.value = isTrueToken(t)
	case int:
		s.value = t != 0
	case int64:
		s.value = t != 0
	case uint64:
		s.value = t != 0
	case float64:
		s.value = t != 0
	case nil:
		s.value = false
	default:
		return fmt.Errorf("unsupported boolean value %v (%T)", v, v)
	}
	return nil
}

// ByteSizeSetting holds a size in bytes. Values may use human-readable
// suffixes: k, m, g, t for powers of 1000 and ki, mi, gi, ti for powers
// of 1024, optionally followed by a literal "b", case-insensitive.
// Unparseable input decodes to 0 rather than failing.
type ByteSizeSetting struct {
	settingBase
	value int64
}

func (s *ByteSizeSetting) Value() int64 { return s.value }

func (s *ByteSizeSetting) HasValue() bool { return true }

func (s *ByteSizeSetting) ParseValue(raw string) error {
	s.value = ParseByteSize(raw)
	return nil
}

func (s *ByteSizeSetting) Format() string { return strconv.FormatInt(s.value, 10) }

func (s *ByteSizeSetting) assign(v any) error {
	switch t := v.(type) {
	case string:
		s.value = ParseByteSize(t)
	case int:
		s.value = int64(t)
	case int64:
		s.value = t
	case uint64:
		s.value = int64(t)
	case float64:
		s.value = int64(t)
	default:
		return fmt.Errorf("unsupported byte size value %v (%T)", v, v)
	}
	return nil
}

var byteSizeRE = regexp.MustCompile(`^(\d+(\.\d+)?)\s*(k|ki|m|mi|g|gi|t|ti)?b?$`)

var byteSizeUnits = map[string]int64{
	"":   1,
	"k":  1000,
	"m":  1000 * 1000,
	"g":  1000 * 1000 * 1000,
	"t":  1000 * 1000 * 1000 * 1000,
	"ki": 1 << 10,
	"mi": 1 << 20,
	"gi": 1 << 30,
	"ti": 1 << 40,
}

// ParseByteSize parses a human-readable size into plain bytes. Input
// that does not match the size grammar yields 0.
func ParseByteSize(raw string) int64 {
	m := byteSizeRE.FindStringSubmatch(strings.TrimSpace(strings.ToLower(raw)))
	if m == nil {
		return 0
	}
	number, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return int64(number * float64(byteSizeUnits[m[3]]))
}

// IntegerSetting holds a signed integer value.
type IntegerSetting struct {
	settingBase
	value int64
}

func (s *IntegerSetting) Value() int64 { return s.value }

func (s *IntegerSetting) HasValue() bool { return true }

func (s *IntegerSetting) ParseValue(raw string) error {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid integer value %q for --%s", raw, s.Name())
	}
	s.value = v
	return nil
}

func (s *IntegerSetting) Format() string { return strconv.FormatInt(s.value, 10) }

func (s *IntegerSetting) assign(v any) error {
	switch t := v.(type) {
	case int:
		s.value = int64(t)
	case int64:
		s.value = t
	case uint64:
		s.value = int64(t)
	case float64:
		s.value = int64(t)
	case string:
		return s.ParseValue(t)
	default:
		return fmt.Errorf("unsupported integer value %v (%T)", v, v)
	}
	return nil
}

// scalarString renders a scalar config value as its string form.
func scalarString(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case uint64:
		return strconv.FormatUint(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported value %v (%T)", v, v)
	}
}
