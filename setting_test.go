package cliframe

import (
	"strconv"
	"testing"
)

func TestParseByteSize(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"0", 0},
		{"123", 123},
		{"123b", 123},
		{"123k", 123 * 1000},
		{"123m", 123 * 1000 * 1000},
		{"123g", 123 * 1000 * 1000 * 1000},
		{"123t", 123 * 1000 * 1000 * 1000 * 1000},
		{"123ki", 123 * 1024},
		{"123kib", 123 * 1024},
		{"123mib", 123 * 1024 * 1024},
		{"123gib", 123 * 1024 * 1024 * 1024},
		{"123tib", 123 * 1024 * 1024 * 1024 * 1024},
		{"123KiB", 123 * 1024},
		{"1.5k", 1500},
		{" 10m ", 10 * 1000 * 1000},
		{"xyzzy", 0},
		{"12 potatoes", 0},
		{"", 0},
	}
	for _, c := range cases {
		if got := ParseByteSize(c.in); got != c.want {
			t.Errorf("ParseByteSize(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestByteSizeRoundTrip(t *testing.T) {
	set := &ByteSizeSetting{settingBase: newBase([]string{"foo"}, "", "SIZE", nil)}
	for _, n := range []int64{0, 1, 123, 1000, 1024, 123456789, 5 << 40} {
		set.value = n
		if got := ParseByteSize(set.Format()); got != n {
			t.Errorf("decode(encode(%d)) = %d", n, got)
		}
	}
}

func TestByteSizeFormatIsPlainInteger(t *testing.T) {
	set := &ByteSizeSetting{settingBase: newBase([]string{"foo"}, "", "SIZE", nil)}
	if err := set.ParseValue("123k"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := set.Format(); got != "123000" {
		t.Fatalf("Format() = %q, want %q", got, "123000")
	}
}

func TestBooleanTokens(t *testing.T) {
	set := &BooleanSetting{settingBase: newBase([]string{"foo"}, "", "", nil)}

	for _, raw := range []string{"yes", "YES", "On", "1", "true", "TRUE"} {
		if err := set.ParseValue(raw); err != nil {
			t.Fatalf("ParseValue(%q): %v", raw, err)
		}
		if !set.Value() {
			t.Errorf("ParseValue(%q) gave false, want true", raw)
		}
	}
	for _, raw := range []string{"no", "off", "0", "false", "banana", ""} {
		if err := set.ParseValue(raw); err != nil {
			t.Fatalf("ParseValue(%q): %v", raw, err)
		}
		if set.Value() {
			t.Errorf("ParseValue(%q) gave true, want false", raw)
		}
	}
}

func TestBooleanFormat(t *testing.T) {
	set := &BooleanSetting{settingBase: newBase([]string{"foo"}, "", "", nil)}
	set.value = true
	if got := set.Format(); got != "yes" {
		t.Fatalf("Format() = %q, want yes", got)
	}
	set.value = false
	if got := set.Format(); got != "no" {
		t.Fatalf("Format() = %q, want no", got)
	}
}

func TestStringListParseValue(t *testing.T) {
	set := &StringListSetting{settingBase: newBase([]string{"foo"}, "", "FOO", nil)}

	t.Run("splits on commas", func(t *testing.T) {
		if err := set.ParseValue("a, b ,c"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertStrings(t, set.Value(), []string{"a", "b", "c"})
	})

	t.Run("quotes suppress splitting", func(t *testing.T) {
		if err := set.ParseValue(`"a,b", c`); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertStrings(t, set.Value(), []string{"a,b", "c"})
	})

	t.Run("format requotes commas", func(t *testing.T) {
		set.values = []string{"a,b", "c"}
		if got := set.Format(); got != `"a,b", c` {
			t.Fatalf("Format() = %q", got)
		}
	})
}

func TestChoiceParseValue(t *testing.T) {
	set := &ChoiceSetting{settingBase: newBase([]string{"level"}, "", "LEVEL", nil)}
	set.choices = []string{"low", "high"}
	set.value = "low"

	if err := set.ParseValue("high"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Value() != "high" {
		t.Fatalf("value = %q, want high", set.Value())
	}

	if err := set.ParseValue("bogus"); err == nil {
		t.Fatalf("expected error for invalid choice")
	}
	if set.Value() != "high" {
		t.Fatalf("invalid choice changed value to %q", set.Value())
	}
}

func TestIntegerParseValue(t *testing.T) {
	set := &IntegerSetting{settingBase: newBase([]string{"n"}, "", "N", nil)}

	if err := set.ParseValue(" 42 "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Value() != 42 {
		t.Fatalf("value = %d, want 42", set.Value())
	}
	if got := set.Format(); got != strconv.Itoa(42) {
		t.Fatalf("Format() = %q", got)
	}

	if err := set.ParseValue("nope"); err == nil {
		t.Fatalf("expected error for invalid integer")
	}
}

func TestHasValue(t *testing.T) {
	str := &StringSetting{settingBase: newBase([]string{"s"}, "", "S", nil)}
	if str.HasValue() {
		t.Errorf("empty string setting should have no value")
	}
	str.value = "x"
	if !str.HasValue() {
		t.Errorf("non-empty string setting should have a value")
	}

	list := &StringListSetting{settingBase: newBase([]string{"l"}, "", "L", nil)}
	if list.HasValue() {
		t.Errorf("empty list setting should have no value")
	}
	list.values = []string{"x"}
	if !list.HasValue() {
		t.Errorf("non-empty list setting should have a value")
	}

	boolean := &BooleanSetting{settingBase: newBase([]string{"b"}, "", "", nil)}
	if !boolean.HasValue() {
		t.Errorf("boolean setting should always have a value")
	}
}

func assertStrings(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
