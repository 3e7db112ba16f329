package schema

import "testing"

func ptr(s string) *string { return &s }

// ----------------------------------------------------------------------------
// Single-cell classification
// ----------------------------------------------------------------------------

func TestInferSingleCell(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  ColumnType
	}{
		{name: "plain text", value: "hello", want: TypeString},
		{name: "integer", value: "42", want: TypeInteger},
		{name: "negative integer", value: "-7", want: TypeInteger},
		{name: "zero is integer not boolean", value: "0", want: TypeInteger},
		{name: "one is integer not boolean", value: "1", want: TypeInteger},
		{name: "decimal", value: "3.14", want: TypeFloat},
		{name: "integral with decimal point", value: "1.0", want: TypeFloat},
		{name: "scientific integral", value: "1e3", want: TypeInteger},
		{name: "scientific fractional", value: "1.5e1", want: TypeFloat},
		{name: "partial number is text", value: "123abc", want: TypeString},
		{name: "hex is text", value: "0x1F", want: TypeString},
		{name: "boolean true", value: "true", want: TypeBoolean},
		{name: "boolean mixed case", value: "TRUE", want: TypeBoolean},
		{name: "boolean false", value: "False", want: TypeBoolean},
		{name: "iso date", value: "2023-06-13", want: TypeDate},
		{name: "day first date", value: "13/06/1999", want: TypeDate},
		{name: "long month date", value: "March 5, 2023", want: TypeDate},
		{name: "impossible date is text", value: "31/02/2020", want: TypeString},
		{name: "iso timestamp", value: "2023-06-13T08:30:00Z", want: TypeTimestamp},
		{name: "space separated timestamp", value: "2023-06-13 08:30:00", want: TypeTimestamp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Infer(ptr(tt.value), TypeUnknown)
			if got != tt.want {
				t.Errorf("Infer(%q, unknown) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestInferSeedIdempotence(t *testing.T) {
	values := []string{"42", "3.5", "true", "2023-06-13", "hello", ""}
	for _, v := range values {
		once := Infer(ptr(v), TypeUnknown)
		twice := Infer(ptr(v), once)
		if once != twice {
			t.Errorf("Infer(%q) not idempotent: %v then %v", v, once, twice)
		}
	}
}

// ----------------------------------------------------------------------------
// Folding over value sequences
// ----------------------------------------------------------------------------

func inferAll(values []*string) ColumnType {
	cur := TypeUnknown
	for _, v := range values {
		cur = Infer(v, cur)
	}
	return Finalize(cur)
}

func TestInferSequences(t *testing.T) {
	tests := []struct {
		name   string
		values []*string
		want   ColumnType
	}{
		{
			name:   "integers stay integer",
			values: []*string{ptr("1"), ptr("2"), ptr("3")},
			want:   TypeInteger,
		},
		{
			name:   "integer widens to float",
			values: []*string{ptr("1"), ptr("2"), ptr("3.5")},
			want:   TypeFloat,
		},
		{
			name:   "float does not narrow back",
			values: []*string{ptr("3.5"), ptr("2")},
			want:   TypeFloat,
		},
		{
			name:   "empties do not pollute",
			values: []*string{ptr(""), ptr("5"), ptr("7")},
			want:   TypeInteger,
		},
		{
			name:   "nil cells do not pollute",
			values: []*string{nil, ptr("2023-06-13"), nil},
			want:   TypeDate,
		},
		{
			name:   "literal null does not pollute",
			values: []*string{ptr("null"), ptr("true"), ptr("NULL")},
			want:   TypeBoolean,
		},
		{
			name:   "all empty resolves to string",
			values: []*string{ptr(""), nil, ptr("  ")},
			want:   TypeString,
		},
		{
			name:   "zero one is integer never boolean",
			values: []*string{ptr("0"), ptr("1")},
			want:   TypeInteger,
		},
		{
			name:   "true false is boolean",
			values: []*string{ptr("true"), ptr("false")},
			want:   TypeBoolean,
		},
		{
			name:   "boolean then number conflicts to string",
			values: []*string{ptr("true"), ptr("5")},
			want:   TypeString,
		},
		{
			name:   "number then date conflicts to string",
			values: []*string{ptr("5"), ptr("2023-06-13")},
			want:   TypeString,
		},
		{
			name:   "text then number stays string",
			values: []*string{ptr("abc"), ptr("5"), ptr("7")},
			want:   TypeString,
		},
		{
			name:   "date then timestamp conflicts to string",
			values: []*string{ptr("2023-06-13"), ptr("2023-06-13T08:30:00Z")},
			want:   TypeString,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := inferAll(tt.values)
			if got != tt.want {
				t.Errorf("inferAll = %v, want %v", got, tt.want)
			}
		})
	}
}

// Once a column reaches string, no later value moves it.
func TestStringIsAbsorbing(t *testing.T) {
	followers := []string{"42", "3.5", "true", "2023-06-13", "hello"}
	for _, v := range followers {
		if got := Infer(ptr(v), TypeString); got != TypeString {
			t.Errorf("Infer(%q, string) = %v, want string", v, got)
		}
	}
}

// ----------------------------------------------------------------------------
// Date pattern priority
// ----------------------------------------------------------------------------

func TestDatePatternPriority(t *testing.T) {
	// Ambiguous day/month values must resolve day-first.
	ts, ok := ParseDate("03/04/2023")
	if !ok {
		t.Fatal("ParseDate(03/04/2023) failed")
	}
	if ts.Day() != 3 || int(ts.Month()) != 4 {
		t.Errorf("got day=%d month=%d, want day-first 3 April", ts.Day(), int(ts.Month()))
	}
}

func TestParseDateLayouts(t *testing.T) {
	valid := []string{
		"13/06/1999",
		"1999-06-13",
		"13-06-1999",
		"1999/06/13",
		"13.06.1999",
		"June 13, 1999",
		"Sun Jun 13 1999",
		"1999-06-13T08:30:00Z",
		"1999-06-13 08:30:00",
		"1999-06-13T08:30:00",
	}
	for _, s := range valid {
		if _, ok := ParseDate(s); !ok {
			t.Errorf("ParseDate(%q) = false, want true", s)
		}
	}

	invalid := []string{"not a date", "99/99/9999", "2023-13-45", "13061999x"}
	for _, s := range invalid {
		if _, ok := ParseDate(s); ok {
			t.Errorf("ParseDate(%q) = true, want false", s)
		}
	}
}
