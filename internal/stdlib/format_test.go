package stdlib_test

import (
	"testing"

	"github.com/funvibe/stak/internal/stdlib"
)

func TestFormatVerbs(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"", "", false},
		{"Hello World", "", false},
		{"%d %s", "ds", false},
		{"%d %% %s", "ds", false},
		{"%.2f %-5d %#x % 5d", "fdxd", false},
		{"naïve %q", "q", false},

		{"%", "", true},
		{"%z", "", true},
		{"%p", "", true},
		{"%d %", "", true},
		{"%.", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := stdlib.FormatVerbs(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FormatVerbs(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if string(got) != tt.want {
				t.Errorf("FormatVerbs(%q) = %q, want %q", tt.input, string(got), tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
		err  string
	}{
		{"mixed", `n = 3` + "\n" + `format("%s has %d items (%.1f%%)", ["box" n 50.0])`, `"box has 3 items (50.0%)"`, ""},
		{"big integer", `format("%x", [255])`, `"ff"`, ""},
		{"integer as float", `format("%.2f", [7])`, `"7.00"`, ""},
		{"char and bool", `format("%c%s %t %q", ['o' 'k' true 'x'])`, `"ok true 'x'"`, ""},
		{"any value with v", `format("%v %v", [true 2.5])`, `"true 2.5"`, ""},
		{"count mismatch", `format("%d %d", [1])`, "", "format: 2 verbs but 1 arguments"},
		{"bad verb", `format("%z", [1])`, "", "format: invalid format verb %z"},
		{"int verb on string", `format("%d", ["x"])`, "", "format: argument 1: %d cannot format String"},
		{"bool verb on integer", `format("%s %t", ["a" 1])`, "", "format: argument 2: %t cannot format Integer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := run(t, tt.src)
			if got := r.stack(); got != tt.want {
				t.Errorf("stack = %q, want %q (errors: %s)", got, tt.want, r.errors())
			}
			if got := r.errors(); got != tt.err {
				t.Errorf("errors = %q, want %q", got, tt.err)
			}
		})
	}
}
