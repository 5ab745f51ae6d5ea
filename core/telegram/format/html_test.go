package format

import "testing"

func TestEscapeHTML(t *testing.T) {
	if got := EscapeHTML(`<b>"Rock & Roll"</b>`); got != "&lt;b&gt;&#34;Rock &amp; Roll&#34;&lt;/b&gt;" {
		t.Fatalf("unexpected escape: %s", got)
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 4, "hel…"},
		{"привет", 3, "пр…"},
		{"abc", 0, ""},
	}
	for _, tc := range cases {
		if got := Truncate(tc.in, tc.n); got != tc.want {
			t.Fatalf("Truncate(%q, %d) = %q, want %q", tc.in, tc.n, got, tc.want)
		}
	}
}
