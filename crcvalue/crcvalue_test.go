package crcvalue

import "testing"

func TestParseAndString(t *testing.T) {
	cases := []struct {
		in   string
		want Value
	}{
		{"0xdeadbeef", 0xdeadbeef},
		{"0Xdeadbeef", 0xdeadbeef},
		{"deadbeef", 0xdeadbeef},
		{"0x0", 0},
	}
	for _, c := range cases {
		got, err := Parse(c.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("Parse(%q) = %#x, want %#x", c.in, uint32(got), uint32(c.want))
		}
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := Parse("not-hex"); err == nil {
		t.Fatal("expected error for invalid hex")
	}
}

func TestStringRoundTrip(t *testing.T) {
	v := Value(0x1234abcd)
	parsed, err := Parse(v.String())
	if err != nil {
		t.Fatalf("Parse(%s): %v", v.String(), err)
	}
	if parsed != v {
		t.Errorf("round trip = %#x, want %#x", uint32(parsed), uint32(v))
	}
}

func TestJSONRoundTrip(t *testing.T) {
	v := Value(0xcafef00d)
	data, err := v.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	var out Value
	if err := out.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if out != v {
		t.Errorf("JSON round trip = %#x, want %#x", uint32(out), uint32(v))
	}
}
