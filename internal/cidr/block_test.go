package cidr

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		addr      string
		prefixLen int
	}{
		{"bare address defaults to host", "1.2.3.4", "1.2.3.4", 32},
		{"explicit host", "1.2.3.4/32", "1.2.3.4", 32},
		{"class C", "10.0.0.0/24", "10.0.0.0", 24},
		{"default route", "0.0.0.0/0", "0.0.0.0", 0},
		{"host bits kept", "10.0.0.5/24", "10.0.0.5", 24},
		{"unaligned", "172.16.0.0/12", "172.16.0.0", 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.input, err)
			}
			if Decode(got.Address) != tt.addr {
				t.Errorf("Parse(%q).Address = %s, want %s", tt.input, Decode(got.Address), tt.addr)
			}
			if got.PrefixLength != tt.prefixLen {
				t.Errorf("Parse(%q).PrefixLength = %d, want %d", tt.input, got.PrefixLength, tt.prefixLen)
			}
			if got.Literal != tt.input {
				t.Errorf("Parse(%q).Literal = %q, want input unchanged", tt.input, got.Literal)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		input string
		want  error
	}{
		{"1.2.3/24", ErrMalformedAddress},
		{"1.2.3.4.5", ErrMalformedAddress},
		{"300.1.1.1/8", ErrMalformedAddress},
		{"1.2.3.4/24/8", ErrMalformedAddress},
		{"1.2.3.4/33", ErrInvalidPrefixLength},
		{"1.2.3.4/-1", ErrInvalidPrefixLength},
		{"1.2.3.4/", ErrInvalidPrefixLength},
		{"1.2.3.4/abc", ErrInvalidPrefixLength},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Parse(tt.input)
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse(%q) error = %v, want %v", tt.input, err, tt.want)
			}
		})
	}
}

func TestBlock_Forms(t *testing.T) {
	b := MustParse("10.0.0.5/24")

	if got := b.String(); got != "10.0.0.5/24" {
		t.Errorf("String() = %q", got)
	}
	if got := b.CIDR(); got != "10.0.0.5/24" {
		t.Errorf("CIDR() = %q", got)
	}
	if got := b.Prefix().String(); got != "10.0.0.5/24" {
		t.Errorf("Prefix() = %q, want unmasked prefix", got)
	}

	host := MustParse("1.2.3.4")
	if got := host.CIDR(); got != "1.2.3.4/32" {
		t.Errorf("CIDR() = %q, want 1.2.3.4/32", got)
	}
	if got := host.String(); got != "1.2.3.4" {
		t.Errorf("String() = %q, want literal", got)
	}
}

func TestMustParse_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParse() did not panic on invalid input")
		}
	}()
	MustParse("not-an-ip")
}
