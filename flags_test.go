package mailcore

import "testing"

func TestSortFlags(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"S", "S"},
		{"SN", "NS"},
		{"NNS", "NS"},
		{"SSSS", "S"},
		{"ZRAF", "AFRZ"},
	}
	for _, tc := range tests {
		if got := SortFlags(tc.in); got != tc.want {
			t.Errorf("SortFlags(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFlagsFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"Maildir/cur/167:2,S", "S"},
		{"Maildir/cur/167:2,SF", "FS"},
		{"Maildir/cur/167:2,SS", "S"},
		{"Maildir/cur/167", ""},
		{"Maildir/new/167", "N"},
		{"Maildir/new/167:2,S", "NS"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := FlagsFromPath(tc.path); got != tc.want {
			t.Errorf("FlagsFromPath(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestPathWithFlags(t *testing.T) {
	tests := []struct {
		path  string
		flags string
		want  string
	}{
		{"Maildir/cur/167", "S", "Maildir/cur/167:2,S"},
		{"Maildir/cur/167:2,S", "", "Maildir/cur/167:2,"},
		{"Maildir/cur/167:2,F", "SNF", "Maildir/cur/167:2,FNS"},
		{"Maildir/cur/167:2,", "SS", "Maildir/cur/167:2,S"},
	}
	for _, tc := range tests {
		if got := PathWithFlags(tc.path, tc.flags); got != tc.want {
			t.Errorf("PathWithFlags(%q, %q) = %q, want %q", tc.path, tc.flags, got, tc.want)
		}
	}
}

// Round trip: decoding an encoded flag set yields the sorted, deduplicated
// input for any flag string.
func TestFlagRoundTrip(t *testing.T) {
	for _, flags := range []string{"", "S", "NS", "SN", "NNSS", "FRS", "abcF", "ZZZ"} {
		path := PathWithFlags("Maildir/cur/123", flags)
		if got, want := FlagsFromPath(path), SortFlags(flags); got != want {
			t.Errorf("round trip of %q: got %q, want %q", flags, got, want)
		}
	}
}
