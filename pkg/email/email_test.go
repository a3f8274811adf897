package email

import "testing"

func TestDeriveNameFromEmail(t *testing.T) {
	cases := []struct {
		email string
		first string
		last  string
	}{
		{"jane.doe@example.com", "Jane", "Doe"},
		{"j_van_der_berg@example.com", "J", "Berg"},
		{"single@example.com", "Single", "Shareholder"},
		{"@example.com", "Shareholder", "Shareholder"},
		{"no-at-sign", "No", "Sign"},
	}

	for _, tc := range cases {
		first, last := DeriveNameFromEmail(tc.email)
		if first != tc.first || last != tc.last {
			t.Errorf("DeriveNameFromEmail(%q) = %q, %q; want %q, %q",
				tc.email, first, last, tc.first, tc.last)
		}
	}
}
