package oidc

import "testing"

func TestEmailAllowed(t *testing.T) {
	tests := []struct {
		name   string
		claims Claims
		domain string
		want   bool
	}{
		{
			name:   "campus email",
			claims: Claims{Email: "student@mnnit.ac.in"},
			domain: "mnnit.ac.in",
			want:   true,
		},
		{
			name:   "campus email mixed case",
			claims: Claims{Email: "Student@MNNIT.AC.IN"},
			domain: "mnnit.ac.in",
			want:   true,
		},
		{
			name:   "outside email",
			claims: Claims{Email: "someone@gmail.com"},
			domain: "mnnit.ac.in",
			want:   false,
		},
		{
			name:   "hosted domain claim without matching email",
			claims: Claims{Email: "alias@other.example", HostedDomain: "mnnit.ac.in"},
			domain: "mnnit.ac.in",
			want:   true,
		},
		{
			name:   "subdomain does not match",
			claims: Claims{Email: "student@cs.mnnit.ac.in"},
			domain: "mnnit.ac.in",
			want:   false,
		},
		{
			name:   "lookalike suffix does not match",
			claims: Claims{Email: "student@notmnnit.ac.in"},
			domain: "mnnit.ac.in",
			want:   false,
		},
		{
			name:   "empty domain accepts any email",
			claims: Claims{Email: "someone@gmail.com"},
			domain: "",
			want:   true,
		},
		{
			name:   "empty domain rejects missing email",
			claims: Claims{},
			domain: "",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.claims.EmailAllowed(tt.domain); got != tt.want {
				t.Errorf("EmailAllowed(%q) = %v, want %v", tt.domain, got, tt.want)
			}
		})
	}
}
