package device

import "testing"

func TestBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		device  string
		want    string
		wantErr bool
	}{
		{"bare IP", "192.168.1.44", "http://192.168.1.44", false},
		{"bare hostname", "recuair-0451.local", "http://recuair-0451.local", false},
		{"host with port", "192.168.1.44:8080", "http://192.168.1.44:8080", false},
		{"full http URL", "http://192.168.1.44", "http://192.168.1.44", false},
		{"https URL", "https://192.168.1.44", "https://192.168.1.44", false},
		{"trailing slash stripped", "http://192.168.1.44/", "http://192.168.1.44", false},
		{"whitespace trimmed", "  192.168.1.44  ", "http://192.168.1.44", false},
		{"empty", "", "", true},
		{"unsupported scheme", "ftp://192.168.1.44", "", true},
		{"scheme without host", "http://", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BaseURL(tt.device)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("BaseURL(%q) error = nil, want error", tt.device)
				}
				if !IsInvalidValue(err) {
					t.Errorf("BaseURL(%q) error = %v, want invalid value", tt.device, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("BaseURL(%q) error = %v", tt.device, err)
			}
			if got != tt.want {
				t.Errorf("BaseURL(%q) = %q, want %q", tt.device, got, tt.want)
			}
		})
	}
}
