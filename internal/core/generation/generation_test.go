package generation

import "testing"

func TestNameParse(t *testing.T) {
	tests := []struct {
		name      string
		partition string
		want      Parsed
		wantOK    bool
	}{
		{
			name:      "customer static partition",
			partition: "pantry-customer-static-v4",
			want:      Parsed{Namespace: "pantry-customer", Class: "static", Version: "v4"},
			wantOK:    true,
		},
		{
			name:      "admin api partition",
			partition: "pantry-admin-api-v3",
			want:      Parsed{Namespace: "pantry-admin", Class: "api", Version: "v3"},
			wantOK:    true,
		},
		{
			name:      "no separators",
			partition: "garbage",
			wantOK:    false,
		},
		{
			name:      "single separator",
			partition: "static-v4",
			wantOK:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.partition)
			if ok != tt.wantOK {
				t.Fatalf("Parse(%q) ok = %v, want %v", tt.partition, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.partition, got, tt.want)
			}
		})
	}
}

func TestNameParseRoundTrip(t *testing.T) {
	name := Name("pantry-customer", ClassImages, "v9")
	p, ok := Parse(name)
	if !ok {
		t.Fatalf("Parse(%q) failed", name)
	}
	if p.Namespace != "pantry-customer" || p.Class != ClassImages || p.Version != "v9" {
		t.Errorf("round trip = %+v", p)
	}
}

func TestIsStale(t *testing.T) {
	tests := []struct {
		name      string
		partition string
		namespace string
		current   string
		want      bool
	}{
		{name: "old version is stale", partition: "pantry-customer-static-v3", namespace: "pantry-customer", current: "v4", want: true},
		{name: "current version is not stale", partition: "pantry-customer-static-v4", namespace: "pantry-customer", current: "v4", want: false},
		{name: "other namespace is never stale here", partition: "pantry-admin-static-v1", namespace: "pantry-customer", current: "v4", want: false},
		{name: "unparseable name is not stale", partition: "junk", namespace: "pantry-customer", current: "v4", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsStale(tt.partition, tt.namespace, tt.current); got != tt.want {
				t.Errorf("IsStale(%q) = %v, want %v", tt.partition, got, tt.want)
			}
		})
	}
}

func TestCurrent(t *testing.T) {
	names := Current("pantry-admin", "v4")
	if len(names) != len(Classes) {
		t.Fatalf("Current returned %d names, want %d", len(names), len(Classes))
	}
	for _, n := range names {
		if IsStale(n, "pantry-admin", "v4") {
			t.Errorf("current partition %q reported stale", n)
		}
	}
}
