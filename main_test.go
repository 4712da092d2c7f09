package main

import "testing"

func TestParseCycleSpec(t *testing.T) {
	tests := []struct {
		spec      string
		wantYear  int
		wantIndex int
		wantDays  int
		wantErr   bool
	}{
		{spec: "1980:0:3", wantYear: 1980, wantIndex: 0, wantDays: 3},
		{spec: "2005:49:1", wantYear: 2005, wantIndex: 49, wantDays: 1},
		{spec: "1980:0", wantErr: true},
		{spec: "1980:0:3:4", wantErr: true},
		{spec: "year:0:3", wantErr: true},
		{spec: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			year, index, days, err := parseCycleSpec(tt.spec)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseCycleSpec(%q) error = nil, want error", tt.spec)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseCycleSpec(%q) error = %v", tt.spec, err)
			}
			if year != tt.wantYear || index != tt.wantIndex || days != tt.wantDays {
				t.Errorf("parseCycleSpec(%q) = %d:%d:%d, want %d:%d:%d",
					tt.spec, year, index, days, tt.wantYear, tt.wantIndex, tt.wantDays)
			}
		})
	}
}
