package registry

import (
	"strings"
	"testing"
)

func TestParseManifest_Valid(t *testing.T) {
	data := []byte(`id: clock-drift
title: Clock Drift Monitor
version: 1.2.0
authors:
  - Ada Example
description: Watches for client clock drift.
homepage: https://example.com/clock-drift
requirements:
  minimum_version: 1.0.0
  platforms:
    - linux
`)
	m, err := ParseManifest(data)
	if err != nil {
		t.Fatalf("ParseManifest failed: %v", err)
	}
	if m.ID != "clock-drift" || m.Title != "Clock Drift Monitor" || m.Version != "1.2.0" {
		t.Errorf("unexpected manifest %+v", m)
	}
	if len(m.Authors) != 1 || m.Authors[0] != "Ada Example" {
		t.Errorf("authors lost: %+v", m.Authors)
	}
	if m.Requirements.MinimumVersion != "1.0.0" {
		t.Errorf("requirements lost: %+v", m.Requirements)
	}
}

func TestParseManifest_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"missing id", "title: T\nversion: 1.0.0\n", "'id'"},
		{"missing title", "id: p\nversion: 1.0.0\n", "'title'"},
		{"missing version", "id: p\ntitle: T\n", "'version'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.data))
			if err == nil {
				t.Fatalf("expected error for %s", tt.name)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error naming %s, got: %v", tt.want, err)
			}
		})
	}
}

func TestParseManifest_InvalidYAML(t *testing.T) {
	if _, err := ParseManifest([]byte("id: [unclosed")); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}
