package output

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/ironvirt/internal/image"
	"github.com/jbweber/ironvirt/internal/vm"
)

const testDigest = "754129c5052756ee47a0c395e518bd3413f444dff69b98f8a8fa42f2fa3acc2d"

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testInstances() []vm.InstanceStatus {
	return []vm.InstanceStatus{
		{ID: "othervm", Status: vm.StatusUnknown},
		{ID: "web01", Status: vm.StatusUnknown},
	}
}

func testImages() []image.Info {
	return []image.Info{
		{
			Digest:    testDigest,
			Path:      "/var/lib/bigiron-virt/images/" + testDigest + ".qcow2",
			SizeBytes: 1 << 30,
			ModTime:   testNow.Add(-2 * time.Hour),
		},
	}
}

func TestTableFormatter_FormatInstances(t *testing.T) {
	tests := []struct {
		name      string
		noHeaders bool
		instances []vm.InstanceStatus
		wantLines int
		contains  []string
		excludes  []string
	}{
		{
			name:      "with headers",
			instances: testInstances(),
			wantLines: 3,
			contains:  []string{"ID", "STATUS", "othervm", "web01", "unknown"},
		},
		{
			name:      "no headers",
			noHeaders: true,
			instances: testInstances(),
			wantLines: 2,
			contains:  []string{"othervm"},
			excludes:  []string{"STATUS"},
		},
		{
			name:      "empty",
			wantLines: 1,
			contains:  []string{"No instances found"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &TableFormatter{NoHeaders: tt.noHeaders}
			out, err := f.FormatInstances(tt.instances)
			if err != nil {
				t.Fatalf("FormatInstances() error = %v", err)
			}

			lines := strings.Split(strings.TrimSpace(out), "\n")
			if len(lines) != tt.wantLines {
				t.Errorf("got %d lines, want %d:\n%s", len(lines), tt.wantLines, out)
			}
			for _, s := range tt.contains {
				if !strings.Contains(out, s) {
					t.Errorf("output missing %q:\n%s", s, out)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(out, s) {
					t.Errorf("output should not contain %q:\n%s", s, out)
				}
			}
		})
	}
}

func TestTableFormatter_FormatImages(t *testing.T) {
	f := &TableFormatter{now: func() time.Time { return testNow }}

	out, err := f.FormatImages(testImages())
	if err != nil {
		t.Fatalf("FormatImages() error = %v", err)
	}

	for _, s := range []string{"DIGEST", "SIZE", "AGE", testDigest, "1GiB", "2h"} {
		if !strings.Contains(out, s) {
			t.Errorf("output missing %q:\n%s", s, out)
		}
	}

	empty, err := f.FormatImages(nil)
	if err != nil {
		t.Fatalf("FormatImages(nil) error = %v", err)
	}
	if empty != "No images found\n" {
		t.Errorf("FormatImages(nil) = %q", empty)
	}
}

func TestYAMLFormatter(t *testing.T) {
	f := &YAMLFormatter{}

	out, err := f.FormatInstances(testInstances())
	if err != nil {
		t.Fatalf("FormatInstances() error = %v", err)
	}
	var instances []vm.InstanceStatus
	if err := yaml.Unmarshal([]byte(out), &instances); err != nil {
		t.Fatalf("output is not valid YAML: %v\n%s", err, out)
	}
	if len(instances) != 2 || instances[1].ID != "web01" {
		t.Errorf("decoded instances = %+v", instances)
	}

	out, err = f.FormatImages(testImages())
	if err != nil {
		t.Fatalf("FormatImages() error = %v", err)
	}
	if !strings.Contains(out, "digest: "+testDigest) || !strings.Contains(out, "sizeBytes: 1073741824") {
		t.Errorf("unexpected YAML:\n%s", out)
	}

	empty, err := f.FormatInstances(nil)
	if err != nil {
		t.Fatalf("FormatInstances(nil) error = %v", err)
	}
	if empty != "[]\n" {
		t.Errorf("FormatInstances(nil) = %q, want []", empty)
	}
}

func TestJSONFormatter(t *testing.T) {
	f := &JSONFormatter{}

	out, err := f.FormatInstances(testInstances())
	if err != nil {
		t.Fatalf("FormatInstances() error = %v", err)
	}
	var instances []vm.InstanceStatus
	if err := json.Unmarshal([]byte(out), &instances); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out)
	}
	if len(instances) != 2 || instances[0].Status != "unknown" {
		t.Errorf("decoded instances = %+v", instances)
	}

	out, err = f.FormatImages(testImages())
	if err != nil {
		t.Fatalf("FormatImages() error = %v", err)
	}
	var images []image.Info
	if err := json.Unmarshal([]byte(out), &images); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out)
	}
	if len(images) != 1 || images[0].SizeBytes != 1<<30 || !images[0].ModTime.Equal(testImages()[0].ModTime) {
		t.Errorf("decoded images = %+v", images)
	}

	empty, err := f.FormatImages(nil)
	if err != nil {
		t.Fatalf("FormatImages(nil) error = %v", err)
	}
	if empty != "[]\n" {
		t.Errorf("FormatImages(nil) = %q, want []", empty)
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "table format", opts: Options{Format: FormatTable}},
		{name: "yaml format", opts: Options{Format: FormatYAML}},
		{name: "json format", opts: Options{Format: FormatJSON}},
		{name: "invalid format", opts: Options{Format: "invalid"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter, err := NewFormatter(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewFormatter() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && formatter == nil {
				t.Error("NewFormatter() returned nil formatter")
			}
		})
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		wantErr bool
	}{
		{name: "valid table", format: "table"},
		{name: "valid yaml", format: "yaml"},
		{name: "valid json", format: "json"},
		{name: "invalid format", format: "xml", wantErr: true},
		{name: "empty format", format: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFormat(tt.format)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFormat() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		want     string
	}{
		{"5 seconds", 5 * time.Second, "5s"},
		{"90 seconds", 90 * time.Second, "1m"},
		{"2 hours", 2 * time.Hour, "2h"},
		{"2 days", 48 * time.Hour, "2d"},
		{"2 weeks", 14 * 24 * time.Hour, "2w"},
		{"60 days", 60 * 24 * time.Hour, "60d"},
		{"400 days", 400 * 24 * time.Hour, "1y"},
		{"negative", -time.Second, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatAge(tt.duration); got != tt.want {
				t.Errorf("formatAge(%v) = %q, want %q", tt.duration, got, tt.want)
			}
		})
	}
}
