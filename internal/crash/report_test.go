package crash

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestReport_Validate(t *testing.T) {
	full := Report{
		FieldComponent:    {Kind: KindText, Content: "kernel"},
		FieldRelease:      {Kind: KindText, Content: "Fedora release 20 (Heisenbug)"},
		FieldArchitecture: {Kind: KindText, Content: "x86_64"},
		FieldPackage:      {Kind: KindText, Content: "kernel-3.11"},
		FieldUUID:         {Kind: KindText, Content: "abc123"},
	}

	if err := full.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	for _, name := range RequiredFields {
		t.Run("missing "+name, func(t *testing.T) {
			r := Report{}
			for k, v := range full {
				if k != name {
					r[k] = v
				}
			}
			err := r.Validate()
			var missing *MissingFieldError
			if !errors.As(err, &missing) {
				t.Fatalf("Validate() error = %v, want *MissingFieldError", err)
			}
			if missing.Name != name {
				t.Errorf("missing.Name = %q, want %q", missing.Name, name)
			}
		})
	}
}

func TestReport_RequireText(t *testing.T) {
	r := Report{
		FieldComponent: {Kind: KindText, Content: "kernel"},
		FieldUUID:      {Kind: KindBinary, Content: "\x00\x01"},
		FieldPackage:   {Kind: KindAttachment, Content: "kernel-3.11"},
	}

	if got, err := r.Component(); err != nil || got != "kernel" {
		t.Errorf("Component() = %q, %v; want kernel", got, err)
	}

	for _, name := range []string{FieldUUID, FieldPackage} {
		_, err := r.Require(name)
		var notText *NotTextError
		if !errors.As(err, &notText) {
			t.Fatalf("Require(%q) error = %v, want *NotTextError", name, err)
		}
		if notText.Name != name {
			t.Errorf("notText.Name = %q, want %q", notText.Name, name)
		}
	}

	full := Report{
		FieldComponent:    {Kind: KindText, Content: "kernel"},
		FieldRelease:      {Kind: KindBinary, Content: "\xff"},
		FieldArchitecture: {Kind: KindText, Content: "x86_64"},
		FieldPackage:      {Kind: KindText, Content: "kernel-3.11"},
		FieldUUID:         {Kind: KindText, Content: "abc123"},
	}
	var notText *NotTextError
	if err := full.Validate(); !errors.As(err, &notText) || notText.Name != FieldRelease {
		t.Errorf("Validate() error = %v, want *NotTextError for %s", err, FieldRelease)
	}
}

func TestReport_NamesOfKind(t *testing.T) {
	r := Report{
		"b":      {Kind: KindAttachment},
		"a":      {Kind: KindAttachment},
		"core":   {Kind: KindBinary},
		"reason": {Kind: KindText},
	}

	if got, want := r.NamesOfKind(KindAttachment), []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("NamesOfKind(attachment) = %v, want %v", got, want)
	}
	if got, want := r.Names(), []string{"a", "b", "core", "reason"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Kind
	}{
		{name: "short text", data: []byte("x86_64\n"), want: KindText},
		{name: "empty", data: nil, want: KindText},
		{name: "nul byte", data: []byte{'E', 'L', 'F', 0, 1}, want: KindBinary},
		{name: "invalid utf8", data: []byte{0xff, 0xfe, 'a'}, want: KindBinary},
		{name: "long text", data: []byte(strings.Repeat("frame\n", 500)), want: KindAttachment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectKind(tt.data); got != tt.want {
				t.Errorf("DetectKind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string][]byte{
		"component":   []byte("kernel"),
		"backtrace":   []byte(strings.Repeat("#0 frame\n", 400)),
		"coredump":    {0x7f, 'E', 'L', 'F', 0},
		"smolbt":      []byte("short"),
		".hidden":     []byte("ignored"),
		KindsFilename: []byte("smolbt: attachment\n"),
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0600); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0700); err != nil {
		t.Fatal(err)
	}

	report, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() unexpected error: %v", err)
	}

	want := map[string]Kind{
		"component": KindText,
		"backtrace": KindAttachment,
		"coredump":  KindBinary,
		"smolbt":    KindAttachment,
	}
	if len(report) != len(want) {
		t.Fatalf("LoadDir() returned %d fields (%v), want %d", len(report), report.Names(), len(want))
	}
	for name, kind := range want {
		if report[name].Kind != kind {
			t.Errorf("field %s kind = %q, want %q", name, report[name].Kind, kind)
		}
	}
	if report["component"].Content != "kernel" {
		t.Errorf("component content = %q, want %q", report["component"].Content, "kernel")
	}
}

func TestLoadDir_BadManifest(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, KindsFilename), []byte("core: executable\n"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadDir(dir)
	if err == nil || !strings.Contains(err.Error(), "unknown field kind") {
		t.Errorf("LoadDir() error = %v, want unknown field kind", err)
	}
}

func TestLoadDir_Missing(t *testing.T) {
	if _, err := LoadDir(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("LoadDir() expected error for missing directory")
	}
}
