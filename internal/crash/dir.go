package crash

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// KindsFilename is an optional manifest inside a problem directory that
// overrides the detected kind of individual fields.
const KindsFilename = ".kinds.yaml"

// AttachmentThreshold is the size in bytes above which a text file is
// reported as an attachment instead of inline text.
const AttachmentThreshold = 2 * 1024

// LoadDir reads a problem directory into a Report. Every regular,
// non-hidden file becomes one field named after the file.
func LoadDir(dir string) (Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read problem directory: %w", err)
	}

	overrides, err := loadKinds(filepath.Join(dir, KindsFilename))
	if err != nil {
		return nil, err
	}

	report := make(Report, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || !entry.Type().IsRegular() {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}

		kind, ok := overrides[name]
		if !ok {
			kind = DetectKind(data)
		}
		report[name] = Field{Kind: kind, Content: string(data)}
	}

	return report, nil
}

// DetectKind classifies raw file content.
func DetectKind(data []byte) Kind {
	if bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data) {
		return KindBinary
	}
	if len(data) > AttachmentThreshold {
		return KindAttachment
	}
	return KindText
}

func loadKinds(path string) (map[string]Kind, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", KindsFilename, err)
	}

	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", KindsFilename, err)
	}

	kinds := make(map[string]Kind, len(raw))
	for name, value := range raw {
		kind, err := ParseKind(value)
		if err != nil {
			return nil, fmt.Errorf("%s: field %s: %w", KindsFilename, name, err)
		}
		kinds[name] = kind
	}
	return kinds, nil
}

// ParseKind converts a manifest value into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindText:
		return KindText, nil
	case KindAttachment:
		return KindAttachment, nil
	case KindBinary:
		return KindBinary, nil
	default:
		return "", fmt.Errorf("unknown field kind %q (must be text, attachment or binary)", s)
	}
}
