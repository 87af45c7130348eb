package bugzilla

import (
	"fmt"
	"strings"

	"github.com/andywolf/crashreporter/internal/crash"
	"github.com/andywolf/crashreporter/internal/progress"
)

// Fields rendered elsewhere in the issue, or not at all.
var omittedFromDescription = map[string]bool{
	crash.FieldUUID:         true,
	crash.FieldArchitecture: true,
	crash.FieldRelease:      true,
	crash.FieldReproduce:    true,
	crash.FieldComment:      true,
}

// RenderDescription builds the issue body. Fields are visited in
// lexicographic order so the output is stable. Binary fields are left out
// and a warning naming each one is sent to n.
func RenderDescription(report crash.Report, prefix string, n progress.Notifier) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n%s detected a crash.\n", prefix)
	if f, ok := report[crash.FieldReproduce]; ok && f.Kind == crash.KindText {
		b.WriteString("\n\nHow to reproduce\n-----\n" + f.Content)
	}
	if f, ok := report[crash.FieldComment]; ok && f.Kind == crash.KindText {
		b.WriteString("\n\nComment\n-----\n" + f.Content)
	}
	b.WriteString("\n\nAdditional information\n======\n")

	var attached []string
	for _, name := range report.Names() {
		field := report[name]
		switch field.Kind {
		case crash.KindText:
			if omittedFromDescription[name] {
				continue
			}
			b.WriteString("\n" + name + "\n-----\n" + field.Content + "\n\n")
		case crash.KindAttachment:
			attached = append(attached, name)
		case crash.KindBinary:
			n.Warn(fmt.Sprintf("Binary file %s will not be reported.", name))
		}
	}

	if len(attached) > 0 {
		b.WriteString("\n\nAttached files\n----\n")
		for _, name := range attached {
			b.WriteString(name + "\n")
		}
	}

	return b.String()
}
