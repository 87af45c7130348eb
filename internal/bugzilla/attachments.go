package bugzilla

import (
	"context"
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/andywolf/crashreporter/internal/crash"
)

// Attachment is a bugzilla.addAttachment payload.
type Attachment struct {
	Description string `xmlrpc:"description"`
	Filename    string `xmlrpc:"filename"`
	ContentType string `xmlrpc:"contenttype"`
	Data        string `xmlrpc:"data"`
}

// NewAttachment encodes a field as a plain text attachment.
func NewAttachment(name, content string) Attachment {
	return Attachment{
		Description: "File: " + name,
		Filename:    name,
		ContentType: "text/plain",
		Data:        encodeAttachment(content),
	}
}

// encodeAttachment base64-encodes content and keeps only printable ASCII,
// so line breaks inserted by an encoder never reach the server.
func encodeAttachment(content string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(content))
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e {
			return -1
		}
		return r
	}, encoded)
}

// UploadAll attaches every attachment-kind field of report to the issue.
// Text and binary fields are never sent.
func UploadAll(ctx context.Context, c Caller, id int, report crash.Report) error {
	bugID := strconv.Itoa(id)
	for _, name := range report.NamesOfKind(crash.KindAttachment) {
		if err := c.Call(ctx, "bugzilla.addAttachment", nil, bugID, NewAttachment(name, report[name].Content)); err != nil {
			return err
		}
	}
	return nil
}
