package bugzilla

import (
	"context"
	"fmt"

	"github.com/andywolf/crashreporter/internal/crash"
	"github.com/andywolf/crashreporter/internal/progress"
)

// Issue is a Bug.create request.
type Issue struct {
	Product     string `xmlrpc:"product"`
	Component   string `xmlrpc:"component"`
	Version     string `xmlrpc:"version"`
	Summary     string `xmlrpc:"summary"`
	Description string `xmlrpc:"description"`
	Whiteboard  string `xmlrpc:"status_whiteboard"`
	Platform    string `xmlrpc:"platform"`
}

type createResult struct {
	ID int `xmlrpc:"id"`
}

// NewIssue builds the create request for report. It fails with a
// *DataError if a required field is missing or is not text. Warnings about binary fields
// are sent to n.
func NewIssue(report crash.Report, prefix string, rules []Rule, n progress.Notifier) (*Issue, error) {
	if err := report.Validate(); err != nil {
		return nil, &DataError{Op: "Bug.create", Err: err}
	}

	pkg, _ := report.Get(crash.FieldPackage)
	component, _ := report.Get(crash.FieldComponent)
	release, _ := report.Get(crash.FieldRelease)
	arch, _ := report.Get(crash.FieldArchitecture)
	uuid, _ := report.Get(crash.FieldUUID)

	pv := ResolveProduct(release, rules)

	return &Issue{
		Product:     pv.Product,
		Component:   component,
		Version:     pv.Version,
		Summary:     fmt.Sprintf("[%s] crash detected in %s", prefix, pkg),
		Description: RenderDescription(report, prefix, n),
		Whiteboard:  Whiteboard(uuid),
		Platform:    arch,
	}, nil
}

// Create files issue and returns the new bug id. A response without an id
// yields 0 and no error.
func Create(ctx context.Context, c Caller, n progress.Notifier, issue *Issue) (int, error) {
	var result createResult
	if err := c.Call(ctx, "Bug.create", &result, *issue); err != nil {
		return 0, err
	}
	if result.ID <= 0 {
		return 0, nil
	}

	n.Update(fmt.Sprintf("New bug id: %d", result.ID))
	return result.ID, nil
}
