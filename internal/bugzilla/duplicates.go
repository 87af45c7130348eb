package bugzilla

import (
	"context"
	"fmt"

	"github.com/andywolf/crashreporter/internal/progress"
)

// WhiteboardPrefix tags issues filed by this tool so they can be found again.
const WhiteboardPrefix = "abrt_hash"

type searchParams struct {
	Quicksearch string `xmlrpc:"quicksearch"`
}

type searchHit struct {
	ID int `xmlrpc:"bug_id"`
}

type searchResult struct {
	Bugs []searchHit `xmlrpc:"bugs"`
}

// Whiteboard returns the status whiteboard tag for a crash identifier.
func Whiteboard(uuid string) string {
	return WhiteboardPrefix + ":" + uuid
}

// SearchQuery builds the quicksearch query matching a component and
// crash identifier.
func SearchQuery(component, uuid string) string {
	return fmt.Sprintf(`ALL component:"%s" statuswhiteboard:"%s"`, component, uuid)
}

// FindExisting looks for an issue already filed for the crash identifier.
// found is false when the search returned no bugs; otherwise id is the first
// match.
func FindExisting(ctx context.Context, c Caller, n progress.Notifier, component, uuid string) (id int, found bool, err error) {
	var result searchResult
	if err := c.Call(ctx, "Bug.search", &result, searchParams{Quicksearch: SearchQuery(component, uuid)}); err != nil {
		return 0, false, err
	}

	if len(result.Bugs) == 0 {
		return 0, false, nil
	}

	id = result.Bugs[0].ID
	if id <= 0 {
		return 0, false, &DataError{Op: "Bug.search", Err: fmt.Errorf("first match has no valid bug_id")}
	}

	n.Update(fmt.Sprintf("Bug is already reported: %d", id))
	return id, true, nil
}
