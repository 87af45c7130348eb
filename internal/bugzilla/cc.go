package bugzilla

import (
	"context"
	"strconv"
)

// IssueRef is the part of a remote issue needed to decide whether the
// current user already follows it.
type IssueRef struct {
	ID       int
	Reporter string
	CC       []string
}

// Includes reports whether login is the reporter or on the CC list.
// Comparison is case sensitive.
func (r *IssueRef) Includes(login string) bool {
	if r.Reporter == login {
		return true
	}
	for _, cc := range r.CC {
		if cc == login {
			return true
		}
	}
	return false
}

type bugInfo struct {
	Reporter string   `xmlrpc:"reporter"`
	CC       []string `xmlrpc:"cc"`
}

type updateParams struct {
	IDs     []int     `xmlrpc:"ids"`
	Updates ccUpdates `xmlrpc:"updates"`
}

type ccUpdates struct {
	AddCC []string `xmlrpc:"add_cc"`
}

// GetIssue fetches the reporter and CC list of an issue.
func GetIssue(ctx context.Context, c Caller, id int) (*IssueRef, error) {
	var info bugInfo
	if err := c.Call(ctx, "bugzilla.getBug", &info, strconv.Itoa(id)); err != nil {
		return nil, err
	}
	return &IssueRef{ID: id, Reporter: info.Reporter, CC: info.CC}, nil
}

// IsInterested reports whether login is already the reporter or a CC of
// the issue.
func IsInterested(ctx context.Context, c Caller, id int, login string) (bool, error) {
	ref, err := GetIssue(ctx, c, id)
	if err != nil {
		return false, err
	}
	return ref.Includes(login), nil
}

// AddInterested appends login to the issue's CC list.
func AddInterested(ctx context.Context, c Caller, id int, login string) error {
	return c.Call(ctx, "Bug.update", nil, updateParams{
		IDs:     []int{id},
		Updates: ccUpdates{AddCC: []string{login}},
	})
}
