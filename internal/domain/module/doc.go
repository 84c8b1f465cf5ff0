// Package module holds the Module aggregate and its Issue entities.
//
// A Module is the only place where issue positions change. Every operation
// keeps the positions of active (non soft-deleted) issues contiguous:
//
//	m, _ := module.NewModule("Go basics", "", now)
//	info, _ := module.NewIssueInfo("Hello", "", "", 10)
//	first, second := module.NewIssue(info, nil), module.NewIssue(info, nil)
//	_ = m.AddIssue(first)  // position 1
//	_ = m.AddIssue(second) // position 2
//	_ = m.MoveIssue(second.ID(), shared.MustPosition(1))
//
// Soft-deleted issues keep their last position but take no part in the
// ordering. They are restored at the end of the list or purged by
// DeleteExpiredIssues once LifetimeAfterDeletion has passed.
//
// Mutations record domain events which the application layer pulls with
// PullEvents after a successful save.
package module
