package module

import (
	"errors"
	"sort"
	"time"

	"github.com/learnhub/learnhub/internal/domain/shared"
)

// LifetimeAfterDeletion is how long a soft-deleted issue is kept before it
// is purged for good.
const LifetimeAfterDeletion = 30 * 24 * time.Hour

// Module is the aggregate root that owns an ordered set of issues.
// Active issue positions are always exactly {1..N}.
type Module struct {
	id          shared.ModuleID
	title       shared.Title
	description shared.Description
	issues      []*Issue
	deletedAt   *time.Time
	createdAt   time.Time
	updatedAt   time.Time
	version     int

	events []shared.Event
}

// NewModule creates an empty module.
func NewModule(title, description string, now time.Time) (*Module, error) {
	t, d, err := newMainInfo(title, description)
	if err != nil {
		return nil, err
	}

	m := &Module{
		id:          shared.NewModuleID(),
		title:       t,
		description: d,
		createdAt:   now,
		updatedAt:   now,
	}
	m.record(shared.NewModuleLifecycleEvent(shared.EventModuleCreated, m.id, nil))
	return m, nil
}

func newMainInfo(title, description string) (shared.Title, shared.Description, error) {
	t, titleErr := shared.NewTitle(title)
	d, descErr := shared.NewDescription(description)
	if err := errors.Join(titleErr, descErr); err != nil {
		return "", "", err
	}
	return t, d, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ACCESSORS
// ══════════════════════════════════════════════════════════════════════════════

func (m *Module) ID() shared.ModuleID             { return m.id }
func (m *Module) Title() shared.Title             { return m.title }
func (m *Module) Description() shared.Description { return m.description }
func (m *Module) CreatedAt() time.Time            { return m.createdAt }
func (m *Module) UpdatedAt() time.Time            { return m.updatedAt }

// Version is the persisted version this aggregate was loaded at.
func (m *Module) Version() int { return m.version }

// SetVersion is called by repositories after a successful write.
func (m *Module) SetVersion(v int) { m.version = v }

// IsDeleted reports whether the module itself is soft deleted.
func (m *Module) IsDeleted() bool { return m.deletedAt != nil }

// DeletedAt returns the module soft-deletion time, or nil.
func (m *Module) DeletedAt() *time.Time {
	if m.deletedAt == nil {
		return nil
	}
	t := *m.deletedAt
	return &t
}

// Issues returns every issue, soft-deleted ones included, active first by
// position.
func (m *Module) Issues() []*Issue {
	out := append([]*Issue(nil), m.issues...)
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].IsDeleted() != out[b].IsDeleted() {
			return !out[a].IsDeleted()
		}
		return out[a].position < out[b].position
	})
	return out
}

// ActiveIssues returns non-deleted issues ordered by position.
func (m *Module) ActiveIssues() []*Issue {
	out := make([]*Issue, 0, len(m.issues))
	for _, issue := range m.issues {
		if !issue.IsDeleted() {
			out = append(out, issue)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].position < out[b].position })
	return out
}

// ActiveCount returns the number of non-deleted issues.
func (m *Module) ActiveCount() int {
	n := 0
	for _, issue := range m.issues {
		if !issue.IsDeleted() {
			n++
		}
	}
	return n
}

// GetIssueByID returns the issue with the given id, deleted or not.
func (m *Module) GetIssueByID(id shared.IssueID) (*Issue, error) {
	issue, _ := m.find(id)
	if issue == nil {
		return nil, shared.ErrIssueNotFound
	}
	return issue, nil
}

// PullEvents returns and clears the events recorded since the last call.
func (m *Module) PullEvents() []shared.Event {
	events := m.events
	m.events = nil
	return events
}

// ══════════════════════════════════════════════════════════════════════════════
// MODULE LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// UpdateMainInfo replaces the module title and description.
func (m *Module) UpdateMainInfo(title, description string) error {
	if err := m.requireActive(); err != nil {
		return err
	}
	t, d, err := newMainInfo(title, description)
	if err != nil {
		return err
	}
	m.title = t
	m.description = d
	m.record(shared.NewModuleLifecycleEvent(shared.EventModuleUpdated, m.id, nil))
	return nil
}

// SoftDelete marks the module and all its active issues deleted at now.
// Positions are left untouched so Restore can bring the layout back.
func (m *Module) SoftDelete(now time.Time) {
	if m.deletedAt != nil {
		return
	}
	t := now
	m.deletedAt = &t

	var affected []shared.IssueID
	for _, issue := range m.issues {
		if !issue.IsDeleted() {
			issue.softDelete(now)
			affected = append(affected, issue.id)
		}
	}
	m.updatedAt = now
	m.record(shared.NewModuleLifecycleEvent(shared.EventModuleDeleted, m.id, affected))
}

// Restore undoes SoftDelete. Issues deleted together with the module keep
// their positions. Issues deleted individually before that are appended to
// the end in deletion order.
func (m *Module) Restore() {
	if m.deletedAt == nil {
		return
	}
	at := m.deletedAt
	m.deletedAt = nil

	var affected []shared.IssueID
	var earlier []*Issue
	for _, issue := range m.issues {
		switch {
		case issue.deletedWith(at):
			issue.restore()
			affected = append(affected, issue.id)
		case issue.IsDeleted():
			earlier = append(earlier, issue)
		}
	}

	sort.SliceStable(earlier, func(a, b int) bool {
		return earlier[a].deletedAt.Before(*earlier[b].deletedAt)
	})
	for _, issue := range earlier {
		issue.restore()
		issue.position = shared.Position(m.ActiveCount())
		affected = append(affected, issue.id)
	}

	m.record(shared.NewModuleLifecycleEvent(shared.EventModuleRestored, m.id, affected))
}

// ══════════════════════════════════════════════════════════════════════════════
// ISSUE ORDERING
// ══════════════════════════════════════════════════════════════════════════════

// AddIssue appends the issue at position activeCount+1.
func (m *Module) AddIssue(issue *Issue) error {
	if err := m.requireActive(); err != nil {
		return err
	}
	if existing, _ := m.find(issue.id); existing != nil {
		return shared.ErrIssueExists
	}
	pos, err := shared.NewPosition(m.ActiveCount() + 1)
	if err != nil {
		return err
	}

	issue.moduleID = m.id
	issue.position = pos
	issue.deletedAt = nil
	m.issues = append(m.issues, issue)

	m.record(shared.NewIssueChangedEvent(shared.EventIssueAdded, m.id, issue.id, pos))
	return nil
}

// DeleteIssue removes the issue permanently. Missing ids are ignored.
func (m *Module) DeleteIssue(id shared.IssueID) error {
	if err := m.requireActive(); err != nil {
		return err
	}
	issue, idx := m.find(id)
	if issue == nil {
		return nil
	}

	if !issue.IsDeleted() {
		if err := m.closeGapAfter(issue.position); err != nil {
			return err
		}
	}
	m.issues = append(m.issues[:idx], m.issues[idx+1:]...)

	m.record(shared.NewIssueChangedEvent(shared.EventIssueDeleted, m.id, issue.id, issue.position))
	return nil
}

// SoftDeleteIssue marks the issue deleted at now and closes the gap it
// leaves. Missing or already deleted issues are ignored.
func (m *Module) SoftDeleteIssue(id shared.IssueID, now time.Time) error {
	if err := m.requireActive(); err != nil {
		return err
	}
	issue, _ := m.find(id)
	if issue == nil || issue.IsDeleted() {
		return nil
	}

	if err := m.closeGapAfter(issue.position); err != nil {
		return err
	}
	issue.softDelete(now)

	m.record(shared.NewIssueChangedEvent(shared.EventIssueSoftDeleted, m.id, issue.id, issue.position))
	return nil
}

// RestoreIssue brings a soft-deleted issue back at the end of the active
// list. Missing or active issues are ignored.
func (m *Module) RestoreIssue(id shared.IssueID) error {
	if err := m.requireActive(); err != nil {
		return err
	}
	issue, _ := m.find(id)
	if issue == nil || !issue.IsDeleted() {
		return nil
	}

	pos, err := shared.NewPosition(m.ActiveCount() + 1)
	if err != nil {
		return err
	}
	issue.restore()
	issue.position = pos

	m.record(shared.NewIssueChangedEvent(shared.EventIssueRestored, m.id, issue.id, pos))
	return nil
}

// DeleteExpiredIssues purges soft-deleted issues whose retention has
// elapsed by now and returns their ids. Active positions are unaffected.
// It also runs on a soft-deleted module.
func (m *Module) DeleteExpiredIssues(now time.Time) []shared.IssueID {
	var removed []shared.IssueID
	kept := m.issues[:0]
	for _, issue := range m.issues {
		if issue.ExpiredAt(now) {
			removed = append(removed, issue.id)
			continue
		}
		kept = append(kept, issue)
	}
	for i := len(kept); i < len(m.issues); i++ {
		m.issues[i] = nil
	}
	m.issues = kept

	if len(removed) > 0 {
		m.record(shared.NewExpiredIssuesPurgedEvent(m.id, removed))
	}
	return removed
}

// MoveIssue places the issue at newPosition, clamped to the active count,
// and shifts the issues in between by one. All shifts are computed before
// anything is applied, so a failure leaves the module unchanged.
func (m *Module) MoveIssue(id shared.IssueID, newPosition shared.Position) error {
	if err := m.requireActive(); err != nil {
		return err
	}
	issue, _ := m.find(id)
	if issue == nil {
		return shared.ErrIssueNotFound
	}
	if issue.IsDeleted() {
		return shared.ErrIssueDeleted
	}

	count := m.ActiveCount()
	current := issue.position
	if newPosition.Equal(current) || count == 1 {
		return nil
	}
	if newPosition.Int() > count {
		newPosition = shared.Position(count)
		if newPosition.Equal(current) {
			return nil
		}
	}

	shifted := make(map[*Issue]shared.Position)
	for _, other := range m.issues {
		if other == issue || other.IsDeleted() {
			continue
		}
		var (
			next shared.Position
			err  error
		)
		switch {
		case newPosition.Less(current) && !other.position.Less(newPosition) && other.position.Less(current):
			next, err = other.position.Forward()
		case newPosition.Greater(current) && other.position.Greater(current) && !other.position.Greater(newPosition):
			next, err = other.position.Back()
		default:
			continue
		}
		if err != nil {
			return err
		}
		shifted[other] = next
	}

	for other, pos := range shifted {
		other.position = pos
	}
	issue.position = newPosition

	m.record(shared.NewIssuesReorderedEvent(m.id, issue.id, current, newPosition))
	return nil
}

// UpdateIssueInfo replaces the descriptive attributes of an issue.
func (m *Module) UpdateIssueInfo(id shared.IssueID, info IssueInfo) error {
	if err := m.requireActive(); err != nil {
		return err
	}
	issue, _ := m.find(id)
	if issue == nil {
		return shared.ErrIssueNotFound
	}
	issue.updateInfo(info)
	m.record(shared.NewIssueChangedEvent(shared.EventIssueUpdated, m.id, issue.id, issue.position))
	return nil
}

// UpdateIssueFiles replaces the file references of an issue.
func (m *Module) UpdateIssueFiles(id shared.IssueID, fileIDs []shared.FileID) error {
	if err := m.requireActive(); err != nil {
		return err
	}
	issue, _ := m.find(id)
	if issue == nil {
		return shared.ErrIssueNotFound
	}
	issue.updateFiles(fileIDs)
	m.record(shared.NewIssueChangedEvent(shared.EventIssueUpdated, m.id, issue.id, issue.position))
	return nil
}

// closeGapAfter moves every active issue behind pos one step back.
func (m *Module) closeGapAfter(pos shared.Position) error {
	shifted := make(map[*Issue]shared.Position)
	for _, other := range m.issues {
		if other.IsDeleted() || !other.position.Greater(pos) {
			continue
		}
		next, err := other.position.Back()
		if err != nil {
			return err
		}
		shifted[other] = next
	}
	for other, p := range shifted {
		other.position = p
	}
	return nil
}

// requireActive rejects issue and info changes while the module is soft
// deleted. Restore relies on the positions frozen by SoftDelete.
func (m *Module) requireActive() error {
	if m.IsDeleted() {
		return shared.ErrModuleDeleted
	}
	return nil
}

func (m *Module) find(id shared.IssueID) (*Issue, int) {
	for i, issue := range m.issues {
		if issue.id == id {
			return issue, i
		}
	}
	return nil, -1
}

func (m *Module) record(e shared.Event) {
	m.events = append(m.events, e)
}
