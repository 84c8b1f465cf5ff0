package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

const (
	// Module events
	EventModuleCreated  EventType = "module.created"
	EventModuleUpdated  EventType = "module.updated"
	EventModuleDeleted  EventType = "module.deleted"
	EventModuleRestored EventType = "module.restored"

	// Issue ordering events
	EventIssueAdded          EventType = "issue.added"
	EventIssueUpdated        EventType = "issue.updated"
	EventIssuesReordered     EventType = "issue.reordered"
	EventIssueSoftDeleted    EventType = "issue.soft_deleted"
	EventIssueRestored       EventType = "issue.restored"
	EventIssueDeleted        EventType = "issue.deleted"
	EventExpiredIssuesPurged EventType = "issue.expired_purged"

	// Solving events
	EventIssueTakenOnWork EventType = "solving.taken_on_work"

	// Review events
	EventReviewSubmitted    EventType = "review.submitted"
	EventReviewStarted      EventType = "review.started"
	EventRevisionRequested  EventType = "review.revision_requested"
	EventReviewApproved     EventType = "review.approved"
	EventReviewCommentAdded EventType = "review.comment_added"
)

// ModuleEventTypes lists every event that changes the issue layout of a module.
var ModuleEventTypes = []EventType{
	EventModuleDeleted,
	EventModuleRestored,
	EventIssueAdded,
	EventIssueUpdated,
	EventIssuesReordered,
	EventIssueSoftDeleted,
	EventIssueRestored,
	EventIssueDeleted,
	EventExpiredIssuesPurged,
}

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// ModuleEvent is implemented by events raised by the Module aggregate.
// AggregateID is the module id.
type ModuleEvent interface {
	Event
	AffectedIssueIDs() []string
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Module Events
// ═══════════════════════════════════════════════════════════════════════════

// ModuleLifecycleEvent is emitted when a module is created, renamed,
// soft deleted or restored.
type ModuleLifecycleEvent struct {
	BaseEvent
	ModuleID string   `json:"module_id"`
	IssueIDs []string `json:"issue_ids,omitempty"`
}

// Payload implements Event interface.
func (e ModuleLifecycleEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"module_id": e.ModuleID,
		"issue_ids": e.IssueIDs,
	}
}

// AffectedIssueIDs implements ModuleEvent.
func (e ModuleLifecycleEvent) AffectedIssueIDs() []string {
	return e.IssueIDs
}

// NewModuleLifecycleEvent creates a new ModuleLifecycleEvent.
func NewModuleLifecycleEvent(eventType EventType, moduleID ModuleID, issueIDs []IssueID) ModuleLifecycleEvent {
	return ModuleLifecycleEvent{
		BaseEvent: NewBaseEvent(eventType, moduleID.String()),
		ModuleID:  moduleID.String(),
		IssueIDs:  issueIDStrings(issueIDs),
	}
}

// IssueChangedEvent is emitted for single-issue changes inside a module:
// added, updated, soft deleted, restored or hard deleted.
type IssueChangedEvent struct {
	BaseEvent
	ModuleID string `json:"module_id"`
	IssueID  string `json:"issue_id"`
	Position int    `json:"position,omitempty"`
}

// Payload implements Event interface.
func (e IssueChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"module_id": e.ModuleID,
		"issue_id":  e.IssueID,
		"position":  e.Position,
	}
}

// AffectedIssueIDs implements ModuleEvent.
func (e IssueChangedEvent) AffectedIssueIDs() []string {
	return []string{e.IssueID}
}

// NewIssueChangedEvent creates a new IssueChangedEvent.
func NewIssueChangedEvent(eventType EventType, moduleID ModuleID, issueID IssueID, position Position) IssueChangedEvent {
	return IssueChangedEvent{
		BaseEvent: NewBaseEvent(eventType, moduleID.String()),
		ModuleID:  moduleID.String(),
		IssueID:   issueID.String(),
		Position:  position.Int(),
	}
}

// IssuesReorderedEvent is emitted when an issue moves to another position.
type IssuesReorderedEvent struct {
	BaseEvent
	ModuleID     string `json:"module_id"`
	IssueID      string `json:"issue_id"`
	FromPosition int    `json:"from_position"`
	ToPosition   int    `json:"to_position"`
}

// Payload implements Event interface.
func (e IssuesReorderedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"module_id":     e.ModuleID,
		"issue_id":      e.IssueID,
		"from_position": e.FromPosition,
		"to_position":   e.ToPosition,
	}
}

// AffectedIssueIDs implements ModuleEvent.
func (e IssuesReorderedEvent) AffectedIssueIDs() []string {
	return []string{e.IssueID}
}

// NewIssuesReorderedEvent creates a new IssuesReorderedEvent.
func NewIssuesReorderedEvent(moduleID ModuleID, issueID IssueID, from, to Position) IssuesReorderedEvent {
	return IssuesReorderedEvent{
		BaseEvent:    NewBaseEvent(EventIssuesReordered, moduleID.String()),
		ModuleID:     moduleID.String(),
		IssueID:      issueID.String(),
		FromPosition: from.Int(),
		ToPosition:   to.Int(),
	}
}

// ExpiredIssuesPurgedEvent is emitted when soft-deleted issues past their
// retention are removed.
type ExpiredIssuesPurgedEvent struct {
	BaseEvent
	ModuleID string   `json:"module_id"`
	IssueIDs []string `json:"issue_ids"`
}

// Payload implements Event interface.
func (e ExpiredIssuesPurgedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"module_id": e.ModuleID,
		"issue_ids": e.IssueIDs,
	}
}

// AffectedIssueIDs implements ModuleEvent.
func (e ExpiredIssuesPurgedEvent) AffectedIssueIDs() []string {
	return e.IssueIDs
}

// NewExpiredIssuesPurgedEvent creates a new ExpiredIssuesPurgedEvent.
func NewExpiredIssuesPurgedEvent(moduleID ModuleID, issueIDs []IssueID) ExpiredIssuesPurgedEvent {
	return ExpiredIssuesPurgedEvent{
		BaseEvent: NewBaseEvent(EventExpiredIssuesPurged, moduleID.String()),
		ModuleID:  moduleID.String(),
		IssueIDs:  issueIDStrings(issueIDs),
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Solving Events
// ═══════════════════════════════════════════════════════════════════════════

// IssueTakenOnWorkEvent is emitted when a user starts working on an issue.
type IssueTakenOnWorkEvent struct {
	BaseEvent
	UserIssueID string `json:"user_issue_id"`
	UserID      string `json:"user_id"`
	IssueID     string `json:"issue_id"`
}

// Payload implements Event interface.
func (e IssueTakenOnWorkEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_issue_id": e.UserIssueID,
		"user_id":       e.UserID,
		"issue_id":      e.IssueID,
	}
}

// NewIssueTakenOnWorkEvent creates a new IssueTakenOnWorkEvent.
func NewIssueTakenOnWorkEvent(userIssueID UserIssueID, userID UserID, issueID IssueID) IssueTakenOnWorkEvent {
	return IssueTakenOnWorkEvent{
		BaseEvent:   NewBaseEvent(EventIssueTakenOnWork, userIssueID.String()),
		UserIssueID: userIssueID.String(),
		UserID:      userID.String(),
		IssueID:     issueID.String(),
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Review Events
// ═══════════════════════════════════════════════════════════════════════════

// ReviewStatusChangedEvent is emitted on every review state transition.
type ReviewStatusChangedEvent struct {
	BaseEvent
	ReviewID    string `json:"review_id"`
	UserIssueID string `json:"user_issue_id"`
	ActorID     string `json:"actor_id,omitempty"`
	Status      string `json:"status"`
}

// Payload implements Event interface.
func (e ReviewStatusChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"review_id":     e.ReviewID,
		"user_issue_id": e.UserIssueID,
		"actor_id":      e.ActorID,
		"status":        e.Status,
	}
}

// NewReviewStatusChangedEvent creates a new ReviewStatusChangedEvent.
func NewReviewStatusChangedEvent(eventType EventType, reviewID ReviewID, userIssueID UserIssueID, actorID UserID, status string) ReviewStatusChangedEvent {
	actor := ""
	if !actorID.IsEmpty() {
		actor = actorID.String()
	}
	return ReviewStatusChangedEvent{
		BaseEvent:   NewBaseEvent(eventType, reviewID.String()),
		ReviewID:    reviewID.String(),
		UserIssueID: userIssueID.String(),
		ActorID:     actor,
		Status:      status,
	}
}

// ReviewCommentAddedEvent is emitted when a comment is posted on a review.
type ReviewCommentAddedEvent struct {
	BaseEvent
	ReviewID  string `json:"review_id"`
	CommentID string `json:"comment_id"`
	AuthorID  string `json:"author_id"`
}

// Payload implements Event interface.
func (e ReviewCommentAddedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"review_id":  e.ReviewID,
		"comment_id": e.CommentID,
		"author_id":  e.AuthorID,
	}
}

// NewReviewCommentAddedEvent creates a new ReviewCommentAddedEvent.
func NewReviewCommentAddedEvent(reviewID ReviewID, commentID CommentID, authorID UserID) ReviewCommentAddedEvent {
	return ReviewCommentAddedEvent{
		BaseEvent: NewBaseEvent(EventReviewCommentAdded, reviewID.String()),
		ReviewID:  reviewID.String(),
		CommentID: commentID.String(),
		AuthorID:  authorID.String(),
	}
}

func issueIDStrings(ids []IssueID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
