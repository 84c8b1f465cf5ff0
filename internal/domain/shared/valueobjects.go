package shared

import (
	"fmt"
	"math"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// ModuleID identifies a module.
type ModuleID uuid.UUID

// IssueID identifies an issue within the catalog.
type IssueID uuid.UUID

// UserID identifies a platform user (learner or reviewer).
type UserID uuid.UUID

// UserIssueID identifies a user's solving record for one issue.
type UserIssueID uuid.UUID

// ReviewID identifies an issue review.
type ReviewID uuid.UUID

// CommentID identifies a review comment.
type CommentID uuid.UUID

// LessonID references a lesson. The zero value means "no lesson".
type LessonID uuid.UUID

// FileID references a stored file.
type FileID uuid.UUID

// NewModuleID generates a fresh module identifier.
func NewModuleID() ModuleID { return ModuleID(uuid.New()) }

// NewIssueID generates a fresh issue identifier.
func NewIssueID() IssueID { return IssueID(uuid.New()) }

// NewUserID generates a fresh user identifier.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewUserIssueID generates a fresh user issue identifier.
func NewUserIssueID() UserIssueID { return UserIssueID(uuid.New()) }

// NewReviewID generates a fresh review identifier.
func NewReviewID() ReviewID { return ReviewID(uuid.New()) }

// NewCommentID generates a fresh comment identifier.
func NewCommentID() CommentID { return CommentID(uuid.New()) }

func (id ModuleID) String() string    { return uuid.UUID(id).String() }
func (id IssueID) String() string     { return uuid.UUID(id).String() }
func (id UserID) String() string      { return uuid.UUID(id).String() }
func (id UserIssueID) String() string { return uuid.UUID(id).String() }
func (id ReviewID) String() string    { return uuid.UUID(id).String() }
func (id CommentID) String() string   { return uuid.UUID(id).String() }
func (id LessonID) String() string    { return uuid.UUID(id).String() }
func (id FileID) String() string      { return uuid.UUID(id).String() }

// IsEmpty reports whether the lesson reference is unset.
func (id LessonID) IsEmpty() bool { return uuid.UUID(id) == uuid.Nil }

// IsEmpty reports whether the user id is unset.
func (id UserID) IsEmpty() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText encodes the id in its canonical form.
func (id ModuleID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

// UnmarshalText decodes a canonical id.
func (id *ModuleID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

// MarshalText encodes the id in its canonical form.
func (id IssueID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

// UnmarshalText decodes a canonical id.
func (id *IssueID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

// ParseModuleID parses a textual module id.
func ParseModuleID(s string) (ModuleID, error) {
	u, err := parseUUID("ParseModuleID", s)
	return ModuleID(u), err
}

// ParseIssueID parses a textual issue id.
func ParseIssueID(s string) (IssueID, error) {
	u, err := parseUUID("ParseIssueID", s)
	return IssueID(u), err
}

// ParseUserID parses a textual user id.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID("ParseUserID", s)
	return UserID(u), err
}

// ParseUserIssueID parses a textual user issue id.
func ParseUserIssueID(s string) (UserIssueID, error) {
	u, err := parseUUID("ParseUserIssueID", s)
	return UserIssueID(u), err
}

// ParseReviewID parses a textual review id.
func ParseReviewID(s string) (ReviewID, error) {
	u, err := parseUUID("ParseReviewID", s)
	return ReviewID(u), err
}

// ParseLessonID parses a textual lesson id. Empty input yields the empty lesson.
func ParseLessonID(s string) (LessonID, error) {
	if strings.TrimSpace(s) == "" {
		return LessonID(uuid.Nil), nil
	}
	u, err := parseUUID("ParseLessonID", s)
	return LessonID(u), err
}

func parseUUID(op, s string) (uuid.UUID, error) {
	u, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, WrapError("shared", op, ErrInvalidID, "malformed identifier", err)
	}
	if u == uuid.Nil {
		return uuid.Nil, NewDomainError("shared", op, ErrInvalidID, "identifier is nil")
	}
	return u, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Position
// ═══════════════════════════════════════════════════════════════════════════

// MaxPosition is the largest representable position.
const MaxPosition = math.MaxInt32

// Position is the 1-based ordinal of an issue within its module.
// Values are immutable; Forward and Back return new positions.
type Position int

// NewPosition creates a position, rejecting values below one.
func NewPosition(v int) (Position, error) {
	if v < 1 {
		return 0, ErrInvalidPosition
	}
	if v > MaxPosition {
		return 0, ErrPositionOverflow
	}
	return Position(v), nil
}

// MustPosition is NewPosition for values known to be valid.
func MustPosition(v int) Position {
	p, err := NewPosition(v)
	if err != nil {
		panic(err)
	}
	return p
}

// IsValid reports whether the position is at least one.
func (p Position) IsValid() bool {
	return p >= 1 && p <= MaxPosition
}

// Int returns the underlying value.
func (p Position) Int() int {
	return int(p)
}

// String returns the string representation.
func (p Position) String() string {
	return fmt.Sprintf("%d", int(p))
}

// Forward returns the next position.
func (p Position) Forward() (Position, error) {
	if p >= MaxPosition {
		return 0, ErrPositionOverflow
	}
	return p + 1, nil
}

// Back returns the previous position.
func (p Position) Back() (Position, error) {
	if p <= 1 {
		return 0, ErrPositionUnderflow
	}
	return p - 1, nil
}

func (p Position) Less(o Position) bool    { return p < o }
func (p Position) Greater(o Position) bool { return p > o }
func (p Position) Equal(o Position) bool   { return p == o }

// ═══════════════════════════════════════════════════════════════════════════
// Text Value Objects
// ═══════════════════════════════════════════════════════════════════════════

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 2000
	MaxMessageLength     = 2000
)

// Title is a short non-empty name of a module or issue.
type Title string

// NewTitle creates a title with validation.
func NewTitle(s string) (Title, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", NewDomainError("shared", "NewTitle", ErrEmptyValue, "title cannot be empty")
	}
	if utf8.RuneCountInString(s) > MaxTitleLength {
		return "", NewDomainError("shared", "NewTitle", ErrValueOutOfRange,
			fmt.Sprintf("title exceeds %d characters", MaxTitleLength))
	}
	return Title(s), nil
}

func (t Title) String() string { return string(t) }

// Description is free text attached to a module or issue. May be empty.
type Description string

// NewDescription creates a description with validation.
func NewDescription(s string) (Description, error) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > MaxDescriptionLength {
		return "", NewDomainError("shared", "NewDescription", ErrValueOutOfRange,
			fmt.Sprintf("description exceeds %d characters", MaxDescriptionLength))
	}
	return Description(s), nil
}

func (d Description) String() string { return string(d) }

// Message is the body of a review comment.
type Message string

// NewMessage creates a comment message with validation.
func NewMessage(s string) (Message, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", NewDomainError("shared", "NewMessage", ErrEmptyValue, "message cannot be empty")
	}
	if utf8.RuneCountInString(s) > MaxMessageLength {
		return "", NewDomainError("shared", "NewMessage", ErrValueOutOfRange,
			fmt.Sprintf("message exceeds %d characters", MaxMessageLength))
	}
	return Message(s), nil
}

func (m Message) String() string { return string(m) }

// ═══════════════════════════════════════════════════════════════════════════
// Experience
// ═══════════════════════════════════════════════════════════════════════════

const (
	MinExperience = 1
	MaxExperience = 1000
)

// Experience is the reward granted for completing an issue.
type Experience int

// NewExperience creates an experience amount with validation.
func NewExperience(v int) (Experience, error) {
	if v < MinExperience || v > MaxExperience {
		return 0, NewDomainError("shared", "NewExperience", ErrValueOutOfRange,
			fmt.Sprintf("experience must be between %d and %d", MinExperience, MaxExperience))
	}
	return Experience(v), nil
}

// Int returns the underlying value.
func (e Experience) Int() int { return int(e) }

// ═══════════════════════════════════════════════════════════════════════════
// Pull Request URL
// ═══════════════════════════════════════════════════════════════════════════

// PullRequestURL is the absolute link to the submitted work.
type PullRequestURL string

// NewPullRequestURL creates a pull request link with validation.
func NewPullRequestURL(raw string) (PullRequestURL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", NewDomainError("shared", "NewPullRequestURL", ErrEmptyValue, "pull request url cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", WrapError("shared", "NewPullRequestURL", ErrInvalidFormat, "malformed pull request url", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", NewDomainError("shared", "NewPullRequestURL", ErrInvalidFormat, "pull request url must be absolute http(s)")
	}
	return PullRequestURL(raw), nil
}

func (p PullRequestURL) String() string { return string(p) }
