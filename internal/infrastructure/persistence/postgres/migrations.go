package postgres

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_modules",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_user_issues",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_issue_reviews",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: MODULES AND ISSUES
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS modules (
    id UUID PRIMARY KEY,
    title VARCHAR(100) NOT NULL,
    description VARCHAR(2000) NOT NULL DEFAULT '',
    deleted_at TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    version INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS issues (
    id UUID PRIMARY KEY,
    module_id UUID NOT NULL REFERENCES modules(id) ON DELETE CASCADE,
    title VARCHAR(100) NOT NULL,
    description VARCHAR(2000) NOT NULL DEFAULT '',
    lesson_id UUID,
    experience INTEGER NOT NULL,
    position INTEGER NOT NULL,
    file_ids UUID[] NOT NULL DEFAULT '{}',
    deleted_at TIMESTAMP WITH TIME ZONE,

    CONSTRAINT valid_experience CHECK (experience BETWEEN 1 AND 1000),
    CONSTRAINT valid_position CHECK (position >= 1)
);

CREATE INDEX IF NOT EXISTS idx_issues_module_position ON issues(module_id, position) WHERE deleted_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_issues_deleted_at ON issues(deleted_at) WHERE deleted_at IS NOT NULL;
`

const migration001Down = `
DROP TABLE IF EXISTS issues;
DROP TABLE IF EXISTS modules;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: SOLVING RECORDS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE TABLE IF NOT EXISTS user_issues (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL,
    issue_id UUID NOT NULL,
    status VARCHAR(20) NOT NULL,
    start_date TIMESTAMP WITH TIME ZONE NOT NULL,
    end_date TIMESTAMP WITH TIME ZONE,

    UNIQUE(user_id, issue_id)
);

CREATE INDEX IF NOT EXISTS idx_user_issues_issue_id ON user_issues(issue_id);
`

const migration002Down = `
DROP TABLE IF EXISTS user_issues;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: ISSUE REVIEWS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
CREATE TABLE IF NOT EXISTS issue_reviews (
    id UUID PRIMARY KEY,
    user_issue_id UUID NOT NULL UNIQUE REFERENCES user_issues(id) ON DELETE CASCADE,
    user_id UUID NOT NULL,
    reviewer_id UUID,
    pull_request_url TEXT NOT NULL,
    status VARCHAR(30) NOT NULL,
    issue_taken_time TIMESTAMP WITH TIME ZONE,
    issue_approved_time TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    version INTEGER NOT NULL DEFAULT 1,

    CONSTRAINT valid_review_status CHECK (status IN ('WaitingForReviewer', 'OnReview', 'AskedForRevision', 'Accepted'))
);

CREATE INDEX IF NOT EXISTS idx_issue_reviews_reviewer ON issue_reviews(reviewer_id) WHERE reviewer_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS review_comments (
    id UUID PRIMARY KEY,
    review_id UUID NOT NULL REFERENCES issue_reviews(id) ON DELETE CASCADE,
    author_id UUID NOT NULL,
    message VARCHAR(2000) NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_review_comments_review ON review_comments(review_id, created_at);
`

const migration003Down = `
DROP TABLE IF EXISTS review_comments;
DROP TABLE IF EXISTS issue_reviews;
`
