package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/learnhub/internal/domain/review"
	"github.com/learnhub/learnhub/internal/domain/shared"
	"github.com/learnhub/learnhub/internal/domain/solving"
	"github.com/learnhub/learnhub/pkg/logger"
)

type reviewFixture struct {
	reviews    *memoryReviews
	userIssues *memoryUserIssues
	pub        *recordingPublisher
	submit     *SubmitForReviewHandler
	decide     *ReviewDecisionHandler
	comment    *AddReviewCommentHandler
	userIssue  *solving.UserIssue
}

func newReviewFixture() *reviewFixture {
	f := &reviewFixture{
		reviews:   newMemoryReviews(),
		pub:       &recordingPublisher{},
		userIssue: solving.NewUserIssue(shared.NewUserID(), shared.NewIssueID(), testNow),
	}
	f.userIssues = newMemoryUserIssues(f.userIssue)
	writer := newTestReviewWriter(f.reviews, f.pub)
	f.submit = NewSubmitForReviewHandler(f.userIssues, f.reviews, writer, testClock, logger.Discard())
	f.decide = NewReviewDecisionHandler(writer, testClock, logger.Discard())
	f.comment = NewAddReviewCommentHandler(writer, testClock, logger.Discard())
	return f
}

func (f *reviewFixture) open(t *testing.T) shared.ReviewID {
	t.Helper()
	res, err := f.submit.Handle(context.Background(), SubmitForReviewCommand{
		UserID:         f.userIssue.UserID,
		UserIssueID:    f.userIssue.ID,
		PullRequestURL: "https://git.example.com/go/basics/pulls/7",
	})
	require.NoError(t, err)
	return res.ReviewID
}

func TestReviewLifecycle(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()
	id := f.open(t)
	reviewer := shared.NewUserID()

	res, err := f.decide.HandleStart(ctx, StartReviewCommand{ReviewID: id, ReviewerID: reviewer})
	require.NoError(t, err)
	assert.Equal(t, review.StatusOnReview, res.Status)

	res, err = f.decide.HandleSendForRevision(ctx, SendForRevisionCommand{ReviewID: id, ReviewerID: reviewer})
	require.NoError(t, err)
	assert.Equal(t, review.StatusAskedForRevision, res.Status)

	res, err = f.decide.HandleStart(ctx, StartReviewCommand{ReviewID: id, ReviewerID: reviewer})
	require.NoError(t, err)
	assert.Equal(t, review.StatusOnReview, res.Status)

	res, err = f.decide.HandleApprove(ctx, ApproveReviewCommand{ReviewID: id, ReviewerID: reviewer})
	require.NoError(t, err)
	assert.Equal(t, review.StatusAccepted, res.Status)

	stored, err := f.reviews.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, stored.IssueApprovedTime())
	assert.Equal(t, testNow, *stored.IssueApprovedTime())

	assert.Equal(t, []shared.EventType{
		shared.EventReviewSubmitted,
		shared.EventReviewStarted,
		shared.EventRevisionRequested,
		shared.EventReviewStarted,
		shared.EventReviewApproved,
	}, f.pub.types())

	_, err = f.decide.HandleSendForRevision(ctx, SendForRevisionCommand{ReviewID: id, ReviewerID: reviewer})
	assert.ErrorIs(t, err, shared.ErrReviewStatus)
}

func TestReview_OnlyAssignedReviewerDecides(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()
	id := f.open(t)
	reviewer, other := shared.NewUserID(), shared.NewUserID()

	_, err := f.decide.HandleStart(ctx, StartReviewCommand{ReviewID: id, ReviewerID: reviewer})
	require.NoError(t, err)

	_, err = f.decide.HandleApprove(ctx, ApproveReviewCommand{ReviewID: id, ReviewerID: other})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))

	_, err = f.decide.HandleSendForRevision(ctx, SendForRevisionCommand{ReviewID: id, ReviewerID: reviewer})
	require.NoError(t, err)

	_, err = f.decide.HandleStart(ctx, StartReviewCommand{ReviewID: id, ReviewerID: other})
	assert.ErrorIs(t, err, shared.ErrReviewerAlreadyGiven)
}

func TestReview_DecisionsNeedOnReview(t *testing.T) {
	f := newReviewFixture()
	id := f.open(t)

	_, err := f.decide.HandleApprove(context.Background(), ApproveReviewCommand{ReviewID: id, ReviewerID: shared.NewUserID()})
	assert.ErrorIs(t, err, shared.ErrReviewStatus)
}

func TestSubmitForReview_Rules(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()
	f.open(t)

	_, err := f.submit.Handle(ctx, SubmitForReviewCommand{
		UserID:         f.userIssue.UserID,
		UserIssueID:    f.userIssue.ID,
		PullRequestURL: "https://git.example.com/go/basics/pulls/8",
	})
	assert.ErrorIs(t, err, shared.ErrReviewExists)

	other := newReviewFixture()
	_, err = other.submit.Handle(ctx, SubmitForReviewCommand{
		UserID:         shared.NewUserID(),
		UserIssueID:    other.userIssue.ID,
		PullRequestURL: "https://git.example.com/go/basics/pulls/9",
	})
	assert.True(t, shared.IsValidation(err))

	_, err = other.submit.Handle(ctx, SubmitForReviewCommand{
		UserID:         other.userIssue.UserID,
		UserIssueID:    other.userIssue.ID,
		PullRequestURL: "not a url",
	})
	assert.True(t, shared.IsValidation(err))

	_, err = other.submit.Handle(ctx, SubmitForReviewCommand{
		UserID:         other.userIssue.UserID,
		UserIssueID:    shared.NewUserIssueID(),
		PullRequestURL: "https://git.example.com/go/basics/pulls/9",
	})
	assert.ErrorIs(t, err, shared.ErrUserIssueNotFound)
}

func TestAddReviewComment(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()
	id := f.open(t)

	commentID, err := f.comment.Handle(ctx, AddReviewCommentCommand{
		ReviewID: id,
		AuthorID: f.userIssue.UserID,
		Message:  "ready for another look",
	})
	require.NoError(t, err)

	stored, err := f.reviews.GetByID(ctx, id)
	require.NoError(t, err)
	require.Len(t, stored.Comments(), 1)
	assert.Equal(t, commentID, stored.Comments()[0].ID)

	_, err = f.comment.Handle(ctx, AddReviewCommentCommand{ReviewID: id, AuthorID: shared.NewUserID(), Message: "hi"})
	assert.ErrorIs(t, err, shared.ErrCommentAuthor)

	_, err = f.comment.Handle(ctx, AddReviewCommentCommand{ReviewID: id, AuthorID: f.userIssue.UserID, Message: " "})
	assert.True(t, shared.IsValidation(err))
}
