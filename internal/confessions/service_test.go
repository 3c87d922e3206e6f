package confessions

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mehron-dev/confessio/internal/models"
	"github.com/mehron-dev/confessio/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCounters struct {
	mu   sync.Mutex
	seqs map[string]int64
}

func (c *memCounters) NextID(_ context.Context, name string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seqs == nil {
		c.seqs = make(map[string]int64)
	}
	c.seqs[name]++
	return c.seqs[name], nil
}

type memConfessions struct {
	mu   sync.Mutex
	docs map[int64]*models.Confession
}

func newMemConfessions() *memConfessions {
	return &memConfessions{docs: make(map[int64]*models.Confession)}
}

func (r *memConfessions) Create(_ context.Context, confession *models.Confession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	confession.CreatedAt = time.Now()
	cp := *confession
	r.docs[confession.ConfessionID] = &cp
	return nil
}

func (r *memConfessions) GetByID(_ context.Context, confessionID int64) (*models.Confession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.docs[confessionID]
	if !ok {
		return nil, repositories.ErrConfessionNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memConfessions) GetByUserID(_ context.Context, userID int64) ([]models.Confession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Confession
	for _, c := range r.docs {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *memConfessions) SetStatus(_ context.Context, confessionID int64, from, to models.ConfessionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.docs[confessionID]
	if !ok || c.Status != from {
		return repositories.ErrConfessionNotFound
	}
	c.Status = to
	return nil
}

func (r *memConfessions) SetChannelMessageID(_ context.Context, confessionID int64, messageID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.docs[confessionID]
	if !ok {
		return repositories.ErrConfessionNotFound
	}
	c.ChannelMessageID = messageID
	return nil
}

type memComments struct {
	mu   sync.Mutex
	docs []*models.Comment
}

func (r *memComments) Create(_ context.Context, comment *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment.CreatedAt = time.Now()
	cp := *comment
	r.docs = append(r.docs, &cp)
	return nil
}

func (r *memComments) GetByID(_ context.Context, commentID int64) (*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.docs {
		if c.CommentID == commentID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repositories.ErrCommentNotFound
}

func (r *memComments) GetByConfessionID(_ context.Context, confessionID int64) ([]models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Comment
	for _, c := range r.docs {
		if c.ConfessionID == confessionID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *memComments) GetByUserID(_ context.Context, userID int64, limit int64) ([]models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Comment
	for i := len(r.docs) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		if r.docs[i].UserID == userID {
			out = append(out, *r.docs[i])
		}
	}
	return out, nil
}

func (r *memComments) CountByConfessionID(_ context.Context, confessionID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.docs {
		if c.ConfessionID == confessionID {
			n++
		}
	}
	return n, nil
}

func (r *memComments) AdjustReactionCounts(_ context.Context, commentID int64, likesDelta, dislikesDelta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.docs {
		if c.CommentID == commentID {
			c.Likes += likesDelta
			c.Dislikes += dislikesDelta
			return nil
		}
	}
	return repositories.ErrCommentNotFound
}

func (r *memComments) IncrementReplyCount(_ context.Context, commentID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.docs {
		if c.CommentID == commentID {
			c.ReplyCount++
			return nil
		}
	}
	return repositories.ErrCommentNotFound
}

func (r *memComments) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.docs)
}

func newService() (*Service, *memConfessions, *memComments) {
	confessions := newMemConfessions()
	comments := &memComments{}
	return NewService(&memCounters{}, confessions, comments), confessions, comments
}

const confessionText = "I still feel terrible about what happened back then."

func TestSubmitCreatesPending(t *testing.T) {
	svc, confessions, _ := newService()

	id, err := svc.Submit(context.Background(), 100, confessionText)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	stored, err := confessions.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Equal(t, int64(100), stored.UserID)
}

func TestSubmitRejectsShortText(t *testing.T) {
	svc, _, _ := newService()

	_, err := svc.Submit(context.Background(), 100, "short")
	assert.Error(t, err)
}

func TestSubmitConcurrentIDsDistinct(t *testing.T) {
	svc, _, _ := newService()

	const n = 32
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			id, err := svc.Submit(context.Background(), userID, confessionText)
			assert.NoError(t, err)
			ids <- id
		}(int64(i + 1))
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate confession ID %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestApproveTransitionsOnce(t *testing.T) {
	svc, _, _ := newService()
	id, err := svc.Submit(context.Background(), 100, confessionText)
	require.NoError(t, err)

	approved, err := svc.Approve(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)

	// Second decision on the same confession does not apply.
	_, err = svc.Approve(context.Background(), id)
	assert.ErrorIs(t, err, repositories.ErrConfessionNotFound)
	assert.Error(t, svc.Reject(context.Background(), id))
}

func TestAddCommentUnknownConfession(t *testing.T) {
	svc, _, comments := newService()

	_, err := svc.AddComment(context.Background(), 42, 100, "nice one")
	assert.ErrorIs(t, err, repositories.ErrConfessionNotFound)
	assert.Zero(t, comments.len(), "no comment stored")
}

func TestAddReplyParentNotFound(t *testing.T) {
	svc, _, comments := newService()

	_, _, err := svc.AddReply(context.Background(), 42, 100, "me too")
	assert.ErrorIs(t, err, repositories.ErrParentNotFound)
	assert.Zero(t, comments.len(), "store unchanged after failed reply")
}

func TestAddReplyToReplyRejected(t *testing.T) {
	svc, _, _ := newService()
	confID, err := svc.Submit(context.Background(), 100, confessionText)
	require.NoError(t, err)
	commentID, err := svc.AddComment(context.Background(), confID, 200, "first")
	require.NoError(t, err)
	replyID, _, err := svc.AddReply(context.Background(), commentID, 300, "agreed")
	require.NoError(t, err)

	_, _, err = svc.AddReply(context.Background(), replyID, 400, "nesting deeper")
	assert.ErrorIs(t, err, repositories.ErrParentNotFound)
}

func TestAddReplyInheritsConfessionAndCounts(t *testing.T) {
	svc, _, _ := newService()
	confID, err := svc.Submit(context.Background(), 100, confessionText)
	require.NoError(t, err)
	commentID, err := svc.AddComment(context.Background(), confID, 200, "first")
	require.NoError(t, err)

	replyID, gotConfID, err := svc.AddReply(context.Background(), commentID, 300, "agreed")
	require.NoError(t, err)
	assert.Equal(t, confID, gotConfID)

	parent, err := svc.GetComment(context.Background(), commentID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), parent.ReplyCount)

	reply, err := svc.GetComment(context.Background(), replyID)
	require.NoError(t, err)
	assert.True(t, reply.IsReply())
	assert.Equal(t, commentID, *reply.ParentCommentID)
	assert.Equal(t, confID, reply.ConfessionID)
}

func TestGetThreadGroupsReplies(t *testing.T) {
	svc, _, _ := newService()
	confID, err := svc.Submit(context.Background(), 100, confessionText)
	require.NoError(t, err)

	c1, err := svc.AddComment(context.Background(), confID, 200, "first")
	require.NoError(t, err)
	c2, err := svc.AddComment(context.Background(), confID, 300, "second")
	require.NoError(t, err)
	r1, _, err := svc.AddReply(context.Background(), c1, 300, "reply to first")
	require.NoError(t, err)

	thread, err := svc.GetThread(context.Background(), confID)
	require.NoError(t, err)
	assert.Equal(t, 3, thread.Total)
	require.Len(t, thread.TopLevel, 2)
	assert.Equal(t, c1, thread.TopLevel[0].CommentID)
	assert.Equal(t, c2, thread.TopLevel[1].CommentID)
	require.Len(t, thread.Replies[c1], 1)
	assert.Equal(t, r1, thread.Replies[c1][0].CommentID)
	assert.Empty(t, thread.Replies[c2])
}

func TestCommentIDsUseOwnSequence(t *testing.T) {
	svc, _, _ := newService()
	confID, err := svc.Submit(context.Background(), 100, confessionText)
	require.NoError(t, err)

	commentID, err := svc.AddComment(context.Background(), confID, 200, "first")
	require.NoError(t, err)

	// Comments draw from their own sequence, so the first comment and
	// the first confession share the value 1 without colliding.
	assert.Equal(t, int64(1), commentID)
	assert.Equal(t, confID, commentID)
}
