package reactions

import (
	"context"
	"sync"
	"testing"

	"github.com/mehron-dev/confessio/internal/models"
	"github.com/mehron-dev/confessio/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory stand-in for the Mongo-backed user and
// comment repositories plus the transaction runner.
type memStore struct {
	mu       sync.Mutex
	users    map[int64]*models.User
	comments map[int64]*models.Comment
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[int64]*models.User),
		comments: make(map[int64]*models.Comment),
	}
}

func (s *memStore) addComment(commentID, confessionID, ownerID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments[commentID] = &models.Comment{
		CommentID:    commentID,
		ConfessionID: confessionID,
		UserID:       ownerID,
		Text:         "test comment",
	}
}

func (s *memStore) GetOrCreate(_ context.Context, telegramID int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[telegramID]; ok {
		cp := *u
		return &cp, nil
	}
	u := &models.User{
		TelegramID:   telegramID,
		Nickname:     models.DefaultNickname,
		ProfileEmoji: models.DefaultEmoji,
	}
	s.users[telegramID] = u
	cp := *u
	return &cp, nil
}

func (s *memStore) GetByTelegramID(_ context.Context, telegramID int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[telegramID]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) IncrementAura(_ context.Context, telegramID int64, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[telegramID]
	if !ok {
		u = &models.User{TelegramID: telegramID}
		s.users[telegramID] = u
	}
	u.Aura += delta
	return u.Aura, nil
}

func (s *memStore) AddToReactionSet(_ context.Context, telegramID, commentID int64, set repositories.ReactionSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[telegramID]
	if set == repositories.LikedSet {
		u.LikedComments = appendUnique(u.LikedComments, commentID)
	} else {
		u.DislikedComments = appendUnique(u.DislikedComments, commentID)
	}
	return nil
}

func (s *memStore) RemoveFromReactionSet(_ context.Context, telegramID, commentID int64, set repositories.ReactionSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[telegramID]
	if set == repositories.LikedSet {
		u.LikedComments = removeID(u.LikedComments, commentID)
	} else {
		u.DislikedComments = removeID(u.DislikedComments, commentID)
	}
	return nil
}

func (s *memStore) Create(_ context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *comment
	s.comments[comment.CommentID] = &cp
	return nil
}

func (s *memStore) GetByID(_ context.Context, commentID int64) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[commentID]
	if !ok {
		return nil, repositories.ErrCommentNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memStore) GetByConfessionID(_ context.Context, _ int64) ([]models.Comment, error) {
	return nil, nil
}

func (s *memStore) GetByUserID(_ context.Context, _ int64, _ int64) ([]models.Comment, error) {
	return nil, nil
}

func (s *memStore) CountByConfessionID(_ context.Context, _ int64) (int64, error) {
	return 0, nil
}

func (s *memStore) AdjustReactionCounts(_ context.Context, commentID int64, likesDelta, dislikesDelta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[commentID]
	if !ok {
		return repositories.ErrCommentNotFound
	}
	c.Likes += likesDelta
	c.Dislikes += dislikesDelta
	return nil
}

func (s *memStore) IncrementReplyCount(_ context.Context, commentID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[commentID]
	if !ok {
		return repositories.ErrCommentNotFound
	}
	c.ReplyCount++
	return nil
}

func (s *memStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// checkCounterInvariant asserts that every comment's like/dislike
// counters equal the number of users holding it in the matching
// membership set.
func (s *memStore) checkCounterInvariant(t *testing.T) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.comments {
		var likes, dislikes int64
		for _, u := range s.users {
			if containsTest(u.LikedComments, id) {
				likes++
			}
			if containsTest(u.DislikedComments, id) {
				dislikes++
			}
		}
		assert.Equal(t, likes, c.Likes, "like counter for comment %d", id)
		assert.Equal(t, dislikes, c.Dislikes, "dislike counter for comment %d", id)
	}
}

func appendUnique(ids []int64, id int64) []int64 {
	if containsTest(ids, id) {
		return ids
	}
	return append(ids, id)
}

func removeID(ids []int64, id int64) []int64 {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func containsTest(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func TestTransit(t *testing.T) {
	tests := []struct {
		name      string
		current   State
		requested Kind
		want      Transition
	}{
		{"none like", None, Like, Transition{Next: Liked, LikesDelta: 1, AuraDelta: 1}},
		{"none dislike", None, Dislike, Transition{Next: Disliked, DislikesDelta: 1, AuraDelta: -1}},
		{"liked like toggles off", Liked, Like, Transition{Next: None, LikesDelta: -1, AuraDelta: -1}},
		{"liked dislike swaps", Liked, Dislike, Transition{Next: Disliked, LikesDelta: -1, DislikesDelta: 1, AuraDelta: -2}},
		{"disliked dislike toggles off", Disliked, Dislike, Transition{Next: None, DislikesDelta: -1, AuraDelta: 1}},
		{"disliked like swaps", Disliked, Like, Transition{Next: Liked, LikesDelta: 1, DislikesDelta: -1, AuraDelta: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Transit(tt.current, tt.requested))
		})
	}
}

func TestApplyScenario(t *testing.T) {
	// Comment C owned by U1 (aura 0); U2 reacts three times.
	store := newMemStore()
	store.addComment(10, 1, 100)
	engine := NewEngine(store, store, store)
	ctx := context.Background()

	res, err := engine.Apply(ctx, 10, 200, Like)
	require.NoError(t, err)
	assert.Equal(t, Liked, res.State)
	assert.Equal(t, int64(1), res.Likes)
	assert.Equal(t, int64(0), res.Dislikes)
	assert.Equal(t, int64(1), res.OwnerAura)
	store.checkCounterInvariant(t)

	res, err = engine.Apply(ctx, 10, 200, Dislike)
	require.NoError(t, err)
	assert.Equal(t, Disliked, res.State)
	assert.Equal(t, int64(0), res.Likes)
	assert.Equal(t, int64(1), res.Dislikes)
	assert.Equal(t, int64(-2), res.AuraDelta)
	assert.Equal(t, int64(-1), res.OwnerAura)
	store.checkCounterInvariant(t)

	res, err = engine.Apply(ctx, 10, 200, Dislike)
	require.NoError(t, err)
	assert.Equal(t, None, res.State)
	assert.Equal(t, int64(0), res.Likes)
	assert.Equal(t, int64(0), res.Dislikes)
	assert.Equal(t, int64(0), res.OwnerAura)
	store.checkCounterInvariant(t)
}

func TestApplyToggleIdempotence(t *testing.T) {
	store := newMemStore()
	store.addComment(10, 1, 100)
	engine := NewEngine(store, store, store)
	ctx := context.Background()

	_, err := engine.Apply(ctx, 10, 200, Like)
	require.NoError(t, err)
	res, err := engine.Apply(ctx, 10, 200, Like)
	require.NoError(t, err)

	assert.Equal(t, None, res.State)
	assert.Equal(t, int64(0), res.Likes)
	assert.Equal(t, int64(0), res.OwnerAura)
	store.checkCounterInvariant(t)
}

func TestApplyMutualExclusion(t *testing.T) {
	store := newMemStore()
	store.addComment(10, 1, 100)
	engine := NewEngine(store, store, store)
	ctx := context.Background()

	sequence := []Kind{Like, Dislike, Dislike, Like, Like, Dislike, Like}
	for _, kind := range sequence {
		_, err := engine.Apply(ctx, 10, 200, kind)
		require.NoError(t, err)

		user, err := store.GetByTelegramID(ctx, 200)
		require.NoError(t, err)
		assert.False(t, user.HasLiked(10) && user.HasDisliked(10),
			"comment present in both membership sets after %q", kind)
		store.checkCounterInvariant(t)
	}
}

func TestApplyCommentNotFound(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store, store, store)

	res, err := engine.Apply(context.Background(), 99, 200, Like)
	assert.ErrorIs(t, err, repositories.ErrCommentNotFound)
	assert.Nil(t, res)
	assert.Empty(t, store.users, "no user created for a missing comment")
}

func TestApplyCreatesUnknownUser(t *testing.T) {
	store := newMemStore()
	store.addComment(10, 1, 100)
	engine := NewEngine(store, store, store)

	res, err := engine.Apply(context.Background(), 10, 555, Dislike)
	require.NoError(t, err)
	assert.Equal(t, Disliked, res.State)

	user, err := store.GetByTelegramID(context.Background(), 555)
	require.NoError(t, err)
	assert.True(t, user.HasDisliked(10))
	assert.False(t, user.HasLiked(10))
}

func TestApplyOtherCommentsUntouched(t *testing.T) {
	store := newMemStore()
	store.addComment(10, 1, 100)
	store.addComment(11, 1, 100)
	engine := NewEngine(store, store, store)

	_, err := engine.Apply(context.Background(), 10, 200, Like)
	require.NoError(t, err)

	other, err := store.GetByID(context.Background(), 11)
	require.NoError(t, err)
	assert.Zero(t, other.Likes)
	assert.Zero(t, other.Dislikes)

	user, err := store.GetByTelegramID(context.Background(), 200)
	require.NoError(t, err)
	assert.False(t, user.HasLiked(11))
}

func TestApplySelfReaction(t *testing.T) {
	// Users may react to their own comments; same table, own aura moves.
	store := newMemStore()
	store.addComment(10, 1, 200)
	engine := NewEngine(store, store, store)

	res, err := engine.Apply(context.Background(), 10, 200, Like)
	require.NoError(t, err)
	assert.Equal(t, Liked, res.State)
	assert.Equal(t, int64(1), res.OwnerAura)

	user, err := store.GetByTelegramID(context.Background(), 200)
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.Aura)
}

func TestApplyConcurrentDistinctUsers(t *testing.T) {
	store := newMemStore()
	store.addComment(10, 1, 100)
	engine := NewEngine(store, store, store)

	const users = 32
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := engine.Apply(context.Background(), 10, userID, Like)
			assert.NoError(t, err)
		}(int64(1000 + i))
	}
	wg.Wait()

	comment, err := store.GetByID(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(users), comment.Likes)

	owner, err := store.GetByTelegramID(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, int64(users), owner.Aura)
	store.checkCounterInvariant(t)
}

func TestStateFor(t *testing.T) {
	store := newMemStore()
	store.addComment(10, 1, 100)
	engine := NewEngine(store, store, store)
	ctx := context.Background()

	state, err := engine.StateFor(ctx, 10, 200)
	require.NoError(t, err)
	assert.Equal(t, None, state, "unknown user holds no reaction")

	_, err = engine.Apply(ctx, 10, 200, Dislike)
	require.NoError(t, err)

	state, err = engine.StateFor(ctx, 10, 200)
	require.NoError(t, err)
	assert.Equal(t, Disliked, state)
}
