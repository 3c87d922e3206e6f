// Package reactions implements the like/dislike toggle machine that
// keeps comment counters, per-user membership sets, and the comment
// owner's aura consistent with each other.
package reactions

import (
	"context"
	"errors"
	"fmt"

	"github.com/mehron-dev/confessio/internal/models"
	"github.com/mehron-dev/confessio/internal/repositories"
)

// Kind is a requested reaction.
type Kind string

const (
	Like    Kind = "like"
	Dislike Kind = "dislike"
)

// State is a user's current stance on a comment. A (user, comment) pair
// is always in exactly one state.
type State string

const (
	None     State = "none"
	Liked    State = "liked"
	Disliked State = "disliked"
)

// Transition describes the effect of one reaction request: the next
// state, the comment counter deltas, and the aura delta applied to the
// comment's owner (not the reactor).
type Transition struct {
	Next          State
	LikesDelta    int64
	DislikesDelta int64
	AuraDelta     int64
}

// Transit computes the transition for a requested reaction against the
// current state. Requesting the reaction already held toggles it off;
// requesting the opposite swaps it in one step. The table is fully
// reversible: applying the same request twice from None is a net no-op.
func Transit(current State, requested Kind) Transition {
	switch current {
	case Liked:
		if requested == Like {
			return Transition{Next: None, LikesDelta: -1, AuraDelta: -1}
		}
		return Transition{Next: Disliked, LikesDelta: -1, DislikesDelta: 1, AuraDelta: -2}
	case Disliked:
		if requested == Dislike {
			return Transition{Next: None, DislikesDelta: -1, AuraDelta: 1}
		}
		return Transition{Next: Liked, LikesDelta: 1, DislikesDelta: -1, AuraDelta: 2}
	default:
		if requested == Like {
			return Transition{Next: Liked, LikesDelta: 1, AuraDelta: 1}
		}
		return Transition{Next: Disliked, DislikesDelta: 1, AuraDelta: -1}
	}
}

// Result is the outcome of applying one reaction.
type Result struct {
	State     State `json:"state"`
	Likes     int64 `json:"likes"`
	Dislikes  int64 `json:"dislikes"`
	AuraDelta int64 `json:"aura_delta"`
	OwnerAura int64 `json:"owner_aura"`
}

// Engine applies reactions transactionally against the store.
type Engine struct {
	users    repositories.UserRepository
	comments repositories.CommentRepository
	txn      repositories.TxnRunner
}

// NewEngine creates a new Engine
func NewEngine(users repositories.UserRepository, comments repositories.CommentRepository, txn repositories.TxnRunner) *Engine {
	return &Engine{users: users, comments: comments, txn: txn}
}

// Apply toggles userID's reaction of the given kind on commentID and
// returns the new state and counts. The reactor's current state is
// read inside the transaction, never taken from the caller, so a
// retried or duplicated request converges instead of double-applying.
// Self-reactions follow the same table. Returns
// repositories.ErrCommentNotFound, with no writes, if the comment does
// not exist; an unknown reacting user is created on the fly.
func (e *Engine) Apply(ctx context.Context, commentID, userID int64, kind Kind) (*Result, error) {
	if kind != Like && kind != Dislike {
		return nil, fmt.Errorf("unknown reaction kind %q", kind)
	}

	var result *Result
	err := e.txn.WithTransaction(ctx, func(ctx context.Context) error {
		comment, err := e.comments.GetByID(ctx, commentID)
		if err != nil {
			return err
		}

		user, err := e.users.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}

		current := currentState(user, commentID)
		tr := Transit(current, kind)

		if err := e.applyMembership(ctx, userID, commentID, current, tr.Next); err != nil {
			return err
		}
		if err := e.comments.AdjustReactionCounts(ctx, commentID, tr.LikesDelta, tr.DislikesDelta); err != nil {
			return err
		}
		ownerAura, err := e.users.IncrementAura(ctx, comment.UserID, tr.AuraDelta)
		if err != nil {
			return err
		}

		result = &Result{
			State:     tr.Next,
			Likes:     comment.Likes + tr.LikesDelta,
			Dislikes:  comment.Dislikes + tr.DislikesDelta,
			AuraDelta: tr.AuraDelta,
			OwnerAura: ownerAura,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// applyMembership moves commentID between the user's membership sets:
// at most one removal and one insertion per call, leaving the comment
// in at most one set.
func (e *Engine) applyMembership(ctx context.Context, userID, commentID int64, current, next State) error {
	if current == Liked && next != Liked {
		if err := e.users.RemoveFromReactionSet(ctx, userID, commentID, repositories.LikedSet); err != nil {
			return err
		}
	}
	if current == Disliked && next != Disliked {
		if err := e.users.RemoveFromReactionSet(ctx, userID, commentID, repositories.DislikedSet); err != nil {
			return err
		}
	}
	if next == Liked && current != Liked {
		if err := e.users.AddToReactionSet(ctx, userID, commentID, repositories.LikedSet); err != nil {
			return err
		}
	}
	if next == Disliked && current != Disliked {
		if err := e.users.AddToReactionSet(ctx, userID, commentID, repositories.DislikedSet); err != nil {
			return err
		}
	}
	return nil
}

// StateFor reports userID's current stance on commentID, None for
// users the store has never seen.
func (e *Engine) StateFor(ctx context.Context, commentID, userID int64) (State, error) {
	user, err := e.users.GetByTelegramID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return None, nil
		}
		return None, err
	}
	return currentState(user, commentID), nil
}

func currentState(user *models.User, commentID int64) State {
	if user.HasLiked(commentID) {
		return Liked
	}
	if user.HasDisliked(commentID) {
		return Disliked
	}
	return None
}
