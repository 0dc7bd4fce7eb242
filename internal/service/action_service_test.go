package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pplp-network/settlement-api/internal/dto"
	"github.com/pplp-network/settlement-api/internal/models"
	"github.com/pplp-network/settlement-api/internal/repository"
	"github.com/pplp-network/settlement-api/internal/scoring"
)

func newActionService(t *testing.T, env *testEnv) ActionService {
	t.Helper()

	engine, err := scoring.NewEngine(nil)
	require.NoError(t, err)

	return NewActionService(env.actions, engine, env.validate, env.logger)
}

func TestActionServiceRecordScoresAndStores(t *testing.T) {
	env := newTestEnv(t)
	svc := newActionService(t, env)
	ctx := context.Background()

	resp, err := svc.Record(ctx, dto.ActionCreateRequest{
		OwnerID:   "user-1",
		Kind:      models.ActionKindPost,
		Quality:   1.2,
		Impact:    2,
		Integrity: 1,
		Unity:     1.1,
	})
	require.NoError(t, err)
	require.Equal(t, "26.40", resp.Score)
	require.Equal(t, int64(26), resp.MintAmount)
	require.Equal(t, models.ActionStatusApproved, resp.Status)
	require.True(t, resp.Eligible)

	stored, err := env.actions.GetByID(ctx, resp.ID)
	require.NoError(t, err)
	require.Nil(t, stored.MintRequestID)
}

func TestActionServiceRecordRejectsUnknownKind(t *testing.T) {
	env := newTestEnv(t)
	svc := newActionService(t, env)

	_, err := svc.Record(context.Background(), dto.ActionCreateRequest{
		OwnerID:   "user-1",
		Kind:      "teleport",
		Quality:   1,
		Impact:    1,
		Integrity: 1,
		Unity:     1,
	})
	require.ErrorIs(t, err, ErrInvalidActionKind)
}

func TestActionServiceRecordValidatesPayload(t *testing.T) {
	env := newTestEnv(t)
	svc := newActionService(t, env)

	_, err := svc.Record(context.Background(), dto.ActionCreateRequest{
		Kind:      models.ActionKindPost,
		Quality:   1,
		Impact:    1,
		Integrity: 1,
		Unity:     1,
	})
	require.Error(t, err)
}

func TestActionServiceRecomputeOnlyTouchesUnsettled(t *testing.T) {
	env := newTestEnv(t)
	svc := newActionService(t, env)
	ctx := context.Background()

	// Stored with a stale score; recompute should rewrite it.
	stale := env.seedAction(t, "user-1", models.ActionKindPost, 5)
	require.NoError(t, env.db.Model(&models.ActionRecord{}).
		Where("id = ?", stale.ID).
		Update("score", "5.00").Error)

	current := env.seedAction(t, "user-1", models.ActionKindPost, 10)

	settled := env.seedAction(t, "user-1", models.ActionKindPost, 3)
	require.NoError(t, env.db.Model(&models.ActionRecord{}).
		Where("id = ?", settled.ID).
		Updates(map[string]interface{}{
			"status": models.ActionStatusSigned,
			"score":  "3.00",
		}).Error)

	summary, err := svc.Recompute(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Recomputed)
	require.Equal(t, 1, summary.Unchanged)
	require.Empty(t, summary.Errors)

	rewritten, err := env.actions.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	require.Equal(t, "10.00", rewritten.Score)
	require.Equal(t, int64(10), rewritten.MintAmount)

	unchanged, err := env.actions.GetByID(ctx, current.ID)
	require.NoError(t, err)
	require.Equal(t, "10.00", unchanged.Score)

	untouched, err := env.actions.GetByID(ctx, settled.ID)
	require.NoError(t, err)
	require.Equal(t, "3.00", untouched.Score)
	require.Equal(t, int64(3), untouched.MintAmount)
}

func TestActionServiceListByOwner(t *testing.T) {
	env := newTestEnv(t)
	svc := newActionService(t, env)
	ctx := context.Background()

	env.seedAction(t, "user-1", models.ActionKindPost, 10)
	env.seedAction(t, "user-2", models.ActionKindComment, 4)

	owner := "user-1"
	actions, err := svc.List(ctx, repository.ActionFilter{OwnerID: &owner})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	require.Equal(t, "user-1", actions[0].OwnerID)
}
