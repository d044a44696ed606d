package services_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/boxhunt/internal/errors"
	"github.com/vytor/boxhunt/internal/game"
	"github.com/vytor/boxhunt/internal/models"
	"github.com/vytor/boxhunt/internal/search"
	"github.com/vytor/boxhunt/internal/services"
	"github.com/vytor/boxhunt/internal/testutil/mocks"
	"github.com/vytor/boxhunt/internal/widget"
	"github.com/vytor/boxhunt/internal/worker"
)

func newService(t *testing.T, winning int) (services.WidgetService, *mocks.MockPlayRepository, *mocks.MockJobQueue) {
	t.Helper()
	repo := new(mocks.MockPlayRepository)
	queue := new(mocks.MockJobQueue)
	svc := services.NewWidgetService(repo, queue, services.WidgetServiceConfig{
		Presets:     widget.NewPresets(10, 10, 16, 0, 0),
		MaxBoxCount: 100,
		Picker:      func(int) int { return winning },
	})
	t.Cleanup(svc.Shutdown)
	return svc, repo, queue
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	appErr, ok := errors.As(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func TestWidgetService_CreateWidget(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t, 0)

	st, err := svc.CreateWidget(ctx, "binary", 0)
	require.NoError(t, err)
	assert.Equal(t, widget.Binary, st.Variant)
	assert.Equal(t, 16, st.Board.BoxCount)
	assert.Equal(t, search.KindBinary, st.AutoSearch)
	assert.True(t, st.AutoSearchEnabled)

	st, err = svc.CreateWidget(ctx, "classic", 25)
	require.NoError(t, err)
	assert.Equal(t, 25, st.Board.BoxCount)

	assert.Len(t, svc.ListWidgets(ctx), 2)

	_, err = svc.CreateWidget(ctx, "countdown", 0)
	requireCode(t, err, errors.ErrCodeValidation)

	_, err = svc.CreateWidget(ctx, "linear", 101)
	requireCode(t, err, errors.ErrCodeInvalidBoxCount)

	_, err = svc.CreateWidget(ctx, "linear", -3)
	requireCode(t, err, errors.ErrCodeInvalidBoxCount)
}

func TestWidgetService_RevealRecordsWin(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newService(t, 2)

	st, err := svc.CreateWidget(ctx, "classic", 0)
	require.NoError(t, err)

	repo.On("Insert", mock.Anything, mock.MatchedBy(func(p models.Play) bool {
		return p.WidgetID == st.ID && p.Tries == 2 && p.WinningIndex == 2 && p.Variant == "classic"
	})).Return(int64(1), nil).Once()

	resp, err := svc.Reveal(ctx, st.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, game.OutcomeMiss, resp.Reveal.Outcome)

	resp, err = svc.Reveal(ctx, st.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, game.OutcomeWin, resp.Reveal.Outcome)
	assert.True(t, resp.State.Board.Ended)
	assert.True(t, resp.State.ResetEnabled)
	assert.Equal(t, 1, resp.State.Stats.PlayCount)
	assert.Equal(t, "2.00", resp.State.Stats.Average)

	repo.AssertExpectations(t)
}

func TestWidgetService_RevealErrors(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t, 0)

	_, err := svc.Reveal(ctx, "missing", 0)
	requireCode(t, err, errors.ErrCodeNotFound)

	st, err := svc.CreateWidget(ctx, "classic", 0)
	require.NoError(t, err)
	_, err = svc.Reveal(ctx, st.ID, 10)
	requireCode(t, err, errors.ErrCodeIndexOutOfRange)
}

func TestWidgetService_StartAutoSearch(t *testing.T) {
	ctx := context.Background()
	svc, repo, queue := newService(t, 0)

	st, err := svc.CreateWidget(ctx, "binary", 0)
	require.NoError(t, err)

	var queued *search.Run
	queue.On("EnqueueAutoSearch", st.ID, mock.AnythingOfType("*search.Run")).
		Run(func(args mock.Arguments) { queued = args.Get(1).(*search.Run) }).
		Return(nil).Once()

	started, err := svc.StartAutoSearch(ctx, st.ID)
	require.NoError(t, err)
	assert.True(t, started.AutoSearchRunning)
	require.NotNil(t, queued)

	_, err = svc.StartAutoSearch(ctx, st.ID)
	requireCode(t, err, errors.ErrCodeAutoSearchRunning)

	repo.On("Insert", mock.Anything, mock.MatchedBy(func(p models.Play) bool {
		return p.AutoSearch == "binary" && p.Tries == 4
	})).Return(int64(1), nil).Once()

	require.NoError(t, queued.Execute(ctx))
	final, err := svc.GetWidget(ctx, st.ID)
	require.NoError(t, err)
	assert.True(t, final.Board.Ended)
	assert.False(t, final.AutoSearchRunning)

	queue.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestWidgetService_StartAutoSearch_QueueFull(t *testing.T) {
	ctx := context.Background()
	svc, _, queue := newService(t, 5)

	st, err := svc.CreateWidget(ctx, "linear", 0)
	require.NoError(t, err)
	queue.On("EnqueueAutoSearch", st.ID, mock.Anything).Return(worker.ErrQueueFull).Once()

	_, err = svc.StartAutoSearch(ctx, st.ID)
	requireCode(t, err, errors.ErrCodeUnavailable)

	after, err := svc.GetWidget(ctx, st.ID)
	require.NoError(t, err)
	assert.False(t, after.AutoSearchRunning, "a rejected run is released")
	assert.Equal(t, 0, after.Board.TryCount)
}

func TestWidgetService_StartAutoSearch_Classic(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t, 0)

	st, err := svc.CreateWidget(ctx, "classic", 0)
	require.NoError(t, err)
	_, err = svc.StartAutoSearch(ctx, st.ID)
	requireCode(t, err, errors.ErrCodeBadRequest)
}

func TestWidgetService_CancelAutoSearch(t *testing.T) {
	ctx := context.Background()
	svc, _, queue := newService(t, 9)

	st, err := svc.CreateWidget(ctx, "linear", 0)
	require.NoError(t, err)

	cancelled, err := svc.CancelAutoSearch(ctx, st.ID)
	require.NoError(t, err)
	assert.False(t, cancelled)

	queue.On("EnqueueAutoSearch", st.ID, mock.Anything).Return(nil).Once()
	_, err = svc.StartAutoSearch(ctx, st.ID)
	require.NoError(t, err)

	cancelled, err = svc.CancelAutoSearch(ctx, st.ID)
	require.NoError(t, err)
	assert.True(t, cancelled)
}

func TestWidgetService_ResizeClearsPlayLog(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newService(t, 0)

	st, err := svc.CreateWidget(ctx, "classic", 0)
	require.NoError(t, err)

	_, err = svc.Resize(ctx, st.ID, 0)
	requireCode(t, err, errors.ErrCodeInvalidBoxCount)

	repo.On("DeleteByWidget", mock.Anything, st.ID).Return(int64(3), nil).Once()
	resized, err := svc.Resize(ctx, st.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, resized.Board.BoxCount)
	assert.Equal(t, 0, resized.Stats.PlayCount)

	repo.On("DeleteByWidget", mock.Anything, st.ID).Return(int64(0), stderrors.New("disk gone")).Once()
	_, err = svc.Resize(ctx, st.ID, 6)
	requireCode(t, err, errors.ErrCodeInternal)

	repo.AssertExpectations(t)
}

func TestWidgetService_ListPlays(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newService(t, 0)

	st, err := svc.CreateWidget(ctx, "linear", 0)
	require.NoError(t, err)

	filter := models.PlayFilter{WidgetID: st.ID, Limit: 50, Offset: 0}
	plays := []models.Play{{ID: 2, WidgetID: st.ID, Tries: 3, CompletedAt: time.Now()}}
	repo.On("List", mock.Anything, filter).Return(plays, nil).Once()
	repo.On("Count", mock.Anything, filter).Return(1, nil).Once()
	repo.On("Summary", mock.Anything, filter).Return(&models.PlaySummary{Plays: 1, TotalTries: 3, MinTries: 3, MaxTries: 3, AvgTries: 3}, nil).Once()

	page, err := svc.ListPlays(ctx, st.ID, 0, -1)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 50, page.Limit)
	assert.Equal(t, plays, page.Plays)
	assert.Equal(t, 1, page.Summary.Plays)

	repo.AssertExpectations(t)
}

func TestWidgetService_DeleteWidget(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newService(t, 0)

	st, err := svc.CreateWidget(ctx, "binary", 0)
	require.NoError(t, err)
	events, _, err := svc.Subscribe(ctx, st.ID, 4)
	require.NoError(t, err)

	repo.On("DeleteByWidget", mock.Anything, st.ID).Return(int64(0), nil).Once()
	require.NoError(t, svc.DeleteWidget(ctx, st.ID))

	for range events {
	}
	_, err = svc.GetWidget(ctx, st.ID)
	requireCode(t, err, errors.ErrCodeNotFound)
	requireCode(t, svc.DeleteWidget(ctx, st.ID), errors.ErrCodeNotFound)

	repo.AssertExpectations(t)
}
