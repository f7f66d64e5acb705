package dispatcher

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heyjunin/TurboConvert/pkg/progress"
)

func collect(hub *progress.Hub, workers ...*Worker) map[string][]progress.Event {
	go func() {
		for _, w := range workers {
			<-w.Result()
		}
		hub.Close()
	}()

	events := make(map[string][]progress.Event)
	for ev := range hub.Events() {
		events[ev.OperationID] = append(events[ev.OperationID], ev)
	}
	return events
}

func TestGoDeliversResultAndEvents(t *testing.T) {
	hub := progress.NewHub(16)

	ok := Go(context.Background(), hub, KindConvert, "a.png", func(ctx context.Context, pub progress.Publisher) (string, error) {
		pub.Publish(progress.PhaseProcessing, 0.5, "half")
		return "a_converted.gif", nil
	})
	bad := Go(context.Background(), hub, KindCompress, "b.mp4", func(ctx context.Context, pub progress.Publisher) (string, error) {
		return "", stderrors.New("boom")
	})
	require.NotEqual(t, ok.ID, bad.ID)

	var okResult, badResult Result
	done := make(chan struct{})
	go func() {
		okResult = ok.Wait()
		badResult = bad.Wait()
		hub.Close()
		close(done)
	}()

	events := make(map[string][]progress.Event)
	for ev := range hub.Events() {
		events[ev.OperationID] = append(events[ev.OperationID], ev)
	}
	<-done

	assert.Equal(t, "a_converted.gif", okResult.OutputPath)
	assert.NoError(t, okResult.Err)
	assert.Equal(t, KindConvert, okResult.Kind)
	assert.EqualError(t, badResult.Err, "boom")

	okEvents := events[ok.ID]
	require.Len(t, okEvents, 3)
	assert.Equal(t, progress.PhaseStarted, okEvents[0].Phase)
	assert.Equal(t, progress.PhaseProcessing, okEvents[1].Phase)
	assert.Equal(t, progress.PhaseFinished, okEvents[2].Phase)

	badEvents := events[bad.ID]
	require.NotEmpty(t, badEvents)
	last := badEvents[len(badEvents)-1]
	assert.Equal(t, progress.PhaseFailed, last.Phase)
	assert.Equal(t, "boom", last.Stage)
}

func TestGoWorkersAreIndependent(t *testing.T) {
	hub := progress.NewHub(4)
	release := make(chan struct{})

	slow := Go(context.Background(), hub, KindDownload, "u", func(ctx context.Context, pub progress.Publisher) (string, error) {
		<-release
		return "slow", nil
	})
	fast := Go(context.Background(), hub, KindEncode, "v", func(ctx context.Context, pub progress.Publisher) (string, error) {
		return "fast", nil
	})

	done := make(chan map[string][]progress.Event)
	go func() { done <- collect(hub, slow, fast) }()

	// fast completes while slow is still blocked.
	select {
	case r := <-fast.Result():
		assert.Equal(t, "fast", r.OutputPath)
	case <-slow.Result():
		t.Fatal("slow worker finished first")
	}
	close(release)

	events := <-done
	assert.Len(t, events, 2)
}

func TestNewOperationIDIsV7(t *testing.T) {
	id, err := uuid.Parse(NewOperationID())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}
