package timeline

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func dragEvent() Event {
	return Event{ID: "e1", TrackID: 1, StartTick: 0, DurationTick: 1, Type: TrackDrum}
}

func TestDragPreviewFollowsPointer(t *testing.T) {
	t.Parallel()

	var d DragSession
	require.False(t, d.Active())

	// 64 ticks, 64-cell lane, sixteenth grid
	d.Begin(dragEvent(), 0, 64, 64, 1)
	require.True(t, d.Active())
	require.Equal(t, DragDragging, d.Phase())

	// drag to 50% of lane width: candidate tick 32
	require.Equal(t, 32, d.Move(32))
	require.Equal(t, 32, d.PreviewTick())

	// past the right edge clamps to total ticks
	d.Move(10_000)
	require.Equal(t, 64, d.PreviewTick())
}

func TestDragSnapsToGrid(t *testing.T) {
	t.Parallel()

	var d DragSession
	// quarter grid on 16 ticks/bar: step of 4
	d.Begin(dragEvent(), 0, 64, 64, 4)
	d.Move(14) // candidate 14, snaps to 16
	require.Equal(t, 16, d.PreviewTick())
}

func TestDragZeroMovementStillCommits(t *testing.T) {
	t.Parallel()

	ev := dragEvent()
	ev.StartTick = 8

	var d DragSession
	d.Begin(ev, 10, 64, 64, 1)

	id, tick, ok := d.Release()
	require.True(t, ok)
	require.Equal(t, "e1", id)
	require.Equal(t, 8, tick) // no movement: commit at original position
	require.Equal(t, DragCommitting, d.Phase())
}

func TestDragCommitReturnsToIdle(t *testing.T) {
	t.Parallel()

	var d DragSession
	d.Begin(dragEvent(), 0, 64, 64, 1)
	d.Move(16)
	_, _, ok := d.Release()
	require.True(t, ok)

	d.Commit()
	require.Equal(t, DragIdle, d.Phase())
	require.False(t, d.Active())
	require.Empty(t, d.EventID())
}

func TestDragRollbackDiscardsPreview(t *testing.T) {
	t.Parallel()

	var d DragSession
	d.Begin(dragEvent(), 0, 64, 64, 1)
	d.Move(40)
	_, _, _ = d.Release()

	d.Rollback()
	require.Equal(t, DragIdle, d.Phase())
	require.False(t, d.Active())
}

func TestDragInvalidatedByReload(t *testing.T) {
	t.Parallel()

	var d DragSession
	d.Begin(dragEvent(), 0, 64, 64, 1)
	d.Move(20)

	// any reload invalidates the preview unconditionally
	d.Invalidate()
	require.False(t, d.Active())

	// release after invalidation is a no-op
	_, _, ok := d.Release()
	require.False(t, ok)
}

func TestMoveIgnoredWhenIdle(t *testing.T) {
	t.Parallel()

	var d DragSession
	require.Equal(t, 0, d.Move(30))
	require.False(t, d.Active())
}
