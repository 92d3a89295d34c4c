package download

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateProgressUpserts(t *testing.T) {
	s := NewStore()

	s.UpdateProgress(Progress{DownloadID: "d1", ModelID: "phi-3-mini", Status: StatusDownloading, BytesDownloaded: 100})
	s.UpdateProgress(Progress{DownloadID: "d1", ModelID: "phi-3-mini", Status: StatusDownloading, BytesDownloaded: 900})

	st := s.Get()
	require.Len(t, st.Downloads, 1)
	p := st.Downloads["d1"]
	assert.Equal(t, uint64(900), p.BytesDownloaded)

	// full replacement, not a merge: fields absent in the update reset
	s.UpdateProgress(Progress{DownloadID: "d1", ModelID: "phi-3-mini", Status: StatusPaused})
	assert.Equal(t, uint64(0), s.Get().Downloads["d1"].BytesDownloaded)
}

func TestSetStatus(t *testing.T) {
	s := NewStore()
	s.UpdateProgress(Progress{DownloadID: "d1", ModelID: "m", Status: StatusDownloading})

	s.SetStatus("d1", StatusPaused)
	assert.Equal(t, StatusPaused, s.Get().Downloads["d1"].Status)

	// unknown id: silent no-op
	s.SetStatus("ghost", StatusFailed)
	assert.Len(t, s.Get().Downloads, 1)

	// terminal states stay terminal
	s.SetStatus("d1", StatusCompleted)
	s.SetStatus("d1", StatusDownloading)
	assert.Equal(t, StatusCompleted, s.Get().Downloads["d1"].Status)
}

func TestQueueIsOrderedAndDuplicateFree(t *testing.T) {
	s := NewStore()

	s.QueueModel("a")
	s.QueueModel("b")
	s.QueueModel("a") // no-op
	assert.Equal(t, []string{"a", "b"}, s.Get().Queue)

	s.DequeueModel("a")
	assert.Equal(t, []string{"b"}, s.Get().Queue)

	// dequeue of an absent id must not throw
	s.DequeueModel("ghost")
	assert.Equal(t, []string{"b"}, s.Get().Queue)
}

func TestClearFinished(t *testing.T) {
	s := NewStore()
	statuses := map[string]Status{
		"q": StatusQueued,
		"d": StatusDownloading,
		"p": StatusPaused,
		"c": StatusCompleted,
		"f": StatusFailed,
		"x": StatusCancelled,
	}
	for id, status := range statuses {
		s.UpdateProgress(Progress{DownloadID: id, ModelID: "m-" + id, Status: status})
	}

	s.ClearFinished()

	st := s.Get()
	assert.Len(t, st.Downloads, 3)
	for _, id := range []string{"q", "d", "p"} {
		assert.Contains(t, st.Downloads, id)
	}
	for _, id := range []string{"c", "f", "x"} {
		assert.NotContains(t, st.Downloads, id)
	}
}

func TestGetByModelIDFirstInInsertionOrder(t *testing.T) {
	s := NewStore()
	s.UpdateProgress(Progress{DownloadID: "older", ModelID: "m", Status: StatusFailed})
	s.UpdateProgress(Progress{DownloadID: "newer", ModelID: "m", Status: StatusDownloading})

	p, ok := s.GetByModelID("m")
	require.True(t, ok)
	assert.Equal(t, "older", p.DownloadID)

	_, ok = s.GetByModelID("absent")
	assert.False(t, ok)
}

func TestActiveDownloads(t *testing.T) {
	s := NewStore()
	s.UpdateProgress(Progress{DownloadID: "d1", ModelID: "a", Status: StatusDownloading})
	s.UpdateProgress(Progress{DownloadID: "d2", ModelID: "b", Status: StatusCompleted})
	s.UpdateProgress(Progress{DownloadID: "d3", ModelID: "c", Status: StatusPaused})

	active := s.ActiveDownloads()
	require.Len(t, active, 2)
	assert.Equal(t, "d1", active[0].DownloadID)
	assert.Equal(t, "d3", active[1].DownloadID)
}

func TestIsModelDownloading(t *testing.T) {
	s := NewStore()
	s.UpdateProgress(Progress{DownloadID: "d1", ModelID: "running", Status: StatusDownloading})
	s.UpdateProgress(Progress{DownloadID: "d2", ModelID: "waiting", Status: StatusQueued})
	s.UpdateProgress(Progress{DownloadID: "d3", ModelID: "parked", Status: StatusPaused})
	s.UpdateProgress(Progress{DownloadID: "d4", ModelID: "done", Status: StatusCompleted})

	assert.True(t, s.IsModelDownloading("running"))
	assert.True(t, s.IsModelDownloading("waiting"))
	assert.False(t, s.IsModelDownloading("parked"))
	assert.False(t, s.IsModelDownloading("done"))
	assert.False(t, s.IsModelDownloading("absent"))
}

func TestRemove(t *testing.T) {
	s := NewStore()
	s.UpdateProgress(Progress{DownloadID: "d1", ModelID: "m", Status: StatusPaused})

	s.Remove("d1")
	assert.Empty(t, s.Get().Downloads)
	assert.Empty(t, s.Get().Order)

	s.Remove("d1") // no-op
}

func TestStoreNotifiesSubscribersSynchronously(t *testing.T) {
	s := NewStore()

	var statuses []Status
	unsub := s.Subscribe(func(st State) {
		if p, ok := st.Downloads["d1"]; ok {
			statuses = append(statuses, p.Status)
		}
	})
	defer unsub()

	s.UpdateProgress(Progress{DownloadID: "d1", ModelID: "m", Status: StatusQueued})
	s.SetStatus("d1", StatusDownloading)
	s.SetStatus("d1", StatusCompleted)

	assert.Equal(t, []Status{StatusQueued, StatusDownloading, StatusCompleted}, statuses)
}
