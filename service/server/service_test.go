package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/itiky/collaborate-mirror/model"
)

func Test_StoreService_Write(t *testing.T) {
	svc, err := NewStoreService(10, 5*time.Millisecond, t.Name(), "")
	require.NoError(t, err)
	svc.Start()
	defer svc.Stop()

	req := model.WriteRequest{
		ClientId: 1,
		Operations: []model.OperationRequest{
			{Type: model.SetOperationType, Path: "/items/a", Value: "a", Priority: model.NumberPriority(2), HasPriority: true},
			{Type: model.UpdateOperationType, Path: "/items", Value: map[string]interface{}{"b": "b"}},
		},
	}
	require.NoError(t, svc.Write(req, &model.WriteResponse{}))
	require.Eventually(t, func() bool {
		return svc.LatestVersion() == 1
	}, time.Second, 5*time.Millisecond)

	updates := model.GetUpdatesResponse{}
	require.NoError(t, svc.GetUpdates(model.GetUpdatesRequest{Version: 0}, &updates))
	require.Equal(t, 1, updates.Version)
	require.Len(t, updates.Operations, 2)
	require.Equal(t, req.Operations[0].Path, updates.Operations[0].Path)

	updates = model.GetUpdatesResponse{}
	require.NoError(t, svc.GetUpdates(model.GetUpdatesRequest{Version: 1}, &updates))
	require.Equal(t, 1, updates.Version)
	require.Empty(t, updates.Operations)

	snapshot := model.GetSnapshotResponse{}
	require.Error(t, svc.GetSnapshot(model.GetSnapshotRequest{}, &snapshot))
	require.NoError(t, svc.GetSnapshot(model.GetSnapshotRequest{ClientId: 1}, &snapshot))
	require.Equal(t, 1, snapshot.Version)
	require.Equal(t, map[string]interface{}{
		"items": map[string]interface{}{"a": "a", "b": "b"},
	}, snapshot.Root.Export())
	require.Equal(t, model.NumberPriority(2), snapshot.Root.Children["items"].Children["a"].Priority)
}

func Test_StoreService_InvalidWrite(t *testing.T) {
	svc, err := NewStoreService(10, 5*time.Millisecond, t.Name(), "")
	require.NoError(t, err)

	badRequests := []model.WriteRequest{
		{ClientId: 1, Operations: []model.OperationRequest{{Type: "merge", Path: "/a"}}},
		{ClientId: 1, Operations: []model.OperationRequest{{Type: model.SetOperationType, Path: "/a.b", Value: 1}}},
		{ClientId: 1, Operations: []model.OperationRequest{{Type: model.UpdateOperationType, Path: "/a", Value: "not a map"}}},
	}
	for i, req := range badRequests {
		require.Error(t, svc.Write(req, &model.WriteResponse{}), "request %d", i)
	}

	_, err = NewStoreService(-1, time.Second, t.Name(), "")
	require.Error(t, err)
	_, err = NewStoreService(1, 0, t.Name(), "")
	require.Error(t, err)
}
