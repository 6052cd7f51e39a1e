package client

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/itiky/collaborate-mirror/model"
	"github.com/itiky/collaborate-mirror/storage"
)

// initSnapshot fetches the initial snapshot into a new replica.
func (c *Client) initSnapshot() error {
	res, err := c.fetchSnapshot()
	if err != nil {
		return err
	}

	c.version = res.Version
	c.replica = storage.NewStore(
		fmt.Sprintf("client-%d", c.id),
		storage.WithRoot(res.Root),
		storage.WithDispatcher(c.poster.Post),
		storage.WithWriter(c),
	)

	return nil
}

// resync replaces the replica content with a fresh snapshot, listeners receive the difference.
func (c *Client) resync() error {
	res, err := c.fetchSnapshot()
	if err != nil {
		return err
	}

	c.replica.Reset(res.Root)

	c.Lock()
	c.version = res.Version
	c.Unlock()

	return nil
}

func (c *Client) fetchSnapshot() (model.GetSnapshotResponse, error) {
	req := model.GetSnapshotRequest{
		ClientId: c.id,
	}
	res := model.GetSnapshotResponse{}

	opStart := time.Now()
	if err := c.rpcClient.Call("StoreService.GetSnapshot", req, &res); err != nil {
		return model.GetSnapshotResponse{}, fmt.Errorf("rpc: %w", err)
	}
	opDur := time.Since(opStart)

	logrus.Infof("%s: snapshot v%d received within %v", c.String(), res.Version, opDur)

	return res, nil
}

// sendWrite sends a single write request.
func (c *Client) sendWrite(op model.OperationRequest) error {
	req := model.WriteRequest{
		ClientId:   c.id,
		Version:    c.Version(),
		Operations: []model.OperationRequest{op},
	}

	opStart := time.Now()
	if err := c.rpcClient.Call("StoreService.Write", req, &model.WriteResponse{}); err != nil {
		return fmt.Errorf("rpc: %w", err)
	}
	opDur := time.Since(opStart)

	logrus.Debugf("%s: [%v] write send: %s %s", c.String(), opDur, op.Type, op.Path)

	// Update stats
	monitor.WritesSend(1, opDur)

	return nil
}

// pollUpdates requests a new store version (if exists) and replays it on the replica.
func (c *Client) pollUpdates() error {
	req := model.GetUpdatesRequest{
		Version: c.Version(),
	}
	res := model.GetUpdatesResponse{}

	opStart := time.Now()
	if err := c.rpcClient.Call("StoreService.GetUpdates", req, &res); err != nil {
		return fmt.Errorf("rpc: %w", err)
	}

	if res.Version == req.Version {
		return nil
	}
	if res.Version < req.Version {
		logrus.Warnf("%s: server v%d is behind the replica v%d: resyncing", c.String(), res.Version, req.Version)
		return c.resync()
	}

	now := time.Now().UTC()
	stOps := make([]storage.StorageOperation, 0, len(res.Operations))
	for i, reqOp := range res.Operations {
		stOp, err := storage.NewOperation(reqOp, c.id, now)
		if err != nil {
			return fmt.Errorf("operation[%d] (%s): %w", i, reqOp.Type, err)
		}
		stOps = append(stOps, stOp)
	}

	// the replica is created before the worker starts and is only upgraded here
	c.replica.ApplyOperations(stOps...)

	c.Lock()
	c.version = res.Version
	c.Unlock()

	opDur := time.Since(opStart)
	logrus.Debugf("%s: [%v] replica updated to v%d: %d ops", c.String(), opDur, res.Version, len(res.Operations))

	// Update stats
	monitor.UpdatesReceived(len(res.Operations), opDur)

	return nil
}
