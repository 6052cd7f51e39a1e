package server

import (
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/itiky/collaborate-mirror/model"
	"github.com/itiky/collaborate-mirror/storage"
)

// StoreService implements an RPC server service sharing a single store between clients.
type StoreService struct {
	// Config
	batchPeriod time.Duration
	// State
	docHistory *storage.DocumentHistory
	opsCh      chan []storage.StorageOperation
	//
	stopCh chan interface{}
	doneCh chan interface{}
}

// GetSnapshot returns the latest store snapshot.
func (s *StoreService) GetSnapshot(req model.GetSnapshotRequest, res *model.GetSnapshotResponse) error {
	if req.ClientId <= 0 {
		return fmt.Errorf("%s: must be GT 0", "ClientId")
	}

	version, root := s.docHistory.GetSnapshot()
	res.Version = version
	res.Root = root

	return nil
}

// GetUpdates returns write requests for client to replay on a local replica in order to upgrade it.
func (s *StoreService) GetUpdates(req model.GetUpdatesRequest, res *model.GetUpdatesResponse) error {
	start := time.Now()

	version, ops := s.docHistory.GetUpdatesSince(req.Version)
	res.Version = version
	res.Operations = ops

	go monitor.UpdatesRequestServed(time.Since(start))

	return nil
}

// Write receives the store write operations and pushes them to the queue.
// The whole request is rejected if any operation is invalid.
func (s *StoreService) Write(req model.WriteRequest, res *model.WriteResponse) error {
	now := time.Now().UTC()

	// Input validation
	storageOps := make([]storage.StorageOperation, 0, len(req.Operations))
	for i, reqOp := range req.Operations {
		storageOp, err := storage.NewOperation(reqOp, req.ClientId, now)
		if err != nil {
			return fmt.Errorf("writeOperation[%d] (%s): %w", i, reqOp.Type, err)
		}
		storageOps = append(storageOps, storageOp)
	}

	s.opsCh <- storageOps

	return nil
}

// LatestVersion returns the current store version.
func (s *StoreService) LatestVersion() int {
	return s.docHistory.LatestVersion()
}

// Start starts the service worker.
func (s *StoreService) Start() {
	if s.stopCh != nil {
		return
	}
	s.stopCh = make(chan interface{})
	s.doneCh = make(chan interface{})

	monitor.Start()
	go s.worker()
}

// Stop stops the service worker.
func (s *StoreService) Stop() {
	if s.stopCh == nil {
		return
	}

	close(s.stopCh)
	<-s.doneCh
	monitor.Stop()
}

// worker does the actual job.
func (s *StoreService) worker() {
	logrus.Info("StoreService: start")
	defer close(s.doneCh)

	stOpsQueue := make([]storage.StorageOperation, 0)

	handleTicker := time.NewTicker(s.batchPeriod)
	defer handleTicker.Stop()

	for {
		select {
		case <-s.stopCh:
			// Service stop
			logrus.Info("StoreService: stop")
			return
		case stOps := <-s.opsCh:
			// Push storage operations to the queue
			stOpsQueue = append(stOpsQueue, stOps...)
		case <-handleTicker.C:
			// Start handling the queued operations
			if len(stOpsQueue) == 0 {
				continue
			}

			// Operations of a single request share the timestamp and keep their order
			sort.SliceStable(stOpsQueue, func(i, j int) bool {
				return stOpsQueue[i].GetTimestamp().Before(stOpsQueue[j].GetTimestamp())
			})

			s.docHistory.AddVersion(stOpsQueue...)
			go monitor.OpsHandled(len(stOpsQueue))

			logrus.WithFields(logrus.Fields{
				"version": s.docHistory.LatestVersion(),
				"ops":     len(stOpsQueue),
			}).Debug("StoreService: version added")

			stOpsQueue = make([]storage.StorageOperation, 0)
		}
	}
}

// NewStoreService creates a new StoreService object.
// The store is seeded from the generated file (empty if filePath is not set).
func NewStoreService(chSize int, batchPeriod time.Duration, storeName, filePath string) (*StoreService, error) {
	if chSize < 0 {
		return nil, fmt.Errorf("%s: must be GTE 0", "chSize")
	}
	if batchPeriod <= 0 {
		return nil, fmt.Errorf("%s: must be GT 0", "batchPeriod")
	}

	docHistory, err := storage.NewDocHistoryFromFile(storeName, filePath)
	if err != nil {
		return nil, fmt.Errorf("storage.NewDocHistoryFromFile: %w", err)
	}

	return &StoreService{
		docHistory:  docHistory,
		opsCh:       make(chan []storage.StorageOperation, chSize),
		batchPeriod: batchPeriod,
	}, nil
}
