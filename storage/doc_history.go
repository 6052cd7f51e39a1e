package storage

import (
	"sync"

	"github.com/itiky/collaborate-mirror/model"
)

type (
	// DocumentHistory keeps the document history alongside the latest Store state used to serve client requests.
	DocumentHistory struct {
		sync.RWMutex
		// List of document versions
		documents []Document
		// Version 0 data
		seed *model.TreeNode
		// Latest version storage state
		storage *Store
		// The current document version
		latestVersion int
	}

	Document struct {
		Version int
		// Storage operations to apply on previous document version in order to upgrade it
		InputOperations []StorageOperation
	}
)

// AddVersion adds a new Document version applying input operations.
func (h *DocumentHistory) AddVersion(stOps ...StorageOperation) {
	if len(stOps) == 0 {
		return
	}

	h.Lock()
	defer h.Unlock()

	// Update the storage state
	h.storage.ApplyOperations(stOps...)

	// Add a new document version
	stOpsCopy := make([]StorageOperation, len(stOps))
	copy(stOpsCopy, stOps)
	newDoc := Document{
		InputOperations: stOpsCopy,
	}

	historyLen := len(h.documents)
	if historyLen > 0 {
		newDoc.Version = h.documents[historyLen-1].Version + 1
	}

	h.documents = append(h.documents, newDoc)

	// Update the version
	h.latestVersion = len(h.documents) - 1
}

// GetUpdatesSince returns the latest version and write requests for client to replay on a local replica
// in order to upgrade it to the latest one.
func (h *DocumentHistory) GetUpdatesSince(version int) (int, []model.OperationRequest) {
	h.RLock()
	defer h.RUnlock()

	if version > h.latestVersion {
		// the caller replica is ahead of this history (the server was restarted)
		return h.latestVersion, nil
	}

	startVersion := version + 1
	if !h.IsVersionValid(startVersion) {
		return version, nil
	}

	reqs := make([]model.OperationRequest, 0)
	for i := startVersion; i <= h.latestVersion; i++ {
		for _, op := range h.documents[i].InputOperations {
			reqs = append(reqs, op.Request())
		}
	}

	return h.latestVersion, reqs
}

// GetSnapshot returns latest snapshot version and data.
// Action is performed for new client connections in order to get the local replica.
func (h *DocumentHistory) GetSnapshot() (int, *model.TreeNode) {
	h.RLock()
	defer h.RUnlock()

	return h.latestVersion, h.storage.Export()
}

// BuildStorage builds a Store snapshot for the specified version.
// Makes possible to build a snapshot for all previous document versions.
func (h *DocumentHistory) BuildStorage(version int) *Store {
	h.RLock()
	defer h.RUnlock()

	if !h.IsVersionValid(version) {
		return nil
	}

	storage := NewStore("history", WithRoot(h.seed))
	for i := 1; i <= version; i++ {
		storage.ApplyOperations(h.documents[i].InputOperations...)
	}

	return storage
}

// IsVersionValid checks if document version exists.
func (h *DocumentHistory) IsVersionValid(version int) bool {
	return version >= 0 && version < len(h.documents)
}

// LatestVersion returns the current document version.
func (h *DocumentHistory) LatestVersion() int {
	h.RLock()
	defer h.RUnlock()

	return h.latestVersion
}

// NewDocumentHistory creates a new DocumentHistory object with a single version (v0) built from the seed.
func NewDocumentHistory(name string, seed *model.TreeNode) *DocumentHistory {
	return &DocumentHistory{
		documents: []Document{{Version: 0}},
		seed:      seed,
		storage:   NewStore(name, WithRoot(seed)),
	}
}
