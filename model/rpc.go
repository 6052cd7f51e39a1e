package model

// Get the latest store snapshot RPC request.
type (
	GetSnapshotRequest struct {
		// ClientID
		ClientId ClientId
	}

	GetSnapshotResponse struct {
		// Snapshot version
		Version int
		// Snapshot data
		Root *TreeNode
	}
)

// Write to the store RPC request.
type (
	WriteRequest struct {
		// Write source
		ClientId ClientId
		// Client snapshot version
		Version int
		// Write operations
		Operations []OperationRequest
	}

	// OperationRequest is a single write. Value is a normalized plain value
	// (a map of relative paths for UpdateOperationType).
	OperationRequest struct {
		Type        OperationType
		Path        string
		Value       interface{}
		Priority    Priority
		HasPriority bool
	}

	WriteResponse struct{}
)

// Get store updates to bump the local replica version.
type (
	GetUpdatesRequest struct {
		// Local snapshot version
		Version int
	}

	GetUpdatesResponse struct {
		// Snapshot version
		Version int
		// Operations to apply in order to upgrade GetUpdatesRequest.Version to Version
		Operations []OperationRequest
	}
)
