package storage

import (
	"fmt"
	"sort"
	"time"

	"github.com/itiky/collaborate-mirror/model"
)

type (
	// StorageOperation is an operation performed on Store to update its state.
	StorageOperation interface {
		// Build the new root from the current one
		Apply(root *node) *node
		// Wire representation (used by the document history)
		Request() model.OperationRequest
		// Ordering within a batch
		GetTimestamp() time.Time
	}

	// SetOperation implements StorageOperation interface for create/replace operation.
	SetOperation struct {
		Keys        []string
		Value       interface{}
		Priority    model.Priority
		HasPriority bool
		UpdatedBy   model.ClientId
		UpdatedAt   time.Time
	}

	// UpdateOperation implements StorageOperation interface for a shallow merge of relative paths.
	UpdateOperation struct {
		Keys      []string
		Values    map[string]interface{}
		UpdatedBy model.ClientId
		UpdatedAt time.Time
	}

	// DeleteOperation implements StorageOperation interface for delete operation.
	DeleteOperation struct {
		Keys      []string
		DeletedBy model.ClientId
		DeletedAt time.Time
	}
)

// Apply implements StorageOperation interface.
// Without an explicit priority a set clears the previous one.
func (o SetOperation) Apply(root *node) *node {
	return setAt(root, o.Keys, newNode(o.Value, o.Priority))
}

// Request implements StorageOperation interface.
func (o SetOperation) Request() model.OperationRequest {
	return model.OperationRequest{
		Type:        model.SetOperationType,
		Path:        model.JoinPath(o.Keys...),
		Value:       o.Value,
		Priority:    o.Priority,
		HasPriority: o.HasPriority,
	}
}

// GetTimestamp implements StorageOperation interface.
func (o SetOperation) GetTimestamp() time.Time {
	return o.UpdatedAt
}

// Apply implements StorageOperation interface.
// Children not named in Values are kept, a nil value removes the child.
func (o UpdateOperation) Apply(root *node) *node {
	relPaths := make([]string, 0, len(o.Values))
	for relPath := range o.Values {
		relPaths = append(relPaths, relPath)
	}
	sort.Strings(relPaths)

	for _, relPath := range relPaths {
		value := o.Values[relPath]
		relKeys, _ := model.SplitPath(relPath)
		keys := append(append(make([]string, 0, len(o.Keys)+len(relKeys)), o.Keys...), relKeys...)

		// A replaced child keeps its priority, as the merge only targets values
		priority := root.at(keys).getPriority()
		root = setAt(root, keys, newNode(value, priority))
	}

	return root
}

// Request implements StorageOperation interface.
func (o UpdateOperation) Request() model.OperationRequest {
	values := make(map[string]interface{}, len(o.Values))
	for k, v := range o.Values {
		values[k] = v
	}

	return model.OperationRequest{
		Type:  model.UpdateOperationType,
		Path:  model.JoinPath(o.Keys...),
		Value: values,
	}
}

// GetTimestamp implements StorageOperation interface.
func (o UpdateOperation) GetTimestamp() time.Time {
	return o.UpdatedAt
}

// Apply implements StorageOperation interface.
func (o DeleteOperation) Apply(root *node) *node {
	return setAt(root, o.Keys, nil)
}

// Request implements StorageOperation interface.
func (o DeleteOperation) Request() model.OperationRequest {
	return model.OperationRequest{
		Type: model.DeleteOperationType,
		Path: model.JoinPath(o.Keys...),
	}
}

// GetTimestamp implements StorageOperation interface.
func (o DeleteOperation) GetTimestamp() time.Time {
	return o.DeletedAt
}

// NewSetOperation creates a valid StorageOperation object.
func NewSetOperation(path string, value interface{}, priority model.Priority, hasPriority bool, clientId model.ClientId, timestamp time.Time) (SetOperation, error) {
	keys, err := model.SplitPath(path)
	if err != nil {
		return SetOperation{}, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	normalized, err := model.Normalize(value)
	if err != nil {
		return SetOperation{}, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	if timestamp.IsZero() {
		return SetOperation{}, fmt.Errorf("%s: zero", "timestamp")
	}

	return SetOperation{
		Keys:        keys,
		Value:       normalized,
		Priority:    priority,
		HasPriority: hasPriority,
		UpdatedBy:   clientId,
		UpdatedAt:   timestamp,
	}, nil
}

// NewUpdateOperation creates a valid StorageOperation object.
func NewUpdateOperation(path string, values map[string]interface{}, clientId model.ClientId, timestamp time.Time) (UpdateOperation, error) {
	keys, err := model.SplitPath(path)
	if err != nil {
		return UpdateOperation{}, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	if timestamp.IsZero() {
		return UpdateOperation{}, fmt.Errorf("%s: zero", "timestamp")
	}

	normalized := make(map[string]interface{}, len(values))
	for relPath, value := range values {
		relKeys, err := model.SplitPath(relPath)
		if err != nil {
			return UpdateOperation{}, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		if len(relKeys) == 0 {
			return UpdateOperation{}, fmt.Errorf("%w: %s: empty", ErrInvalidKey, "relPath")
		}

		v, err := model.Normalize(value)
		if err != nil {
			return UpdateOperation{}, fmt.Errorf("%w: %s: %v", ErrInvalidValue, relPath, err)
		}
		normalized[relPath] = v
	}

	return UpdateOperation{
		Keys:      keys,
		Values:    normalized,
		UpdatedBy: clientId,
		UpdatedAt: timestamp,
	}, nil
}

// NewDeleteOperation creates a valid StorageOperation object.
func NewDeleteOperation(path string, clientId model.ClientId, timestamp time.Time) (DeleteOperation, error) {
	keys, err := model.SplitPath(path)
	if err != nil {
		return DeleteOperation{}, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	if timestamp.IsZero() {
		return DeleteOperation{}, fmt.Errorf("%s: zero", "timestamp")
	}

	return DeleteOperation{
		Keys:      keys,
		DeletedBy: clientId,
		DeletedAt: timestamp,
	}, nil
}

// NewOperation creates a valid StorageOperation object from a model.OperationRequest.
func NewOperation(req model.OperationRequest, clientId model.ClientId, timestamp time.Time) (StorageOperation, error) {
	switch req.Type {
	case model.SetOperationType:
		op, err := NewSetOperation(req.Path, req.Value, req.Priority, req.HasPriority, clientId, timestamp)
		if err != nil {
			return nil, err
		}
		return op, nil
	case model.UpdateOperationType:
		values, ok := req.Value.(map[string]interface{})
		if !ok && req.Value != nil {
			return nil, fmt.Errorf("%w: update: %T: must be a map", ErrInvalidValue, req.Value)
		}
		op, err := NewUpdateOperation(req.Path, values, clientId, timestamp)
		if err != nil {
			return nil, err
		}
		return op, nil
	case model.DeleteOperationType:
		op, err := NewDeleteOperation(req.Path, clientId, timestamp)
		if err != nil {
			return nil, err
		}
		return op, nil
	}

	return nil, fmt.Errorf("unsupported operation: %s", req.Type)
}
