package storage

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math/rand"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/itiky/collaborate-mirror/model"
)

// GenAndSaveInitialStorage generates a random prioritized list under listKey and saves it to file system.
func GenAndSaveInitialStorage(filePath, listKey string, storageSize int) error {
	if storageSize <= 0 {
		return fmt.Errorf("%s: must be GT 0", "storageSize")
	}
	if err := model.ValidateKey(listKey); err != nil {
		return fmt.Errorf("%s: %w", "listKey", err)
	}

	logrus.Infof("Creating objects...")
	tree := newStorageMockTree(listKey, storageSize)

	logrus.Infof("GOB marshal...")
	treeRaw := new(bytes.Buffer)
	if err := gob.NewEncoder(treeRaw).Encode(tree); err != nil {
		return fmt.Errorf("GOB marshal: %w", err)
	}

	logrus.Infof("Saving file...")
	if err := os.WriteFile(filePath, treeRaw.Bytes(), 0644); err != nil {
		return fmt.Errorf("write to file (%s): %w", filePath, err)
	}

	logrus.Infof("Done")

	return nil
}

// NewDocHistoryFromFile builds the DocumentHistory object with a single version (v0) from the file.
// An empty filePath builds an empty history.
func NewDocHistoryFromFile(name, filePath string) (*DocumentHistory, error) {
	if filePath == "" {
		return NewDocumentHistory(name, nil), nil
	}

	logrus.Infof("Reading file...")
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading file (%s): %w", filePath, err)
	}

	logrus.Infof("GOB unmarshal...")
	tree := &model.TreeNode{}
	if err := gob.NewDecoder(bytes.NewBuffer(data)).Decode(tree); err != nil {
		return nil, fmt.Errorf("GOB unmarshal: %w", err)
	}

	logrus.Infof("DocHistory creation...")
	docHistory := NewDocumentHistory(name, tree)

	logrus.Infof("Storage created: %d top level children", len(tree.Children))

	return docHistory, nil
}

// newStorageMockTree builds a tree with n prioritized list items.
func newStorageMockTree(listKey string, n int) *model.TreeNode {
	items := make(map[string]*model.TreeNode, n)
	for i := 0; i < n; i++ {
		key, item := newStorageMockItem()
		items[key] = item
	}

	return &model.TreeNode{
		Children: map[string]*model.TreeNode{
			listKey: {Children: items},
		},
	}
}

// newStorageMockItem builds a mock list item.
func newStorageMockItem() (string, *model.TreeNode) {
	value := rand.Int31()

	return model.NewPushKey(), &model.TreeNode{
		Value:    "item-" + strconv.Itoa(int(value)),
		Priority: model.NumberPriority(float64(value)),
	}
}
