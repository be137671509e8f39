package id

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init sets the node id used by New. Calling it again is a no-op.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New returns a time ordered int64 id. Without Init it falls back to node 0.
func New() int64 {
	_ = Init(0)
	return node.Generate().Int64()
}
