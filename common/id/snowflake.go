package id

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init sets up the Snowflake node. The API server runs as node 1 and the
// audit worker as node 2 so both can mint keys without coordination.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New generates a time-ordered unique int64, used for every primary key
// (plans, reports, courses, sessions). int64 fits a Postgres bigint; JSON
// responses carry it as a string to survive JS number precision.
func New() int64 {
	return node.Generate().Int64()
}
