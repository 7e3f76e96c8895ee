package id

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once

	ErrInvalid = errors.New("invalid id")
)

// Init initializes the Snowflake node with the given node ID.
// Only the first call has any effect.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New generates a new globally unique int64 ID using the Snowflake algorithm.
// IDs are time-ordered, which the message store relies on as a tiebreaker.
func New() int64 {
	return node.Generate().Int64()
}

// Parse reads a decimal ID as it appears in URLs and JSON string fields.
func Parse(s string) (int64, error) {
	sf, err := snowflake.ParseString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	if sf.Int64() <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	return sf.Int64(), nil
}
