package finance

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// ReferenceGenerator issues human-readable transaction references.
type ReferenceGenerator interface {
	Next(monthKey string) string
}

// SnowflakeReferences produces TX-YYYYMM-<base36 snowflake> codes.
type SnowflakeReferences struct {
	node *snowflake.Node
}

func NewSnowflakeReferences(nodeID int64) (*SnowflakeReferences, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", nodeID, err)
	}
	return &SnowflakeReferences{node: node}, nil
}

func (g *SnowflakeReferences) Next(monthKey string) string {
	return "TX-" + strings.ReplaceAll(monthKey, "-", "") + "-" + strings.ToUpper(g.node.Generate().Base36())
}
