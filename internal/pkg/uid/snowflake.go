package uid

import (
	"crypto/sha256"
	"os"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// Snowflake generates time-ordered int64 IDs (twitter snowflake layout).
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake builds a generator whose node number is derived from the
// machine identity, so replicas do not collide without coordination.
func NewSnowflake() (*Snowflake, error) {
	node, err := snowflake.NewNode(nodeNumber())
	if err != nil {
		return nil, err
	}
	return &Snowflake{node: node}, nil
}

// Generate returns a new snowflake ID.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}

// nodeNumber hashes /etc/machine-id (hostname as fallback) into the 10-bit
// node space. Collisions are possible but need identical identities.
func nodeNumber() int64 {
	src := "identra"
	if b, err := os.ReadFile("/etc/machine-id"); err == nil && strings.TrimSpace(string(b)) != "" {
		src = strings.TrimSpace(string(b))
	} else if h, err := os.Hostname(); err == nil && h != "" {
		src = h
	}

	sum := sha256.Sum256([]byte(src))
	return int64(sum[0])<<2 | int64(sum[1])>>6
}
