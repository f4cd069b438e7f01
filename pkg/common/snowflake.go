package common

import (
	"math/rand"
	"time"

	"github.com/bwmarrin/snowflake"
)

var snowflakeNode *snowflake.Node

func init() {
	rand.Seed(time.Now().UnixNano())
	node, err := snowflake.NewNode(rand.Int63n(1023))
	if err != nil {
		panic(err)
	}
	snowflakeNode = node
}

// UUIDint64 returns a new snowflake id as int64
func UUIDint64() int64 {
	return snowflakeNode.Generate().Int64()
}

// UUID returns a new snowflake id string
func UUID() string {
	return snowflakeNode.Generate().String()
}
