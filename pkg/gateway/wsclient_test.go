package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSubscribeRequiresConnection(t *testing.T) {
	c := NewWSClient("ws://localhost:0/md", zap.NewNop())
	err := c.Subscribe("rb2405")
	assert.Error(t, err)
}

func TestCloseWithoutConnect(t *testing.T) {
	c := NewWSClient("ws://localhost:0/md", zap.NewNop())
	assert.NoError(t, c.Close())
}
