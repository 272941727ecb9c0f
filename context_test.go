package swapvault

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tendermint/tendermint/libs/log"
)

func TestLogger(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, DefaultLogger, GetLogger(ctx))

	var buf bytes.Buffer
	ctx = WithLogger(ctx, log.NewTMLogger(&buf))
	ctx = WithLogInfo(ctx, "program", "escrow")
	GetLogger(ctx).Info("make")
	assert.True(t, strings.Contains(buf.String(), "program=escrow"), buf.String())
}

func TestProgramLog(t *testing.T) {
	var l ProgramLog
	ctx := WithProgramLog(context.Background(), &l)
	Log(ctx, "Instruction: %s", "Take")
	Log(context.Background(), "dropped")
	assert.Equal(t, []string{"Instruction: Take"}, l.Lines())

	var none *ProgramLog
	assert.Nil(t, none.Lines())
}
