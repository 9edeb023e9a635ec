package commands

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/email-vetter/internal/core"
)

func TestClassifyCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := GetRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"classify", "--mode", "fast", "john@gmail.com", "demo123@example.com"})

	require.NoError(t, cmd.Execute())

	var verdicts []core.Verdict
	require.NoError(t, json.Unmarshal(out.Bytes(), &verdicts))
	require.Len(t, verdicts, 2)
	assert.Equal(t, "john@gmail.com", verdicts[0].Email)
	assert.Equal(t, core.StatusValid, verdicts[0].Status)
	assert.Equal(t, core.StatusRisky, verdicts[1].Status)
	assert.Equal(t, core.ReasonSuspicious, verdicts[1].Reason)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := GetRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "dev\n", out.String())
}
