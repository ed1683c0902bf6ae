package meta

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/afs"
)

func TestService_Load(t *testing.T) {
	dir := t.TempDir()
	document := `
policy:
  defaultRole: member
runner:
  maxConcurrency: 3
owner: ${env.WARDEN_OWNER}
`
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(document), 0o644))
	t.Setenv("WARDEN_OWNER", "platform")

	srv := New(afs.New(), dir)
	var target map[string]interface{}
	err := srv.Load(context.Background(), "config.yaml", &target)
	assert.NoError(t, err)
	assert.Equal(t, "platform", target["owner"])

	policy, ok := target["policy"].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, "member", policy["defaultRole"])

	err = srv.Load(context.Background(), "missing.yaml", &target)
	assert.Error(t, err)
}
