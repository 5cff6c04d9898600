package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirsFromEnv(t *testing.T) {
	t.Setenv("UPLOAD_PATH", "/tmp/up")
	t.Setenv("SEPARATED_PATH", "")

	assert := assert.New(t)
	assert.Equal("/tmp/up", GetUploadDir())
	assert.Equal("./separated/htdemucs_6s", GetSeparatedDir())
}
