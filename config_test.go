package kplex

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigGlobalSection(t *testing.T) {
	src := `
[global]
qsize = 256
mode = background
logto = local3
`
	cfg, err := ParseConfig(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, 256, cfg.QueueSize)
	assert.True(t, cfg.Background)
	assert.Equal(t, "local3", cfg.LogFacility)
}

func TestParseConfigDuplicateGlobalIsFatal(t *testing.T) {
	src := `
[global]
qsize = 10

[global]
qsize = 20
`
	_, err := ParseConfig(strings.NewReader(src))
	assert.Error(t, err)
}

func TestParseConfigEndpointSection(t *testing.T) {
	src := `
[tcp]
direction = in
address = 127.0.0.1:10110
`
	cfg, err := ParseConfig(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, cfg.Endpoints, 1)

	d := cfg.Endpoints[0]
	assert.Equal(t, "tcp", d.Type)
	assert.Equal(t, DirIn, d.Direction)

	addr, ok := d.Key("address")
	require.True(t, ok)
	assert.Equal(t, "127.0.0.1:10110", addr)
}

func TestParseConfigIgnoresCommentsAndBlankLines(t *testing.T) {
	src := `
# this is a comment

[global]
# another comment
qsize = 64
`
	cfg, err := ParseConfig(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.QueueSize)
}

func TestParseConfigQuotedValue(t *testing.T) {
	src := `
[file]
file = "/tmp/some path.log"
`
	cfg, err := ParseConfig(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, cfg.Endpoints, 1)

	v, ok := cfg.Endpoints[0].Key("file")
	require.True(t, ok)
	assert.Equal(t, "/tmp/some path.log", v)
}

func TestParseInlineDescriptor(t *testing.T) {
	d, err := ParseInlineDescriptor("tcp:address=127.0.0.1:10110,direction=out")
	require.NoError(t, err)

	assert.Equal(t, "tcp", d.Type)
	assert.Equal(t, DirOut, d.Direction)
	addr, _ := d.Key("address")
	assert.Equal(t, "127.0.0.1:10110", addr)
}

func TestParseInlineDescriptorRejectsMissingType(t *testing.T) {
	_, err := ParseInlineDescriptor("nocolon")
	assert.Error(t, err)
}

func TestAssignNamesSynthesizesAndDetectsCollisions(t *testing.T) {
	descs := []*Descriptor{
		{Type: "tcp"},
		{Type: "tcp"},
	}
	require.NoError(t, AssignNames(descs))
	assert.Equal(t, "tcp0", descs[0].Name)
	assert.Equal(t, "tcp1", descs[1].Name)

	collide := []*Descriptor{
		{Type: "tcp", Name: "a"},
		{Type: "file", Name: "a"},
	}
	assert.Error(t, AssignNames(collide))
}

func TestAssignNamesRejectsUnnameableDescriptor(t *testing.T) {
	err := AssignNames([]*Descriptor{{}})
	assert.Equal(t, ErrNoName, err)
}
