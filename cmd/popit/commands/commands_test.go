package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewConfigCommand(t *testing.T) {
	t.Parallel()

	cmd := NewConfigCommand()
	assert.Equal(t, "config", cmd.Use)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}

	assert.ElementsMatch(t, []string{"show", "set"}, names)
}

func TestVerbCommands(t *testing.T) {
	t.Parallel()

	get := NewGetCommand()
	assert.Equal(t, "get", get.Name())
	assert.NotNil(t, get.Flags().Lookup("query"))
	assert.Error(t, get.Args(get, nil))

	post := NewPostCommand()
	put := NewPutCommand()

	for _, flag := range []string{"data", "file", "set"} {
		assert.NotNil(t, post.Flags().Lookup(flag), "post --%s", flag)
		assert.NotNil(t, put.Flags().Lookup(flag), "put --%s", flag)
	}

	del := NewDeleteCommand()
	assert.NotNil(t, del.Flags().Lookup("ids"))
	assert.NotNil(t, del.Flags().Lookup("concurrency"))
	assert.NoError(t, del.Args(del, []string{"persons"}))
}

func TestNewLoginCommand(t *testing.T) {
	t.Parallel()

	cmd := NewLoginCommand()
	assert.Equal(t, "login", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("verify"))
	assert.NotNil(t, cmd.RunE)
}

func TestNewVersionCommand(t *testing.T) {
	t.Parallel()

	cmd := NewVersionCommand("1.0.0", "abc", "today")
	assert.Equal(t, "version", cmd.Use)
	assert.NotNil(t, cmd.RunE)
}
