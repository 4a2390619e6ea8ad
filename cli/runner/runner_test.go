package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildArgs(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{
			name: "no extra args",
			opts: Options{},
			want: []string{"test", "-r", "json"},
		},
		{
			name: "extra args",
			opts: Options{Args: []string{"--plain-name", "Counter", "test/counter_test.dart"}},
			want: []string{"test", "-r", "json", "--plain-name", "Counter", "test/counter_test.dart"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildArgs(tt.opts))
		})
	}
}

func TestBuildCommand(t *testing.T) {
	assert.Equal(t, "flutter test -r json", BuildCommand(Options{}))
	assert.Equal(t,
		"dart test -r json --name 'increments by one'",
		BuildCommand(Options{Runner: "dart", Args: []string{"--name", "increments by one"}}),
	)
}

func TestCommand(t *testing.T) {
	cmd := Command(context.Background(), Options{Dir: "app", Args: []string{"-j", "4"}})
	assert.Equal(t, "app", cmd.Dir)
	assert.Equal(t, []string{"flutter", "test", "-r", "json", "-j", "4"}, cmd.Args)
	assert.NotNil(t, cmd.Cancel)
}
