package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoveFirstDashDash(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "empty slice", in: []string{}, want: []string{}},
		{name: "starts with --", in: []string{"--", "--plain-name", "login"}, want: []string{"--plain-name", "login"}},
		{name: "no --", in: []string{"test/login_test.dart"}, want: []string{"test/login_test.dart"}},
		{name: "only --", in: []string{"--"}, want: []string{}},
		{name: "-- in middle", in: []string{"-top", "--", "-cum"}, want: []string{"-top", "--", "-cum"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, removeFirstDashDash(tt.in))
		})
	}
}

func TestParseViewArgs(t *testing.T) {
	tests := []struct {
		name          string
		in            []string
		wantID        string
		wantPprofArgs []string
	}{
		{name: "empty args", in: []string{}, wantID: "0"},
		{name: "index 0", in: []string{"0"}, wantID: "0", wantPprofArgs: []string{}},
		{name: "negative index", in: []string{"-1"}, wantID: "-1", wantPprofArgs: []string{}},
		{name: "hex id", in: []string{"abc123"}, wantID: "abc123", wantPprofArgs: []string{}},
		{name: "only pprof args", in: []string{"-top"}, wantID: "0", wantPprofArgs: []string{"-top"}},
		{name: "id with pprof args", in: []string{"0", "-http=:8080"}, wantID: "0", wantPprofArgs: []string{"-http=:8080"}},
		{name: "id with separator", in: []string{"0", "--", "-top", "-cum"}, wantID: "0", wantPprofArgs: []string{"-top", "-cum"}},
		{name: "negative index with separator", in: []string{"-1", "--", "-top"}, wantID: "-1", wantPprofArgs: []string{"-top"}},
		{name: "hex id without separator", in: []string{"abc123", "-list=login"}, wantID: "abc123", wantPprofArgs: []string{"-list=login"}},
		{name: "only separator", in: []string{"--", "-http=:8080"}, wantID: "0", wantPprofArgs: []string{"-http=:8080"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotID, gotPprofArgs := parseViewArgs(tt.in)
			assert.Equal(t, tt.wantID, gotID)
			assert.Equal(t, tt.wantPprofArgs, gotPprofArgs)
		})
	}
}

func TestConclusionMarker(t *testing.T) {
	assert.Equal(t, "✔️", conclusionMarker("success"))
	assert.Equal(t, "❌", conclusionMarker("failure"))
	assert.Equal(t, "❓", conclusionMarker("unknown"))
	assert.Equal(t, "❓", conclusionMarker(""))
}
