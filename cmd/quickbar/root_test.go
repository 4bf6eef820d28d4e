package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()

	names := []string{}
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "stats-worker", "migrate", "grant", "passwd"}, names)
}

func TestRootCommand_ConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing config file",
			args:    []string{"--config", filepath.Join(os.TempDir(), "quickbar-missing.yaml"), "serve"},
			wantErr: "failed to read config file",
		},
		{
			name:    "bad log level",
			args:    []string{"serve"},
			env:     map[string]string{"LOG_LEVEL": "loud"},
			wantErr: "not a valid logrus Level",
		},
		{
			name:    "serve needs a signing secret",
			args:    []string{"serve"},
			env:     map[string]string{"JWT_SECRET_KEY": ""},
			wantErr: "JWT secret key not set",
		},
		{
			name:    "grant needs a role",
			args:    []string{"grant", "--uid", "u1"},
			wantErr: `required flag(s) "role" not set`,
		},
		{
			name:    "migrate direction",
			args:    []string{"migrate", "sideways"},
			wantErr: `invalid argument "sideways"`,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			for k, v := range testCase.env {
				t.Setenv(k, v)
			}
			cmd := NewRootCommand()
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetErr(&out)
			cmd.SetArgs(testCase.args)

			err := cmd.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), testCase.wantErr)
		})
	}
}

func TestRootCommand_LoadsConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quickbar.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  addr: \":9999\"\nlog:\n  level: debug\n  format: json\n"), 0o600))

	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	cmd.AddCommand(&cobra.Command{
		Use:  "probe",
		RunE: func(*cobra.Command, []string) error { return nil },
	})
	cmd.SetArgs([]string{"--config", path, "probe"})
	require.NoError(t, cmd.Execute())

	require.NotNil(t, opts.Config)
	assert.Equal(t, ":9999", opts.Config.HTTP.Addr)
	assert.Equal(t, logrus.DebugLevel, opts.Log.GetLevel())
}
