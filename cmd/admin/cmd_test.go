// AngelaMos | 2026
// cmd_test.go

package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/mahuru-activation/internal/config"
	"github.com/carterperez-dev/mahuru-activation/internal/docstore"
	"github.com/carterperez-dev/mahuru-activation/internal/profile"
)

func setup(t *testing.T, env string) (*commandLine, docstore.Store, *bytes.Buffer) {
	t.Helper()
	store := docstore.NewMemory()
	t.Cleanup(func() { _ = store.Close() })

	out := &bytes.Buffer{}
	cfg := &config.Config{App: config.AppConfig{Environment: env}}
	return newCommandLine(store, cfg, out, nil), store, out
}

type cliTest struct {
	name    string
	args    []string
	wantErr error
}

func TestCommandLineUsage(t *testing.T) {
	cli, _, _ := setup(t, config.EnvDevelopment)

	tests := []cliTest{
		{name: "no command", args: nil, wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "grant without uid", args: []string{"grant-admin", "-email", "a@b.com"}, wantErr: errHelp},
		{name: "grant without email", args: []string{"grant-admin", "-uid", "u1"}, wantErr: errHelp},
		{name: "revoke without uid", args: []string{"revoke-admin"}, wantErr: errHelp},
		{name: "reset without uid", args: []string{"reset-progress"}, wantErr: errHelp},
		{name: "bad flag", args: []string{"seed", "-nope"}, wantErr: errHelp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(context.Background(), tt.args)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	cli, _, out := setup(t, config.EnvDevelopment)
	ctx := context.Background()

	require.NoError(t, cli.run(ctx, []string{"seed"}))
	assert.Contains(t, out.String(), "seeded 5 characters and 30 activities")

	out.Reset()
	require.NoError(t, cli.run(ctx, []string{"seed"}))
	assert.Contains(t, out.String(), "seeded 0 characters and 0 activities")

	out.Reset()
	require.NoError(t, cli.run(ctx, []string{"seed", "-overwrite"}))
	assert.Contains(t, out.String(), "seeded 5 characters and 30 activities")
}

func TestGrantListRevoke(t *testing.T) {
	cli, _, out := setup(t, config.EnvDevelopment)
	ctx := context.Background()

	require.NoError(t, cli.run(ctx, []string{"grant-admin", "-uid", "u1", "-email", "Kaiako@Example.com"}))
	assert.Contains(t, out.String(), "granted super_admin to kaiako@example.com (u1)")

	out.Reset()
	require.NoError(t, cli.run(ctx, []string{"list-admins"}))
	assert.Contains(t, out.String(), "kaiako@example.com")
	assert.Contains(t, out.String(), "never")

	out.Reset()
	require.NoError(t, cli.run(ctx, []string{"revoke-admin", "-uid", "u1"}))

	out.Reset()
	require.NoError(t, cli.run(ctx, []string{"list-admins"}))
	assert.NotContains(t, out.String(), "kaiako@example.com")
}

func TestResetProgress(t *testing.T) {
	cli, store, out := setup(t, config.EnvDevelopment)
	ctx := context.Background()

	profiles := profile.NewService(profile.NewRepository(store), cli.characters, nil)
	require.NoError(t, profiles.Create(ctx, "u1", "a@b.com", "Ana"))
	seven, points := 7, 40
	_, err := profiles.Update(ctx, "u1", profile.Changes{CurrentDay: &seven, TotalPoints: &points})
	require.NoError(t, err)

	require.NoError(t, cli.run(ctx, []string{"reset-progress", "-uid", "u1"}))
	assert.Contains(t, out.String(), "reset u1 to day 1")

	u, err := profiles.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, u.CurrentDay)
	assert.Zero(t, u.TotalPoints)
}

func TestResetProgressRefusedInProduction(t *testing.T) {
	cli, _, _ := setup(t, config.EnvProduction)

	err := cli.run(context.Background(), []string{"reset-progress", "-uid", "u1"})
	assert.ErrorIs(t, err, errProduction)
}
