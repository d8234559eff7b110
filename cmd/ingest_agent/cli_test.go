package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-ingest/internal/types"
)

func TestParsePlatform(t *testing.T) {
	tests := []struct {
		in      string
		want    types.Platform
		wantErr bool
	}{
		{in: "", want: ""},
		{in: "greenhouse", want: types.PlatformGreenhouse},
		{in: " Lever ", want: types.PlatformLever},
		{in: "USAJOBS", want: types.PlatformUSAJobs},
		{in: "jsearch", want: types.PlatformJSearch},
		{in: "Apprenticeship", want: types.PlatformApprenticeship},
		{in: "workday", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parsePlatform(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unknown platform")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func resetIngestFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		ingestPlatform, ingestCompany = "", ""
		ingestDryRun, ingestCleanup, ingestGeocode = false, false, false
		ingestMaxCompanies, ingestStaleDays = 0, 0
	})
}

func TestIngestOptions(t *testing.T) {
	resetIngestFlags(t)

	ingestPlatform = "ashby"
	ingestCompany = "acme"
	ingestDryRun = true
	ingestMaxCompanies = 5
	ingestCleanup = true
	ingestStaleDays = 14

	opts, err := ingestOptions()
	require.NoError(t, err)
	assert.Equal(t, types.PlatformAshby, opts.Platform)
	assert.Equal(t, "acme", opts.Company)
	assert.True(t, opts.DryRun)
	assert.Equal(t, 5, opts.MaxCompanies)
	assert.True(t, opts.RunCleanup)
	assert.Equal(t, 14, opts.StaleDays)
	assert.False(t, opts.RunGeocode)
	assert.Equal(t, "cli", opts.Trigger)
}

func TestIngestOptions_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		set     func()
		wantErr string
	}{
		{name: "unknown platform", set: func() { ingestPlatform = "monster" }, wantErr: "unknown platform"},
		{name: "negative max companies", set: func() { ingestMaxCompanies = -1 }, wantErr: "--max-companies"},
		{name: "negative stale days", set: func() { ingestStaleDays = -3 }, wantErr: "--stale-days"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetIngestFlags(t)
			tt.set()
			_, err := ingestOptions()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	want := []string{"ingest", "cleanup", "geocode", "trending", "review", "sources", "schedule", "serve"}
	var got []string
	for _, c := range rootCmd.Commands() {
		got = append(got, c.Name())
	}
	for _, name := range want {
		assert.Contains(t, got, name)
	}
}

func TestRootCommand_RejectsBadFlagsBeforeConnecting(t *testing.T) {
	resetIngestFlags(t)
	t.Cleanup(func() {
		trendingLimit, reviewLimit, cleanupStaleDays = 20, 50, 0
		sourcesPlatform = ""
		rootCmd.SetArgs(nil)
	})

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "ingest platform", args: []string{"ingest", "--platform", "monster"}, wantErr: "unknown platform"},
		{name: "trending limit", args: []string{"trending", "--limit", "0"}, wantErr: "--limit"},
		{name: "review limit", args: []string{"review", "--limit", "-1"}, wantErr: "--limit"},
		{name: "cleanup stale days", args: []string{"cleanup", "--stale-days", "-1"}, wantErr: "--stale-days"},
		{name: "sources platform", args: []string{"sources", "--platform", "monster"}, wantErr: "unknown platform"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			rootCmd.SetOut(&out)
			rootCmd.SetErr(&out)
			rootCmd.SetArgs(tt.args)

			err := rootCmd.ExecuteContext(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
