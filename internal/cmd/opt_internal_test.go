package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/AdguardTeam/golibs/osutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptions(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		want    *options
		name    string
		args    []string
		wantErr bool
	}{{
		want: &options{
			confFile: defaultConfFile,
		},
		name:    "default",
		args:    nil,
		wantErr: false,
	}, {
		want: &options{
			confFile: "/etc/dnsreport.yaml",
			verbose:  true,
		},
		name:    "short",
		args:    []string{"-c", "/etc/dnsreport.yaml", "-v"},
		wantErr: false,
	}, {
		want: &options{
			confFile:    "conf.yaml",
			checkConfig: true,
		},
		name:    "long",
		args:    []string{"--config=conf.yaml", "--check-config"},
		wantErr: false,
	}, {
		want:    nil,
		name:    "unknown",
		args:    []string{"--frobnicate"},
		wantErr: true,
	}, {
		want:    nil,
		name:    "extra_args",
		args:    []string{"run"},
		wantErr: true,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			out := &bytes.Buffer{}
			opts, err := parseOptions("dnsreport", tc.args, out)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, out.String(), "Usage of dnsreport:")

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, opts)
		})
	}
}

func TestProcessOptions(t *testing.T) {
	t.Parallel()

	confFile := filepath.Join(t.TempDir(), "dnsreport.yaml")
	require.NoError(t, os.WriteFile(confFile, []byte(testConfig(t)), 0o600))

	badConfFile := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(badConfFile, []byte("http: {}\n"), 0o600))

	testCases := []struct {
		opts         *options
		name         string
		wantOut      string
		wantCode     int
		wantNeedExit bool
	}{{
		opts:         &options{confFile: confFile},
		name:         "run",
		wantOut:      "",
		wantCode:     0,
		wantNeedExit: false,
	}, {
		opts:         &options{help: true},
		name:         "help",
		wantOut:      "--check-config",
		wantCode:     osutil.ExitCodeSuccess,
		wantNeedExit: true,
	}, {
		opts:         &options{version: true},
		name:         "version",
		wantOut:      "dnsreport, version ",
		wantCode:     osutil.ExitCodeSuccess,
		wantNeedExit: true,
	}, {
		opts:         &options{version: true, verbose: true},
		name:         "version_verbose",
		wantOut:      "Go version:",
		wantCode:     osutil.ExitCodeSuccess,
		wantNeedExit: true,
	}, {
		opts:         &options{confFile: confFile, checkConfig: true},
		name:         "check_config",
		wantOut:      "",
		wantCode:     osutil.ExitCodeSuccess,
		wantNeedExit: true,
	}, {
		opts:         &options{confFile: badConfFile, checkConfig: true},
		name:         "check_bad_config",
		wantOut:      "validating:",
		wantCode:     osutil.ExitCodeFailure,
		wantNeedExit: true,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			out := &bytes.Buffer{}
			code, needExit := processOptions(tc.opts, "dnsreport", nil, out)

			assert.Equal(t, tc.wantCode, code)
			assert.Equal(t, tc.wantNeedExit, needExit)
			assert.Contains(t, out.String(), tc.wantOut)
		})
	}

	t.Run("parse_error", func(t *testing.T) {
		t.Parallel()

		code, needExit := processOptions(nil, "dnsreport", assert.AnError, &bytes.Buffer{})

		assert.Equal(t, osutil.ExitCodeArgumentError, code)
		assert.True(t, needExit)
	})
}
