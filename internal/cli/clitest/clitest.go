// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package clitest runs table tests against a [cli.App].
package clitest

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.astrophena.name/homepage/internal/cli"
)

// Case is a single run of an application.
type Case[App cli.App] struct {
	// Args are the command-line arguments.
	Args []string
	// Env is what the application sees through [cli.Env.Getenv].
	Env map[string]string
	// WantErr, if set, must match the returned error with errors.Is.
	// Otherwise the run must succeed.
	WantErr error
	// WantInStderr must be a substring of standard error, if set.
	WantInStderr string
	// CheckFunc inspects the application after a run.
	CheckFunc func(*testing.T, App)
}

// Run runs every case in parallel against a fresh application returned by
// setup.
func Run[App cli.App](t *testing.T, setup func(*testing.T) App, cases map[string]Case[App]) {
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			app := setup(t)

			var stdout, stderr bytes.Buffer
			env := &cli.Env{
				Args:   tc.Args,
				Getenv: func(name string) string { return tc.Env[name] },
				Stdin:  strings.NewReader(""),
				Stdout: &stdout,
				Stderr: &stderr,
			}

			err := cli.Run(cli.WithEnv(context.Background(), env), app)
			switch {
			case tc.WantErr == nil && err != nil:
				t.Fatalf("unexpected error: %v", err)
			case tc.WantErr != nil && !errors.Is(err, tc.WantErr):
				t.Fatalf("got error: %v, want %v", err, tc.WantErr)
			}

			if tc.WantInStderr != "" && !strings.Contains(stderr.String(), tc.WantInStderr) {
				t.Errorf("stderr must contain %q, got: %q", tc.WantInStderr, stderr.String())
			}

			if tc.CheckFunc != nil {
				tc.CheckFunc(t, app)
			}
		})
	}
}
