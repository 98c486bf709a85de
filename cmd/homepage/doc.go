// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Homepage serves the home page.

# Usage

	$ homepage [flags...]

Homepage answers GET /home with the contents of home.html from the current
directory. The file is read again on every request, so it can be edited
while the server is running. If it can't be read, the response is a 500
with the body "Error loading home page".

# Configuration

The port is taken from the -port flag, then from the PORT environment
variable, then from the .env file in the current directory (see -envfile),
and defaults to 3000.

Setting DEBUG=true (or passing -debug) exposes debug pages at /debug/,
including the recent log lines at /debug/logs. Don't do this on a public
address.

GET /health reports whether home.html exists.
*/
package main

import (
	_ "embed"

	"go.astrophena.name/homepage/internal/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
