// Package scenarios embeds the built-in scenario suite.
package scenarios

import "embed"

// FS contains the built-in scenario files, run in file name order.
//
//go:embed *.yaml
var FS embed.FS
