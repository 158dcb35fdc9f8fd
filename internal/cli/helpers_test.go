package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const fanoutScenario = `name: fanout
description: "two subscribers see the same values"
steps:
  - subject: { name: s }
  - subscribe: { observer: A, source: s }
  - subscribe: { observer: B, source: s }
  - next: { target: s, value: "1" }
  - complete: { target: s }
assertions:
  - type: log_equals
    observer: A
    log: ["next:1", "completed"]
  - type: terminal_is
    observer: B
    terminal: completed
`

const failingScenario = `name: failing
description: "asserts a value that never arrives"
steps:
  - subject: { name: s }
  - subscribe: { observer: A, source: s }
  - next: { target: s, value: "1" }
assertions:
  - type: value_count
    observer: A
    count: 2
`

const delayCUEScenario = `name:        "delayed"
description: "a value delayed by 50ms"
steps: [
	{subject: name: "s"},
	{delay: {name: "d", source: "s", by: "50ms"}},
	{subscribe: {observer: "A", source: "d"}},
	{next: {target: "s", value: "x"}},
	{advance: by: "50ms"},
]
assertions: [
	{type: "log_equals", observer: "A", log: ["next:x"]},
]
`

const invalidScenario = `name: broken
description: "subscribes to an unknown source"
steps:
  - subscribe: { observer: A, source: nowhere }
assertions:
  - type: value_count
    observer: A
    count: 0
`

// writeScenario writes content to dir/name and returns the path.
func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
