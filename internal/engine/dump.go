package engine

import (
	"fmt"
	"sort"
	"strings"
)

// dump logs the entry table, one line per entry with its clients and
// waiting sub-entries.
func (eng *Engine) dump() {
	paths := make([]string, 0, len(eng.entries))
	for p := range eng.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var b strings.Builder
	fmt.Fprintf(&b, "%d entries\n", len(paths))

	for _, p := range paths {
		e := eng.entries[p]

		kind := "file"
		if e.isDir {
			kind = "dir"
		}
		state := ""
		if e.status == statusNonExistent {
			state = " non-existent"
		}
		fmt.Fprintf(&b, "%s [%s%s method %s wd %d]\n",
			e.path, kind, state, e.mode, e.wd)

		for _, c := range e.clients {
			name := "<nil>"
			if c.instance != nil {
				name = c.instance.Name()
			}
			fmt.Fprintf(&b, "  client %s count %d stopped %t pending %s\n",
				name, c.count, c.stopped, c.pending)
		}
		for _, sub := range e.subEntries {
			fmt.Fprintf(&b, "  waiting %s\n", sub.path)
		}
	}

	eng.log.Debugw("Entry table.",
		"dump", b.String(),
	)
}
