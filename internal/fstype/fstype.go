// Package fstype classifies the filesystem backing a path, so that
// network mounts can be polled at a slower pace than local ones.
package fstype

import (
	"path/filepath"

	"golang.org/x/sys/unix"
)

type Type uint8

const (
	Unknown Type = iota
	Local
	Network
)

// Statfs f_type magic numbers, from linux/magic.h.
const (
	magicNFS  = 0x6969
	magicSMB  = 0x517b
	magicSMB2 = 0xfe534d42
	magicCIFS = 0xff534d42
	magicNCP  = 0x564c
	magicCoda = 0x73757245
)

func (t Type) String() string {
	switch t {
	case Local:
		return "local"
	case Network:
		return "network"
	}
	return "unknown"
}

// Probe reports whether path lives on a network-mounted filesystem.
// For a path that does not exist yet, the nearest existing ancestor is
// probed instead, since a new file inherits the mount of its directory.
func Probe(path string) Type {
	var buf unix.Statfs_t

	for {
		err := unix.Statfs(path, &buf)
		if err == nil {
			break
		}

		parent := filepath.Dir(path)
		if parent == path {
			return Unknown
		}
		path = parent
	}

	switch uint32(buf.Type) {
	case magicNFS, magicSMB, magicSMB2, magicCIFS, magicNCP, magicCoda:
		return Network
	}
	return Local
}
