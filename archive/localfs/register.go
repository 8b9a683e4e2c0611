package localfs

import (
	"fmt"

	"plotthread.org/client/archive"
)

func init() {
	archive.MustRegister(archive.Backend{
		Name:        "localfs",
		Description: "Local filesystem archive (directory)",
		Open: func(cfg map[string]string) (archive.Archive, func() error, error) {
			dir := cfg["dir"]
			if dir == "" {
				return nil, nil, fmt.Errorf("localfs archive: missing dir")
			}
			a, err := New(dir)
			return a, nil, err
		},
	})
}
