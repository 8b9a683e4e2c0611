package grpcarchive

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"plotthread.org/client/archive"
)

func init() {
	archive.MustRegister(archive.Backend{
		Name:        "grpc",
		Description: "gRPC archive client (talks to plotarchived)",
		Open: func(cfg map[string]string) (archive.Archive, func() error, error) {
			target := strings.TrimSpace(cfg["target"])
			if target == "" {
				return nil, nil, fmt.Errorf("grpc archive: missing target")
			}
			opts := DialOptions{}
			if v := cfg["timeout"]; v != "" {
				d, err := time.ParseDuration(v)
				if err != nil {
					return nil, nil, fmt.Errorf("grpc archive: timeout: %w", err)
				}
				opts.Timeout = d
			}
			if v := cfg["max_msg_bytes"]; v != "" {
				n, err := strconv.Atoi(v)
				if err != nil {
					return nil, nil, fmt.Errorf("grpc archive: max_msg_bytes: %w", err)
				}
				opts.MaxMsgBytes = n
			}
			c, err := Dial(target, opts)
			if err != nil {
				return nil, nil, err
			}
			return c, c.Close, nil
		},
	})
}
