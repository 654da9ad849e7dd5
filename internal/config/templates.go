package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "suite":
		return suiteTemplate, nil
	case "minimal":
		return minimalTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const suiteTemplate = `[host]
name = "poshost"
run_dir = "/run/poslink"
admin_addr = "127.0.0.1:9180"
cors_origins = ["http://localhost:3000"]

[[terminals]]
id = "term-bar"
network = "unix"
address = "/run/poslink/term-bar.sock"

[[terminals]]
id = "term-patio"
network = "tcp"
address = "0.0.0.0:10001"

[[printers]]
id = "printer-kitchen"
instance = 1
host = "192.168.1.40"
port = 9100
model = "epson"
daemon = "/usr/local/bin/posprintd"

[[printers]]
id = "printer-receipt"
instance = 2
host = "192.168.1.41"
port = 9100
model = "star"
daemon = "/usr/local/bin/posprintd"

[status]
nats_url = "nats://127.0.0.1:4222"
redis_addr = "127.0.0.1:6379"
redis_ttl_sec = 60
`

const minimalTemplate = `[host]
name = "poshost"

[[terminals]]
id = "term-1"
address = "/tmp/poslink-term-1.sock"
`
