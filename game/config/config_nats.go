package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/pixil98/go-errors"
)

const (
	DefaultNatsHost         = "127.0.0.1"
	DefaultNatsPort         = 4222
	DefaultNatsStartTimeout = "10s"
	DefaultSubjectPrefix    = "partyroom.rooms"
)

// NatsConfig configures the embedded event bus
type NatsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	StartTimeout  string `yaml:"start_timeout"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

func (n *NatsConfig) Validate() error {
	el := errors.NewErrorList()

	if n.StartTimeout != "" {
		_, err := time.ParseDuration(n.StartTimeout)
		if err != nil {
			el.Add(fmt.Errorf("parsing start_timeout: %w", err))
		}
	}

	// -1 asks the server for a random port
	if n.Port < -1 || n.Port > 65535 {
		el.Add(fmt.Errorf("port must be between -1 and 65535"))
	}

	if strings.ContainsAny(n.SubjectPrefix, " *>") || strings.HasSuffix(n.SubjectPrefix, ".") {
		el.Add(fmt.Errorf("subject_prefix %q is not a valid subject", n.SubjectPrefix))
	}

	return el.Err()
}

// StartTimeoutDuration returns start_timeout, or the default if unset
func (n *NatsConfig) StartTimeoutDuration() time.Duration {
	return parseDurationOr(n.StartTimeout, DefaultNatsStartTimeout)
}
