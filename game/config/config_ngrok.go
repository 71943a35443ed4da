package config

import (
	"fmt"

	"github.com/pixil98/go-errors"
)

// NgrokConfig configures the optional public tunnel
type NgrokConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Authtoken string `yaml:"authtoken"`
	Domain    string `yaml:"domain"`
}

func (n *NgrokConfig) Validate() error {
	el := errors.NewErrorList()

	if n.Enabled && n.Authtoken == "" {
		el.Add(fmt.Errorf("authtoken is required when ngrok is enabled"))
	}

	return el.Err()
}
