package config

import (
	"errors"
	"fmt"
)

// ProtocolConfiguration represents the protocol config.
type ProtocolConfiguration struct {
	// Hardforks is a map of hardfork names that should be enabled at the
	// specified heights. Hardforks missing from the map are disabled.
	Hardforks map[string]uint32 `yaml:"Hardforks"`
}

// ErrInvalidHardforks is returned for inconsistent hardfork configurations.
var ErrInvalidHardforks = errors.New("invalid hardforks configuration")

// Validate checks ProtocolConfiguration for internal consistency and returns
// an error if anything inappropriate found. Other methods can rely on protocol
// validity after this.
func (p *ProtocolConfiguration) Validate() error {
	for name := range p.Hardforks {
		if !IsHardforkValid(name) {
			return fmt.Errorf("%w: unknown hardfork %q", ErrInvalidHardforks, name)
		}
	}
	var (
		prev       Hardfork
		prevHeight uint32
	)
	for _, hf := range Hardforks {
		h, ok := p.Hardforks[hf.String()]
		if !ok {
			continue
		}
		if prev != HFDefault && h < prevHeight {
			return fmt.Errorf("%w: %s is enabled at %d, before %s at %d",
				ErrInvalidHardforks, hf, h, prev, prevHeight)
		}
		prev, prevHeight = hf, h
	}
	return nil
}
