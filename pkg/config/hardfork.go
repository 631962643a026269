package config

import (
	"fmt"
	"slices"
)

// Hardfork represents the network upgrade identifier.
type Hardfork byte

// HFDefault is a default value of Hardfork enum. It's a special constant
// aimed to denote the behaviour enabled by default starting from the genesis
// block. HFDefault is not a hard-fork, but this constant can be used for
// convenient hard-forks comparison.
const HFDefault Hardfork = 0 // Default

const (
	// HFOrchid is the first RSK network upgrade.
	HFOrchid Hardfork = 1 << iota // Orchid
	// HFOrchid060 is the Orchid patch release that changes the block header
	// hashing encoding (RSKIP92).
	HFOrchid060 // Orchid060
	// HFWasabi100 introduces the Unitrie state layout.
	HFWasabi100 // Wasabi100
	// HFPapyrus200 is the Papyrus network upgrade.
	HFPapyrus200 // Papyrus200
	// HFIris300 is the Iris network upgrade.
	HFIris300 // Iris300
	// hfLast denotes the end of hardforks enum. Consider adding new hardforks
	// before hfLast.
	hfLast
)

// Hardforks represents the ordered slice of all possible hardforks.
var Hardforks []Hardfork

// hardforks holds a map of Hardfork string representation to its type.
var hardforks map[string]Hardfork

func init() {
	for i := HFOrchid; i < hfLast; i = i << 1 {
		Hardforks = append(Hardforks, i)
	}
	hardforks = make(map[string]Hardfork, len(Hardforks))
	for _, hf := range Hardforks {
		hardforks[hf.String()] = hf
	}
}

// String implements fmt.Stringer interface.
func (hf Hardfork) String() string {
	switch hf {
	case HFDefault:
		return "Default"
	case HFOrchid:
		return "Orchid"
	case HFOrchid060:
		return "Orchid060"
	case HFWasabi100:
		return "Wasabi100"
	case HFPapyrus200:
		return "Papyrus200"
	case HFIris300:
		return "Iris300"
	default:
		return fmt.Sprintf("Hardfork(%d)", byte(hf))
	}
}

// Cmp returns the result of hardforks comparison. It returns:
//
//	-1 if hf <  other
//	 0 if hf == other
//	+1 if hf >  other
func (hf Hardfork) Cmp(other Hardfork) int {
	switch {
	case hf == other:
		return 0
	case hf < other:
		return -1
	default:
		return 1
	}
}

// Prev returns the previous hardfork for the given one. Calling Prev for the default hardfork is a no-op.
func (hf Hardfork) Prev() Hardfork {
	if hf == HFDefault {
		panic("unexpected call to Prev for the default hardfork")
	}
	return hf >> 1
}

// IsHardforkValid denotes whether the provided string represents a valid
// Hardfork name.
func IsHardforkValid(s string) bool {
	_, ok := hardforks[s]
	return ok
}

// LatestHardfork returns latest known hardfork.
func LatestHardfork() Hardfork {
	return hfLast >> 1
}

// ActivationTable is an immutable mapping of hardforks to the heights they
// are enabled at. Hardforks missing from the table are never active.
type ActivationTable struct {
	heights map[Hardfork]uint64
}

// NewActivationTable creates a table from the protocol configuration. The
// configuration is validated first.
func NewActivationTable(cfg ProtocolConfiguration) (*ActivationTable, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := &ActivationTable{heights: make(map[Hardfork]uint64, len(cfg.Hardforks))}
	for name, h := range cfg.Hardforks {
		t.heights[hardforks[name]] = uint64(h)
	}
	return t, nil
}

// IsActive tells whether the hardfork is enabled for the block with the
// given number. HFDefault is always active.
func (t *ActivationTable) IsActive(hf Hardfork, number uint64) bool {
	if hf == HFDefault {
		return true
	}
	h, ok := t.heights[hf]
	return ok && number >= h
}

// ActivationHeight returns the height the hardfork is enabled at, false is
// returned for hardforks that are not configured.
func (t *ActivationTable) ActivationHeight(hf Hardfork) (uint64, bool) {
	h, ok := t.heights[hf]
	return h, ok
}

// Active returns the ordered list of hardforks enabled at the given height.
func (t *ActivationTable) Active(number uint64) []Hardfork {
	var res []Hardfork
	for _, hf := range Hardforks {
		if t.IsActive(hf, number) {
			res = append(res, hf)
		}
	}
	return slices.Clip(res)
}
