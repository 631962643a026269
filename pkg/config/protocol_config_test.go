package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProtocolConfigurationValidation_Hardforks(t *testing.T) {
	p := &ProtocolConfiguration{
		Hardforks: map[string]uint32{
			"Unknown": 123, // Unknown hard-fork.
		},
	}
	require.ErrorIs(t, p.Validate(), ErrInvalidHardforks)
	p = &ProtocolConfiguration{
		Hardforks: map[string]uint32{
			HFOrchid.String():    2,
			HFOrchid060.String(): 1, // Lower height in higher hard-fork.
		},
	}
	require.ErrorIs(t, p.Validate(), ErrInvalidHardforks)
	p = &ProtocolConfiguration{
		Hardforks: map[string]uint32{
			HFOrchid.String():    2,
			HFOrchid060.String(): 2, // Same height is OK.
		},
	}
	require.NoError(t, p.Validate())
	p = &ProtocolConfiguration{
		Hardforks: map[string]uint32{
			HFOrchid.String():    2,
			HFOrchid060.String(): 3, // Larger height is OK.
		},
	}
	require.NoError(t, p.Validate())
	p = &ProtocolConfiguration{
		Hardforks: map[string]uint32{
			HFOrchid.String():    2,
			HFWasabi100.String(): 3, // Missing hard-fork in the middle is OK.
		},
	}
	require.NoError(t, p.Validate())
	p = &ProtocolConfiguration{
		Hardforks: map[string]uint32{
			HFOrchid060.String(): 5,
			HFIris300.String():   4, // Gaps don't hide the order violation.
		},
	}
	require.ErrorIs(t, p.Validate(), ErrInvalidHardforks)
}
