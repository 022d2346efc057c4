package enums

import "fmt"

// Resolution records how a unified inventory item's source snapshot was chosen.
type Resolution string

const (
	// ResolutionSKUSource marks an authoritative source: either the SKU only
	// exists on one platform, or an operator pinned a primary platform for it.
	ResolutionSKUSource Resolution = "sku_source"
	// ResolutionMostRecent marks the default policy of taking the snapshot
	// with the latest capture time.
	ResolutionMostRecent Resolution = "most_recent"
)

var validResolutions = []Resolution{
	ResolutionSKUSource,
	ResolutionMostRecent,
}

// String implements fmt.Stringer.
func (r Resolution) String() string {
	return string(r)
}

// IsValid reports whether the resolution is recognized.
func (r Resolution) IsValid() bool {
	for _, candidate := range validResolutions {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseResolution converts a raw string into a Resolution.
func ParseResolution(value string) (Resolution, error) {
	for _, candidate := range validResolutions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid resolution %q", value)
}
