package enums

import "fmt"

// CommercePlatform identifies a connected e-commerce platform.
type CommercePlatform string

const (
	PlatformTiendanube  CommercePlatform = "tiendanube"
	PlatformShopify     CommercePlatform = "shopify"
	PlatformWooCommerce CommercePlatform = "woocommerce"
)

// validPlatforms doubles as the ordinal order used for deterministic
// tie-breaking: lower index wins when capture timestamps are equal.
var validPlatforms = []CommercePlatform{
	PlatformTiendanube,
	PlatformShopify,
	PlatformWooCommerce,
}

// String implements fmt.Stringer.
func (p CommercePlatform) String() string {
	return string(p)
}

// IsValid reports whether the platform is recognized.
func (p CommercePlatform) IsValid() bool {
	for _, candidate := range validPlatforms {
		if candidate == p {
			return true
		}
	}
	return false
}

// Ordinal returns the platform's position in the canonical ordering.
// Unknown platforms sort last.
func (p CommercePlatform) Ordinal() int {
	for i, candidate := range validPlatforms {
		if candidate == p {
			return i
		}
	}
	return len(validPlatforms)
}

// Platforms returns the recognized platforms in ordinal order.
func Platforms() []CommercePlatform {
	out := make([]CommercePlatform, len(validPlatforms))
	copy(out, validPlatforms)
	return out
}

// ParseCommercePlatform converts a raw string into a CommercePlatform.
func ParseCommercePlatform(value string) (CommercePlatform, error) {
	for _, candidate := range validPlatforms {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid commerce platform %q", value)
}
