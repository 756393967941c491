package scenario

import (
	"fmt"
	"sort"
	"strings"
)

// registry maps profile names to constructors. Profiles are registered
// explicitly; nothing is discovered by scanning packages.
var registry = map[string]func() *Profile{
	"WebsiteUser": WebsiteUser,
}

// DefaultProfile is the profile run when none is named.
const DefaultProfile = "WebsiteUser"

// Lookup returns a fresh copy of the named profile. Names are matched
// case-insensitively.
func Lookup(name string) (*Profile, error) {
	if name == "" {
		name = DefaultProfile
	}
	for n, ctor := range registry {
		if strings.EqualFold(n, name) {
			return ctor(), nil
		}
	}
	return nil, fmt.Errorf("unknown profile %q (available: %s)", name, strings.Join(Names(), ", "))
}

// Names returns the registered profile names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
