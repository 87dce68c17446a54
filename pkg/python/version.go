package python

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pingcap/errors"
)

// Version is an interpreter version, e.g. 3.11.7.
type Version struct {
	Major int
	Minor int
	Micro int
}

func (v Version) Compare(other Version) int {
	if v.Major != other.Major {
		return v.Major - other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor - other.Minor
	}
	return v.Micro - other.Micro
}

func (v Version) AtLeast(major, minor int) bool {
	return v.Compare(Version{Major: major, Minor: minor, Micro: 0}) >= 0
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Micro)
}

// Names returns the overrides document keys for this version, from least to
// most specific: python-3, python-3.11, python-3.11.7.
func (v Version) Names() []string {
	return []string{
		fmt.Sprintf("python-%d", v.Major),
		fmt.Sprintf("python-%d.%d", v.Major, v.Minor),
		fmt.Sprintf("python-%d.%d.%d", v.Major, v.Minor, v.Micro),
	}
}

// ParseVersion handles 3, 3.11 and 3.11.7. Anything after the third
// component, or a non-numeric suffix such as "rc1", is ignored.
func ParseVersion(vstr string) (Version, error) {
	v := Version{} //nolint:exhaustruct
	parts := strings.Split(strings.TrimSpace(vstr), ".")
	for i := 0; i < len(parts) && i < 3; i++ {
		digits := parts[i]
		if end := strings.IndexFunc(digits, func(r rune) bool { return r < '0' || r > '9' }); end >= 0 {
			digits = digits[:end]
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			return Version{}, errors.Errorf("invalid version component %q in %q", parts[i], vstr)
		}
		switch i {
		case 0:
			v.Major = n
		case 1:
			v.Minor = n
		case 2:
			v.Micro = n
		}
	}
	return v, nil
}
