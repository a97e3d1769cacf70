package specs

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/zeu5/gymkit/gymerr"
)

// WrapperSpec records how a wrapper layer was built: its family name,
// version and the arguments given to its constructor
type WrapperSpec struct {
	Name    string
	Version int
	Kwargs  Kwargs
}

var wrapperNameRe = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9]*?)V(\d+)$`)

// NewWrapperSpec captures the arguments of a wrapper constructor
func NewWrapperSpec(name string, version int, kwargs Kwargs) *WrapperSpec {
	if kwargs == nil {
		kwargs = Kwargs{}
	}
	return &WrapperSpec{Name: name, Version: version, Kwargs: kwargs.Clone()}
}

// FullName is the versioned name, e.g. ClipRewardV0
func (w WrapperSpec) FullName() string {
	return fmt.Sprintf("%sV%d", w.Name, w.Version)
}

// ParseWrapperName splits a versioned wrapper name into family and version
func ParseWrapperName(full string) (string, int, error) {
	m := wrapperNameRe.FindStringSubmatch(full)
	if m == nil {
		return "", 0, fmt.Errorf("%w: %q", gymerr.ErrInvalidWrapperName, full)
	}
	version, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q", gymerr.ErrInvalidWrapperName, full)
	}
	return m[1], version, nil
}

func (w WrapperSpec) Clone() WrapperSpec {
	return WrapperSpec{Name: w.Name, Version: w.Version, Kwargs: w.Kwargs.Clone()}
}

func (w WrapperSpec) Equal(o WrapperSpec) bool {
	return w.Name == o.Name && w.Version == o.Version && w.Kwargs.Equal(o.Kwargs)
}
