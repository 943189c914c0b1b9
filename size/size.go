// Package size converts the human readable sizes used in setup files into bytes.
package size

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/kairos-io/diskplan/constants"
)

var ErrInvalidSizeFormat = errors.New("invalid size format")

var multipliers = map[byte]uint64{
	'K': constants.KiB,
	'M': constants.MiB,
	'G': constants.GiB,
}

// IsFill reports whether spec is the "use the remaining space" sentinel.
func IsFill(spec string) bool {
	return spec == constants.FillSize
}

// Parse validates spec and returns its byte count. The fill sentinel parses to
// ok == false with no error.
func Parse(spec string) (bytes uint64, ok bool, err error) {
	if IsFill(spec) {
		return 0, false, nil
	}
	if len(spec) < 2 {
		return 0, false, fmt.Errorf("%w: %q", ErrInvalidSizeFormat, spec)
	}

	value, suffix := spec[:len(spec)-1], spec[len(spec)-1]
	if suffix >= 'a' && suffix <= 'z' {
		suffix -= 'a' - 'A'
	}
	multiplier, known := multipliers[suffix]
	if !known || !isDigits(value) {
		return 0, false, fmt.Errorf("%w: %q", ErrInvalidSizeFormat, spec)
	}

	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil || n == 0 {
		return 0, false, fmt.Errorf("%w: %q", ErrInvalidSizeFormat, spec)
	}
	if n > math.MaxUint64/multiplier {
		return 0, false, fmt.Errorf("%w: %q overflows", ErrInvalidSizeFormat, spec)
	}

	return n * multiplier, true, nil
}

// Bytes resolves spec against a disk. Capacity does not change the result of a
// fixed size; a fill size always comes back unresolved so the caller can
// allocate it once every fixed partition is known.
func Bytes(spec string, capacity uint64) (*uint64, error) {
	b, ok, err := Parse(spec)
	if err != nil || !ok {
		return nil, err
	}
	return &b, nil
}

// Token renders a byte count as an sgdisk size, using the largest unit that
// divides it exactly. A nil size is the fill token.
func Token(bytes *uint64) string {
	if bytes == nil {
		return constants.FillToken
	}
	b := *bytes
	switch {
	case b != 0 && b%constants.GiB == 0:
		return fmt.Sprintf("+%dG", b/constants.GiB)
	case b != 0 && b%constants.MiB == 0:
		return fmt.Sprintf("+%dM", b/constants.MiB)
	case b != 0 && b%constants.KiB == 0:
		return fmt.Sprintf("+%dK", b/constants.KiB)
	default:
		return fmt.Sprintf("+%d", b)
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
