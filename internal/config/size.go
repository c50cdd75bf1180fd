package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ByteSize is a size in bytes that unmarshals from either an integer or a
// string with a unit suffix such as "512KB" or "10MiB".
type ByteSize int64

// Size units. Decimal and binary suffixes are both accepted.
const (
	B   ByteSize = 1
	KB  ByteSize = 1000
	MB           = 1000 * KB
	GB           = 1000 * MB
	KiB ByteSize = 1024
	MiB          = 1024 * KiB
	GiB          = 1024 * MiB
)

var sizeUnits = []struct {
	suffix string
	unit   ByteSize
}{
	// Longest suffixes first so "KiB" is not read as "B".
	{"kib", KiB}, {"mib", MiB}, {"gib", GiB},
	{"kb", KB}, {"mb", MB}, {"gb", GB},
	{"k", KiB}, {"m", MiB}, {"g", GiB},
	{"b", B},
}

// ParseByteSize parses a size such as "10MiB", "1.5 MB" or "4096".
func ParseByteSize(s string) (ByteSize, error) {
	trimmed := strings.ToLower(strings.TrimSpace(s))
	if trimmed == "" {
		return 0, fmt.Errorf("empty size")
	}

	unit := B
	for _, u := range sizeUnits {
		if strings.HasSuffix(trimmed, u.suffix) {
			unit = u.unit
			trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, u.suffix))
			break
		}
	}

	n, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return ByteSize(n * float64(unit)), nil
}

// UnmarshalYAML accepts integers and unit strings.
func (b *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: max_file_size must be a scalar", value.Line)
	}
	size, err := ParseByteSize(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*b = size
	return nil
}

// String formats the size with the largest binary unit that divides it.
func (b ByteSize) String() string {
	switch {
	case b >= GiB && b%GiB == 0:
		return fmt.Sprintf("%dGiB", b/GiB)
	case b >= MiB && b%MiB == 0:
		return fmt.Sprintf("%dMiB", b/MiB)
	case b >= KiB && b%KiB == 0:
		return fmt.Sprintf("%dKiB", b/KiB)
	default:
		return fmt.Sprintf("%dB", int64(b))
	}
}
