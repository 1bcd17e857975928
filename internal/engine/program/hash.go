package program

import (
	"hash/fnv"
	"slices"
	"strings"

	"github.com/Faultbox/xrgl/internal/engine/shading"
)

// FeaturesHash identifies a program permutation. Feature and extension order
// does not matter.
func FeaturesHash(shaderID string, features []shading.Feature, extensions []string, typeTag string) uint64 {
	fs := slices.Clone(features)
	SortFeatures(fs)
	ext := slices.Clone(extensions)
	slices.Sort(ext)

	h := fnv.New64a()
	write := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	write(shaderID)
	for _, f := range fs {
		write(f.String())
	}
	h.Write([]byte{1})
	for _, e := range ext {
		write(e)
	}
	h.Write([]byte{2})
	write(typeTag)
	return h.Sum64()
}

// SortFeatures orders features by name, then value.
func SortFeatures(fs []shading.Feature) {
	slices.SortFunc(fs, func(a, b shading.Feature) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Value, b.Value)
	})
}
