package point

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
)

// DomainPoints separates point-list fingerprints from any other hash.
const DomainPoints = "fieldmap/points/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Revision fingerprints a point list. Two lists have the same revision iff
// they hold the same points in the same order.
//
// A nil list and an empty list share a revision.
func Revision(points []MapPoint) (string, error) {
	canonical, err := MarshalCanonical(points)
	if err != nil {
		return "", fmt.Errorf("revision: %w", err)
	}
	return hashWithDomain(DomainPoints, canonical), nil
}

// MustRevision is like Revision but panics on error.
// Use only in tests or when the points are known to be valid.
func MustRevision(points []MapPoint) string {
	rev, err := Revision(points)
	if err != nil {
		panic(err)
	}
	return rev
}

// SortByID returns a copy of points ordered by id.
func SortByID(points []MapPoint) []MapPoint {
	out := slices.Clone(points)
	slices.SortFunc(out, func(a, b MapPoint) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}
