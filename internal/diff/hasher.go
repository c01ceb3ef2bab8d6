package diff

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"pysemver/internal/apigraph"
)

// Hasher computes canonical hashes of API objects and graphs.
// Uses length-prefixed encoding to avoid delimiter ambiguity.
// Format: ${len}:${value}${len}:${value}... where an empty field is 0:
// Algorithm: SHA-256, lowercase hex output
type Hasher struct{}

// NewHasher creates a new hasher instance
func NewHasher() *Hasher {
	return &Hasher{}
}

// HashObject computes the canonical hash of an object's compared fields.
// Fields (in order): qualified name, then every entry of Fields.
func (h *Hasher) HashObject(obj *apigraph.Object) string {
	parts := make([]string, 0, len(Fields)+1)
	parts = append(parts, obj.QualifiedName)
	for _, f := range Fields {
		parts = append(parts, FieldText(obj, f))
	}
	return h.hashFields(parts)
}

// hashFields computes SHA-256 of length-prefixed fields
func (h *Hasher) hashFields(fields []string) string {
	var builder strings.Builder

	for _, field := range fields {
		builder.WriteString(strconv.Itoa(len(field)))
		builder.WriteByte(':')
		builder.WriteString(field)
	}

	hash := sha256.Sum256([]byte(builder.String()))
	return hex.EncodeToString(hash[:])
}

// SnapshotID identifies the compared surface of a graph. Two graphs with the same
// snapshot ID produce no changes when diffed; synthetic objects do not contribute.
func (h *Hasher) SnapshotID(g *apigraph.Graph) string {
	objs := declared(g)
	names := make([]string, 0, len(objs))
	for q := range objs {
		names = append(names, q)
	}
	sort.Strings(names)

	var builder strings.Builder
	for _, q := range names {
		builder.WriteString("o:")
		builder.WriteString(h.HashObject(objs[q]))
	}

	hash := sha256.Sum256([]byte(builder.String()))
	return "sha256:" + hex.EncodeToString(hash[:])
}
