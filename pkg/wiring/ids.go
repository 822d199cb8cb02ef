package wiring

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// IDGenerator issues ids for nodes created while editing.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// IDGeneratorFunc adapts a function to IDGenerator.
type IDGeneratorFunc func(ctx context.Context) (string, error)

// NewID calls f.
func (f IDGeneratorFunc) NewID(ctx context.Context) (string, error) {
	return f(ctx)
}

// UUIDGenerator issues random UUIDs.
type UUIDGenerator struct{}

// NewID returns a random UUID.
func (UUIDGenerator) NewID(context.Context) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

var fallbackNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("botflow:node"))

// FallbackID derives a deterministic id from seed parts, used when the generator fails so editing
// can continue offline.
func FallbackID(parts ...string) string {
	return "node_" + uuid.NewSHA1(fallbackNamespace, []byte(strings.Join(parts, "\x00"))).String()
}
