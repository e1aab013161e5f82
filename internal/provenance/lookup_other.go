//go:build !darwin && !linux

package provenance

import "context"

func lookup(_ context.Context, _ string) (Metadata, error) {
	return Metadata{}, nil
}
