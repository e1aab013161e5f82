package provenance

import (
	"context"
	"os/exec"

	"shelf/internal/services"
)

var commandContext = exec.CommandContext

const (
	attrWhereFroms = "kMDItemWhereFroms"
	attrUserTags   = "kMDItemUserTags"
)

func lookup(ctx context.Context, path string) (Metadata, error) {
	cmd := commandContext(ctx, "mdls",
		"-name", attrWhereFroms,
		"-name", attrUserTags,
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return Metadata{}, services.Wrap(services.ErrTimeout, "provenance", "lookup", path, ctx.Err())
		}
		// Spotlight refuses some paths (network volumes, unindexed
		// disks); treat that as no metadata rather than a failure.
		return Metadata{}, nil
	}

	attrs := parseMDLSOutput(string(output))
	return Metadata{
		SourceURLs: parseMDLSList(attrs[attrWhereFroms]),
		Tags:       parseMDLSList(attrs[attrUserTags]),
	}, nil
}
