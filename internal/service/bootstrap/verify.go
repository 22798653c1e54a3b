package bootstrap

import (
	"context"

	"github.com/paradise-app/bootstrapper/internal/logger"
	"github.com/paradise-app/bootstrapper/internal/service/fetcher"
	"github.com/paradise-app/bootstrapper/internal/service/hashcheck"
)

// verifyArtifact runs the integrity gate over a downloaded payload.
// On mismatch the artifact is removed immediately so no later code path can
// ever extract unverified bytes.
func verifyArtifact(ctx context.Context, artifact *fetcher.Artifact, expectedHex string) error {
	logger.InfoKV(ctx, "Verifying payload digest", "path", artifact.Path, "bytes", artifact.Size)

	if err := hashcheck.VerifyFile(artifact.Path, expectedHex); err != nil {
		_ = artifact.Remove()

		return err
	}

	return nil
}
