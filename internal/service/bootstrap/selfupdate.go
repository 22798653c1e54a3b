package bootstrap

import (
	"bytes"
	"context"
	"crypto"
	"encoding/hex"
	"os"
	"strings"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/paradise-app/bootstrapper/internal/domain/release"
	"github.com/paradise-app/bootstrapper/internal/logger"
	"github.com/paradise-app/bootstrapper/internal/service/hashcheck"

	// Ensure SHA256 is registered for go-update checksum validation.
	_ "crypto/sha256"
)

// maybeSelfUpdate replaces the running bootstrapper binary when the manifest
// advertises one with a different digest. Failures here are logged and
// swallowed: a stale bootstrapper must never block the application install.
func (r *runner) maybeSelfUpdate(ctx context.Context, advertised *release.SelfUpdate) {
	executable, err := os.Executable()
	if err != nil {
		logger.WarnKV(ctx, "Self-update skipped: cannot locate own binary", "error", err)
		return
	}

	currentDigest, err := hashcheck.HexFileDigest(executable)
	if err != nil {
		logger.WarnKV(ctx, "Self-update skipped: cannot hash own binary", "error", err)
		return
	}

	if strings.EqualFold(currentDigest, advertised.SHA256) {
		logger.Debug(ctx, "Bootstrapper binary is current")
		return
	}

	logger.InfoKV(ctx, "Updating bootstrapper binary", "url", advertised.URL)

	artifact, err := r.payloads.Download(ctx, advertised.URL)
	if err != nil {
		logger.WarnKV(ctx, "Self-update download failed", "error", err)
		return
	}

	defer func() {
		_ = artifact.Remove()
	}()

	data, err := os.ReadFile(artifact.Path)
	if err != nil {
		logger.WarnKV(ctx, "Self-update read failed", "error", err)
		return
	}

	checksum, err := hex.DecodeString(strings.ToLower(advertised.SHA256))
	if err != nil {
		logger.WarnKV(ctx, "Self-update skipped: bad advertised digest", "error", err)
		return
	}

	applyOptions := goupdate.Options{
		TargetPath: executable,
		TargetMode: 0o755,
		Checksum:   checksum,
		Hash:       crypto.SHA256,
	}

	if err = goupdate.Apply(bytes.NewReader(data), applyOptions); err != nil {
		logger.WarnKV(ctx, "Self-update apply failed", "error", err)
		return
	}

	// The old binary lives on as <name>.old until the next run.
	if _, err = os.Stat(executable + ".old"); err == nil {
		_ = os.Remove(executable + ".old")
	}

	logger.Info(ctx, "Bootstrapper binary updated; restart to pick it up")
}
