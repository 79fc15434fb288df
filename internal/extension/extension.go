// Package extension reads per-profile extension inventories and
// installs missing extensions through the host editor binary.
package extension

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/tidwall/gjson"

	"github.com/Disk-MTH/inherit-profile/internal/fsio"
	"github.com/Disk-MTH/inherit-profile/internal/logging"
)

const (
	retryInitialInterval = 500 * time.Millisecond
	retryMaxInterval     = 5 * time.Second
	maxRetries           = 3
)

// Installed returns the extension ids listed in a profile's
// extensions.json, in file order. A missing inventory yields an empty
// list, not an error.
func Installed(path string) ([]string, error) {
	doc, err := fsio.ReadJSONC(path)
	if err != nil {
		if fsio.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	var ids []string
	doc.ForEach(func(_, entry gjson.Result) bool {
		if id := entry.Get("identifier.id").String(); id != "" {
			ids = append(ids, id)
		}
		return true
	})
	return ids, nil
}

// Missing returns the ids present in any parent inventory and absent
// from the child's, deduplicated, preserving first-seen order.
// Extension ids compare case-insensitively.
func Missing(child []string, parents ...[]string) []string {
	have := make(map[string]struct{}, len(child))
	for _, id := range child {
		have[strings.ToLower(id)] = struct{}{}
	}

	var missing []string
	for _, inventory := range parents {
		for _, id := range inventory {
			key := strings.ToLower(id)
			if _, ok := have[key]; ok {
				continue
			}
			have[key] = struct{}{}
			missing = append(missing, id)
		}
	}
	return missing
}

// Installer installs extensions into a profile through the host
// binary.
type Installer struct {
	// Bin is the host editor binary, e.g. "code".
	Bin string
	// DryRun logs what would be installed without running anything.
	DryRun bool
}

// Install installs each id into the named profile, retrying transient
// failures with jittered exponential backoff. One failing extension
// does not stop the others; the returned map holds the ids that could
// not be installed.
func (ins *Installer) Install(ctx context.Context, profileName string, ids []string) map[string]error {
	failed := make(map[string]error)
	for _, id := range ids {
		if ins.DryRun {
			logging.Info().Str("extension", id).Str("profile", profileName).Msg("dry-run: would install extension")
			continue
		}
		if err := ins.installOne(ctx, profileName, id); err != nil {
			logging.Warn().Err(err).Str("extension", id).Str("profile", profileName).Msg("extension install failed")
			failed[id] = err
			continue
		}
		logging.Info().Str("extension", id).Str("profile", profileName).Msg("extension installed")
	}
	return failed
}

func (ins *Installer) installOne(ctx context.Context, profileName, id string) error {
	op := func() error {
		cmd := exec.CommandContext(ctx, ins.Bin, "--profile", profileName, "--install-extension", id)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = err.Error()
			}
			return fmt.Errorf("%s --install-extension %s: %s", ins.Bin, id, msg)
		}
		return nil
	}
	return backoff.Retry(op, newRetryBackoff(ctx))
}

// newRetryBackoff builds a jittered exponential backoff bound to ctx,
// so a slow host binary cannot outlive a canceled sync.
func newRetryBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval
	b.MaxInterval = retryMaxInterval
	b.RandomizationFactor = 0.5
	b.Multiplier = 2.0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, maxRetries), ctx)
}
