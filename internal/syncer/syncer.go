// Package syncer drives a profile sync: it computes what the child
// profile inherits from its parents, rewrites the generated region of
// the child's settings document, and propagates extensions and
// auxiliary files. One Sync call handles one profile; callers that can
// trigger syncs concurrently for the same profile are responsible for
// serializing them.
package syncer

import (
	"context"
	"fmt"

	"github.com/Disk-MTH/inherit-profile/internal/extension"
	"github.com/Disk-MTH/inherit-profile/internal/fsio"
	"github.com/Disk-MTH/inherit-profile/internal/logging"
	"github.com/Disk-MTH/inherit-profile/internal/profile"
	"github.com/Disk-MTH/inherit-profile/internal/region"
	"github.com/Disk-MTH/inherit-profile/internal/report"
	"github.com/Disk-MTH/inherit-profile/internal/settings"
)

// Options configures a Syncer.
type Options struct {
	// HostBin is the editor binary used for extension installs.
	HostBin string
	// DryRun computes and reports everything without writing.
	DryRun bool
	// SkipExtensions disables extension propagation.
	SkipExtensions bool
	// SkipFiles disables keybindings/tasks/snippets/MCP propagation.
	SkipFiles bool
}

// Syncer syncs profiles against a read-only profile registry.
type Syncer struct {
	registry *profile.Registry
	opts     Options
}

// New creates a Syncer.
func New(registry *profile.Registry, opts Options) *Syncer {
	if opts.HostBin == "" {
		opts.HostBin = profile.DefaultHostBin()
	}
	return &Syncer{registry: registry, opts: opts}
}

// HasParents reports whether a profile declares at least one parent.
func (s *Syncer) HasParents(p profile.Profile) bool {
	doc, err := fsio.ReadJSONC(p.SettingsPath())
	if err != nil {
		return false
	}
	return len(profile.ParentNames(settings.Flatten(doc))) > 0
}

// Sync runs one full sync of the named child profile, accumulating the
// outcome into st. Only an unreadable child settings document or a
// failed write of it abort the sync; every per-ancestor failure is a
// warning and processing continues.
func (s *Syncer) Sync(ctx context.Context, childName string, st *report.State) error {
	child, ok := s.registry.Lookup(childName)
	if !ok {
		return fmt.Errorf("unknown profile: %s", childName)
	}

	raw, err := fsio.ReadText(child.SettingsPath())
	if err != nil {
		return fmt.Errorf("failed to read settings for profile %q: %w", childName, err)
	}

	writable := true
	rawDoc, err := fsio.ParseJSONC([]byte(raw))
	if err != nil {
		// An unreadable child document cannot safely be rewritten.
		writable = false
		st.Warnf("settings for %q are not parseable, skipping settings rewrite: %v", childName, err)
	}

	parentNames := profile.ParentNames(settings.Flatten(rawDoc))
	parents, ancestors := s.collectAncestors(parentNames, st)

	if writable {
		if err := s.rewriteSettings(child, raw, parentNames, ancestors, st); err != nil {
			return err
		}
	}

	if !s.opts.SkipExtensions {
		s.syncExtensions(ctx, child, parents, st)
	}
	if !s.opts.SkipFiles {
		s.syncFiles(child, parents, st)
	}
	return nil
}

// rewriteSettings performs the remove, resolve, write cycle on the
// child's settings document. The generated region is stripped before
// the child is flattened: flattening the raw document would let keys
// inherited on an earlier run claim themselves and starve every
// parent, so repeated syncs would alternate between adding and
// dropping the inherited block.
func (s *Syncer) rewriteSettings(child profile.Profile, raw string, parentNames []string, ancestors []settings.Ancestor, st *report.State) error {
	cleaned, warns := region.Remove(raw, child.Name, parentNames)
	for _, w := range warns {
		st.Warnf("%s", w)
	}

	childDoc, err := fsio.ParseJSONC([]byte(cleaned))
	if err != nil {
		st.Warnf("settings for %q are not parseable once the inherited region is removed, skipping settings rewrite: %v", child.Name, err)
		return nil
	}

	res := settings.Resolve(child.Name, settings.Flatten(childDoc), ancestors)
	for _, name := range parentNames {
		st.RecordInherited(name, len(res.ByParent[name]))
	}

	out, writeWarns := region.Write(cleaned, child.Name, buildGroups(res, parentNames))
	for _, w := range writeWarns {
		st.Warnf("%s", w)
	}
	if out == raw {
		return nil
	}

	st.RecordDiff(raw, out)
	if !s.opts.DryRun {
		if err := fsio.WriteText(child.SettingsPath(), out); err != nil {
			return fmt.Errorf("failed to write settings for profile %q: %w", child.Name, err)
		}
	}
	logging.Info().Str("profile", child.Name).Int("inherited", st.TotalInherited()).Bool("dryRun", s.opts.DryRun).Msg("settings region rewritten")
	return nil
}

// collectAncestors resolves and flattens every configured parent. A
// parent missing from the registry is a reported warning; a parent
// whose settings cannot be read or parsed contributes an empty map
// silently. Either way the ancestor list keeps one entry per
// configured name so attribution order is preserved.
func (s *Syncer) collectAncestors(names []string, st *report.State) ([]profile.Profile, []settings.Ancestor) {
	var resolved []profile.Profile
	ancestors := make([]settings.Ancestor, 0, len(names))
	for _, name := range names {
		p, ok := s.registry.Lookup(name)
		if !ok {
			st.Warnf("parent profile %q not found in registry", name)
			ancestors = append(ancestors, settings.Ancestor{Name: name})
			continue
		}
		resolved = append(resolved, p)

		doc, err := fsio.ReadJSONC(p.SettingsPath())
		if err != nil {
			logging.Debug().Err(err).Str("profile", name).Msg("parent settings unavailable, contributing nothing")
			ancestors = append(ancestors, settings.Ancestor{Name: name})
			continue
		}
		ancestors = append(ancestors, settings.Ancestor{Name: name, Settings: settings.Flatten(doc)})
	}
	return resolved, ancestors
}

// buildGroups turns a resolution into the region blocks to write, in
// configured base-to-derived order. Ancestors that contributed nothing
// get no header.
func buildGroups(res settings.Resolution, parentNames []string) []region.Group {
	var groups []region.Group
	for _, name := range parentNames {
		bucket := res.ByParent[name]
		if len(bucket) == 0 {
			continue
		}
		g := region.Group{Name: name}
		for _, k := range settings.SortedKeys(bucket) {
			g.Entries = append(g.Entries, region.Entry{Key: k, Value: bucket[k].Raw})
		}
		groups = append(groups, g)
	}
	return groups
}

// syncExtensions installs extensions present in any parent and missing
// from the child.
func (s *Syncer) syncExtensions(ctx context.Context, child profile.Profile, parents []profile.Profile, st *report.State) {
	childIDs, err := extension.Installed(child.ExtensionsPath())
	if err != nil {
		st.Warnf("failed to read extension inventory for %q: %v", child.Name, err)
		return
	}

	inventories := make([][]string, 0, len(parents))
	for _, p := range parents {
		ids, err := extension.Installed(p.ExtensionsPath())
		if err != nil {
			logging.Debug().Err(err).Str("profile", p.Name).Msg("parent extension inventory unavailable")
			continue
		}
		inventories = append(inventories, ids)
	}

	missing := extension.Missing(childIDs, inventories...)
	if len(missing) == 0 {
		return
	}

	installer := &extension.Installer{Bin: s.opts.HostBin, DryRun: s.opts.DryRun}
	failed := installer.Install(ctx, child.Name, missing)
	for _, id := range missing {
		if err, bad := failed[id]; bad {
			st.FailedExtensions[id] = err.Error()
		} else {
			st.InstalledExtensions = append(st.InstalledExtensions, id)
		}
	}
}
