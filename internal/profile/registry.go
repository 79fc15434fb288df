package profile

import (
	"path/filepath"

	"github.com/tidwall/gjson"

	"github.com/Disk-MTH/inherit-profile/internal/fsio"
	"github.com/Disk-MTH/inherit-profile/internal/logging"
)

// Registry is the set of profiles the editor declares in its global
// storage, plus the implicit default profile.
type Registry struct {
	userDir  string
	profiles []Profile
}

// LoadRegistry reads the profile registry under userDir. The default
// profile always exists; the named ones come from
// globalStorage/storage.json, key "userDataProfiles". A missing or
// unreadable registry file is not fatal: the tool still works against
// the default profile alone.
func LoadRegistry(userDir string) *Registry {
	reg := &Registry{
		userDir:  userDir,
		profiles: []Profile{{Name: DefaultName, Dir: userDir}},
	}

	storagePath := filepath.Join(userDir, "globalStorage", "storage.json")
	doc, err := fsio.ReadJSONC(storagePath)
	if err != nil {
		logging.Debug().Err(err).Str("path", storagePath).Msg("profile registry not readable, using default profile only")
		return reg
	}

	doc.Get("userDataProfiles").ForEach(func(_, entry gjson.Result) bool {
		name := entry.Get("name").String()
		location := entry.Get("location").String()
		if name == "" || location == "" {
			logging.Warn().Str("path", storagePath).Msg("skipping registry entry without name or location")
			return true
		}
		reg.profiles = append(reg.profiles, Profile{
			Name: name,
			Dir:  filepath.Join(userDir, "profiles", location),
		})
		return true
	})
	return reg
}

// UserDir returns the root user directory the registry was read from.
func (r *Registry) UserDir() string {
	return r.userDir
}

// All returns every known profile, default first, in registry order.
func (r *Registry) All() []Profile {
	out := make([]Profile, len(r.profiles))
	copy(out, r.profiles)
	return out
}

// Lookup finds a profile by name.
func (r *Registry) Lookup(name string) (Profile, bool) {
	for _, p := range r.profiles {
		if p.Name == name {
			return p, true
		}
	}
	return Profile{}, false
}
