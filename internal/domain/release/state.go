package release

// InstallState is the locally persisted record of what is installed where.
// It is read once at startup and written back only after a successful
// promotion; nothing else mutates it.
type InstallState struct {
	// InstalledVersion is the version currently promoted into InstallRoot.
	// Empty when nothing was ever installed.
	InstalledVersion string `json:"installed_version,omitempty"`
	// InstallRoot is the directory holding the live install.
	InstallRoot string `json:"install_root"`
}

// IsFresh reports whether no release was ever installed.
func (s *InstallState) IsFresh() bool {
	return s == nil || s.InstalledVersion == ""
}
