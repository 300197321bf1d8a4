package version

// Values for these are injected by the build
var (
	version string
	commit  string
)

// Version returns the Kvitto version. This is either a semantic version
// number or "devel" for non-release builds.
func Version() string {
	if version == "" {
		return "devel"
	}
	return version
}

// Commit returns the git commit SHA for the code that Kvitto was built from.
func Commit() string {
	if commit == "" {
		return "unknown"
	}
	return commit
}
