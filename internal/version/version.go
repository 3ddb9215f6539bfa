package version

// Version is the current version of the argo-sync client.
// This value is set at build time using ldflags:
// -ldflags "-X github.com/rxtech-lab/argo-sync/internal/version.Version=1.2.3"
// The default value "main" indicates a development build.
var Version = "main"

// GetVersion returns the current version of the client.
func GetVersion() string {
	return Version
}

// UserAgent returns the User-Agent sent with every backend request.
func UserAgent() string {
	return "argo-sync/" + Version
}
