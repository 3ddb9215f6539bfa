package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CheckVersionCompatibility checks if the client and the backend API versions are compatible.
// Returns nil if compatible, error with details if not.
//
// Compatibility Rules:
//   - If either version is "main" (development build), compatibility check is skipped
//   - Major versions must match exactly
//   - Minor versions must match exactly
//   - Patch versions can differ (e.g., 1.2.0 is compatible with 1.2.5)
func CheckVersionCompatibility(clientVersion, serverVersion string) error {
	clientVersion = strings.TrimPrefix(clientVersion, "v")
	serverVersion = strings.TrimPrefix(serverVersion, "v")

	if clientVersion == "main" || serverVersion == "main" {
		return nil
	}

	clientSemver, err := semver.NewVersion(clientVersion)
	if err != nil {
		return fmt.Errorf("invalid client version '%s': %w", clientVersion, err)
	}

	serverSemver, err := semver.NewVersion(serverVersion)
	if err != nil {
		return fmt.Errorf("invalid server version '%s': %w", serverVersion, err)
	}

	if clientSemver.Major() != serverSemver.Major() {
		return fmt.Errorf("major version mismatch: client is %d.x.x but server speaks %d.x.x",
			clientSemver.Major(), serverSemver.Major())
	}

	if clientSemver.Minor() != serverSemver.Minor() {
		return fmt.Errorf("minor version mismatch: client is %d.%d.x but server speaks %d.%d.x",
			clientSemver.Major(), clientSemver.Minor(),
			serverSemver.Major(), serverSemver.Minor())
	}

	return nil
}
