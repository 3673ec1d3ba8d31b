// Package misc keeps build time information about the program.
package misc

// Values are set with -ldflags "-X odfc/misc.version=..." during release builds.
var (
	appName = "odfc"
	version = "dev"
	gitHash = "unknown"
)

func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}
