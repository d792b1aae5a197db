package utils

// Overridden at link time with -ldflags "-X github.com/bytearena/skirmish/common/utils.version=..."
var version = "dev"

func GetVersion() string {
	return version
}
