package cli

// Version is the release version, set at build time with
// -ldflags "-X github.com/Fepozopo/instafilter/pkg/cli.Version=v1.2.3".
var Version = "dev"
