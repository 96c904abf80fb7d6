package version

// Version is overridden at build time with -ldflags "-X github.com/bnema/crowdcast/internal/version.Version=...".
var Version = "dev"
