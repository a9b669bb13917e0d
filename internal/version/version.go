package version

// Version is the application version. It is set at build time via ldflags
// for release builds.
var Version = "1.0.0"
