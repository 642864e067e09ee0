package version

// Version is the current logvault release.
// Version 是当前的 logvault 版本。
var Version = "0.4.0"
