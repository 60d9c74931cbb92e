package conduit

// Version is the release version, overridden at link time with
// -ldflags "-X github.com/aretw0/conduit.Version=...".
var Version = "0.3.0-dev"
