package buildinfo

import (
	"encoding/json"
	"net/http"
	"runtime"
)

// Injected at build time, e.g.
// go build -ldflags "-X github.com/otherjamesbrown/mint-cli/pkg/buildinfo.Version=v0.3.1"
// (same for Commit and BuildTime).
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info identifies one binary: which service, built from what, with what.
type Info struct {
	ServiceName string `json:"service_name"`
	Version     string `json:"version"`
	Commit      string `json:"commit"`
	BuildTime   string `json:"build_time"`
	GoVersion   string `json:"go_version"`
}

// Get returns build info for the named service.
func Get(serviceName string) Info {
	return Info{
		ServiceName: serviceName,
		Version:     Version,
		Commit:      Commit,
		BuildTime:   BuildTime,
		GoVersion:   runtime.Version(),
	}
}

// String renders a one-line version stamp, "version (commit, time)".
func String() string {
	return Version + " (" + Commit + ", " + BuildTime + ")"
}

// Handler serves the build info as JSON, for a /version endpoint.
func Handler(serviceName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info := Get(serviceName)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(info)
	}
}
