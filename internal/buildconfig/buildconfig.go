package buildconfig

import "runtime/debug"

// Set at link time:
//
//	go build -ldflags "-X github.com/Harshitk-cp/jungclaude/internal/buildconfig.version=v0.1.0 \
//	  -X github.com/Harshitk-cp/jungclaude/internal/buildconfig.commit=$(git rev-parse --short HEAD)"
var (
	version = "dev"
	commit  = ""
)

const service = "jungclaude"

func Version() string {
	return version
}

// Commit falls back to the VCS revision recorded by the Go toolchain.
func Commit() string {
	if commit != "" {
		return commit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				if len(s.Value) > 12 {
					return s.Value[:12]
				}
				return s.Value
			}
		}
	}
	return "unknown"
}

// UserAgent identifies outbound requests to model providers.
func UserAgent() string {
	return service + "/" + version
}

func VersionInfo() map[string]string {
	return map[string]string{
		"version": version,
		"commit":  Commit(),
		"service": service,
	}
}
