package api

import (
	"net/http"
	"runtime"

	"github.com/Togather-Foundation/booking/internal/api/problem"
)

type versionResponse struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// VersionHandler reports build metadata set through ldflags.
func VersionHandler(version, gitCommit, buildDate string) http.HandlerFunc {
	if version == "" {
		version = "dev"
	}
	if gitCommit == "" {
		gitCommit = "unknown"
	}
	if buildDate == "" {
		buildDate = "unknown"
	}
	resp := versionResponse{
		Version:   version,
		GitCommit: gitCommit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
	}
	return func(w http.ResponseWriter, r *http.Request) {
		problem.WriteJSON(w, http.StatusOK, resp)
	}
}
