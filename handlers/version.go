package handlers

import (
	"net/http"
	"os"
	"strings"
	"sync"
)

// buildVersion is set with -ldflags "-X streamfront/handlers.buildVersion=..."
var (
	buildVersion string
	versionOnce  sync.Once
)

type VersionHandler struct{}

type VersionResponse struct {
	Version string `json:"version"`
}

func NewVersionHandler() *VersionHandler {
	return &VersionHandler{}
}

// Version returns the linked build version, falling back to version.txt in
// the working directory.
func Version() string {
	versionOnce.Do(func() {
		if strings.TrimSpace(buildVersion) != "" {
			buildVersion = strings.TrimSpace(buildVersion)
			return
		}
		if data, err := os.ReadFile("version.txt"); err == nil {
			buildVersion = strings.TrimSpace(string(data))
		}
		if buildVersion == "" {
			buildVersion = "dev"
		}
	})
	return buildVersion
}

func (h *VersionHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: Version()})
}
