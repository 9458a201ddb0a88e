package server

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/feanalyst/fe-analyst/internal/clients/alphavantage"
	"github.com/feanalyst/fe-analyst/internal/events"
	"github.com/feanalyst/fe-analyst/internal/universe"
)

// SystemHandlers handles health and monitoring endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	dataDir     string
	startupTime time.Time
	securities  *universe.SecurityRepository
	provider    *alphavantage.Client
	bus         *events.Bus
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	securities *universe.SecurityRepository,
	provider *alphavantage.Client,
	bus *events.Bus,
) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		dataDir:     dataDir,
		startupTime: time.Now(),
		securities:  securities,
		provider:    provider,
		bus:         bus,
	}
}

// SystemStatusResponse represents the system status response
type SystemStatusResponse struct {
	Status            string  `json:"status"`
	UptimeHours       float64 `json:"uptime_hours"`
	CPUPercent        float64 `json:"cpu_percent"`
	RAMPercent        float64 `json:"ram_percent"`
	UniverseSize      int     `json:"universe_size"`
	ProviderRemaining int     `json:"provider_remaining"`
	StreamSubscribers int     `json:"stream_subscribers"`
	DataSizeMB        float64 `json:"data_size_mb"`
}

// HandleHealth returns a minimal liveness response
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleStatus returns comprehensive system status
func (h *SystemHandlers) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	h.log.Debug().Msg("Getting system status")

	status := "healthy"

	universeSize := 0
	if securities, err := h.securities.ListAll(); err != nil {
		h.log.Warn().Err(err).Msg("Failed to count universe")
		status = "degraded"
	} else {
		universeSize = len(securities)
	}

	cpuPercent, ramPercent := h.getSystemStats()

	response := SystemStatusResponse{
		Status:            status,
		UptimeHours:       time.Since(h.startupTime).Hours(),
		CPUPercent:        cpuPercent,
		RAMPercent:        ramPercent,
		UniverseSize:      universeSize,
		ProviderRemaining: h.provider.GetRemainingRequests(),
		StreamSubscribers: h.bus.SubscriberCount(),
		DataSizeMB:        h.getDirSize(h.dataDir),
	}

	writeJSON(w, http.StatusOK, response)
}

// getSystemStats calculates CPU and RAM usage percentages.
// Uses a 100ms sampling window to keep the endpoint responsive.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// getDirSize calculates total size of a directory in MB
func (h *SystemHandlers) getDirSize(dirPath string) float64 {
	var totalSize int64

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})

	if err != nil {
		h.log.Warn().Err(err).Str("dir", dirPath).Msg("Failed to calculate directory size")
		return 0
	}

	return float64(totalSize) / 1024 / 1024
}
