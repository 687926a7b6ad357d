package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/aristath/pathsim/internal/database"
	"github.com/aristath/pathsim/internal/events"
	"github.com/aristath/pathsim/internal/modules/runs"
	"github.com/aristath/pathsim/internal/reliability"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemHandlers handles system monitoring and maintenance requests
type SystemHandlers struct {
	log           zerolog.Logger
	dataDir       string
	databases     map[string]*database.DB
	runsService   *runs.Service
	eventBus      *events.Bus
	backupService *reliability.BackupService
	cloudBackup   *reliability.CloudBackupService // nil when not configured
	startTime     time.Time
}

// NewSystemHandlers creates new system handlers
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	databases map[string]*database.DB,
	runsService *runs.Service,
	eventBus *events.Bus,
	backupService *reliability.BackupService,
	cloudBackup *reliability.CloudBackupService,
) *SystemHandlers {
	return &SystemHandlers{
		log:           log.With().Str("handler", "system").Logger(),
		dataDir:       dataDir,
		databases:     databases,
		runsService:   runsService,
		eventBus:      eventBus,
		backupService: backupService,
		cloudBackup:   cloudBackup,
		startTime:     time.Now(),
	}
}

// SystemStatusResponse is the response for GET /api/system/status
type SystemStatusResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	CPUPercent    float64 `json:"cpu_percent"`
	RAMPercent    float64 `json:"ram_percent"`
	StoredRuns    int     `json:"stored_runs"`
	Subscribers   int     `json:"event_subscribers"`
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, ramPercent := h.getSystemStats()

	storedRuns, err := h.runsService.Count()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to count stored runs")
	}

	h.writeJSON(w, SystemStatusResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		CPUPercent:    cpuPercent,
		RAMPercent:    ramPercent,
		StoredRuns:    storedRuns,
		Subscribers:   h.eventBus.SubscriberCount(),
	})
}

// HandleDatabaseStats handles GET /api/system/databases
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	stats := make(map[string]*database.Stats, len(h.databases))
	for name, db := range h.databases {
		dbStats, err := db.GetStats()
		if err != nil {
			h.log.Warn().Str("database", name).Err(err).Msg("Failed to get database stats")
			continue
		}
		stats[name] = dbStats
	}

	h.writeJSON(w, stats)
}

// DiskUsageResponse is the response for GET /api/system/disk
type DiskUsageResponse struct {
	DataDirMB float64 `json:"data_dir_mb"`
	BackupsMB float64 `json:"backups_mb"`
}

// HandleDiskUsage handles GET /api/system/disk
func (h *SystemHandlers) HandleDiskUsage(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, DiskUsageResponse{
		DataDirMB: h.getDirSize(h.dataDir),
		BackupsMB: h.getDirSize(filepath.Join(h.dataDir, "backups")),
	})
}

// HandleWALCheckpoint handles POST /api/system/checkpoint
func (h *SystemHandlers) HandleWALCheckpoint(w http.ResponseWriter, r *http.Request) {
	for name, db := range h.databases {
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			h.log.Error().Str("database", name).Err(err).Msg("WAL checkpoint failed")
			h.writeError(w, http.StatusInternalServerError, "Checkpoint failed for "+name+": "+err.Error())
			return
		}
	}

	h.writeJSON(w, map[string]string{"status": "ok"})
}

// HandleBackupNow handles POST /api/system/backup
func (h *SystemHandlers) HandleBackupNow(w http.ResponseWriter, r *http.Request) {
	date := time.Now().Format("2006-01-02")

	destDir, err := h.backupService.BackupAll(date)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Backup failed: "+err.Error())
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"dir":    destDir,
	}

	if h.cloudBackup != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
		defer cancel()

		if err := h.cloudBackup.CreateAndUpload(ctx); err != nil {
			h.log.Error().Err(err).Msg("Cloud backup failed")
			response["cloud"] = "failed: " + err.Error()
		} else {
			response["cloud"] = "uploaded"
		}
	}

	h.writeJSON(w, response)
}

// HandleListBackups handles GET /api/system/backups
func (h *SystemHandlers) HandleListBackups(w http.ResponseWriter, r *http.Request) {
	if h.cloudBackup == nil {
		h.writeJSON(w, map[string]interface{}{
			"archives": []reliability.ArchiveInfo{},
			"enabled":  false,
		})
		return
	}

	archives, err := h.cloudBackup.ListArchives(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to list backups: "+err.Error())
		return
	}
	if archives == nil {
		archives = []reliability.ArchiveInfo{}
	}

	h.writeJSON(w, map[string]interface{}{
		"archives": archives,
		"enabled":  true,
	})
}

// getSystemStats calculates CPU and RAM usage percentages
// Uses a short interval (100ms) so the status endpoint stays responsive.
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

// writeJSON writes a JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *SystemHandlers) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
