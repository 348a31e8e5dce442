package models

// Unavailable is reported for any system field the probe output did not provide.
const Unavailable = "Unable to retrieve"

// SystemSnapshot is a point-in-time read of host uptime, load, memory and disk.
// Values are passed through from the command output without unit conversion.
type SystemSnapshot struct {
	Uptime      string     `json:"uptime"`
	LoadAverage string     `json:"loadAverage"`
	Memory      MemoryInfo `json:"memory"`
	Disk        DiskInfo   `json:"disk"`
}

// MemoryInfo represents the memory columns of `free -h`.
type MemoryInfo struct {
	Total string `json:"total"`
	Used  string `json:"used"`
	Free  string `json:"free"`
}

// DiskInfo represents the columns of `df -h /` for the root filesystem.
type DiskInfo struct {
	Total         string `json:"total"`
	Used          string `json:"used"`
	Available     string `json:"available"`
	UsePercentage string `json:"usePercentage"`
}
