package types

type HeartbeatRequest struct {
	ReaderID        string `json:"reader_id"`
	FirmwareVersion string `json:"firmware_version,omitempty"`
	UptimeSeconds   uint64 `json:"uptime_s,omitempty"`
	RSSIDbm         *int   `json:"rssi_dbm,omitempty"`
	IP              string `json:"ip,omitempty"`
}

type HeartbeatResponse struct {
	OK         bool   `json:"ok"`
	Registered bool   `json:"registered"`
	ReaderID   string `json:"reader_id"`
	ServerTime string `json:"server_time"`
}
