package models

type Registrar struct {
	ID string `gorm:"primaryKey;size:128" json:"id"`

	MainHost   string `gorm:"size:255" json:"main_host"`
	MainPort   *int   `json:"main_port"`
	BackupHost string `gorm:"size:255" json:"backup_host"`
	BackupPort *int   `json:"backup_port"`

	ProxyMainHost   string `gorm:"size:255" json:"proxy_main_host"`
	ProxyMainPort   *int   `json:"proxy_main_port"`
	ProxyBackupHost string `gorm:"size:255" json:"proxy_backup_host"`
	ProxyBackupPort *int   `json:"proxy_backup_port"`

	OutboundProxyHost string `gorm:"size:255" json:"outbound_proxy_host"`
	OutboundProxyPort *int   `json:"outbound_proxy_port"`
}
