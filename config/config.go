package config

import (
	"os"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

type SysConfig struct {
	Appid    string `yaml:"appid" json:"appid"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type WebConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
}

type DBConfig struct {
	Type     string `yaml:"type" json:"type"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Name     string `yaml:"name" json:"name"`
	User     string `yaml:"user" json:"user"`
	Passwd   string `yaml:"passwd" json:"passwd"`
	MaxConn  int    `yaml:"max_conn" json:"max_conn"`
	IdleConn int    `yaml:"idle_conn" json:"idle_conn"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type LogConfig struct {
	Mode       string `yaml:"mode" json:"mode"`
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

type AppConfig struct {
	System   SysConfig `yaml:"system" json:"system"`
	Web      WebConfig `yaml:"web" json:"web"`
	Database DBConfig  `yaml:"database" json:"database"`
	Logger   LogConfig `yaml:"logger" json:"logger"`
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "MedInventory",
		Location: "Local",
		Workdir:  "/var/medinventory",
		Debug:    true,
	},
	Web: WebConfig{
		Host: "0.0.0.0",
		Port: 8000,
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "localhost",
		Port:     5432,
		Name:     "medical_inventory",
		User:     "meduser",
		Passwd:   "medpass",
		MaxConn:  100,
		IdleConn: 10,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: false,
		Filename:   "/var/medinventory/medinventory.log",
	},
}

func setEnvValue(name string, f func(v string)) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		f(evalue)
	}
}

func setEnvIntValue(name string, f func(v int)) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		f(cast.ToInt(evalue))
	}
}

func setEnvBoolValue(name string, f func(v bool)) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		f(cast.ToBool(evalue))
	}
}

// LoadConfig loads the application configuration from an optional yaml
// file and applies environment variable overrides on top of it.
func LoadConfig(cfile string) *AppConfig {
	cfg := new(AppConfig)
	*cfg = *DefaultAppConfig
	if cfile != "" {
		if data, err := os.ReadFile(cfile); err == nil {
			_ = yaml.Unmarshal(data, cfg)
		}
	}

	setEnvValue("MEDINVENTORY_WORKDIR", func(v string) { cfg.System.Workdir = v })
	setEnvValue("MEDINVENTORY_LOCATION", func(v string) { cfg.System.Location = v })
	setEnvBoolValue("MEDINVENTORY_DEBUG", func(v bool) { cfg.System.Debug = v })

	setEnvValue("WEB_HOST", func(v string) { cfg.Web.Host = v })
	setEnvIntValue("WEB_PORT", func(v int) { cfg.Web.Port = v })

	setEnvValue("DB_TYPE", func(v string) { cfg.Database.Type = v })
	setEnvValue("DB_HOST", func(v string) { cfg.Database.Host = v })
	setEnvIntValue("DB_PORT", func(v int) { cfg.Database.Port = v })
	setEnvValue("DB_NAME", func(v string) { cfg.Database.Name = v })
	setEnvValue("DB_USER", func(v string) { cfg.Database.User = v })
	setEnvValue("DB_PASSWORD", func(v string) { cfg.Database.Passwd = v })

	setEnvValue("LOGGER_MODE", func(v string) { cfg.Logger.Mode = v })
	setEnvBoolValue("LOGGER_FILE_ENABLE", func(v bool) { cfg.Logger.FileEnable = v })
	setEnvValue("LOGGER_FILENAME", func(v string) { cfg.Logger.Filename = v })

	return cfg
}
