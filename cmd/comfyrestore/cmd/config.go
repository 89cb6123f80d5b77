// Copyright © 2018 One Concern

package cmd

import (
	"log"
	"os"
	"path/filepath"

	"github.com/oneconcern/comfyrestore/pkg/restore"
	"github.com/spf13/viper"
)

// CLIConfig describes the CLI configuration, from a config file or the environment
type CLIConfig struct {
	Backup        string `json:"backup" yaml:"backup" mapstructure:"backup"`
	HFHome        string `json:"hf_home" yaml:"hf_home" mapstructure:"hf_home"`
	HFToken       string `json:"hf_token,omitempty" yaml:"hf_token,omitempty" mapstructure:"hf_token"`
	HFEndpoint    string `json:"hf_endpoint,omitempty" yaml:"hf_endpoint,omitempty" mapstructure:"hf_endpoint"`
	ComfyUIDir    string `json:"comfyui_dir" yaml:"comfyui_dir" mapstructure:"comfyui_dir"`
	BackupTmp     string `json:"backup_tmp" yaml:"backup_tmp" mapstructure:"backup_tmp"`
	ManagerCLI    string `json:"manager_cli,omitempty" yaml:"manager_cli,omitempty" mapstructure:"manager_cli"`
	RestoreBackup string `json:"restore_backup,omitempty" yaml:"restore_backup,omitempty" mapstructure:"restore_backup"`
	CivitaiToken  string `json:"civitai_token,omitempty" yaml:"civitai_token,omitempty" mapstructure:"civitai_token"`
}

// configEnv maps configuration keys to the environment variables set on the container
var configEnv = map[string]string{
	"backup":         "COMFYUI_BACKUP",
	"hf_home":        "HF_HOME",
	"hf_token":       "HF_TOKEN",
	"hf_endpoint":    "HF_ENDPOINT",
	"comfyui_dir":    "COMFYUI_DIR",
	"backup_tmp":     "BACKUP_TMP",
	"manager_cli":    "COMFY_MANAGER_CLI",
	"restore_backup": "RESTORE_BACKUP",
	"civitai_token":  "CIVITAI_TOKEN",
}

func defaultHFHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "huggingface")
	}
	return filepath.Join(home, ".cache", "huggingface")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetDefault("hf_home", defaultHFHome())
	viper.SetDefault("comfyui_dir", restore.DefaultComfyUIDir)
	viper.SetDefault("backup_tmp", restore.DefaultWorkDir)
	viper.SetDefault("restore_backup", "0")
	if os.Getenv("COMFYRESTORE_CONFIG") != "" {
		viper.SetConfigFile(os.Getenv("COMFYRESTORE_CONFIG"))
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.comfyrestore")
		viper.AddConfigPath("/etc/comfyrestore")
		viper.SetConfigName("comfyrestore")
	}

	for key, env := range configEnv {
		_ = viper.BindEnv(key, env)
	}
	viper.AutomaticEnv() // read in environment variables that match
	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Println("Using config file:", viper.ConfigFileUsed())
	}
	var err error
	config, err = newConfig()
	if err != nil {
		logFatalln(err)
		return
	}
	config.setRestoreParams(&restoreFlags)
}

func newConfig() (*CLIConfig, error) {
	var config CLIConfig
	err := viper.Unmarshal(&config)
	if err != nil {
		return nil, err
	}
	return &config, nil
}

// setRestoreParams fills flags left unset from the configuration
func (c *CLIConfig) setRestoreParams(flags *flagsT) {
	if flags.root.backup == "" {
		flags.root.backup = c.Backup
	}
	if flags.hub.endpoint == "" {
		flags.hub.endpoint = c.HFEndpoint
	}
	if flags.hub.token == "" {
		flags.hub.token = c.HFToken
	}
	if flags.hub.hfHome == "" {
		flags.hub.hfHome = c.HFHome
	}
	if flags.restore.comfyUIDir == "" {
		flags.restore.comfyUIDir = c.ComfyUIDir
	}
	if flags.restore.workDir == "" {
		flags.restore.workDir = c.BackupTmp
	}
	if flags.restore.managerCLI == "" {
		flags.restore.managerCLI = c.ManagerCLI
	}
}
