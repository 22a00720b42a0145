package configuration

import (
	"os"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/mitchellh/mapstructure"
	"github.com/opentrickler/trickle2go/internal/ui"
	"github.com/spf13/viper"
)

type Configuration struct {
	DbPath string `json:"dbPath"`

	Scale      ScaleConfig      `json:"scale"`
	Motor      MotorConfig      `json:"motor"`
	PID        PidConfig        `json:"pid"`
	Controller ControllerConfig `json:"controller"`

	Api        ApiConfig        `json:"api"`
	Bluetooth  BluetoothConfig  `json:"bluetooth"`
	Statistics StatisticsConfig `json:"statistics"`
}

var CurrentConfig Configuration

// InitConfig reads in config file and ENV variables if set.
func InitConfig(cfgFile string) {
	viper.SetConfigName("trickle2go")

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			ui.Error("Couldn't detect home directory: %v", err)
			os.Exit(1)
		}

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.AddConfigPath("/etc/trickle2go/")
	}

	viper.AutomaticEnv() // read in environment variables that match

	setDefaultValues()
}

func setDefaultValues() {
	viper.SetDefault("dbpath", "/etc/trickle2go/trickle2go.db")

	viper.SetDefault("scale.model", "and")
	viper.SetDefault("scale.port", "/dev/ttyUSB0")
	viper.SetDefault("scale.baudrate", 0)
	viper.SetDefault("scale.timeout", 0*time.Second)
	viper.SetDefault("scale.stablereadinglength", 5)
	viper.SetDefault("scale.statusmapversion", 1)

	viper.SetDefault("motor.pwmchannelpath", "/sys/class/pwm/pwmchip0/pwm0")
	viper.SetDefault("motor.pwmperiod", 100*time.Microsecond)
	viper.SetDefault("motor.minpwm", 15)
	viper.SetDefault("motor.maxpwm", 100)

	viper.SetDefault("pid.p", 10.0)
	viper.SetDefault("pid.i", 2.0)
	viper.SetDefault("pid.d", 1.0)
	viper.SetDefault("pid.stallthreshold", 5.0)
	viper.SetDefault("pid.tunermode", false)
	viper.SetDefault("pid.tunerlogpath", "/var/log/trickle2go-pidtune.csv")

	viper.SetDefault("controller.tolerance", "0.0")
	viper.SetDefault("controller.startdelay", 1*time.Second)

	viper.SetDefault("api.enabled", true)
	viper.SetDefault("api.host", "127.0.0.1")
	viper.SetDefault("api.port", 8080)

	viper.SetDefault("bluetooth.enabled", false)
	viper.SetDefault("bluetooth.name", "Trickler")

	viper.SetDefault("statistics.enabled", false)
	viper.SetDefault("statistics.port", 9000)
}

func ReadConfigFile() {
	if err := viper.ReadInConfig(); err != nil {
		// config file is required, so we fail here
		ui.Fatal("Error reading config file, %s", err)
	}
	// this is only populated _after_ ReadInConfig()
	ui.Info("Using configuration file at: %s", viper.ConfigFileUsed())

	LoadConfig()
	if err := Validate(); err != nil {
		ui.Fatal("Config validation failed: %v", err)
	}
}

func LoadConfig() {
	err := viper.Unmarshal(
		&CurrentConfig,
		viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			DecimalHookFunc(),
		)),
	)
	if err != nil {
		ui.Fatal("unable to decode into struct, %v", err)
	}
}
