// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "WildWatch-Go")
	viper.SetDefault("main.log.enabled", false)
	viper.SetDefault("main.log.path", "wildwatch.log")

	viper.SetDefault("camera.location", "633800")

	viper.SetDefault("detection.endpoint", "https://detect.roboflow.com")
	viper.SetDefault("detection.apikey", "")
	viper.SetDefault("detection.model", "wild-animal-x055y/1")
	viper.SetDefault("detection.timeout", 30*time.Second)
	viper.SetDefault("detection.threshold", 0.3)

	viper.SetDefault("notification.enabled", true)
	viper.SetDefault("notification.smtp.host", "smtp.gmail.com")
	viper.SetDefault("notification.smtp.port", 465)
	viper.SetDefault("notification.smtp.username", "")
	viper.SetDefault("notification.smtp.password", "")
	viper.SetDefault("notification.smtp.from", "")
	viper.SetDefault("notification.timeout", 15*time.Second)

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "wildwatch.db")
	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "wildwatch")
	viper.SetDefault("output.mysql.password", "wildwatch")
	viper.SetDefault("output.mysql.database", "wildwatch")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.port", "8080")
	viper.SetDefault("webserver.debug", false)

	viper.SetDefault("upload.path", "uploads/")
	viper.SetDefault("upload.maxsize", 5*1024*1024)
}
