// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "trajlink")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "trajlink.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 1048576)
	viper.SetDefault("main.log.rotationday", "Sunday")

	viper.SetDefault("input.pattern", "*.txt")

	viper.SetDefault("output.dir", "output/")
	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "trajlink.db")

	viper.SetDefault("linker.javapath", "java")
	viper.SetDefault("linker.jarpath", "ParticleLinker.jar")
	viper.SetDefault("linker.linkrange", 2)
	viper.SetDefault("linker.displacement", 10.0)
	viper.SetDefault("linker.timeout", 168*time.Hour)
	viper.SetDefault("linker.copyruntime", false)

	viper.SetDefault("pool.memorymb", 0)
	viper.SetDefault("pool.workermemorymb", 2000)
	viper.SetDefault("pool.maxworkers", 4)
	viper.SetDefault("pool.cores", 0)
	viper.SetDefault("pool.minvideosperworker", 5)

	viper.SetDefault("kinematics.framerate", 25.0)

	viper.SetDefault("workspace.basedir", "")
}
