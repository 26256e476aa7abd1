package cmd

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	hemesh "github.com/flywave/go-hemesh"
)

type rootOpts struct {
	cfgFile     string
	debugModeOn bool
}

var rootOpt rootOpts

var longRootCmdDescription = `hemesh inspects and edits polygon meshes stored as glTF (.glb/.gltf)
or as native half-edge files (.hem). Every edit runs through the undo
history and is checked for structural validity before it is written.
`

var rootCmd = &cobra.Command{
	Use:           "hemesh",
	Short:         "Inspect and edit half-edge meshes.",
	Long:          longRootCmdDescription,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command; it is called once by main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Errorf("hemesh: %v", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(NewStatsCmd(), NewValidateCmd())
	rootCmd.AddCommand(NewOperatorCmds()...)

	rootCmd.PersistentFlags().StringVar(&rootOpt.cfgFile, "config", "", "config file (yaml, json or toml) with operator defaults")
	rootCmd.PersistentFlags().BoolVarP(&rootOpt.debugModeOn, "debug", "d", false, "turn on debug logging")
	rootCmd.DisableAutoGenTag = true
}

// initConfig reads the config file and HEMESH_* environment variables.
func initConfig() {
	if rootOpt.cfgFile != "" {
		viper.SetConfigFile(rootOpt.cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			logrus.Warnf("failed to read config %s: %v", rootOpt.cfgFile, err)
		}
	}
	viper.SetEnvPrefix("hemesh")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if rootOpt.debugModeOn || viper.GetBool("debug") {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
	logrus.SetLevel(logger.GetLevel())
	hemesh.SetLogger(logger)
}
