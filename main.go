package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jkobber/quizroom/config"
	"github.com/jkobber/quizroom/logger"
	"github.com/jkobber/quizroom/persistence"
	"github.com/jkobber/quizroom/server"
)

const releaseVersion = "0.1.0"

func newCmd() *cobra.Command {
	var (
		configPath string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:     "quizroom",
		Short:   "Real-time multiplayer quiz server",
		Version: releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			// optional .env for local development
			godotenv.Load()

			logger.Init(verbose)

			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			gameServer := server.NewGameServer(cfg, store)

			logger.Log.Infof("Starting quizroom %s on %s", releaseVersion, cfg.Server.HTTPAddress)
			return gameServer.Start()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", ".", "directory containing config.yaml")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.Flags().String("questions", "questions.csv", "path to the questions CSV file")
	viper.BindPFlag("game.questions_path", cmd.Flags().Lookup("questions"))

	return cmd
}

func openStore(cfg *config.Config) (persistence.Store, error) {
	pg := cfg.Database.Postgres

	switch cfg.Database.Driver {
	case "postgres":
		return persistence.NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	case "gorm":
		return persistence.NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	default:
		return persistence.NewMemoryStore(), nil
	}
}

func main() {
	cobra.CheckErr(newCmd().Execute())
}
