package config

import (
	"errors"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Game     GameConfig     `mapstructure:"game"`
	Database DatabaseConfig `mapstructure:"database"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
	PublicURL      string `mapstructure:"public_url"`
}

type GameConfig struct {
	QuestionsPath    string `mapstructure:"questions_path"`
	MaxQuestions     int    `mapstructure:"max_questions"`
	QuestionSeconds  int    `mapstructure:"question_seconds"`
	HostGraceSeconds int    `mapstructure:"host_grace_seconds"`
	IdleGraceSeconds int    `mapstructure:"idle_grace_seconds"`
}

type DatabaseConfig struct {
	Driver   string         `mapstructure:"driver"` // memory | postgres | gorm
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

func setDefaults() {
	viper.SetDefault("server.http_address", ":8080")
	viper.SetDefault("server.rpc_address", ":8081")
	viper.SetDefault("server.metrics_address", ":9100")
	viper.SetDefault("server.public_url", "http://localhost:8080")
	viper.SetDefault("game.questions_path", "questions.csv")
	viper.SetDefault("game.max_questions", 30)
	viper.SetDefault("game.question_seconds", 120)
	viper.SetDefault("game.host_grace_seconds", 60)
	viper.SetDefault("game.idle_grace_seconds", 300)
	viper.SetDefault("database.driver", "memory")
	viper.SetDefault("database.postgres.host", "localhost")
	viper.SetDefault("database.postgres.port", 5432)
	viper.SetDefault("database.postgres.user", "quizroom")
	viper.SetDefault("database.postgres.dbname", "quizroom")
}

// LoadConfig reads config.yaml from path. A missing file is not an error;
// defaults and environment variables still apply.
func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("quizroom")
	viper.AutomaticEnv()

	setDefaults()

	err = viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	err = viper.Unmarshal(&config)
	return
}
