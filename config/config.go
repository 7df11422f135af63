package config

import (
	"context"

	"github.com/sethvargo/go-envconfig"

	"github.com/fiolab/fio-fetcher/fetcher"
	"github.com/fiolab/fio-fetcher/fio"
	"github.com/fiolab/fio-fetcher/pkg/postgres"
	"github.com/fiolab/fio-fetcher/server"
)

type Config struct {
	Debug bool            `env:"APP_DEBUG"`
	DB    postgres.Config `env:",prefix=DB_"`
	Fio   fio.Config      `env:",prefix=FIO_"`
	Fetch fetcher.Config  `env:",prefix=FETCH_"`
	HTTP  server.Config   `env:",prefix=HTTP_"`
}

func ParseEnv(ctx context.Context) (Config, error) {
	cfg := Config{}
	return cfg, envconfig.Process(ctx, &cfg)
}
