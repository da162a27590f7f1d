package main

import (
	"os"

	"github.com/sisaket-charity/go-backend/internal/app"
	config "github.com/sisaket-charity/go-backend/internal/cfg"
	"github.com/sisaket-charity/go-backend/pkg/logger"
)

//	@title			Sisaket Charity Store API
//	@version		1.0
//	@description	Бэкенд благотворительного магазина: каталог, заказы, оплата по слипу

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization

func main() {
	log := logger.NewSlogLogger()

	cfg, err := config.Load(log)
	if err != nil {
		log.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Errorf(err, "failed to initialize app")
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		os.Exit(1)
	}
}
