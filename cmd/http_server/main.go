package main

import (
	"github.com/labstack/gommon/log"
	"github.com/radhian/payout-disbursement/config"
	"github.com/radhian/payout-disbursement/controllers"
)

func main() {
	cfg := config.Load()
	cfg.SetupLogger()

	app := controllers.App{}
	if err := app.Initialize(cfg); err != nil {
		log.Fatal("This is the error: ", err)
	}
	defer app.Close()

	app.InitializeRouter()
	app.RunServer()
}
