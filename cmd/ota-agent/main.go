package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/otakit/ota-agent/cmd/ota-agent/app"
)

func main() {
	app.NewApp().Run()
}
