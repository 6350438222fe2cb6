package main

import (
	"flag"

	"github.com/ilyalavrinov/coviddash/internal/coviddash"
	log "github.com/sirupsen/logrus"
)

const cfgFilename = "coviddash.cfg"

var config = flag.String("config", cfgFilename, "path to configuration file")

func main() {
	flag.Parse()
	log.Print("Starting covid dashboard")

	err := coviddash.Start(*config)
	if err != nil {
		log.Printf("Covid dashboard could not be started due to error: %s", err)
	}

	log.Print("Covid dashboard has stopped working")
}
