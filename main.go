package main

import (
	"log"

	"github.com/anoixa/media-library/cmd"
	"github.com/anoixa/media-library/config"
)

func main() {
	log.Printf("media library %s (%s)", config.Version, config.CommitHash)
	cmd.Execute()
}
