package main

import (
	"os"

	"github.com/charmbracelet/log"

	"github.com/ripple-mq/echor/cmd"
	"github.com/ripple-mq/echor/pkg/utils/pen"
)

func main() {
	if err := pen.InitLog(); err != nil {
		log.Fatal("unable to initialise logging", "err", err)
	}
	os.Exit(cmd.Execute())
}
