package utils

import (
	"fmt"
	"log"

	"github.com/ttacon/chalk"
)

// Assert panics with msg when an internal invariant does not hold
func Assert(ok bool, msg string) {
	if !ok {
		fmt.Print(chalk.Red)
		log.Print(msg, chalk.Reset)
		log.Panic(msg)
	}
}
