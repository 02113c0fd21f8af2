package main

import (
	"os"

	adamcmder "github.com/papercomputeco/adam/cmd/adam"
)

func main() {
	cmd := adamcmder.NewAdamCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
