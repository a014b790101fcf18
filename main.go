package main

import (
	"os"

	"github.com/sailor103/pcdn-ban-ip-for-jiangsu/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
