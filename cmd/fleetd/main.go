package main

import "github.com/ramiqadoumi/go-fleet-dispatch/services/fleet/cli"

func main() {
	cli.Execute()
}
