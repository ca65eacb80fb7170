package main

import "crew-route-service/internal/cli"

func main() {
	cli.Execute()
}
