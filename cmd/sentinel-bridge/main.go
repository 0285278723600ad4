package main

import "github.com/asavelyev/sentinel-bridge/cmd/sentinel-bridge/cmd"

func main() {
	cmd.Execute()
}
