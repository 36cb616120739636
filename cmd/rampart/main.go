package main

import "github.com/rampart-sh/rampart/cmd/rampart/cmd"

func main() {
	cmd.Execute()
}
