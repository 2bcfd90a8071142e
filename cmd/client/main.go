package main

import "coinkeeper/cmd/client/cmd"

func main() {
	cmd.Execute()
}
