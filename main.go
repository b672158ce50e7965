package main

import "github.com/workdeskhq/workdesk/cmd"

func main() {
	cmd.Execute()
}
