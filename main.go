package main

import "github.com/ryan-gang/dbalert/cmd"

func main() {
	cmd.Execute()
}
