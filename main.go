package main

import "dupescan/cmd"

func main() {
	cmd.Execute()
}
