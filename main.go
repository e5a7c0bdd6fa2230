package main

import "TianHe-LiveSim/cmd"

func main() {
	cmd.Execute()
}
