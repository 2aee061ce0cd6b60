package main

import "github.com/VoxDroid/mstpkit/cmd"

func main() {
	cmd.Execute()
}
