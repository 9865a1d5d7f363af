package main

import "damage-vision/cmd"

func main() {
	cmd.Execute()
}
