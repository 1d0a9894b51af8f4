package main

import "docsdiff/cmd"

func main() {
	cmd.Execute()
}
