package main

import (
	"Zenith/cmd"
)

func main() {
	cmd.Execute()
}
