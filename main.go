package main

import "github.com/Digital-Shane/quickfill/internal/cmd"

func main() {
	cmd.Execute()
}
