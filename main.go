package main

import (
	"github.com/juliema/TRAM/cmd"
)

func main() {
	cmd.Execute() // initialize cobra commands
}
