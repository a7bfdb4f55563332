package main

import "github.com/MeKo-Tech/heightfield/internal/cmd"

func main() {
	cmd.Execute()
}
