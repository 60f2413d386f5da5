package main

import (
	"seqbias/internal/app"
	"seqbias/internal/appshell"
)

func main() { appshell.Main(app.RunContext) }
