package main

import "github.com/example/go-wordchipper/internal/bench/stageprof"

func main() {
	stageprof.Main()
}
