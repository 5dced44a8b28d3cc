package main

import "github.com/OpenTraceLab/OpenTraceVia/cmd/viagrid/cmd"

func main() {
	cmd.Execute()
}
