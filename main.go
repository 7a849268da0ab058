package main

import "github.com/Sena-ops/codesweep/cmd"

func main() {
	cmd.Execute()
}
