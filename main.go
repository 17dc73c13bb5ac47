package main

import "github.com/deploymenttheory/go-ibackup/cmd"

func main() {
	cmd.Execute()
}
