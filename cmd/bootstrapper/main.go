package main

import "github.com/paradise-app/bootstrapper/cmd/bootstrapper/cmd"

func main() {
	cmd.Execute()
}
