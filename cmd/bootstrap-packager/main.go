package main

import "github.com/paradise-app/bootstrapper/cmd/bootstrap-packager/cmd"

func main() {
	cmd.Execute()
}
