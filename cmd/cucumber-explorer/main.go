package main

import "github.com/Code-Grump/vscode-cucumber-test-adapter/cli"

// version can be set during build with -ldflags
var version = "dev"

func main() {
	cli.Execute(version, nil)
}
